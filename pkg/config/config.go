// Package config reads and writes the on-disk TOML configuration: the
// list of configured backends, the default backend, and the manifest URL.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
)

// SchemaVersion is bumped whenever Values changes shape incompatibly.
const SchemaVersion = 1

// CfgEnv, when set, overrides the default config file location.
const CfgEnv = "CINC_CFG"

const defaultManifestURL = "https://raw.githubusercontent.com/mtkennerly/ludusavi-manifest/master/data/manifest.yaml"

// BackendType names which Port implementation a BackendConfig addresses.
type BackendType string

const (
	BackendFilesystem BackendType = "filesystem"
	BackendWebDAV     BackendType = "webdav"
)

// BackendConfig is one entry in the backends list.
type BackendConfig struct {
	Name     string      `toml:"name"`
	Type     BackendType `toml:"type"`
	Root     string      `toml:"root,omitempty"`
	URL      string      `toml:"url,omitempty"`
	Username string      `toml:"username,omitempty"`
	Password string      `toml:"password,omitempty"`
}

// String renders a human-readable one-line summary, for "cinc backends list".
func (b BackendConfig) String() string {
	switch b.Type {
	case BackendWebDAV:
		return fmt.Sprintf("%s: webdav at %s%s (user %s)", b.Name, b.URL, b.Root, b.Username)
	default:
		return fmt.Sprintf("%s: filesystem at %s", b.Name, b.Root)
	}
}

// Values is the TOML-serializable config document.
type Values struct {
	ConfigSchema   int             `toml:"config_schema"`
	DeviceID       string          `toml:"device_id"`
	Backends       []BackendConfig `toml:"backends,omitempty"`
	DefaultBackend string          `toml:"default_backend,omitempty"`
	ManifestURL    string          `toml:"manifest_url"`
}

// BaseDefaults is used whenever a config file doesn't exist yet.
var BaseDefaults = Values{
	ConfigSchema: SchemaVersion,
	ManifestURL:  defaultManifestURL,
}

// Instance is a loaded, mutex-guarded config file, matching the
// load-once/mutate-in-memory/save-on-demand pattern this tool's CLI
// subcommands use (backends add/remove/set-default).
type Instance struct {
	mu      sync.RWMutex
	cfgPath string
	vals    Values
}

// NewConfig loads configDir's config file, creating it with defaults if
// absent.
func NewConfig(configDir string, defaults Values) (*Instance, error) {
	cfgPath := os.Getenv(CfgEnv)
	if cfgPath == "" {
		cfgPath = filepath.Join(configDir, "config.toml")
	}

	c := &Instance{cfgPath: cfgPath, vals: defaults}

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		log.Info().Str("path", cfgPath).Msg("saving new default config to disk")
		if err := os.MkdirAll(filepath.Dir(cfgPath), 0o750); err != nil {
			return nil, fmt.Errorf("create config directory: %w", err)
		}
		if err := c.Save(); err != nil {
			return nil, err
		}
	}

	if err := c.Load(); err != nil {
		return nil, err
	}
	return c, nil
}

// Load re-reads the config file from disk into memory.
func (c *Instance) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.cfgPath) //nolint:gosec // cfgPath is operator-controlled
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	var vals Values
	if err := toml.Unmarshal(data, &vals); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if vals.ManifestURL == "" {
		vals.ManifestURL = defaultManifestURL
	}
	c.vals = vals
	return nil
}

// Save writes the in-memory config to disk, stamping the current schema
// version and generating a device id on first save.
func (c *Instance) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfgPath == "" {
		return errors.New("config path not set")
	}

	c.vals.ConfigSchema = SchemaVersion
	if c.vals.DeviceID == "" {
		c.vals.DeviceID = uuid.New().String()
	}
	if c.vals.ManifestURL == "" {
		c.vals.ManifestURL = defaultManifestURL
	}

	data, err := toml.Marshal(&c.vals)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(c.cfgPath, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Backends returns a copy of the configured backend list.
func (c *Instance) Backends() []BackendConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]BackendConfig, len(c.vals.Backends))
	copy(out, c.vals.Backends)
	return out
}

// DefaultBackend returns the configured default backend's config and
// whether one was found. When no backend matches the default name and
// exactly one backend is configured, that backend is returned.
func (c *Instance) DefaultBackend() (BackendConfig, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, b := range c.vals.Backends {
		if b.Name == c.vals.DefaultBackend {
			return b, true
		}
	}
	if len(c.vals.Backends) == 1 {
		return c.vals.Backends[0], true
	}
	return BackendConfig{}, false
}

// ManifestURL returns the configured manifest URL.
func (c *Instance) ManifestURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.ManifestURL
}

// AddBackend appends a backend, optionally setting it as default.
func (c *Instance) AddBackend(b BackendConfig, setDefault bool) error {
	c.mu.Lock()
	for _, existing := range c.vals.Backends {
		if existing.Name == b.Name {
			c.mu.Unlock()
			return fmt.Errorf("backend %q already exists", b.Name)
		}
	}
	c.vals.Backends = append(c.vals.Backends, b)
	if setDefault || c.vals.DefaultBackend == "" {
		c.vals.DefaultBackend = b.Name
	}
	c.mu.Unlock()
	return c.Save()
}

// RemoveBackend deletes the named backend.
func (c *Instance) RemoveBackend(name string) error {
	c.mu.Lock()
	kept := c.vals.Backends[:0]
	found := false
	for _, b := range c.vals.Backends {
		if b.Name == name {
			found = true
			continue
		}
		kept = append(kept, b)
	}
	c.vals.Backends = kept
	if c.vals.DefaultBackend == name {
		c.vals.DefaultBackend = ""
	}
	c.mu.Unlock()
	if !found {
		return fmt.Errorf("backend %q not found", name)
	}
	return c.Save()
}

// SetDefaultBackend marks name as the default backend.
func (c *Instance) SetDefaultBackend(name string) error {
	c.mu.Lock()
	found := false
	for _, b := range c.vals.Backends {
		if b.Name == name {
			found = true
			break
		}
	}
	if found {
		c.vals.DefaultBackend = name
	}
	c.mu.Unlock()
	if !found {
		return fmt.Errorf("backend %q not found", name)
	}
	return c.Save()
}
