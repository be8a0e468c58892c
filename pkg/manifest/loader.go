package manifest

import (
	"encoding/gob"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Loader fetches the YAML manifest from a URL and maintains a decoded
// binary cache alongside it, so that invocations without --update need
// no network access once a readable cache exists.
type Loader struct {
	URL       string
	CachePath string
	Client    *http.Client
}

// NewLoader builds a Loader that caches under cacheDir/manifest.cache.
func NewLoader(url, cacheDir string) *Loader {
	return &Loader{
		URL:       url,
		CachePath: filepath.Join(cacheDir, "manifest.cache"),
		Client:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Load returns the manifest, preferring the on-disk cache unless forceUpdate
// is set or the cache fails to decode, in which case it falls back to a
// fresh fetch from URL.
func (l *Loader) Load(forceUpdate bool) (Manifest, error) {
	if !forceUpdate {
		if m, err := l.loadCache(); err == nil {
			return m, nil
		} else {
			log.Debug().Err(err).Msg("manifest cache miss, fetching")
		}
	}
	m, err := l.fetch()
	if err != nil {
		if cached, cacheErr := l.loadCache(); cacheErr == nil {
			log.Warn().Err(err).Msg("manifest fetch failed, falling back to stale cache")
			return cached, nil
		}
		return nil, err
	}
	if err := l.saveCache(m); err != nil {
		log.Warn().Err(err).Msg("failed to persist manifest cache")
	}
	return m, nil
}

func (l *Loader) loadCache() (Manifest, error) {
	f, err := os.Open(l.CachePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var m Manifest
	if err := gob.NewDecoder(f).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode manifest cache: %w", err)
	}
	return m, nil
}

func (l *Loader) saveCache(m Manifest) error {
	if err := os.MkdirAll(filepath.Dir(l.CachePath), 0o755); err != nil {
		return err
	}
	tmp := l.CachePath + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(f).Encode(m); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, l.CachePath)
}

func (l *Loader) fetch() (Manifest, error) {
	resp, err := l.Client.Get(l.URL)
	if err != nil {
		return nil, fmt.Errorf("fetch manifest: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch manifest: unexpected status %s", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read manifest body: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(body, &m); err != nil {
		return nil, fmt.Errorf("parse manifest yaml: %w", err)
	}
	return m, nil
}
