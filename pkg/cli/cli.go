// Package cli is the thin glue this binary's core never depends on:
// flag parsing and subcommand dispatch. It wires the core packages
// (platform, manifest, sync, backend, launch) together but contains no
// synchronization logic of its own.
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/0x00002a/cinc/pkg/backend"
	"github.com/0x00002a/cinc/pkg/config"
	"github.com/0x00002a/cinc/pkg/launch"
	"github.com/0x00002a/cinc/pkg/secrets"
)

// Globals are the flags available to every subcommand.
type Globals struct {
	DryRun      bool
	ConfigPath  string
	Update      bool
	NoPanicHook bool
}

// bindGlobals registers the global flags onto fs.
func bindGlobals(fs *flag.FlagSet) *Globals {
	g := &Globals{}
	fs.BoolVar(&g.DryRun, "dry-run", false, "suppress every backend write and local config write")
	fs.BoolVar(&g.DryRun, "n", false, "shorthand for --dry-run")
	fs.StringVar(&g.ConfigPath, "config", "", "path to the config file (overrides the default location)")
	fs.BoolVar(&g.Update, "update", false, "force a refresh of the cached manifest")
	fs.BoolVar(&g.NoPanicHook, "no-panic-hook", false, "don't install the native crash dialog panic handler")
	return g
}

// Main dispatches to the launch or backends subcommand and returns the
// process exit code.
func Main(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: cinc <launch|backends> ...")
		return 2
	}
	switch args[0] {
	case "launch":
		return RunLaunch(args[1:])
	case "backends":
		return RunBackends(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand %q\n", args[0])
		return 2
	}
}

// installPanicHook returns a deferrable recover-and-report handler. Any
// native crash dialog host is a drop-in replacement for d; the default
// binary uses the terminal dialog.
func installPanicHook(disabled bool, d launch.Dialog) func() {
	if disabled {
		return func() {}
	}
	return func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("unrecoverable error")
			d.ShowError(fmt.Errorf("panic: %v", r))
			os.Exit(1)
		}
	}
}

// openConfig loads the on-disk config, creating it with defaults on
// first run. When explicitPath is set it overrides the computed
// default location.
func openConfig(configDir, explicitPath string) (*config.Instance, error) {
	dir := configDir
	if explicitPath != "" {
		dir = ""
		os.Setenv(config.CfgEnv, explicitPath) //nolint:errcheck // best effort override
	}
	return config.NewConfig(dir, config.BaseDefaults)
}

// buildBackendPort constructs the Port for cfg, resolving its WebDAV
// password through resolver (an inline password resolves to itself; a
// keyring-backed Resolver would look up a named reference instead).
func buildBackendPort(ctx context.Context, cfg config.BackendConfig, resolver secrets.Resolver, game string) (backend.Port, error) {
	switch cfg.Type {
	case config.BackendWebDAV:
		password := cfg.Password
		if resolver != nil {
			resolved, err := resolver.Resolve(secrets.Ref{Inline: cfg.Password})
			if err != nil {
				return nil, fmt.Errorf("resolve webdav secret for backend %q: %w", cfg.Name, err)
			}
			password = resolved
		}
		return backend.NewWebDAVBackend(ctx, backend.WebDAVConfig{
			URL:      cfg.URL,
			Root:     cfg.Root,
			Username: cfg.Username,
			Password: password,
		}, game), nil
	case config.BackendFilesystem:
		return backend.NewFilesystemBackend(afero.NewOsFs(), cfg.Root, game), nil
	default:
		return nil, fmt.Errorf("unknown backend type %q for backend %q", cfg.Type, cfg.Name)
	}
}
