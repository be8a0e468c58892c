package cli

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"

	"github.com/0x00002a/cinc/pkg/config"
)

// RunBackends implements `cinc backends add|remove|list|set-default …`.
func RunBackends(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: cinc backends <add|remove|list|set-default> ...")
		return 2
	}

	switch args[0] {
	case "list":
		return backendsList(args[1:])
	case "add":
		return backendsAdd(args[1:])
	case "remove":
		return backendsRemove(args[1:])
	case "set-default":
		return backendsSetDefault(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown backends subcommand %q\n", args[0])
		return 2
	}
}

// openBackendsConfig binds the global flags onto fs, parses args, and
// opens the config the resolved flags point at.
func openBackendsConfig(fs *flag.FlagSet, args []string) (*config.Instance, *Globals, []string, int) {
	globals := bindGlobals(fs)
	if err := fs.Parse(args); err != nil {
		return nil, nil, nil, 2
	}
	configDir := filepath.Join(xdg.ConfigHome, appDirName)
	cfg, err := openConfig(configDir, globals.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "backends: %v\n", err)
		return nil, nil, nil, 1
	}
	return cfg, globals, fs.Args(), 0
}

func backendsList(args []string) int {
	fs := flag.NewFlagSet("backends list", flag.ContinueOnError)
	cfg, _, _, code := openBackendsConfig(fs, args)
	if cfg == nil {
		return code
	}
	def, _ := cfg.DefaultBackend()
	for _, b := range cfg.Backends() {
		marker := "  "
		if b.Name == def.Name {
			marker = "* "
		}
		fmt.Println(marker + b.String())
	}
	return 0
}

func backendsAdd(args []string) int {
	fs := flag.NewFlagSet("backends add", flag.ContinueOnError)
	name := fs.String("name", "", "backend name")
	typ := fs.String("type", "", "filesystem|webdav")
	root := fs.String("root", "", "root path (filesystem) or root path component (webdav)")
	url := fs.String("url", "", "base URL (webdav only)")
	username := fs.String("username", "", "basic auth username (webdav only)")
	password := fs.String("password", "", "basic auth password (webdav only)")
	setDefault := fs.Bool("default", false, "make this the default backend")

	cfg, globals, _, code := openBackendsConfig(fs, args)
	if cfg == nil {
		return code
	}
	if *name == "" {
		fmt.Fprintln(os.Stderr, "backends add: --name is required")
		return 2
	}

	var backendType config.BackendType
	switch *typ {
	case string(config.BackendFilesystem):
		backendType = config.BackendFilesystem
	case string(config.BackendWebDAV):
		backendType = config.BackendWebDAV
	default:
		fmt.Fprintf(os.Stderr, "backends add: --type must be %q or %q\n", config.BackendFilesystem, config.BackendWebDAV)
		return 2
	}

	bc := config.BackendConfig{
		Name:     *name,
		Type:     backendType,
		Root:     *root,
		URL:      *url,
		Username: *username,
		Password: *password,
	}
	if globals.DryRun {
		fmt.Printf("dry-run: would add backend %s\n", bc.String())
		return 0
	}
	if err := cfg.AddBackend(bc, *setDefault); err != nil {
		fmt.Fprintf(os.Stderr, "backends add: %v\n", err)
		return 1
	}
	return 0
}

func backendsRemove(args []string) int {
	fs := flag.NewFlagSet("backends remove", flag.ContinueOnError)
	cfg, globals, rest, code := openBackendsConfig(fs, args)
	if cfg == nil {
		return code
	}
	if len(rest) != 1 {
		fmt.Fprintln(os.Stderr, "usage: cinc backends remove [flags] <name>")
		return 2
	}
	if globals.DryRun {
		fmt.Printf("dry-run: would remove backend %s\n", rest[0])
		return 0
	}
	if err := cfg.RemoveBackend(rest[0]); err != nil {
		fmt.Fprintf(os.Stderr, "backends remove: %v\n", err)
		return 1
	}
	return 0
}

func backendsSetDefault(args []string) int {
	fs := flag.NewFlagSet("backends set-default", flag.ContinueOnError)
	cfg, globals, rest, code := openBackendsConfig(fs, args)
	if cfg == nil {
		return code
	}
	if len(rest) != 1 {
		fmt.Fprintln(os.Stderr, "usage: cinc backends set-default [flags] <name>")
		return 2
	}
	if globals.DryRun {
		fmt.Printf("dry-run: would set default backend to %s\n", rest[0])
		return 0
	}
	if err := cfg.SetDefaultBackend(rest[0]); err != nil {
		fmt.Fprintf(os.Stderr, "backends set-default: %v\n", err)
		return 1
	}
	return 0
}
