package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog/log"

	"github.com/0x00002a/cinc/pkg/launch"
	"github.com/0x00002a/cinc/pkg/logging"
	"github.com/0x00002a/cinc/pkg/manifest"
	"github.com/0x00002a/cinc/pkg/platform"
	"github.com/0x00002a/cinc/pkg/secrets"
	"github.com/0x00002a/cinc/pkg/sync"
)

const appDirName = "cinc"

// RunLaunch implements `cinc launch [flags] -- <command> [args…]`.
func RunLaunch(args []string) int {
	fs := flag.NewFlagSet("launch", flag.ContinueOnError)
	globals := bindGlobals(fs)
	platformFlag := fs.String("platform", "auto", "steam|umu|auto")
	steamAppID := fs.Uint("steam-app-id", 0, "force manifest lookup by this Steam app id")
	uploadOnly := fs.Bool("upload-only", false, "skip the download phase and upload local saves directly")
	debugNoUpload := fs.Bool("debug-no-upload", false, "skip the upload phase")

	dashIdx := indexOfDoubleDash(args)
	flagArgs := args
	var command []string
	if dashIdx >= 0 {
		flagArgs = args[:dashIdx]
		command = args[dashIdx+1:]
	}
	if err := fs.Parse(flagArgs); err != nil {
		return 2
	}
	if len(command) == 0 {
		fmt.Fprintln(os.Stderr, "launch: expected -- <command> [args…]")
		return 2
	}

	configDir := filepath.Join(xdg.ConfigHome, appDirName)
	logDir := filepath.Join(xdg.CacheHome, appDirName)
	var consoleWriters []io.Writer
	if fi, statErr := os.Stderr.Stat(); statErr == nil && fi.Mode()&os.ModeCharDevice != 0 {
		consoleWriters = append(consoleWriters, logging.ConsoleWriter(os.Stderr))
	}
	closeLog, err := logging.Init(logDir, false, consoleWriters...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "launch: failed to init logging: %v\n", err)
		return 1
	}
	defer closeLog()

	dialog := launch.NewTerminalDialog(os.Stdin, os.Stderr)
	defer installPanicHook(globals.NoPanicHook, dialog)()

	cfg, err := openConfig(configDir, globals.ConfigPath)
	if err != nil {
		dialog.ShowError(err)
		return 1
	}

	backendCfg, ok := cfg.DefaultBackend()
	if !ok {
		dialog.ShowError(fmt.Errorf("no default backend configured, run `cinc backends add` first"))
		return 1
	}

	cacheDir := filepath.Join(xdg.CacheHome, appDirName)
	loader := manifest.NewLoader(cfg.ManifestURL(), cacheDir)
	m, err := loader.Load(globals.Update)
	if err != nil {
		dialog.ShowError(fmt.Errorf("load manifest: %w", err))
		return 1
	}

	forcedKind := platform.KindAuto
	switch *platformFlag {
	case "steam":
		forcedKind = platform.KindSteam
	case "umu":
		forcedKind = platform.KindUmu
	}

	resolution, err := platform.Resolve(
		platform.Options{Forced: forcedKind, ManifestAppID: uint32(*steamAppID)},
		command,
		platform.ReadUmuEnv(),
		m,
	)
	if err != nil {
		dialog.ShowError(err)
		return 1
	}

	store := manifest.Store("")
	if resolution.Game.Steam != nil {
		store = manifest.StoreSteam
	} else if resolution.Game.GOG != nil {
		store = manifest.StoreGOG
	}

	mgr, err := sync.Build(resolution.Game, resolution.Local, resolution.Remote, backendCfg.Name, store)
	if err != nil {
		dialog.ShowError(err)
		return 1
	}

	resolver := secrets.NewInlineResolver(nil)
	ctx := context.Background()
	port, err := buildBackendPort(ctx, backendCfg, resolver, resolution.GameName)
	if err != nil {
		dialog.ShowError(err)
		return 1
	}

	hostname, _ := os.Hostname()
	orch := &launch.Orchestrator{
		Backend:  port,
		Manager:  mgr,
		Dialog:   dialog,
		Hostname: hostname,
	}

	state, exitCode, err := orch.Run(command, launch.Options{
		UploadOnly:    *uploadOnly,
		DebugNoUpload: *debugNoUpload,
		DryRun:        globals.DryRun,
	})
	if err != nil {
		log.Error().Err(err).Str("state", state.String()).Msg("launch did not complete")
		if state == launch.StateUserAborted {
			return 0
		}
		return 1
	}
	return exitCode
}

func indexOfDoubleDash(args []string) int {
	for i, a := range args {
		if a == "--" {
			return i
		}
	}
	return -1
}

