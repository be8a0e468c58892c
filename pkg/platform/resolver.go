// Package platform turns a launch invocation (argv + environment) into
// the game's manifest entry and the TemplateInfo needed to resolve its
// save paths, by detecting whether the invocation came through Steam or
// an umu/Wine prefix.
package platform

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/0x00002a/cinc/pkg/manifest"
	"github.com/0x00002a/cinc/pkg/template"
)

// Kind identifies which launcher dispatched the game process.
type Kind int

const (
	KindAuto Kind = iota
	KindSteam
	KindUmu
)

// ErrUnresolvable is returned when Resolve cannot tell which platform
// launched the game and the caller did not force one.
var ErrUnresolvable = errors.New("platform: could not determine launch platform, pass --platform explicitly")

// ErrGameNotInManifest is returned when platform detection succeeds but
// no manifest entry matches the resolved app.
var ErrGameNotInManifest = errors.New("platform: no manifest entry matches this launch")

const umuExeName = "umu-run"
const wineExeName = "wine"

// DetectKind inspects argv (the command cinc was asked to wrap) to
// guess which launcher is in play, the same precedence order as an
// explicit --platform flag.
func DetectKind(forced Kind, argv []string) (Kind, error) {
	if forced != KindAuto {
		return forced, nil
	}
	for _, tok := range argv {
		if strings.HasPrefix(tok, "AppId=") {
			return KindSteam, nil
		}
	}
	if len(argv) > 0 {
		base := filepath.Base(argv[0])
		if base == umuExeName || base == wineExeName {
			return KindUmu, nil
		}
	}
	return KindAuto, ErrUnresolvable
}

// Resolution is everything LaunchOrchestrator needs to proceed past
// platform detection: the matched manifest entry, the local
// TemplateInfo to resolve save paths against, and the remote
// TemplateInfo used to compute stable archive keys.
type Resolution struct {
	GameName string
	Game     manifest.Game
	Local    template.Info
	Remote   template.Info
}

// Options carries the caller-supplied overrides that affect resolution.
type Options struct {
	Forced        Kind
	ManifestAppID uint32 // --steam-app-id override, manifest lookup only
}

// Resolve runs platform detection and manifest matching for a launch
// invocation, given the command argv cinc was told to run and the
// manifest to search.
func Resolve(opts Options, argv []string, env UmuEnv, m manifest.Manifest) (Resolution, error) {
	kind, err := DetectKind(opts.Forced, argv)
	if err != nil {
		return Resolution{}, err
	}
	switch kind {
	case KindSteam:
		return resolveSteam(opts, argv, m)
	case KindUmu:
		return resolveUmu(argv, env, m)
	default:
		return Resolution{}, ErrUnresolvable
	}
}

func resolveSteam(opts Options, argv []string, m manifest.Manifest) (Resolution, error) {
	var appID uint32
	found := false
	for _, tok := range argv {
		if rest, ok := strings.CutPrefix(tok, "AppId="); ok {
			id, err := strconv.ParseUint(rest, 10, 32)
			if err != nil {
				return Resolution{}, fmt.Errorf("platform: invalid AppId token %q: %w", tok, err)
			}
			appID = uint32(id)
			found = true
			break
		}
	}
	if !found {
		return Resolution{}, fmt.Errorf("platform: steam launch with no AppId= token in argv")
	}

	lookupID := appID
	if opts.ManifestAppID != 0 {
		lookupID = opts.ManifestAppID
	}
	gameName, game, ok := m.FindBySteamID(lookupID)
	if !ok {
		return Resolution{}, ErrGameNotInManifest
	}

	app, ok := ResolveSteamApp(appID)
	if !ok {
		return Resolution{}, fmt.Errorf("platform: could not locate steam app %d on disk", appID)
	}

	installDir := game.InstallDirName()
	if installDir == "" {
		installDir = gameName
	}

	local := template.Info{
		WinPrefix:  filepath.Join(app.LibraryRoot, "steamapps", "compatdata", strconv.FormatUint(uint64(appID), 10), "pfx", "drive_c"),
		WinUser:    "steamuser",
		BaseDir:    filepath.Join(app.LibraryRoot, "steamapps", "common", app.RawInstallDir),
		Root:       app.LibraryRoot,
		InstallDir: installDir,
	}
	if app.LastOwnerID != 0 {
		local.StoreUserID = strconv.FormatUint(uint64(SteamIDToID3(app.LastOwnerID)), 10)
	}

	return Resolution{
		GameName: gameName,
		Game:     game,
		Local:    local,
		Remote:   remoteInfo(),
	}, nil
}

func resolveUmu(argv []string, env UmuEnv, m manifest.Manifest) (Resolution, error) {
	if len(argv) < 2 {
		return Resolution{}, fmt.Errorf("platform: expected a command to invoke for umu")
	}
	exePath := argv[1]

	var gameName string
	var game manifest.Game
	ok := false
	if env.HeroicAppSource == "gog" && env.HeroicAppName != "" {
		gameName, game, ok = m.FindByGOGID(gogIDFromHeroicAppName(env.HeroicAppName))
	}
	if !ok {
		gameName, game, ok = FindUmuMatch(m, exePath)
	}
	if !ok {
		return Resolution{}, ErrGameNotInManifest
	}

	winPrefix := filepath.Join(env.WinePrefix, "pfx", "drive_c")
	local := template.Info{
		WinPrefix: winPrefix,
		WinUser:   "steamuser",
		HomeDir:   filepath.Join(winPrefix, "users", "steamuser"),
	}
	if env.HeroicAppName != "" {
		local.Root = env.HeroicGamesRoot()
	}

	return Resolution{
		GameName: gameName,
		Game:     game,
		Local:    local,
		Remote:   remoteInfo(),
	}, nil
}

// gogIDFromHeroicAppName extracts the numeric GOG product id Heroic
// encodes in its app name for GOG titles.
func gogIDFromHeroicAppName(name string) uint32 {
	id, err := strconv.ParseUint(strings.TrimPrefix(name, "gog_"), 10, 32)
	if err != nil {
		return 0
	}
	return uint32(id)
}

// remoteInfo builds the TemplateInfo used for computing remote archive
// keys: every variable substitutes its own literal name, so the same
// template path always maps to the same remote key regardless of which
// machine or prefix is doing the resolving. BaseDir is always set here,
// so <base> never exercises its <root>/<game> fallback remotely; that's
// fine for key stability (it's one name either way) but means a
// manifest authored purely against <root>/<game> never gets a
// remote-side regression test for that path.
func remoteInfo() template.Info {
	return template.Info{
		WinPrefix:   "winPrefix",
		WinUser:     "winUser",
		BaseDir:     "base",
		Root:        "root",
		StoreUserID: "storeUserId",
		HomeDir:     "home",
		XDGConfig:   "xdgConfig",
		XDGData:     "xdgData",
		InstallDir:  "game",
	}
}
