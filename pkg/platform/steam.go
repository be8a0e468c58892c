package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/andygrunwald/vdf"
	"github.com/rs/zerolog/log"
)

// SteamAppInfo is what the resolver needs out of a Steam app manifest:
// its raw install directory name and the library root it lives under,
// from which a TemplateInfo is built per the win_prefix/base_dir
// formulas the resolver applies.
type SteamAppInfo struct {
	AppID         uint32
	RawInstallDir string
	LibraryRoot   string
	LastOwnerID   uint64
}

// steamID3Offset is the Steam64-to-ID3 conversion constant.
const steamID3Offset uint64 = 76561197960265728

// SteamIDToID3 converts a 64-bit Steam ID to its ID3 (account number)
// form, per the direct-subtraction rule this resolver uses.
func SteamIDToID3(id64 uint64) uint32 {
	if id64 < steamID3Offset {
		return 0
	}
	return uint32(id64 - steamID3Offset)
}

// FindSteamDir locates the local Steam installation directory, checking
// the standard Linux path, the Steam Deck path, and the Flatpak path in
// that order.
func FindSteamDir() (string, bool) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", false
	}
	candidates := []string{
		filepath.Join(home, ".local", "share", "Steam"),
		filepath.Join(home, ".steam", "steam"),
		filepath.Join(home, ".var", "app", "com.valvesoftware.Steam", ".local", "share", "Steam"),
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && info.IsDir() {
			return c, true
		}
	}
	return "", false
}

// FindSteamAppsDir returns the steamapps directory under a Steam root.
func FindSteamAppsDir(steamDir string) string {
	return filepath.Join(steamDir, "steamapps")
}

// findAppLibraryRoot walks libraryfolders.vdf under the main Steam
// directory looking for the library root containing appID, trying the
// main library first. It returns the *library root* (the parent of its
// steamapps directory), matching the resolver's win_prefix/base_dir
// formulas which are expressed relative to that root.
func findAppLibraryRoot(steamDir string, appID uint32) (libraryRoot string, ok bool) {
	mainApps := FindSteamAppsDir(steamDir)
	if _, found := readAppManifest(mainApps, appID); found {
		return steamDir, true
	}
	libraryFoldersPath := filepath.Join(mainApps, "libraryfolders.vdf")
	f, err := os.Open(libraryFoldersPath) //nolint:gosec // reads local steam config
	if err != nil {
		log.Debug().Err(err).Msg("failed to open libraryfolders.vdf")
		return "", false
	}
	defer f.Close()

	m, err := vdf.NewParser(f).Parse()
	if err != nil {
		log.Warn().Err(err).Msg("failed to parse libraryfolders.vdf")
		return "", false
	}
	lfs, ok := m["libraryfolders"].(map[string]any)
	if !ok {
		return "", false
	}
	appIDStr := strconv.FormatUint(uint64(appID), 10)
	for _, v := range lfs {
		entry, ok := v.(map[string]any)
		if !ok {
			continue
		}
		if apps, ok := entry["apps"].(map[string]any); ok {
			if _, has := apps[appIDStr]; !has {
				continue
			}
		}
		libPath, ok := entry["path"].(string)
		if !ok {
			continue
		}
		if _, found := readAppManifest(filepath.Join(libPath, "steamapps"), appID); found {
			return libPath, true
		}
	}
	return "", false
}

type appManifest struct {
	InstallDir string
}

func readAppManifest(steamAppsDir string, appID uint32) (appManifest, bool) {
	manifestPath := filepath.Join(steamAppsDir, fmt.Sprintf("appmanifest_%d.acf", appID))
	f, err := os.Open(manifestPath) //nolint:gosec // reads local steam manifest
	if err != nil {
		return appManifest{}, false
	}
	defer f.Close()

	m, err := vdf.NewParser(f).Parse()
	if err != nil {
		log.Warn().Err(err).Uint32("appID", appID).Msg("failed to parse app manifest")
		return appManifest{}, false
	}
	appState, ok := m["AppState"].(map[string]any)
	if !ok {
		return appManifest{}, false
	}
	installDir, _ := appState["installdir"].(string)
	return appManifest{InstallDir: installDir}, true
}

// ResolveSteamApp locates appID's library root and raw install
// directory name on disk by scanning the local Steam installation's
// library folders.
func ResolveSteamApp(appID uint32) (SteamAppInfo, bool) {
	steamDir, ok := FindSteamDir()
	if !ok {
		return SteamAppInfo{}, false
	}
	libRoot, ok := findAppLibraryRoot(steamDir, appID)
	if !ok {
		return SteamAppInfo{}, false
	}
	manifest, ok := readAppManifest(filepath.Join(libRoot, "steamapps"), appID)
	if !ok {
		return SteamAppInfo{}, false
	}
	lastUser, _ := readLastOwnerID(steamDir)
	return SteamAppInfo{
		AppID:         appID,
		RawInstallDir: manifest.InstallDir,
		LibraryRoot:   libRoot,
		LastOwnerID:   lastUser,
	}, true
}

// readLastOwnerID parses loginusers.vdf for the most recently used
// Steam64 account ID, used to derive the storeUserId template variable.
func readLastOwnerID(steamDir string) (uint64, bool) {
	path := filepath.Join(steamDir, "config", "loginusers.vdf")
	f, err := os.Open(path) //nolint:gosec // reads local steam config
	if err != nil {
		return 0, false
	}
	defer f.Close()

	m, err := vdf.NewParser(f).Parse()
	if err != nil {
		log.Warn().Err(err).Msg("failed to parse loginusers.vdf")
		return 0, false
	}
	users, ok := m["users"].(map[string]any)
	if !ok {
		return 0, false
	}
	for idStr, v := range users {
		entry, ok := v.(map[string]any)
		if !ok {
			continue
		}
		mostRecent, _ := entry["MostRecent"].(string)
		if mostRecent != "1" {
			continue
		}
		id, err := strconv.ParseUint(idStr, 10, 64)
		if err != nil {
			continue
		}
		return id, true
	}
	return 0, false
}
