package platform

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/0x00002a/cinc/pkg/manifest"
)

// UmuEnv is everything the resolver reads from the environment when a
// launch is dispatched through umu-run/wine rather than Steam.
type UmuEnv struct {
	WinePrefix      string
	HeroicAppName   string
	HeroicAppSource string
	Home            string
}

// ReadUmuEnv captures the umu/Heroic-relevant environment variables for
// the current process.
func ReadUmuEnv() UmuEnv {
	home, _ := os.UserHomeDir()
	return UmuEnv{
		WinePrefix:      os.Getenv("WINEPREFIX"),
		HeroicAppName:   os.Getenv("HEROIC_APP_NAME"),
		HeroicAppSource: os.Getenv("HEROIC_APP_SOURCE"),
		Home:            home,
	}
}

// HeroicGamesRoot returns the conventional Heroic games root, used as
// the "root" template variable when a Heroic app name is present.
func (e UmuEnv) HeroicGamesRoot() string {
	if e.Home == "" {
		return ""
	}
	return filepath.Join(e.Home, "Games", "Heroic")
}

// FindUmuMatch finds the manifest entry whose launch pattern shares the
// longest path-component suffix with exePath, among entries with at
// least one wine-satisfied launch predicate set. This mirrors matching
// a Windows executable pattern against the real (often wine-translated)
// path the launcher actually invoked.
func FindUmuMatch(m manifest.Manifest, exePath string) (string, manifest.Game, bool) {
	exeComps := reverseComponents(exePath)

	bestLen := 0
	bestName := ""
	var bestGame manifest.Game
	found := false

	for name, game := range m {
		for pattern, configs := range game.Launch {
			if !anyLaunchSatisfied(configs) {
				continue
			}
			patComps := reverseComponents(pattern)
			length := commonPrefixLen(patComps, exeComps)
			if length > bestLen {
				bestLen = length
				bestName = name
				bestGame = game
				found = true
			}
		}
	}
	return bestName, bestGame, found
}

func anyLaunchSatisfied(configs []manifest.LaunchConfig) bool {
	if len(configs) == 0 {
		return true
	}
	for _, cfg := range configs {
		if manifest.AnySatisfied(cfg.When, manifest.HostBit(), manifest.HostOS(), true, "") {
			return true
		}
	}
	return false
}

func reverseComponents(p string) []string {
	parts := strings.Split(filepath.ToSlash(p), "/")
	out := make([]string, 0, len(parts))
	for i := len(parts) - 1; i >= 0; i-- {
		if parts[i] == "" {
			continue
		}
		out = append(out, parts[i])
	}
	return out
}

func commonPrefixLen(a, b []string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}
