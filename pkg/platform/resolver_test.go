package platform_test

import (
	"testing"

	"github.com/0x00002a/cinc/pkg/manifest"
	"github.com/0x00002a/cinc/pkg/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectKindSteamFromAppIdToken(t *testing.T) {
	kind, err := platform.DetectKind(platform.KindAuto, []string{"AppId=367520", "%command%"})
	require.NoError(t, err)
	assert.Equal(t, platform.KindSteam, kind)
}

func TestDetectKindUmuFromExeName(t *testing.T) {
	kind, err := platform.DetectKind(platform.KindAuto, []string{"/usr/bin/umu-run", "game.exe"})
	require.NoError(t, err)
	assert.Equal(t, platform.KindUmu, kind)
}

func TestDetectKindUnresolvable(t *testing.T) {
	_, err := platform.DetectKind(platform.KindAuto, []string{"./game.sh"})
	require.ErrorIs(t, err, platform.ErrUnresolvable)
}

func TestDetectKindForcedOverridesAutoDetect(t *testing.T) {
	kind, err := platform.DetectKind(platform.KindUmu, []string{"AppId=1"})
	require.NoError(t, err)
	assert.Equal(t, platform.KindUmu, kind)
}

func TestSteamIDToID3(t *testing.T) {
	// 76561197960265728 + 1 should map back to account id 1.
	assert.Equal(t, uint32(1), platform.SteamIDToID3(76561197960265729))
}

func TestFindUmuMatchPicksLongestSuffix(t *testing.T) {
	m := manifest.Manifest{
		"Game A": manifest.Game{
			Launch: map[string][]manifest.LaunchConfig{
				"<base>/bin/win64/game.exe": {{When: []manifest.Predicate{{OS: "windows"}}}},
			},
		},
		"Game B": manifest.Game{
			Launch: map[string][]manifest.LaunchConfig{
				"<base>/game.exe": {{When: []manifest.Predicate{{OS: "windows"}}}},
			},
		},
	}
	name, _, ok := platform.FindUmuMatch(m, "/home/p/Games/GameA/bin/win64/game.exe")
	require.True(t, ok)
	assert.Equal(t, "Game A", name)
}

func TestResolveUnresolvableWhenNoSignal(t *testing.T) {
	_, err := platform.Resolve(platform.Options{}, []string{"./game"}, platform.UmuEnv{}, manifest.Manifest{})
	require.ErrorIs(t, err, platform.ErrUnresolvable)
}
