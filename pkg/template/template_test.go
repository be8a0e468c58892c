package template_test

import (
	"testing"

	"github.com/0x00002a/cinc/pkg/template"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveLiteral(t *testing.T) {
	got, err := template.Resolve("save-game/slot1.sav", template.Info{})
	require.NoError(t, err)
	assert.Equal(t, "save-game/slot1.sav", got)
}

func TestResolveHomeFromInfo(t *testing.T) {
	got, err := template.Resolve("<home>/.config/game", template.Info{HomeDir: "/home/player"})
	require.NoError(t, err)
	assert.Equal(t, "/home/player/.config/game", got)
}

func TestResolveUnknownVariable(t *testing.T) {
	_, err := template.Resolve("<notAVariable>", template.Info{})
	require.Error(t, err)
	var tErr *template.Error
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, template.ErrUnknownVariable, tErr.Kind)
}

func TestResolveNoClosingDelim(t *testing.T) {
	_, err := template.Resolve("<home/game", template.Info{HomeDir: "/home/player"})
	require.Error(t, err)
	var tErr *template.Error
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, template.ErrNoClosingDelim, tErr.Kind)
}

func TestResolveVariableNotAvailable(t *testing.T) {
	_, err := template.Resolve("<root>/saves", template.Info{})
	require.Error(t, err)
	var tErr *template.Error
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, template.ErrVariableNotAvailable, tErr.Kind)
}

func TestResolveBaseFallsBackToRootGame(t *testing.T) {
	info := template.Info{Root: "/mnt/games", InstallDir: "MyGame"}
	got, err := template.Resolve("<base>/saves", info)
	require.NoError(t, err)
	assert.Equal(t, "/mnt/games/MyGame/saves", got)
}

func TestResolveWindowsPaths(t *testing.T) {
	info := template.Info{WinPrefix: "/home/p/.wine", WinUser: "steamuser"}
	got, err := template.Resolve("<winAppData>/Game/save.dat", info)
	require.NoError(t, err)
	assert.Equal(t, "/home/p/.wine/users/steamuser/AppData/Roaming/Game/save.dat", got)
}

func TestResolveStoreUserID(t *testing.T) {
	info := template.Info{StoreUserID: "765611981"}
	got, err := template.Resolve("<storeUserId>/save", info)
	require.NoError(t, err)
	assert.Equal(t, "765611981/save", got)
}

func TestResolveLiteralSelfSubstitution(t *testing.T) {
	// The remote-side TemplateInfo substitutes every variable with its
	// own literal name, so the same pattern always maps to the same
	// remote key regardless of the local environment.
	info := template.Info{
		Root:        "root",
		InstallDir:  "game",
		StoreUserID: "storeUserId",
		HomeDir:     "home",
	}
	got, err := template.Resolve("<root>/<game>/<storeUserId>", info)
	require.NoError(t, err)
	assert.Equal(t, "root/game/storeUserId", got)
}
