package manifest_test

import (
	"testing"

	"github.com/0x00002a/cinc/pkg/manifest"
	"github.com/stretchr/testify/assert"
)

func TestPredicateSatisfiedEmpty(t *testing.T) {
	assert.True(t, manifest.AnySatisfied(nil, 64, "linux", false, ""))
}

func TestPredicateBitMismatch(t *testing.T) {
	p := manifest.Predicate{Bit: 32}
	assert.False(t, p.Satisfied(64, "linux", false, ""))
}

func TestPredicateWineSatisfiesWindows(t *testing.T) {
	p := manifest.Predicate{OS: "windows"}
	assert.True(t, p.Satisfied(64, "linux", true, ""))
	assert.False(t, p.Satisfied(64, "linux", false, ""))
}

func TestPredicateStoreMismatchIgnoredWhenCallerHasNoStore(t *testing.T) {
	p := manifest.Predicate{Store: manifest.StoreGOG}
	assert.True(t, p.Satisfied(64, "linux", false, ""))
	assert.False(t, p.Satisfied(64, "linux", false, manifest.StoreSteam))
	assert.True(t, p.Satisfied(64, "linux", false, manifest.StoreGOG))
}

func TestLookupBySteamID(t *testing.T) {
	m := manifest.Manifest{
		"Hollow Knight": manifest.Game{Steam: &manifest.SteamInfo{ID: 367520}},
	}
	name, g, ok := m.FindBySteamID(367520)
	assert.True(t, ok)
	assert.Equal(t, "Hollow Knight", name)
	assert.Equal(t, uint32(367520), g.Steam.ID)

	_, _, ok = m.FindBySteamID(1)
	assert.False(t, ok)
}

func TestFileConfigHasTag(t *testing.T) {
	cfg := manifest.FileConfig{Tags: []manifest.FileTag{manifest.TagSave}}
	assert.True(t, cfg.HasTag(manifest.TagSave))
	assert.False(t, cfg.HasTag(manifest.TagConfig))
}
