package syncmeta_test

import (
	"testing"

	"github.com/0x00002a/cinc/pkg/backend"
	"github.com/0x00002a/cinc/pkg/syncmeta"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectiveVersionDefaultsWhenAbsent(t *testing.T) {
	meta := &backend.SyncMetadata{}
	assert.Equal(t, syncmeta.FirstFileTableVersion, syncmeta.EffectiveVersion(meta))
}

func TestReadCompatibleSameMajorZeroRequiresSameMinor(t *testing.T) {
	ok, err := syncmeta.ReadCompatible("0.1.0", "0.1.5")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = syncmeta.ReadCompatible("0.2.0", "0.1.5")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReadCompatibleNonZeroMajorIgnoresMinor(t *testing.T) {
	ok, err := syncmeta.ReadCompatible("1.0.0", "1.9.0")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReadCompatibleMajorMismatchFails(t *testing.T) {
	ok, err := syncmeta.ReadCompatible("2.0.0", "1.0.0")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWriteCompatibleNonRegressing(t *testing.T) {
	ok, err := syncmeta.WriteCompatible("0.1.0", "0.2.0")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = syncmeta.WriteCompatible("0.2.0", "0.1.0")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCheckReadNilMetaIsAlwaysFine(t *testing.T) {
	require.NoError(t, syncmeta.CheckRead(nil))
}

func TestCheckReadIncompatibleReturnsTypedError(t *testing.T) {
	meta := &backend.SyncMetadata{LastWriteVersion: "9.9.9"}
	err := syncmeta.CheckRead(meta)
	require.Error(t, err)
	var verErr *syncmeta.IncompatibleVersionError
	require.ErrorAs(t, err, &verErr)
}
