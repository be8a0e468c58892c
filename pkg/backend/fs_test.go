package backend_test

import (
	"testing"

	"github.com/0x00002a/cinc/pkg/backend"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilesystemBackendWriteReadExists(t *testing.T) {
	fs := afero.NewMemMapFs()
	b := backend.NewFilesystemBackend(fs, "/store", "Hollow Knight")

	ok, err := b.Exists("user/save1.dat")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, b.Write("user/save1.dat", []byte("save-bytes")))

	ok, err = b.Exists("user/save1.dat")
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := b.Read("user/save1.dat")
	require.NoError(t, err)
	assert.Equal(t, []byte("save-bytes"), got)
}

func TestFilesystemBackendReadMissingIsErrNotFound(t *testing.T) {
	fs := afero.NewMemMapFs()
	b := backend.NewFilesystemBackend(fs, "/store", "Hollow Knight")
	_, err := b.Read("nope.dat")
	require.ErrorIs(t, err, backend.ErrNotFound)
}

func TestFilesystemBackendLeadingSlashDoesNotEscapeRoot(t *testing.T) {
	fs := afero.NewMemMapFs()
	b := backend.NewFilesystemBackend(fs, "/store", "game")
	require.NoError(t, b.Write("/../../etc/passwd", []byte("x")))

	ok, err := afero.Exists(fs, "/etc/passwd")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFilesystemBackendSyncMetadataRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	b := backend.NewFilesystemBackend(fs, "/store", "game")

	meta, err := b.ReadSyncMetadata()
	require.NoError(t, err)
	assert.Nil(t, meta)

	want := &backend.SyncMetadata{
		LastWriteHostname: "laptop",
		LastWriteVersion:  "0.1.0",
		FileTable: backend.FileTableRecord{
			Entries: []backend.FileTableEntry{{Template: "<base>/save.dat", RemotePath: "save.dat"}},
		},
	}
	require.NoError(t, b.WriteSyncMetadata(want))

	got, err := b.ReadSyncMetadata()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want.LastWriteHostname, got.LastWriteHostname)
	require.Len(t, got.FileTable.Entries, 1)
	assert.Equal(t, "save.dat", got.FileTable.Entries[0].RemotePath)
}
