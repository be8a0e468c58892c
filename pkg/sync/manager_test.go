package sync_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0x00002a/cinc/pkg/backend"
	"github.com/0x00002a/cinc/pkg/manifest"
	"github.com/0x00002a/cinc/pkg/sync"
	"github.com/0x00002a/cinc/pkg/template"
)

func writeTestFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

func TestBuildDiscoversTaggedSaveFiles(t *testing.T) {
	dir := t.TempDir()
	savePath := filepath.Join(dir, "saves", "slot1.sav")
	writeTestFile(t, savePath, "save-data")

	game := manifest.Game{
		Files: map[string]manifest.FileConfig{
			"<root>/saves": {Tags: []manifest.FileTag{manifest.TagSave}},
			"<root>/other": {Tags: []manifest.FileTag{manifest.TagOther}},
		},
	}
	local := template.Info{Root: dir}
	remote := template.Info{Root: "root"}

	mgr, err := sync.Build(game, local, remote, "local-store", "")
	require.NoError(t, err)
	require.Len(t, mgr.Files, 1)
	assert.Equal(t, savePath, mgr.Files[0].LocalPath)
	assert.Equal(t, filepath.Join("root", "saves", "slot1.sav"), mgr.Files[0].RemotePath)
}

func TestConflictDetectsNewerLocalFile(t *testing.T) {
	dir := t.TempDir()
	savePath := filepath.Join(dir, "saves", "slot1.sav")
	writeTestFile(t, savePath, "save-data")

	game := manifest.Game{
		Files: map[string]manifest.FileConfig{
			"<root>/saves": {Tags: []manifest.FileTag{manifest.TagSave}},
		},
	}
	local := template.Info{Root: dir}
	remote := template.Info{Root: "root"}
	mgr, err := sync.Build(game, local, remote, "local-store", "")
	require.NoError(t, err)

	old := time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)
	issue, err := mgr.Conflict(&backend.SyncMetadata{LastWriteTimestamp: old})
	require.NoError(t, err)
	require.NotNil(t, issue)
}

func TestConflictNoneWhenRemoteIsNewer(t *testing.T) {
	dir := t.TempDir()
	savePath := filepath.Join(dir, "saves", "slot1.sav")
	writeTestFile(t, savePath, "save-data")

	game := manifest.Game{
		Files: map[string]manifest.FileConfig{
			"<root>/saves": {Tags: []manifest.FileTag{manifest.TagSave}},
		},
	}
	local := template.Info{Root: dir}
	remote := template.Info{Root: "root"}
	mgr, err := sync.Build(game, local, remote, "local-store", "")
	require.NoError(t, err)

	future := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	issue, err := mgr.Conflict(&backend.SyncMetadata{LastWriteTimestamp: future})
	require.NoError(t, err)
	assert.Nil(t, issue)
}

func TestUploadThenDownloadRoundTrip(t *testing.T) {
	srcDir := t.TempDir()
	savePath := filepath.Join(srcDir, "saves", "slot1.sav")
	writeTestFile(t, savePath, "round-trip-data")

	game := manifest.Game{
		Files: map[string]manifest.FileConfig{
			"<root>/saves": {Tags: []manifest.FileTag{manifest.TagSave}},
		},
	}
	local := template.Info{Root: srcDir}
	remote := template.Info{Root: "root"}
	mgr, err := sync.Build(game, local, remote, "local-store", "")
	require.NoError(t, err)

	fs := afero.NewMemMapFs()
	b := backend.NewFilesystemBackend(fs, "/store", "game")

	require.NoError(t, mgr.Upload(b, "0.1.0", "test-host"))

	meta, err := b.ReadSyncMetadata()
	require.NoError(t, err)
	require.NotNil(t, meta)
	require.Len(t, meta.FileTable.Entries, 1)

	require.NoError(t, os.Remove(savePath))

	// Build exactly as the orchestrator does after the save file has been
	// deleted: no local files are discoverable, so Download must restore
	// by resolving the file-table's stored templates against LocalInfo,
	// not by looking entries up in Files.
	mgr2, err := sync.Build(game, local, remote, "local-store", "")
	require.NoError(t, err)
	require.Empty(t, mgr2.Files)

	require.NoError(t, mgr2.Download(b, meta, false))

	data, err := os.ReadFile(savePath)
	require.NoError(t, err)
	assert.Equal(t, "round-trip-data", string(data))
}

func TestNeedsDownloadTrueWhenLocalMissing(t *testing.T) {
	mgr := &sync.Manager{
		Files: []sync.FileInfo{{LocalPath: "/does/not/exist", RemotePath: "slot1.sav"}},
	}
	meta := &backend.SyncMetadata{
		FileTable: backend.FileTableRecord{
			Entries: []backend.FileTableEntry{{RemotePath: "slot1.sav"}},
		},
	}
	needs, err := mgr.NeedsDownload(meta)
	require.NoError(t, err)
	assert.True(t, needs)
}

func TestNeedsDownloadFalseWhenNilMetadata(t *testing.T) {
	mgr := &sync.Manager{}
	needs, err := mgr.NeedsDownload(nil)
	require.NoError(t, err)
	assert.False(t, needs)
}
