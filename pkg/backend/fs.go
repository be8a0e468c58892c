package backend

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
)

const syncMetadataFileName = "mod-meta.toml"

// FilesystemBackend stores game objects under <root>/<game>, rooted on
// an afero.Fs so tests can swap in an in-memory filesystem without
// touching disk.
type FilesystemBackend struct {
	fs   afero.Fs
	root string
}

// NewFilesystemBackend returns a backend rooted at filepath.Join(root, game).
func NewFilesystemBackend(fs afero.Fs, root, game string) *FilesystemBackend {
	return &FilesystemBackend{fs: fs, root: filepath.Join(root, game)}
}

func (b *FilesystemBackend) resolve(path string) string {
	// A leading "/" on a core-supplied path is treated as relative,
	// matching the port contract: callers never escape the game root.
	clean := strings.TrimPrefix(path, "/")
	return filepath.Join(b.root, filepath.Clean("/"+clean))
}

func (b *FilesystemBackend) Exists(path string) (bool, error) {
	ok, err := afero.Exists(b.fs, b.resolve(path))
	if err != nil {
		return false, fmt.Errorf("fs backend exists %q: %w", path, err)
	}
	return ok, nil
}

func (b *FilesystemBackend) Read(path string) ([]byte, error) {
	full := b.resolve(path)
	ok, err := afero.Exists(b.fs, full)
	if err != nil {
		return nil, fmt.Errorf("fs backend read %q: %w", path, err)
	}
	if !ok {
		return nil, ErrNotFound
	}
	data, err := afero.ReadFile(b.fs, full)
	if err != nil {
		return nil, fmt.Errorf("fs backend read %q: %w", path, err)
	}
	return data, nil
}

func (b *FilesystemBackend) Write(path string, data []byte) error {
	full := b.resolve(path)
	if err := b.fs.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("fs backend write %q: %w", path, err)
	}
	tmp := full + "." + uuid.NewString() + ".tmp"
	if err := afero.WriteFile(b.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("fs backend write %q: %w", path, err)
	}
	if err := b.fs.Rename(tmp, full); err != nil {
		return fmt.Errorf("fs backend write %q: %w", path, err)
	}
	return nil
}

func (b *FilesystemBackend) ReadSyncMetadata() (*SyncMetadata, error) {
	data, err := b.Read(syncMetadataFileName)
	if err == ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var meta SyncMetadata
	if err := toml.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode sync metadata: %w", err)
	}
	return &meta, nil
}

func (b *FilesystemBackend) WriteSyncMetadata(meta *SyncMetadata) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(meta); err != nil {
		return fmt.Errorf("encode sync metadata: %w", err)
	}
	return b.Write(syncMetadataFileName, buf.Bytes())
}
