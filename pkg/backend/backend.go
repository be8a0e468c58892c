// Package backend defines the uniform object-store contract that the
// sync engine writes through, and provides filesystem and WebDAV
// implementations rooted at a per-game namespace.
package backend

import (
	"errors"
	"io"
)

// ErrNotFound is returned by Read when path does not exist in the store.
var ErrNotFound = errors.New("backend: object not found")

// Port is the contract every storage backend satisfies. All paths are
// relative to an implicit per-game root the backend was constructed
// with; a caller never sees or supplies that root.
type Port interface {
	// Exists reports whether path is present in the store.
	Exists(path string) (bool, error)
	// Read returns the full contents of path, or ErrNotFound.
	Read(path string) ([]byte, error)
	// Write stores data at path, creating intermediate directories and
	// overwriting any prior contents atomically from the caller's view.
	Write(path string, data []byte) error
	// ReadSyncMetadata returns the decoded side-car object, (nil, nil)
	// if none has ever been written, or a decode error.
	ReadSyncMetadata() (*SyncMetadata, error)
	// WriteSyncMetadata stores the side-car object.
	WriteSyncMetadata(meta *SyncMetadata) error
}

// SyncMetadata is the side-car object recording the last writer of a
// game's archive and the file table needed to unpack it. It is defined
// here (rather than in package syncmeta) so that Port can reference it
// without an import cycle; package syncmeta owns its version-
// compatibility rules, and each backend encodes it as TOML.
type SyncMetadata struct {
	LastWriteTimestamp string          `toml:"last_write_timestamp"`
	LastWriteHostname  string          `toml:"last_write_hostname"`
	LastWriteVersion   string          `toml:"last_write_version,omitempty"`
	FileTable          FileTableRecord `toml:"file_table"`
}

// FileTableRecord is the archive's manifest of member entries.
type FileTableRecord struct {
	Entries            []FileTableEntry `toml:"entries"`
	OldestModifiedTime string           `toml:"oldest_modified_time"`
}

// FileTableEntry maps one synced file's template path to its key inside
// the packed archive.
type FileTableEntry struct {
	Template   string `toml:"template"`
	RemotePath string `toml:"remote_path"`
}

// ReadWriter is satisfied by both *os.File and in-memory buffers such as
// bytes.Buffer. No code in this module currently uses it.
type ReadWriter interface {
	io.Reader
	io.Writer
}
