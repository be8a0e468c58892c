// Package sync is the synchronization core: it discovers which local
// files a manifest entry names as saves, compares them against a
// backend's recorded state, and packs/unpacks the tar+xz archive that
// carries their bytes between machines.
package sync

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/0x00002a/cinc/pkg/backend"
	"github.com/0x00002a/cinc/pkg/manifest"
	"github.com/0x00002a/cinc/pkg/template"
)

// FileInfo is one discovered save file, carrying both its host-absolute
// local path and its host-independent remote identity.
type FileInfo struct {
	LocalPath  string
	RemotePath string
	Template   string
	Tags       []manifest.FileTag
}

// SyncIssueInfo describes a detected conflict between local state and a
// backend's recorded last write, for presentation by a dialog collaborator.
type SyncIssueInfo struct {
	LocalTime         time.Time
	RemoteTime        time.Time
	BackendName       string
	RemoteLastWriter  string
}

// ErrArchiveMembershipViolation is returned when an unpacked tar entry
// has no corresponding file-table record: the archive and its side-car
// metadata have drifted out of sync.
var ErrArchiveMembershipViolation = errors.New("sync: archive entry has no file-table record")

// Manager holds the discovered file set for one game and drives
// download/upload against a backend. LocalInfo is retained so Download
// can re-resolve a file-table template against this host even when the
// corresponding local file (and therefore the Files entry) doesn't
// exist yet — the whole point of a restore.
type Manager struct {
	BackendName string
	Files       []FileInfo
	LocalInfo   template.Info
}

// Build discovers every save file a manifest entry names, resolved
// against localInfo for on-disk paths and remoteInfo for archive keys.
// store selects which file predicates are satisfied; predicates are
// always evaluated with wine=true per the platform
// contract (umu launches are always a wine environment, and Steam
// launches are Proton, also wine).
func Build(game manifest.Game, localInfo, remoteInfo template.Info, backendName string, store manifest.Store) (*Manager, error) {
	var files []FileInfo
	for pattern, cfg := range game.Files {
		if !manifest.AnySatisfied(cfg.When, manifest.HostBit(), manifest.HostOS(), true, store) {
			continue
		}
		if !cfg.HasTag(manifest.TagSave) {
			continue
		}
		localRoot, err := template.Resolve(pattern, localInfo)
		if err != nil {
			return nil, fmt.Errorf("resolve local template %q: %w", pattern, err)
		}
		remoteRoot, err := template.Resolve(pattern, remoteInfo)
		if err != nil {
			return nil, fmt.Errorf("resolve remote template %q: %w", pattern, err)
		}

		info, err := os.Lstat(localRoot)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("stat %q: %w", localRoot, err)
		}

		if !info.IsDir() {
			files = append(files, FileInfo{
				LocalPath:  localRoot,
				RemotePath: remoteRoot,
				Template:   pattern,
				Tags:       cfg.Tags,
			})
			continue
		}

		err = filepath.Walk(localRoot, func(p string, fi os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if fi.Mode()&os.ModeSymlink != 0 {
				log.Warn().Str("path", p).Msg("skipping symlink while discovering save files")
				return nil
			}
			if fi.IsDir() {
				return nil
			}
			postfix := strings.TrimPrefix(p, localRoot)
			files = append(files, FileInfo{
				LocalPath:  p,
				RemotePath: joinNoClobber(remoteRoot, postfix),
				Template:   pattern + postfix,
				Tags:       cfg.Tags,
			})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %q: %w", localRoot, err)
		}
	}
	return &Manager{BackendName: backendName, Files: files, LocalInfo: localInfo}, nil
}

// joinNoClobber joins root and postfix, treating a leading separator on
// postfix as relative rather than letting it escape root.
func joinNoClobber(root, postfix string) string {
	return filepath.Join(root, filepath.Join(string(filepath.Separator), postfix))
}

// latestLocalModTime returns the latest mtime across every discovered
// file that still exists locally, or the zero time if none exist.
func (m *Manager) latestLocalModTime() (time.Time, error) {
	var latest time.Time
	for _, f := range m.Files {
		fi, err := os.Stat(f.LocalPath)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return time.Time{}, fmt.Errorf("stat %q: %w", f.LocalPath, err)
		}
		if fi.ModTime().After(latest) {
			latest = fi.ModTime()
		}
	}
	return latest, nil
}

// Conflict reports a SyncIssueInfo iff the latest local modification
// time is strictly newer than metadata's recorded last write.
func (m *Manager) Conflict(metadata *backend.SyncMetadata) (*SyncIssueInfo, error) {
	if metadata == nil {
		return nil, nil
	}
	remoteTime, err := time.Parse(time.RFC3339, metadata.LastWriteTimestamp)
	if err != nil {
		return nil, fmt.Errorf("parse last_write_timestamp: %w", err)
	}
	localTime, err := m.latestLocalModTime()
	if err != nil {
		return nil, err
	}
	if localTime.IsZero() || !localTime.After(remoteTime) {
		return nil, nil
	}
	return &SyncIssueInfo{
		LocalTime:        localTime,
		RemoteTime:       remoteTime,
		BackendName:      m.BackendName,
		RemoteLastWriter: metadata.LastWriteHostname,
	}, nil
}

// NeedsDownload reports whether any file-table entry is missing
// locally, or any local counterpart is strictly older than the
// archive's oldest recorded modification time.
func (m *Manager) NeedsDownload(metadata *backend.SyncMetadata) (bool, error) {
	if metadata == nil {
		return false, nil
	}
	byRemote := make(map[string]FileInfo, len(m.Files))
	for _, f := range m.Files {
		byRemote[f.RemotePath] = f
	}

	var oldest time.Time
	if metadata.FileTable.OldestModifiedTime != "" {
		var err error
		oldest, err = time.Parse(time.RFC3339, metadata.FileTable.OldestModifiedTime)
		if err != nil {
			return false, fmt.Errorf("parse oldest_modified_time: %w", err)
		}
	}

	for _, entry := range metadata.FileTable.Entries {
		f, ok := byRemote[entry.RemotePath]
		if !ok {
			return true, nil
		}
		fi, err := os.Stat(f.LocalPath)
		if errors.Is(err, os.ErrNotExist) {
			return true, nil
		}
		if err != nil {
			return false, fmt.Errorf("stat %q: %w", f.LocalPath, err)
		}
		if !oldest.IsZero() && fi.ModTime().Before(oldest) {
			return true, nil
		}
	}
	return false, nil
}

// Download unpacks the backend's archive into the local file set. It
// refuses to run unless forceOverwrite is set or Conflict(metadata)
// found nothing, and is a no-op when NeedsDownload is false.
func (m *Manager) Download(b backend.Port, metadata *backend.SyncMetadata, forceOverwrite bool) error {
	if !forceOverwrite {
		issue, err := m.Conflict(metadata)
		if err != nil {
			return err
		}
		if issue != nil {
			return fmt.Errorf("sync: refusing download, unresolved conflict with backend %q", m.BackendName)
		}
	}
	needs, err := m.NeedsDownload(metadata)
	if err != nil {
		return err
	}
	if !needs {
		return nil
	}

	exists, err := b.Exists(ArchiveKey)
	if err != nil {
		return fmt.Errorf("check archive exists: %w", err)
	}
	if !exists {
		return nil
	}
	archiveData, err := b.Read(ArchiveKey)
	if err != nil {
		return fmt.Errorf("read archive: %w", err)
	}

	byRemote := make(map[string]string, len(metadata.FileTable.Entries))
	for _, entry := range metadata.FileTable.Entries {
		byRemote[entry.RemotePath] = entry.Template
	}

	return unpackArchive(archiveData, func(remotePath string, data []byte) error {
		tmpl, ok := byRemote[remotePath]
		if !ok {
			return fmt.Errorf("%w: %q", ErrArchiveMembershipViolation, remotePath)
		}
		localPath, err := template.Resolve(tmpl, m.LocalInfo)
		if err != nil {
			return fmt.Errorf("resolve local template %q: %w", tmpl, err)
		}
		if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
			return fmt.Errorf("mkdir for %q: %w", localPath, err)
		}
		return os.WriteFile(localPath, data, 0o644)
	})
}

// Upload packs every file that currently exists locally into a fresh
// archive and writes the side-car metadata strictly before the archive,
// so a reader never observes a new archive with stale metadata.
func (m *Manager) Upload(b backend.Port, writerVersion, hostname string) error {
	var entries []packEntry
	var tableEntries []backend.FileTableEntry
	var oldest time.Time

	for _, f := range m.Files {
		fi, err := os.Stat(f.LocalPath)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("stat %q: %w", f.LocalPath, err)
		}
		data, err := os.ReadFile(f.LocalPath)
		if err != nil {
			return fmt.Errorf("read %q: %w", f.LocalPath, err)
		}
		entries = append(entries, packEntry{RemotePath: f.RemotePath, Data: data})
		tableEntries = append(tableEntries, backend.FileTableEntry{Template: f.Template, RemotePath: f.RemotePath})
		if oldest.IsZero() || fi.ModTime().Before(oldest) {
			oldest = fi.ModTime()
		}
	}
	if oldest.IsZero() {
		oldest = time.Now().UTC()
	}

	meta := &backend.SyncMetadata{
		LastWriteTimestamp: time.Now().UTC().Format(time.RFC3339),
		LastWriteHostname:  hostname,
		LastWriteVersion:   writerVersion,
		FileTable: backend.FileTableRecord{
			Entries:            tableEntries,
			OldestModifiedTime: oldest.Format(time.RFC3339),
		},
	}
	if err := b.WriteSyncMetadata(meta); err != nil {
		return fmt.Errorf("write sync metadata: %w", err)
	}

	archiveData, err := packArchive(entries)
	if err != nil {
		return err
	}
	if err := b.Write(ArchiveKey, archiveData); err != nil {
		return fmt.Errorf("write archive: %w", err)
	}
	return nil
}
