// Package syncmeta implements the version-compatibility rules for the
// sync-metadata side-car object defined in package backend.
package syncmeta

import (
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/0x00002a/cinc/pkg/backend"
)

// FirstFileTableVersion is the version assumed for a side-car object
// that predates the last_write_version field.
const FirstFileTableVersion = "0.1.0"

// CurrentWriterVersion is stamped into every SyncMetadata this binary writes.
const CurrentWriterVersion = "0.1.0"

// IncompatibleVersionError is returned when a decoded metadata object's
// writer version fails the read- or write-compatibility predicate
// against CurrentWriterVersion.
type IncompatibleVersionError struct {
	Operation string
	Remote    string
	Local     string
}

func (e *IncompatibleVersionError) Error() string {
	return fmt.Sprintf("%s incompatible: remote version %s, local version %s", e.Operation, e.Remote, e.Local)
}

// EffectiveVersion returns meta's writer version, substituting
// FirstFileTableVersion when the field was absent on decode.
func EffectiveVersion(meta *backend.SyncMetadata) string {
	if meta == nil || meta.LastWriteVersion == "" {
		return FirstFileTableVersion
	}
	return meta.LastWriteVersion
}

// ReadCompatible reports whether a local reader at localVersion may
// decode an object written at remoteVersion: same major, and same
// minor when major is zero.
func ReadCompatible(remoteVersion, localVersion string) (bool, error) {
	remote, err := semver.NewVersion(remoteVersion)
	if err != nil {
		return false, fmt.Errorf("parse remote version %q: %w", remoteVersion, err)
	}
	local, err := semver.NewVersion(localVersion)
	if err != nil {
		return false, fmt.Errorf("parse local version %q: %w", localVersion, err)
	}
	if remote.Major() != local.Major() {
		return false, nil
	}
	if local.Major() != 0 {
		return true, nil
	}
	return remote.Minor() == local.Minor(), nil
}

// WriteCompatible reports whether a local writer at localVersion may
// overwrite an object last written at remoteVersion without regressing
// it: local must be >= remote at the major level, and at the minor
// level too while major is 0.
func WriteCompatible(remoteVersion, localVersion string) (bool, error) {
	remote, err := semver.NewVersion(remoteVersion)
	if err != nil {
		return false, fmt.Errorf("parse remote version %q: %w", remoteVersion, err)
	}
	local, err := semver.NewVersion(localVersion)
	if err != nil {
		return false, fmt.Errorf("parse local version %q: %w", localVersion, err)
	}
	if local.Major() < remote.Major() {
		return false, nil
	}
	if local.Major() > remote.Major() {
		return true, nil
	}
	if local.Major() == 0 {
		return local.Minor() >= remote.Minor(), nil
	}
	return true, nil
}

// CheckRead validates that meta (possibly nil, meaning no prior sync)
// can be safely downloaded against CurrentWriterVersion.
func CheckRead(meta *backend.SyncMetadata) error {
	if meta == nil {
		return nil
	}
	ok, err := ReadCompatible(EffectiveVersion(meta), CurrentWriterVersion)
	if err != nil {
		return err
	}
	if !ok {
		return &IncompatibleVersionError{Operation: "read", Remote: EffectiveVersion(meta), Local: CurrentWriterVersion}
	}
	return nil
}

// CheckWrite validates that this writer may overwrite meta (possibly
// nil, meaning no prior sync) with a new object at CurrentWriterVersion.
func CheckWrite(meta *backend.SyncMetadata) error {
	if meta == nil {
		return nil
	}
	ok, err := WriteCompatible(EffectiveVersion(meta), CurrentWriterVersion)
	if err != nil {
		return err
	}
	if !ok {
		return &IncompatibleVersionError{Operation: "write", Remote: EffectiveVersion(meta), Local: CurrentWriterVersion}
	}
	return nil
}
