package sync

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"

	"github.com/ulikunitz/xz"
)

// ArchiveKey is the well-known backend object key the packed archive is
// stored under.
const ArchiveKey = "archive.tar.xz"

// xzPreset5DictCap approximates the reference tool's xz level 5, since
// this library exposes dictionary capacity rather than a 0-9 preset
// knob. 8 MiB matches the dictionary size liblzma's preset 5 uses.
const xzPreset5DictCap = 8 << 20

// packEntry is one file going into the archive, keyed by its remote path.
type packEntry struct {
	RemotePath string
	Data       []byte
}

// packArchive writes entries into a tar stream compressed with xz,
// keyed by each entry's RemotePath.
func packArchive(entries []packEntry) ([]byte, error) {
	var tarBuf bytes.Buffer
	tw := tar.NewWriter(&tarBuf)
	for _, e := range entries {
		hdr := &tar.Header{
			Name: e.RemotePath,
			Mode: 0o644,
			Size: int64(len(e.Data)),
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return nil, fmt.Errorf("pack archive: write header for %q: %w", e.RemotePath, err)
		}
		if _, err := tw.Write(e.Data); err != nil {
			return nil, fmt.Errorf("pack archive: write data for %q: %w", e.RemotePath, err)
		}
	}
	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("pack archive: close tar writer: %w", err)
	}

	var xzBuf bytes.Buffer
	cfg := xz.WriterConfig{DictCap: xzPreset5DictCap}
	xw, err := cfg.NewWriter(&xzBuf)
	if err != nil {
		return nil, fmt.Errorf("pack archive: create xz writer: %w", err)
	}
	if _, err := xw.Write(tarBuf.Bytes()); err != nil {
		return nil, fmt.Errorf("pack archive: write xz stream: %w", err)
	}
	if err := xw.Close(); err != nil {
		return nil, fmt.Errorf("pack archive: close xz stream: %w", err)
	}
	return xzBuf.Bytes(), nil
}

// unpackArchive decodes an xz-compressed tar stream, invoking visit for
// every regular-file member it contains.
func unpackArchive(data []byte, visit func(remotePath string, data []byte) error) error {
	xr, err := xz.NewReader(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("unpack archive: create xz reader: %w", err)
	}
	tr := tar.NewReader(xr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("unpack archive: read tar entry: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		buf := new(bytes.Buffer)
		if _, err := io.Copy(buf, tr); err != nil {
			return fmt.Errorf("unpack archive: read entry %q: %w", hdr.Name, err)
		}
		if err := visit(hdr.Name, buf.Bytes()); err != nil {
			return err
		}
	}
}
