package bundle

import (
	"archive/tar"
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/me/phenogen/pkg/model"
	"github.com/ulikunitz/xz"
)

// Format is an archive format for exported bundles.
type Format string

const (
	FormatZip   Format = "zip"
	FormatTarXZ Format = "tar.xz"
)

// ParseFormat validates an archive format name. The empty string selects zip.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatZip:
		return FormatZip, nil
	case FormatTarXZ:
		return FormatTarXZ, nil
	}
	return "", fmt.Errorf("unsupported archive format %q (want zip or tar.xz)", s)
}

// Ext returns the file extension for archives of this format.
func (f Format) Ext() string {
	return "." + string(f)
}

// ContentType returns the media type served for archives of this format.
func (f Format) ContentType() string {
	if f == FormatTarXZ {
		return "application/x-xz"
	}
	return "application/zip"
}

// WriteDir writes every document of b into dir, creating it if needed.
func WriteDir(b *model.Bundle, dir string) error {
	files, err := Files(b)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(dir, f.Name), f.Content, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", f.Name, err)
		}
	}
	return nil
}

// WriteArchive writes b to w as an archive whose entries live under a
// single top-level directory called name.
func WriteArchive(w io.Writer, b *model.Bundle, name string, format Format) error {
	files, err := Files(b)
	if err != nil {
		return err
	}
	switch format {
	case FormatZip:
		return writeZip(w, files, name)
	case FormatTarXZ:
		return writeTarXZ(w, files, name)
	}
	return fmt.Errorf("unsupported archive format %q", format)
}

func writeZip(w io.Writer, files []File, root string) error {
	zw := zip.NewWriter(w)
	for _, f := range files {
		fw, err := zw.Create(path.Join(root, f.Name))
		if err != nil {
			return fmt.Errorf("zip %s: %w", f.Name, err)
		}
		if _, err := fw.Write(f.Content); err != nil {
			return fmt.Errorf("zip %s: %w", f.Name, err)
		}
	}
	return zw.Close()
}

func writeTarXZ(w io.Writer, files []File, root string) error {
	xw, err := xz.NewWriter(w)
	if err != nil {
		return fmt.Errorf("create xz writer: %w", err)
	}
	tw := tar.NewWriter(xw)
	now := time.Now()
	for _, f := range files {
		hdr := &tar.Header{
			Name:    path.Join(root, f.Name),
			Mode:    0o644,
			Size:    int64(len(f.Content)),
			ModTime: now,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("tar %s: %w", f.Name, err)
		}
		if _, err := tw.Write(f.Content); err != nil {
			return fmt.Errorf("tar %s: %w", f.Name, err)
		}
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("close tar: %w", err)
	}
	if err := xw.Close(); err != nil {
		return fmt.Errorf("close xz: %w", err)
	}
	return nil
}
