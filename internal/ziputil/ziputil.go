// Package ziputil reads resource archives and writes reproducible zips.
package ziputil

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FixedZipTime ensures byte-for-byte reproducible archives (1980-01-01 UTC).
var FixedZipTime = time.Unix(315532800, 0).UTC()

// archiveExts are the file extensions opened as zip archives.
var archiveExts = map[string]struct{}{".zip": {}, ".aar": {}, ".apk": {}, ".jar": {}}

// IsArchive reports whether path names a zip-based archive by extension.
func IsArchive(path string) bool {
	_, ok := archiveExts[strings.ToLower(filepath.Ext(path))]
	return ok
}

// OpenFS opens a directory or an archive as an fs.FS. The returned closer
// must be called when the archive is no longer read.
func OpenFS(path string) (fs.FS, io.Closer, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, nil, err
	}
	if st.IsDir() {
		return os.DirFS(path), nopCloser{}, nil
	}
	if !IsArchive(path) {
		return nil, nil, fmt.Errorf("%s: not a directory or archive", path)
	}
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	return zr, zr, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// ReadEntry returns the contents of one entry of the zip at zipPath.
// A missing entry yields an error wrapping fs.ErrNotExist.
func ReadEntry(zipPath, entry string) ([]byte, error) {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", zipPath, err)
	}
	defer zr.Close()
	b, err := fs.ReadFile(zr, SanitizePath(entry))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s!%s: %w", zipPath, entry, fs.ErrNotExist)
		}
		return nil, fmt.Errorf("read %s!%s: %w", zipPath, entry, err)
	}
	return b, nil
}

// SanitizePath normalizes ZIP entry paths (forward slashes, no drive, no leading '/'),
// and removes '.' and '..' segments without escaping the root.
func SanitizePath(p string) string {
	s := filepath.ToSlash(p)
	if len(s) > 1 && s[1] == ':' {
		s = s[2:]
	}
	s = strings.TrimLeft(s, "/")
	parts := strings.Split(s, "/")
	stack := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" || part == "." {
			continue
		}
		if part == ".." {
			if n := len(stack); n > 0 {
				stack = stack[:n-1]
			}
			continue
		}
		stack = append(stack, part)
	}
	s = strings.Join(stack, "/")
	if s == "" {
		return "entry"
	}
	return s
}

func create(zw *zip.Writer, name string, method uint16) (io.Writer, error) {
	h := &zip.FileHeader{Name: SanitizePath(name), Method: method}
	h.SetMode(0o644)
	h.Modified = FixedZipTime
	w, err := zw.CreateHeader(h)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", name, err)
	}
	return w, nil
}

// WriteJSON writes a JSON-encoded value with fixed timestamp and mode.
func WriteJSON(zw *zip.Writer, name string, v any) error {
	w, err := create(zw, name, zip.Deflate)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// WriteFile writes a deflated entry with fixed timestamp.
func WriteFile(zw *zip.Writer, name string, data []byte) error {
	w, err := create(zw, name, zip.Deflate)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// CopyFromReader writes a stored (uncompressed) entry from r, so readers can
// load it without inflating.
func CopyFromReader(zw *zip.Writer, name string, r io.Reader) error {
	w, err := create(zw, name, zip.Store)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
