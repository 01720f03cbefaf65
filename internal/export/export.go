// Package export packages generated files as a ZIP archive or writes them
// to a directory.
package export

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/soyeahso/aiosforge/internal/domain"
)

// ErrUnsafePath is returned for file paths that are absolute or escape the
// destination.
var ErrUnsafePath = errors.New("unsafe file path")

// modTime is stamped on every archive entry so archives of the same files
// are byte-identical.
var modTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// executable lists paths that get the executable bit.
var executable = map[string]bool{
	"scripts/setup.sh": true,
}

func fileMode(p string) os.FileMode {
	if executable[p] {
		return 0o755
	}
	return 0o644
}

// cleanPath validates p and returns it in slash form.
func cleanPath(p string) (string, error) {
	if p == "" || strings.HasPrefix(p, "/") || strings.Contains(p, `\`) || filepath.IsAbs(p) {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, p)
	}
	clean := path.Clean(p)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, p)
	}
	return clean, nil
}

// WriteZip writes files to w as a ZIP archive in the given order. When root
// is non-empty every entry is placed under that folder.
func WriteZip(w io.Writer, root string, files []domain.GeneratedFile) error {
	prefix := ""
	if root != "" {
		r, err := cleanPath(root)
		if err != nil {
			return err
		}
		prefix = r + "/"
	}

	zw := zip.NewWriter(w)
	for _, f := range files {
		name, err := cleanPath(f.Path)
		if err != nil {
			return err
		}
		hdr := &zip.FileHeader{
			Name:     prefix + name,
			Method:   zip.Deflate,
			Modified: modTime,
		}
		hdr.SetMode(fileMode(name))
		fw, err := zw.CreateHeader(hdr)
		if err != nil {
			return fmt.Errorf("creating %s: %w", name, err)
		}
		if _, err := io.WriteString(fw, f.Content); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("closing archive: %w", err)
	}
	return nil
}

// ZipBytes returns the archive WriteZip would produce.
func ZipBytes(root string, files []domain.GeneratedFile) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteZip(&buf, root, files); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteDir writes files below dir, creating directories as needed. Every
// path is checked before anything is written.
func WriteDir(dir string, files []domain.GeneratedFile) error {
	names := make([]string, len(files))
	for i, f := range files {
		name, err := cleanPath(f.Path)
		if err != nil {
			return err
		}
		names[i] = name
	}

	for i, f := range files {
		target := filepath.Join(dir, filepath.FromSlash(names[i]))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("creating directory for %s: %w", names[i], err)
		}
		if err := os.WriteFile(target, []byte(f.Content), fileMode(names[i])); err != nil {
			return fmt.Errorf("writing %s: %w", names[i], err)
		}
	}
	return nil
}

// DefaultFolder names exports of a project whose name has no slug.
const DefaultFolder = "aios-project"

// Folder returns the slug naming a project's export folder and archive.
func Folder(projectName string) string {
	if slug := domain.Slugify(projectName); slug != "" {
		return slug
	}
	return DefaultFolder
}

// ArchiveName returns the download file name for a project.
func ArchiveName(projectName string) string {
	return Folder(projectName) + ".zip"
}
