package export

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/soyeahso/aiosforge/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFiles() []domain.GeneratedFile {
	return []domain.GeneratedFile{
		{Path: "aios.config.yaml", Content: "version: \"1.0\"\n"},
		{Path: "agents/dev.yaml", Content: "slug: \"dev\"\n"},
		{Path: "scripts/setup.sh", Content: "#!/usr/bin/env sh\n"},
	}
}

func readZip(t *testing.T, data []byte) *zip.Reader {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	return zr
}

func TestZipBytes(t *testing.T) {
	data, err := ZipBytes("demo", sampleFiles())
	require.NoError(t, err)

	zr := readZip(t, data)
	require.Len(t, zr.File, 3)
	assert.Equal(t, "demo/aios.config.yaml", zr.File[0].Name)
	assert.Equal(t, "demo/agents/dev.yaml", zr.File[1].Name)
	assert.Equal(t, "demo/scripts/setup.sh", zr.File[2].Name)

	assert.Equal(t, os.FileMode(0o644), zr.File[0].Mode().Perm())
	assert.Equal(t, os.FileMode(0o755), zr.File[2].Mode().Perm())

	rc, err := zr.File[1].Open()
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "slug: \"dev\"\n", string(body))
}

func TestZipWithoutRoot(t *testing.T) {
	data, err := ZipBytes("", sampleFiles())
	require.NoError(t, err)
	assert.Equal(t, "aios.config.yaml", readZip(t, data).File[0].Name)
}

func TestZipDeterministic(t *testing.T) {
	a, err := ZipBytes("x", sampleFiles())
	require.NoError(t, err)
	b, err := ZipBytes("x", sampleFiles())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestUnsafePaths(t *testing.T) {
	for _, p := range []string{"", "/etc/passwd", "../escape", "a/../../b", `a\b`, "."} {
		_, err := ZipBytes("", []domain.GeneratedFile{{Path: p}})
		assert.ErrorIs(t, err, ErrUnsafePath, p)

		err = WriteDir(t.TempDir(), []domain.GeneratedFile{{Path: p}})
		assert.ErrorIs(t, err, ErrUnsafePath, p)
	}

	_, err := ZipBytes("../up", sampleFiles())
	assert.ErrorIs(t, err, ErrUnsafePath)
}

func TestWriteDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteDir(dir, sampleFiles()))

	got, err := os.ReadFile(filepath.Join(dir, "agents", "dev.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "slug: \"dev\"\n", string(got))

	info, err := os.Stat(filepath.Join(dir, "scripts", "setup.sh"))
	require.NoError(t, err)
	assert.NotZero(t, info.Mode().Perm()&0o100)
}

func TestWriteDirChecksBeforeWriting(t *testing.T) {
	dir := t.TempDir()
	files := append(sampleFiles(), domain.GeneratedFile{Path: "../oops"})
	require.ErrorIs(t, WriteDir(dir, files), ErrUnsafePath)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestArchiveName(t *testing.T) {
	assert.Equal(t, "content-studio.zip", ArchiveName("Content Studio"))
	assert.Equal(t, "aios-project.zip", ArchiveName("***"))
	assert.Equal(t, "content-studio", Folder("Content Studio"))
	assert.Equal(t, DefaultFolder, Folder(""))
}
