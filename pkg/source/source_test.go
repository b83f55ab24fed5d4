package source

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLooksLikeGitURL(t *testing.T) {
	tests := []struct {
		source string
		want   bool
	}{
		{"git@github.com:org/repo.git", true},
		{"git://example.com/repo", true},
		{"https://example.com/repo.git", true},
		{"https://github.com/org/repo", true},
		{"https://github.com/org/repo/archive/main.zip", false},
		{"/local/path", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, looksLikeGitURL(tt.source), "source %q", tt.source)
	}
}

func TestIsGitHubShorthand(t *testing.T) {
	assert.True(t, isGitHubShorthand("github.com/org/repo"))
	assert.True(t, isGitHubShorthand("github.com/org/repo@v1.2.3"))
	assert.False(t, isGitHubShorthand("github.com/org"))
	assert.False(t, isGitHubShorthand("gitlab.com/org/repo"))
	assert.False(t, isGitHubShorthand("/local/path"))
}

func TestResolve_LocalDirectory(t *testing.T) {
	dir := t.TempDir()

	resolved, cleanup, err := Resolve(context.Background(), dir)
	require.NoError(t, err)
	defer cleanup()

	abs, err := filepath.Abs(dir)
	require.NoError(t, err)
	assert.Equal(t, abs, resolved)

	// Local sources are not scratch space: cleanup must not delete them.
	cleanup()
	_, err = os.Stat(dir)
	assert.NoError(t, err)
}

func zipArchive(t *testing.T, topDir string, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(filepath.Join(topDir, name))
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestResolve_ArchiveURL(t *testing.T) {
	payload := zipArchive(t, "repo-main", map[string]string{
		"README.md":   "hello",
		"src/main.go": "package main",
	})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer srv.Close()

	dir, cleanup, err := Resolve(context.Background(), srv.URL+"/archive.zip")
	require.NoError(t, err)
	defer cleanup()

	// Single top-level directory gets flattened away.
	data, err := os.ReadFile(filepath.Join(dir, "README.md"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	data, err = os.ReadFile(filepath.Join(dir, "src", "main.go"))
	require.NoError(t, err)
	assert.Equal(t, "package main", string(data))

	cleanup()
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err), "cleanup removes scratch directory")
}

func TestResolve_ArchiveDownloadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	_, cleanup, err := Resolve(context.Background(), srv.URL+"/archive.zip")
	defer cleanup()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status code")
}

func TestResolve_CorruptArchive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("this is not a zip"))
	}))
	defer srv.Close()

	_, cleanup, err := Resolve(context.Background(), srv.URL+"/broken.zip")
	defer cleanup()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extracting archive")
}

func TestFlattenSingleDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "only"), 0o755))
	assert.Equal(t, filepath.Join(dir, "only"), flattenSingleDir(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "stray.txt"), nil, 0o644))
	assert.Equal(t, dir, flattenSingleDir(dir))
}
