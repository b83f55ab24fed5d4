package parity

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext() context.Context {
	logger := zerolog.Nop()
	return logger.WithContext(context.Background())
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

// fakeRsync answers the dry-run with a canned itemized listing.
func fakeRsync(output string) func(ctx context.Context, args []string) (string, error) {
	return func(ctx context.Context, args []string) (string, error) {
		return output, nil
	}
}

func TestCheck_Agreement(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{
		"main.go":  "package main",
		"util.py":  "x",
		"notes.md": "n",
	})

	c := NewChecker()
	c.execRsync = fakeRsync(">f+++++++++ main.go\n>f+++++++++ notes.md\ncd+++++++++ ./\n")

	result, err := c.Check(testContext(), src, []string{"*.py"}, "")
	require.NoError(t, err)

	assert.True(t, result.Agree())
	assert.Equal(t, []string{"main.go", "notes.md"}, result.RsyncIncluded)
	assert.Equal(t, "exclude", result.Decisions["util.py"])
	assert.Equal(t, "neutral", result.Decisions["main.go"])
}

func TestCheck_MismatchBothDirections(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{
		"a.py": "x", // locally excluded, rsync lists it anyway
		"b.go": "x", // locally neutral, rsync drops it
	})
	dumpPath := filepath.Join(t.TempDir(), "parity.json")

	c := NewChecker()
	c.execRsync = fakeRsync(">f+++++++++ a.py\n")

	result, err := c.Check(testContext(), src, []string{"*.py"}, dumpPath)
	require.NoError(t, err)

	require.Len(t, result.Mismatches, 2)
	byPath := map[string]Mismatch{}
	for _, m := range result.Mismatches {
		byPath[m.Path] = m
	}
	assert.Equal(t, Mismatch{Path: "a.py", Local: "exclude", Rsync: "include"}, byPath["a.py"])
	assert.Equal(t, Mismatch{Path: "b.go", Local: "neutral", Rsync: "exclude"}, byPath["b.go"])
}

func TestCheck_WritesDiagnostics(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{"keep.txt": "x", "drop.log": "x"})
	dumpPath := filepath.Join(t.TempDir(), "parity.json")

	c := NewChecker()
	c.execRsync = fakeRsync(">f+++++++++ keep.txt\n")

	result, err := c.Check(testContext(), src, []string{"*.log"}, dumpPath)
	require.NoError(t, err)
	require.True(t, result.Agree())

	data, err := os.ReadFile(dumpPath)
	require.NoError(t, err)

	var payload struct {
		Timestamp     string            `json:"timestamp"`
		Src           string            `json:"src"`
		Patterns      []string          `json:"patterns"`
		FilterPath    string            `json:"filter_path"`
		FilterLines   []string          `json:"filter_lines"`
		RsyncIncluded []string          `json:"rsync_included"`
		Decisions     map[string]string `json:"local_decisions"`
		Mismatches    []Mismatch        `json:"mismatches"`
	}
	require.NoError(t, json.Unmarshal(data, &payload))

	assert.NotEmpty(t, payload.Timestamp)
	assert.Equal(t, src, payload.Src)
	assert.Equal(t, []string{"*.log"}, payload.Patterns)
	assert.Contains(t, payload.FilterLines, "- *.log")
	assert.Equal(t, []string{"keep.txt"}, payload.RsyncIncluded)
	assert.Equal(t, "exclude", payload.Decisions["drop.log"])
	assert.Empty(t, payload.Mismatches)
}

func TestCheck_RemovesFilterArtifact(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{"a.txt": "x"})

	var filterPath string
	c := NewChecker()
	c.execRsync = func(ctx context.Context, args []string) (string, error) {
		for i, arg := range args {
			if arg == "--filter" {
				filterPath = strings.TrimPrefix(args[i+1], ". ")
			}
		}
		// The artifact must exist while rsync runs.
		_, err := os.Stat(filterPath)
		require.NoError(t, err)
		return ">f+++++++++ a.txt\n", nil
	}

	_, err := c.Check(testContext(), src, nil, "")
	require.NoError(t, err)

	require.NotEmpty(t, filterPath)
	_, err = os.Stat(filterPath)
	assert.True(t, os.IsNotExist(err))
}

func TestCheck_MissingSource(t *testing.T) {
	c := NewChecker()
	_, err := c.Check(testContext(), "/definitely/not/here", nil, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source directory")
}

func TestCheck_ForceIncludeAgreement(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{
		"logs/app.log":  "x",
		"logs/keep.log": "x",
	})

	c := NewChecker()
	c.execRsync = fakeRsync(">f+++++++++ logs/keep.log\n")

	result, err := c.Check(testContext(), src, []string{"*.log", "!logs/keep.log"}, "")
	require.NoError(t, err)

	assert.Equal(t, "include", result.Decisions["logs/keep.log"])
	assert.Equal(t, "exclude", result.Decisions["logs/app.log"])
	assert.True(t, result.Agree())
}
