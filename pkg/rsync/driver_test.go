package rsync

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/syncrc/pkg/config"
	"github.com/walteh/syncrc/pkg/log"
)

func testContext() context.Context {
	logger := zerolog.Nop()
	return logger.WithContext(context.Background())
}

func testDriver() *Driver {
	return NewDriver(log.New(io.Discard, zerolog.Nop()))
}

// fakeExec captures each rsync invocation and snapshots the filter artifacts
// while they still exist.
type fakeExec struct {
	calls   [][]string
	filters [][]string // filter file contents per call, in --filter order
	output  string
}

func (f *fakeExec) run(ctx context.Context, args []string) (string, error) {
	f.calls = append(f.calls, args)

	var contents []string
	for i, arg := range args {
		if arg != "--filter" {
			continue
		}
		path := strings.TrimPrefix(args[i+1], ". ")
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		contents = append(contents, string(data))
	}
	f.filters = append(f.filters, contents)

	return f.output, nil
}

func TestSync_WhitelistEndToEnd(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{
		"keep.txt": "keep",
		"drop.txt": "drop",
	})
	dst := t.TempDir()
	reportPath := filepath.Join(t.TempDir(), "report.md")

	fake := &fakeExec{output: "+f+++++++++ keep.txt\n"}
	d := testDriver()
	d.execRsync = fake.run

	err := d.Sync(testContext(), Options{
		Source: src,
		Dest:   dst,
		Only:   []string{"keep.txt"},
		Report: reportPath,
	})
	require.NoError(t, err)

	require.Len(t, fake.calls, 1)
	args := fake.calls[0]

	// Fixed option bundle, filter reference, trailing-slash paths.
	assert.Equal(t, []string{"-a", "--human-readable", "--itemize-changes", "--partial", "--checksum"}, args[:5])
	assert.Contains(t, args, "--filter")
	assert.Equal(t, src+"/", args[len(args)-2])
	assert.Equal(t, dst+"/", args[len(args)-1])

	// Whitelist artifact ends with the catch-all.
	require.Len(t, fake.filters[0], 1)
	lines := strings.Split(strings.TrimSpace(fake.filters[0][0]), "\n")
	assert.Equal(t, "- *", lines[len(lines)-1])
	assert.Contains(t, lines, "+ /keep.txt")

	report, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.Contains(t, string(report), "## Added\n- keep.txt\n")
	_, excludedSection, found := strings.Cut(string(report), "## Excluded by filters\n")
	require.True(t, found)
	assert.Equal(t, "- drop.txt\n", excludedSection, "only drop.txt is excluded, never the whitelisted file")
}

func TestSync_RemovesFilterArtifacts(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{"a.txt": "a"})

	var filterPaths []string
	d := testDriver()
	d.execRsync = func(ctx context.Context, args []string) (string, error) {
		for i, arg := range args {
			if arg == "--filter" {
				filterPaths = append(filterPaths, strings.TrimPrefix(args[i+1], ". "))
			}
		}
		return "", nil
	}

	err := d.Sync(testContext(), Options{
		Source:     src,
		Dest:       t.TempDir(),
		IgnoreSrc:  []string{"*.log"},
		IgnoreDest: []string{"tmp/"},
	})
	require.NoError(t, err)

	require.Len(t, filterPaths, 2, "source and dest artifacts")
	for _, p := range filterPaths {
		_, err := os.Stat(p)
		assert.True(t, os.IsNotExist(err), "artifact %s must be removed after the run", p)
	}
}

func TestSync_DumpCommands(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{"a.txt": "a"})
	dst := t.TempDir()
	dumpPath := filepath.Join(t.TempDir(), "dump.json")

	fake := &fakeExec{}
	d := testDriver()
	d.execRsync = fake.run

	err := d.Sync(testContext(), Options{
		Source:       src,
		Dest:         dst,
		DryRun:       true,
		IgnoreSrc:    []string{"*.log"},
		DumpCommands: dumpPath,
	})
	require.NoError(t, err)

	data, err := os.ReadFile(dumpPath)
	require.NoError(t, err)

	var dump struct {
		Timestamp string   `json:"timestamp"`
		Src       string   `json:"src"`
		Dst       string   `json:"dst"`
		Opts      []string `json:"opts"`
		Cmd       []string `json:"cmd"`
		SrcFilter struct {
			Path  string   `json:"path"`
			Lines []string `json:"lines"`
		} `json:"src_filter"`
	}
	require.NoError(t, json.Unmarshal(data, &dump))

	assert.NotEmpty(t, dump.Timestamp)
	assert.Equal(t, src, dump.Src)
	assert.Equal(t, dst, dump.Dst)
	assert.Contains(t, dump.Opts, "--dry-run")
	assert.Equal(t, "rsync", dump.Cmd[0])
	assert.Contains(t, dump.SrcFilter.Lines, "- *.log")
	assert.NotEmpty(t, dump.SrcFilter.Path)
}

func TestSync_TwoWayRunsBothDirectionsAndPreservesConflicts(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeTree(t, src, map[string]string{"shared.txt": "source version", "only-src.txt": "s"})
	writeTree(t, dst, map[string]string{"shared.txt": "dest version", "same.txt": "x"})
	writeTree(t, src, map[string]string{"same.txt": "x"})

	fake := &fakeExec{}
	d := testDriver()
	d.execRsync = fake.run

	err := d.Sync(testContext(), Options{
		Source: src,
		Dest:   dst,
		Mode:   config.ModeTwoWay,
	})
	require.NoError(t, err)

	require.Len(t, fake.calls, 2)
	first, second := fake.calls[0], fake.calls[1]
	assert.Equal(t, src+"/", first[len(first)-2])
	assert.Equal(t, dst+"/", first[len(first)-1])
	assert.Equal(t, dst+"/", second[len(second)-2])
	assert.Equal(t, src+"/", second[len(second)-1])

	// Differing file preserved as a conflict copy in the source tree.
	matches, err := filepath.Glob(filepath.Join(src, "shared.txt.conflict-*"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Equal(t, "dest version", string(data))

	// Identical files do not get conflict copies.
	matches, err = filepath.Glob(filepath.Join(src, "same.txt.conflict-*"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestSync_ListFilteredDoesNotInvokeRsync(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{
		"keep.txt": "keep",
		"drop.log": "drop",
	})
	reportPath := filepath.Join(t.TempDir(), "report.md")

	d := testDriver()
	d.execRsync = func(ctx context.Context, args []string) (string, error) {
		t.Fatal("rsync must not run in list-filtered mode")
		return "", nil
	}

	err := d.Sync(testContext(), Options{
		Source:       src,
		Dest:         t.TempDir(),
		IgnoreSrc:    []string{"*.log"},
		ListFiltered: "src",
		Report:       reportPath,
	})
	require.NoError(t, err)

	report, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.Contains(t, string(report), "## Excluded by filters\n- drop.log\n")
}

func TestSync_ListFilteredBothSides(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeTree(t, src, map[string]string{"a.log": "x", "a.txt": "x"})
	writeTree(t, dst, map[string]string{"cache/tmp.bin": "x", "b.txt": "x"})

	d := testDriver()
	d.execRsync = func(ctx context.Context, args []string) (string, error) {
		t.Fatal("rsync must not run in list-filtered mode")
		return "", nil
	}

	err := d.Sync(testContext(), Options{
		Source:       src,
		Dest:         dst,
		IgnoreSrc:    []string{"*.log"},
		IgnoreDest:   []string{"cache/"},
		ListFiltered: "both",
	})
	require.NoError(t, err)
}

func TestSync_ConfigurationErrors(t *testing.T) {
	d := testDriver()
	d.execRsync = func(ctx context.Context, args []string) (string, error) {
		t.Fatal("rsync must not run on configuration errors")
		return "", nil
	}

	tests := []struct {
		name    string
		opts    Options
		wantErr string
	}{
		{
			name:    "missing_source_and_dest",
			opts:    Options{},
			wantErr: "source and dest must be provided",
		},
		{
			name:    "bad_mode",
			opts:    Options{Source: "/tmp", Dest: "/tmp", Mode: "sideways"},
			wantErr: "mode must be one of",
		},
		{
			name:    "missing_source_dir",
			opts:    Options{Source: "/definitely/not/here", Dest: "/tmp"},
			wantErr: "source directory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := d.Sync(testContext(), tt.opts)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSync_BadListFilteredValue(t *testing.T) {
	src := t.TempDir()
	d := testDriver()

	err := d.Sync(testContext(), Options{Source: src, Dest: t.TempDir(), ListFiltered: "everything"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list-filtered must be one of")
}

func TestSourceRuleSet_LayeringOrder(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, ".syncignore"), []byte("*.tmp\n\n  \n!keep.tmp\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, ".gitignore"), []byte("node_modules\n"), 0o644))

	d := testDriver()

	rs := d.sourceRuleSet(testContext(), Options{
		Source:             src,
		UseSourceGitignore: true,
		IgnoreSrc:          []string{"inline.bin"},
	})
	lines := rs.Lines()

	// .syncignore first, then .gitignore, then inline excludes, then defaults.
	assert.Equal(t, "- *.tmp", lines[0])
	assert.Contains(t, lines, "+ /keep.tmp/**")
	idxGitignore := indexOf(t, lines, "- node_modules")
	idxInline := indexOf(t, lines, "- inline.bin")
	idxDefault := indexOf(t, lines, "- /.git/")
	assert.Less(t, idxGitignore, idxInline)
	assert.Less(t, idxInline, idxDefault)
}

func TestSourceRuleSet_OnlySyncignoreSuppressesGitignore(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, ".syncignore"), []byte("*.tmp\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, ".gitignore"), []byte("node_modules\n"), 0o644))

	d := testDriver()
	rs := d.sourceRuleSet(testContext(), Options{
		Source:             src,
		UseSourceGitignore: true,
		OnlySyncignore:     true,
	})

	assert.NotContains(t, rs.Lines(), "- node_modules")
	assert.Contains(t, rs.Lines(), "- *.tmp")
}

func TestSourceRuleSet_ExcludeHiddenDirs(t *testing.T) {
	d := testDriver()
	rs := d.sourceRuleSet(testContext(), Options{Source: t.TempDir(), ExcludeHiddenDirs: true})
	assert.Contains(t, rs.Lines(), "- .*/")
}

func indexOf(t *testing.T, lines []string, want string) int {
	t.Helper()
	for i, l := range lines {
		if l == want {
			return i
		}
	}
	t.Fatalf("line %q not found in %v", want, lines)
	return -1
}
