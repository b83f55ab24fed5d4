package filter

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteArtifact(t *testing.T) {
	rs := Compile([]string{"*.log", "!keep"}, []string{"- /.git/"})

	artifact, err := WriteArtifact(rs)
	require.NoError(t, err)
	defer artifact.Remove()

	data, err := os.ReadFile(artifact.Path)
	require.NoError(t, err)
	assert.Equal(t, strings.Join(rs.Lines(), "\n")+"\n", string(data))
	assert.Equal(t, rs.Lines(), artifact.Lines)

	artifact.Remove()
	_, err = os.Stat(artifact.Path)
	assert.True(t, os.IsNotExist(err), "Remove deletes the file")
}

func TestArtifactRemove_NilSafe(t *testing.T) {
	var a *Artifact
	a.Remove()
}

// Re-parsing a written artifact must evaluate identically to the in-memory
// rules for every path in a representative tree.
func TestArtifactRoundTrip(t *testing.T) {
	rs := Compile(
		[]string{"*.tmp", "!important", "/build", "docs/", "secret?.key", "**/*.bak"},
		[]string{"- /.git/", "- .*/"},
	)

	artifact, err := WriteArtifact(rs)
	require.NoError(t, err)
	defer artifact.Remove()

	data, err := os.ReadFile(artifact.Path)
	require.NoError(t, err)
	reparsed := ParseRuleLines(strings.Split(string(data), "\n"))
	require.Equal(t, rs.Rules, reparsed)

	tree := []string{
		"README.md",
		"main.go",
		"scratch.tmp",
		"important",
		"important/cache.tmp",
		"build/output.o",
		"docs/index.md",
		"docs",
		"secret1.key",
		"secrets.key",
		"a/b/file.bak",
		".git/HEAD",
		".hidden/file",
		"nested/deep/scratch.tmp",
	}

	for _, path := range tree {
		assert.Equal(t, Decide(path, rs.Rules), Decide(path, reparsed), "path %q", path)
	}
}
