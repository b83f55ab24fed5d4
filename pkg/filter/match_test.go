package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		name string
		glob string
		path string
		want bool
	}{
		{"basename_at_root", "foo", "foo", true},
		{"basename_nested", "foo", "a/b/foo", true},
		{"basename_miss", "foo", "a/foobar", false},
		{"anchored_exact", "/a/b", "a/b", true},
		{"anchored_not_children", "/a/b", "a/b/c", false},
		{"anchored_only_at_root", "/foo", "a/foo", false},
		{"recursive_self", "/a/b/**", "a/b", true},
		{"recursive_child", "/a/b/**", "a/b/c.txt", true},
		{"recursive_deep", "/a/b/**", "a/b/c/d.txt", true},
		{"recursive_miss", "/a/b/**", "a/bc", false},
		{"dir_marker_self", "dir/", "dir", true},
		{"dir_marker_child", "dir/", "dir/file.txt", true},
		{"dir_marker_not_substring", "dir/", "otherdir/dirfile", false},
		{"glob_dir_marker_self", ".*/", ".hidden", true},
		{"glob_dir_marker_child", ".*/", ".hidden/file", true},
		{"glob_dir_marker_deep_child", ".*/", ".cache/data/blob.bin", true},
		{"glob_dir_marker_miss", ".*/", "visible/file", false},
		{"glob_recursive_self", "src/*/cache/**", "src/a/cache", true},
		{"glob_recursive_child", "src/*/cache/**", "src/a/cache/obj.o", true},
		{"glob_recursive_miss", "src/*/cache/**", "src/a/other/obj.o", false},
		{"star_excludes_separator", "src/*.go", "src/a/b.go", false},
		{"star_within_segment", "src/*.go", "src/main.go", true},
		{"double_star_crosses_separators", "src/**.go", "src/a/b.go", true},
		{"question_mark_single", "file?.txt", "file1.txt", true},
		{"question_mark_not_two", "file?.txt", "file10.txt", false},
		{"question_mark_not_separator", "a?b", "a/b", false},
		{"literal_dot_escaped", "*.txt", "atxt", false},
		{"leading_dot_slash_on_glob", "./src/main.go", "src/main.go", true},
		{"leading_dot_slash_on_path", "src/main.go", "./src/main.go", true},
		{"root_matches_root_only", "/", "anything", false},
		{"catch_all", "*", "deep/nested/file", true},
		{"empty_glob", "", "anything", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Match(tt.glob, tt.path))
		})
	}
}

func TestMatch_GlobWithRegexMetaIsLiteral(t *testing.T) {
	assert.True(t, Match("a+b(c).txt", "a+b(c).txt"))
	assert.False(t, Match("a+b(c).txt", "ab(c).txt"))
}
