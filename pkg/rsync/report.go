// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package rsync

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/walteh/syncrc/pkg/filter"
	"gitlab.com/tozd/go/errors"
)

// 📊 Report summarizes one sync run: what the transfer tool itemized and what
// the local evaluator predicts the filters will drop.
type Report struct {
	Added    []string
	Updated  []string
	Deleted  []string
	Excluded []string
}

// AddChanges folds classified itemize entries into the report.
func (r *Report) AddChanges(changes []Change) {
	for _, c := range changes {
		switch c.Kind {
		case ChangeAdded:
			r.Added = append(r.Added, c.Path)
		case ChangeUpdated:
			r.Updated = append(r.Updated, c.Path)
		case ChangeDeleted:
			r.Deleted = append(r.Deleted, c.Path)
		}
	}
}

// 📝 Markdown renders the report with one sorted bullet list per section.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("# Sync report\n")

	section := func(title string, paths []string) {
		b.WriteString("\n## " + title + "\n")
		sorted := append([]string(nil), paths...)
		sort.Strings(sorted)
		for _, p := range sorted {
			b.WriteString("- " + p + "\n")
		}
	}

	section("Added", r.Added)
	section("Updated", r.Updated)
	section("Deleted", r.Deleted)
	section("Excluded by filters", r.Excluded)

	return b.String()
}

// 🔍 CollectExcluded walks every file under root and returns the relative
// paths the rule set excludes. This is the local prediction of what the
// transfer tool will drop; it never invokes the tool.
func CollectExcluded(root string, rs filter.RuleSet) ([]string, error) {
	var excluded []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return errors.Errorf("relativizing %s: %w", path, err)
		}
		rel = filepath.ToSlash(rel)

		if rs.Decide(rel) == filter.Excluded {
			excluded = append(excluded, rel)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Errorf("walking %s: %w", root, err)
	}

	return excluded, nil
}
