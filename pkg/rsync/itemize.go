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

import "strings"

// 🎨 ChangeKind classifies one itemized-change line from the transfer tool.
type ChangeKind int

const (
	ChangeAdded ChangeKind = iota
	ChangeUpdated
	ChangeDeleted
)

// 🖼️ Change is one classified itemized-change entry.
type Change struct {
	Kind ChangeKind
	Path string
}

// 📖 ParseItemized classifies rsync --itemize-changes output lines:
// "deleting" markers (with or without the '*' form) are deletions, a '+' in
// the itemize code means a newly transferred entry, anything else is an
// update. Non-itemized chatter lines are skipped.
func ParseItemized(output string) []Change {
	var changes []Change

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		code, path, ok := strings.Cut(line, " ")
		if !ok {
			continue
		}
		path = strings.TrimSpace(path)
		if path == "" || path == "./" || !isItemizeCode(code) {
			continue
		}

		switch {
		case code == "deleting" || strings.HasPrefix(code, "*"):
			changes = append(changes, Change{Kind: ChangeDeleted, Path: path})
		case strings.Contains(code, "+"):
			changes = append(changes, Change{Kind: ChangeAdded, Path: path})
		default:
			changes = append(changes, Change{Kind: ChangeUpdated, Path: path})
		}
	}

	return changes
}

// isItemizeCode filters out rsync's progress and summary chatter. Itemize
// codes start with the update type character ('<', '>', 'c', 'h', '.') or are
// one of the "deleting" forms.
func isItemizeCode(code string) bool {
	if code == "deleting" {
		return true
	}
	if code == "" {
		return false
	}
	return strings.ContainsRune("<>ch.*+", rune(code[0]))
}
