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

package filter

import (
	"os"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// 📦 Artifact is a rule set written to disk for the external transfer tool.
// The invocation that created it owns it exclusively and must Remove it on
// every exit path.
type Artifact struct {
	Path  string
	Lines []string
}

// 📝 WriteArtifact serializes the rule set as a newline-joined filter file in
// the system temp directory. The returned lines drive the local evaluator
// directly, without re-parsing the file.
func WriteArtifact(rs RuleSet) (*Artifact, error) {
	lines := rs.Lines()

	f, err := os.CreateTemp("", "syncrc-filter-*.txt")
	if err != nil {
		return nil, errors.Errorf("creating temp filter file: %w", err)
	}

	if _, err := f.WriteString(strings.Join(lines, "\n") + "\n"); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, errors.Errorf("writing filter file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, errors.Errorf("closing filter file: %w", err)
	}

	return &Artifact{Path: f.Name(), Lines: lines}, nil
}

// 🗑️ Remove deletes the artifact file. Safe to call on a nil artifact.
func (a *Artifact) Remove() {
	if a == nil || a.Path == "" {
		return
	}
	os.Remove(a.Path)
}
