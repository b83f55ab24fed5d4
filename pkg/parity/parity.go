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

// Package parity cross-checks the local decision evaluator against a real
// rsync dry-run: both sides look at the same compiled rule file, and any
// file they disagree on is a matcher bug worth a diagnostic dump.
package parity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/syncrc/pkg/filter"
	"gitlab.com/tozd/go/errors"
)

// ⚖️ Mismatch is one file the local evaluator and rsync disagree on.
type Mismatch struct {
	Path  string `json:"path"`
	Local string `json:"local"`
	Rsync string `json:"rsync"`
}

// 📋 Result is the outcome of one parity check.
type Result struct {
	RsyncIncluded []string
	Decisions     map[string]string
	Mismatches    []Mismatch
}

// Agree reports whether every file got the same verdict from both sides.
func (r *Result) Agree() bool {
	return len(r.Mismatches) == 0
}

// 🔬 Checker runs the comparison. The exec hook is swapped out in tests.
type Checker struct {
	execRsync func(ctx context.Context, args []string) (string, error)
}

func NewChecker() *Checker {
	return &Checker{execRsync: runRsync}
}

// 🏃 Check compiles patterns into a rule file, asks rsync (dry-run) which
// files it would transfer under that file, and walks src comparing rsync's
// verdict with the local evaluator's. A diagnostic JSON payload is written
// to dumpJSON when given, or to a temp file whenever mismatches are found.
func (c *Checker) Check(ctx context.Context, src string, patterns []string, dumpJSON string) (*Result, error) {
	logger := zerolog.Ctx(ctx)

	if _, err := os.Stat(src); err != nil {
		return nil, errors.Errorf("source directory: %w", err)
	}

	rs := filter.Compile(patterns, nil)
	artifact, err := filter.WriteArtifact(rs)
	if err != nil {
		return nil, errors.Errorf("writing filter artifact: %w", err)
	}
	defer artifact.Remove()

	included, err := c.rsyncDryRun(ctx, src, artifact.Path)
	if err != nil {
		return nil, err
	}

	result := &Result{
		RsyncIncluded: sortedKeys(included),
		Decisions:     map[string]string{},
	}

	err = filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return errors.Errorf("relativizing %s: %w", path, err)
		}
		rel = filepath.ToSlash(rel)

		decision := filter.Decide(rel, rs.Rules)
		result.Decisions[rel] = decision.String()

		rsyncSees := included[rel]
		switch {
		case decision == filter.Excluded && rsyncSees:
			result.Mismatches = append(result.Mismatches, Mismatch{Path: rel, Local: decision.String(), Rsync: "include"})
		case decision != filter.Excluded && !rsyncSees:
			result.Mismatches = append(result.Mismatches, Mismatch{Path: rel, Local: decision.String(), Rsync: "exclude"})
		}
		return nil
	})
	if err != nil {
		return nil, errors.Errorf("walking %s: %w", src, err)
	}

	if dumpJSON != "" || !result.Agree() {
		path := dumpJSON
		if path == "" {
			path = filepath.Join(os.TempDir(), fmt.Sprintf("syncrc-parity-%d.json", time.Now().Unix()))
		}
		if err := writeDiagnostics(path, src, patterns, artifact, result); err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("writing parity diagnostics")
		} else {
			logger.Info().Str("path", path).Msg("wrote parity diagnostics")
		}
	}

	return result, nil
}

// rsyncDryRun returns the set of relative paths rsync would transfer from
// src under the given rule file. Files it does not list are treated as
// excluded by rsync under these filters.
func (c *Checker) rsyncDryRun(ctx context.Context, src, filterPath string) (map[string]bool, error) {
	scratch, err := os.MkdirTemp("", "syncrc-parity-dest-*")
	if err != nil {
		return nil, errors.Errorf("creating scratch dest: %w", err)
	}
	defer os.RemoveAll(scratch)

	args := []string{
		"-r",
		"--dry-run",
		"--out-format=%i %n",
		"--filter", ". " + filterPath,
		strings.TrimRight(src, "/") + "/",
		scratch + "/",
	}

	out, err := c.execRsync(ctx, args)
	if err != nil {
		return nil, errors.Errorf("rsync dry-run: %w", err)
	}

	included := map[string]bool{}
	for _, line := range strings.Split(out, "\n") {
		_, name, found := strings.Cut(strings.TrimSpace(line), " ")
		if !found {
			continue
		}
		if name = strings.TrimSpace(name); name != "" && name != "./" {
			included[name] = true
		}
	}
	return included, nil
}

type diagnostics struct {
	Timestamp     string            `json:"timestamp"`
	Src           string            `json:"src"`
	Patterns      []string          `json:"patterns"`
	FilterPath    string            `json:"filter_path"`
	FilterLines   []string          `json:"filter_lines"`
	RsyncIncluded []string          `json:"rsync_included"`
	Decisions     map[string]string `json:"local_decisions"`
	Mismatches    []Mismatch        `json:"mismatches"`
}

func writeDiagnostics(path, src string, patterns []string, artifact *filter.Artifact, result *Result) error {
	payload := diagnostics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Src:           src,
		Patterns:      patterns,
		FilterPath:    artifact.Path,
		FilterLines:   artifact.Lines,
		RsyncIncluded: result.RsyncIncluded,
		Decisions:     result.Decisions,
		Mismatches:    result.Mismatches,
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return errors.Errorf("marshaling diagnostics: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Errorf("writing diagnostics: %w", err)
	}
	return nil
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func runRsync(ctx context.Context, args []string) (string, error) {
	if _, err := exec.LookPath("rsync"); err != nil {
		return "", errors.New("rsync not found on PATH, please install rsync (e.g. 'apt-get install -y rsync')")
	}

	cmd := exec.CommandContext(ctx, "rsync", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return stdout.String(), errors.Errorf("running rsync: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
