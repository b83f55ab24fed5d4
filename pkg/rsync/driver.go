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
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/syncrc/pkg/config"
	"github.com/walteh/syncrc/pkg/filter"
	"github.com/walteh/syncrc/pkg/log"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// 🔧 Options is everything one transfer invocation needs. Values come from
// the merged config/flag layer; the driver trusts but re-validates them.
type Options struct {
	Source             string
	Dest               string
	Mode               string // one-way | two-way
	DryRun             bool
	UseSourceGitignore bool
	ExcludeHiddenDirs  bool
	OnlySyncignore     bool
	IgnoreSrc          []string
	IgnoreDest         []string
	Only               []string
	DumpCommands       string // JSON command-dump artifact path, optional
	Report             string // markdown report path, optional
	ListFiltered       string // "", "src", "dst", "both": predict locally, no transfer
}

func (o *Options) validate() error {
	if o.Source == "" || o.Dest == "" {
		return errors.New("source and dest must be provided either via CLI or config file")
	}
	if o.Mode == "" {
		o.Mode = config.ModeOneWay
	}
	if o.Mode != config.ModeOneWay && o.Mode != config.ModeTwoWay {
		return errors.Errorf("mode must be one of [%s %s], got %q", config.ModeOneWay, config.ModeTwoWay, o.Mode)
	}
	if _, err := os.Stat(o.Source); err != nil {
		return errors.Errorf("source directory: %w", err)
	}
	return nil
}

// listFilteredSides maps the ListFiltered value onto the sides to walk.
func (o *Options) listFilteredSides() (src, dst bool) {
	switch o.ListFiltered {
	case "src":
		return true, false
	case "dst":
		return false, true
	case "both":
		return true, true
	default:
		return false, false
	}
}

// 🚚 Driver composes rule sets for both sides and either hands them to the
// external rsync binary or predicts its behavior locally.
type Driver struct {
	logger *log.Logger

	// execRsync runs the prepared argument list and returns stdout. Swapped
	// out in tests.
	execRsync func(ctx context.Context, args []string) (string, error)
}

// 🏭 NewDriver creates a driver reporting through logger.
func NewDriver(logger *log.Logger) *Driver {
	return &Driver{
		logger:    logger,
		execRsync: runRsync,
	}
}

// baseOpts is the fixed option bundle every transfer uses.
func baseOpts(dryRun bool) []string {
	opts := []string{"-a", "--human-readable", "--itemize-changes", "--partial"}
	if dryRun {
		opts = append(opts, "--dry-run")
	}
	return append(opts, "--checksum")
}

// 🏃 Sync performs one invocation: compile filters, then transfer (or, in
// list-filtered mode, predict locally). Rule-file artifacts are removed on
// every exit path.
func (d *Driver) Sync(ctx context.Context, opts Options) error {
	logger := zerolog.Ctx(ctx)

	if err := opts.validate(); err != nil {
		return err
	}

	srcRules := d.sourceRuleSet(ctx, opts)
	dstRules, haveDstRules := d.destRuleSet(opts)

	if opts.ListFiltered != "" {
		return d.listFiltered(ctx, opts, srcRules, dstRules)
	}

	srcFilter, err := filter.WriteArtifact(srcRules)
	if err != nil {
		return errors.Errorf("writing source filter: %w", err)
	}
	defer srcFilter.Remove()

	var dstFilter *filter.Artifact
	if haveDstRules {
		dstFilter, err = filter.WriteArtifact(dstRules)
		if err != nil {
			return errors.Errorf("writing dest filter: %w", err)
		}
		defer dstFilter.Remove()
	}

	if opts.Mode == config.ModeTwoWay {
		if err := preserveConflicts(ctx, opts.Source, opts.Dest); err != nil {
			logger.Warn().Err(err).Msg("conflict pre-pass incomplete")
		}
	}

	report := &Report{}
	out, err := d.run(ctx, opts, opts.Source, opts.Dest, srcFilter, dstFilter)
	if err != nil {
		return err
	}
	report.AddChanges(ParseItemized(out))

	if opts.Mode == config.ModeTwoWay {
		// Bring the source up to date with destination changes, filters swapped.
		out, err = d.run(ctx, opts, opts.Dest, opts.Source, dstFilter, srcFilter)
		if err != nil {
			return err
		}
		report.AddChanges(ParseItemized(out))
	}

	if opts.Report != "" {
		excluded, err := CollectExcluded(opts.Source, srcRules)
		if err != nil {
			logger.Warn().Err(err).Msg("collecting excluded files for report")
		}
		report.Excluded = excluded
		d.writeReport(ctx, opts.Report, report)
	}

	return nil
}

// sourceRuleSet layers .syncignore, the optional source .gitignore, and
// inline excludes, in that fixed precedence order. A whitelist replaces
// them all.
func (d *Driver) sourceRuleSet(ctx context.Context, opts Options) filter.RuleSet {
	defaults := defaultExcludes(opts)

	if len(opts.Only) > 0 {
		return filter.CompileWhitelist(opts.Only, defaults)
	}

	var patterns []string
	patterns = append(patterns, d.readIgnoreFile(ctx, filepath.Join(opts.Source, ".syncignore"))...)
	if opts.UseSourceGitignore && !opts.OnlySyncignore {
		patterns = append(patterns, d.readIgnoreFile(ctx, filepath.Join(opts.Source, ".gitignore"))...)
	}
	patterns = append(patterns, opts.IgnoreSrc...)

	return filter.Compile(patterns, defaults)
}

func (d *Driver) destRuleSet(opts Options) (filter.RuleSet, bool) {
	if len(opts.IgnoreDest) == 0 {
		return filter.RuleSet{}, false
	}
	return filter.Compile(opts.IgnoreDest, defaultExcludes(opts)), true
}

// Version-control metadata never syncs; hidden directories are optional.
func defaultExcludes(opts Options) []string {
	defaults := []string{"- /.git/"}
	if opts.ExcludeHiddenDirs {
		defaults = append(defaults, "- .*/")
	}
	return defaults
}

// readIgnoreFile returns the non-blank, trimmed pattern lines of path. A
// missing or unreadable file contributes nothing: pattern sources are never
// fatal.
func (d *Driver) readIgnoreFile(ctx context.Context, path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			zerolog.Ctx(ctx).Warn().Err(err).Str("path", path).Msg("skipping unreadable ignore file")
		}
		return nil
	}

	var patterns []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			patterns = append(patterns, line)
		}
	}
	return patterns
}

// run executes one rsync direction with the given filter artifacts.
func (d *Driver) run(ctx context.Context, opts Options, src, dst string, srcFilter, dstFilter *filter.Artifact) (string, error) {
	args := baseOpts(opts.DryRun)

	// Source filters go first so source-side include rules take precedence.
	if srcFilter != nil {
		args = append(args, "--filter", ". "+srcFilter.Path)
	}
	if dstFilter != nil {
		args = append(args, "--filter", ". "+dstFilter.Path)
	}
	args = append(args, trailingSlash(src), trailingSlash(dst))

	zerolog.Ctx(ctx).Debug().Strs("args", args).Msg("prepared rsync command")

	if opts.DumpCommands != "" {
		cmd := append([]string{"rsync"}, args...)
		writeCommandDump(ctx, opts.DumpCommands, src, dst, baseOpts(opts.DryRun), cmd, srcFilter, dstFilter)
	}

	out, err := d.execRsync(ctx, args)
	if err != nil {
		return out, errors.Errorf("rsync %s -> %s: %w", src, dst, err)
	}
	return out, nil
}

// listFiltered predicts exclusions locally instead of invoking the transfer
// tool, walking the requested sides concurrently.
func (d *Driver) listFiltered(ctx context.Context, opts Options, srcRules, dstRules filter.RuleSet) error {
	walkSrc, walkDst := opts.listFilteredSides()
	if !walkSrc && !walkDst {
		return errors.Errorf("list-filtered must be one of [src dst both], got %q", opts.ListFiltered)
	}

	var srcExcluded, dstExcluded []string

	g, _ := errgroup.WithContext(ctx)
	if walkSrc {
		g.Go(func() error {
			var err error
			srcExcluded, err = CollectExcluded(opts.Source, srcRules)
			return err
		})
	}
	if walkDst {
		g.Go(func() error {
			if _, err := os.Stat(opts.Dest); err != nil {
				// Nothing on the destination side yet, nothing to filter.
				return nil
			}
			var err error
			dstExcluded, err = CollectExcluded(opts.Dest, dstRules)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return errors.Errorf("listing filtered files: %w", err)
	}

	excluded := append(append([]string(nil), srcExcluded...), dstExcluded...)
	for _, path := range excluded {
		d.logger.LogFileChange(log.FileChange{Type: log.FileExcluded, Path: path})
	}
	d.logger.Infof("%d file(s) excluded by filters", len(excluded))

	if opts.Report != "" {
		d.writeReport(ctx, opts.Report, &Report{Excluded: excluded})
	}

	return nil
}

// writeReport persists the markdown report. Failures are warnings: the
// report is diagnostics, never a reason to fail the transfer.
func (d *Driver) writeReport(ctx context.Context, path string, report *Report) {
	if err := os.WriteFile(path, []byte(report.Markdown()), 0o644); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("path", path).Msg("writing report")
		return
	}
	zerolog.Ctx(ctx).Info().Str("path", path).Msg("wrote sync report")
}

// runRsync invokes the real binary.
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

func trailingSlash(p string) string {
	return strings.TrimRight(p, "/") + "/"
}
