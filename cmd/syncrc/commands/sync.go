package commands

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/walteh/syncrc/pkg/config"
	"github.com/walteh/syncrc/pkg/log"
	"github.com/walteh/syncrc/pkg/rsync"
	"github.com/walteh/syncrc/pkg/source"
)

// 🧰 RootOpts carries the shared root-command state into subcommands.
type RootOpts struct {
	ConfigPath string
}

type syncFlags struct {
	source             string
	dest               string
	mode               string
	dryRun             bool
	useSourceGitignore bool
	excludeHiddenDirs  bool
	onlySyncignore     bool
	ignoreSrc          []string
	ignoreDest         []string
	only               []string
	dumpCommands       string
	report             string
	listFiltered       string
}

// NewSyncCmd creates the sync command
func NewSyncCmd(opts *RootOpts) *cobra.Command {
	f := &syncFlags{}

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Mirror a source tree to a destination through rsync with layered filters",
		Long: `Sync runs rsync between SOURCE and DEST with filter rules compiled from
.syncignore, the source .gitignore (opt-in), inline excludes, or a whitelist.
Defaults can come from a config file and are overridden flag by flag.

The source may be a local directory, a git URL (shallow-cloned), an archive
URL, or "github.com/owner/repo[@ref]" shorthand.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd.Context(), opts, f)
		},
	}

	cmd.Flags().StringVar(&f.source, "source", "", "source directory, git URL, archive URL, or github shorthand")
	cmd.Flags().StringVar(&f.dest, "dest", "", "destination directory")
	cmd.Flags().StringVar(&f.mode, "mode", "", "sync mode: one-way or two-way")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "show what would transfer without copying")
	cmd.Flags().BoolVar(&f.useSourceGitignore, "use-source-gitignore", false, "also apply the source tree's .gitignore")
	cmd.Flags().BoolVar(&f.excludeHiddenDirs, "exclude-hidden-dirs", false, "exclude hidden directories from the transfer")
	cmd.Flags().BoolVar(&f.onlySyncignore, "only-syncignore", false, "ignore the source .gitignore even when enabled")
	cmd.Flags().StringArrayVar(&f.ignoreSrc, "ignore-src", nil, "extra source-side exclude pattern (repeatable)")
	cmd.Flags().StringArrayVar(&f.ignoreDest, "ignore-dest", nil, "destination-side exclude pattern (repeatable)")
	cmd.Flags().StringArrayVar(&f.only, "only", nil, "whitelist entry: sync only these paths (repeatable)")
	cmd.Flags().StringVar(&f.dumpCommands, "dump-commands", "", "write the prepared rsync command and filters to this JSON file")
	cmd.Flags().StringVar(&f.report, "report", "", "write a markdown sync report to this path")
	cmd.Flags().StringVar(&f.listFiltered, "list-filtered", "", "list files the filters would drop without transferring: src, dst, or both")

	return cmd
}

func runSync(ctx context.Context, opts *RootOpts, f *syncFlags) error {
	logger := log.FromContext(ctx)

	cfg := &config.Config{}
	if opts.ConfigPath != "" {
		loaded, err := config.Load(ctx, opts.ConfigPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	src := f.source
	if src == "" {
		src = cfg.Source
	}

	resolved := ""
	cleanup := func() {}
	// The closure reads cleanup at return time, so a later reassignment
	// (config-named sources below) is still honored.
	defer func() { cleanup() }()

	if src != "" {
		var err error
		resolved, cleanup, err = source.Resolve(ctx, src)
		if err != nil {
			return err
		}
	}

	// Without an explicit config, look next to the (resolved) source tree and
	// then in the working directory. The discovered config may itself name the
	// source, in which case it still needs resolving.
	if opts.ConfigPath == "" {
		discovered, err := config.Discover(ctx, resolved)
		if err != nil {
			return err
		}
		cfg = discovered

		if src == "" && cfg.Source != "" {
			resolved, cleanup, err = source.Resolve(ctx, cfg.Source)
			if err != nil {
				return err
			}
		}
	}

	driverOpts := rsync.Options{
		Source:             resolved,
		Dest:               stringOr(f.dest, cfg.Dest),
		Mode:               stringOr(f.mode, cfg.Mode),
		DryRun:             f.dryRun || cfg.DryRun,
		UseSourceGitignore: f.useSourceGitignore || cfg.UseSourceGitignore,
		ExcludeHiddenDirs:  f.excludeHiddenDirs || cfg.ExcludeHiddenDirs,
		OnlySyncignore:     f.onlySyncignore || cfg.OnlySyncignore,
		IgnoreSrc:          listOr(f.ignoreSrc, cfg.IgnoreSrc),
		IgnoreDest:         listOr(f.ignoreDest, cfg.IgnoreDest),
		Only:               listOr(f.only, cfg.Only),
		DumpCommands:       f.dumpCommands,
		Report:             f.report,
		ListFiltered:       f.listFiltered,
	}

	logger.Zerolog().Debug().
		Str("source", driverOpts.Source).
		Str("dest", driverOpts.Dest).
		Str("mode", driverOpts.Mode).
		Bool("dry_run", driverOpts.DryRun).
		Msg("options after config merge")

	d := rsync.NewDriver(logger)
	if err := d.Sync(ctx, driverOpts); err != nil {
		return err
	}

	logger.Success("Sync completed")
	return nil
}

// stringOr returns the flag value when set, otherwise the config value.
func stringOr(flag, cfg string) string {
	if flag != "" {
		return flag
	}
	return cfg
}

func listOr(flag, cfg []string) []string {
	if len(flag) > 0 {
		return flag
	}
	return cfg
}
