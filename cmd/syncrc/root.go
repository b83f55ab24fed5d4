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

package main

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/syncrc/cmd/syncrc/commands"
	"github.com/walteh/syncrc/pkg/log"
	"gitlab.com/tozd/go/errors"
)

var (
	// Shared flags
	verbosity int
	logLevel  string
	logFile   string
	logFormat string
)

func newRootCmd() *cobra.Command {
	opts := &commands.RootOpts{}

	rootCmd := &cobra.Command{
		Use:   "syncrc",
		Short: "A wrapper around rsync with .syncignore, whitelist, and layered filters",
		Long: `syncrc mirrors a source tree to a destination through rsync,
compiling gitignore-like patterns (.syncignore, the source .gitignore,
inline excludes, or a whitelist) into rsync filter rules. It can also
predict locally which files the filters drop, without running rsync.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(cmd)
		},
	}

	addRootFlags(rootCmd, opts)

	rootCmd.AddCommand(
		commands.NewSyncCmd(opts),
		commands.NewParityCmd(opts),
	)

	return rootCmd
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command, opts *commands.RootOpts) {
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (toml, yaml, or hcl)")
	cmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "explicit log level (overrides -v): debug, info, warn, error")
	cmd.PersistentFlags().StringVar(&logFile, "log-file", "", "path to write logs")
	cmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format: text or json")
}

// setupLogging configures zerolog based on flags and attaches both the
// structured logger and the user-facing logger to the command context.
func setupLogging(cmd *cobra.Command) error {
	level := zerolog.InfoLevel
	if verbosity > 0 {
		level = zerolog.DebugLevel
	}
	if logLevel != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(logLevel))
		if err != nil {
			return errors.Errorf("parsing log level %q: %w", logLevel, err)
		}
		level = parsed
	}

	var out io.Writer = os.Stderr
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return errors.Errorf("opening log file: %w", err)
		}
		out = f
	}

	switch logFormat {
	case "text":
		out = zerolog.ConsoleWriter{Out: out}
	case "json":
		// zerolog's native output
	default:
		return errors.Errorf("log format must be one of [text json], got %q", logFormat)
	}

	zlog := zerolog.New(out).Level(level).With().Timestamp().Logger()

	ctx := zlog.WithContext(cmd.Context())
	ctx = log.NewContext(ctx, log.New(os.Stdout, zlog))
	cmd.SetContext(ctx)

	return nil
}
