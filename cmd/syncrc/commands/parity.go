package commands

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/walteh/syncrc/pkg/log"
	"github.com/walteh/syncrc/pkg/parity"
	"gitlab.com/tozd/go/errors"
)

// ErrParityMismatch marks a completed check that found disagreements. The
// process exits with code 2 for it, distinct from harness failures.
var ErrParityMismatch = errors.Base("local matcher and rsync disagree")

const mismatchPrintCap = 200

// NewParityCmd creates the parity command
func NewParityCmd(opts *RootOpts) *cobra.Command {
	var (
		srcDir       string
		patternsFile string
		patterns     []string
		dumpJSON     string
	)

	cmd := &cobra.Command{
		Use:   "parity",
		Short: "Cross-check the local filter evaluator against an rsync dry-run",
		Long: `Parity compiles the given patterns into a rule file, asks rsync (dry-run)
which files it would transfer under that file, and compares rsync's verdict
with the local evaluator's for every file under --src. Disagreements are
written to a JSON diagnostics file and exit with code 2.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := log.FromContext(ctx)

			if patternsFile != "" {
				loaded, err := readPatternsFile(patternsFile)
				if err != nil {
					return err
				}
				patterns = loaded
			}

			result, err := parity.NewChecker().Check(ctx, srcDir, patterns, dumpJSON)
			if err != nil {
				return err
			}

			if result.Agree() {
				logger.Success("No mismatches: local matcher and rsync dry-run agree for all files")
				return nil
			}

			logger.Errorf("Found %d mismatch(es):", len(result.Mismatches))
			for i, m := range result.Mismatches {
				if i == mismatchPrintCap {
					logger.Warningf("... and %d more", len(result.Mismatches)-mismatchPrintCap)
					break
				}
				logger.Errorf(" - %s local=%s rsync=%s", m.Path, m.Local, m.Rsync)
			}
			return ErrParityMismatch
		},
	}

	cmd.Flags().StringVar(&srcDir, "src", "", "source directory to evaluate")
	cmd.Flags().StringVar(&patternsFile, "patterns", "", "path to a newline-separated pattern file")
	cmd.Flags().StringArrayVar(&patterns, "pattern", nil, "inline pattern (repeatable)")
	cmd.Flags().StringVar(&dumpJSON, "dump-json", "", "write diagnostics JSON to this path")
	_ = cmd.MarkFlagRequired("src")
	cmd.MarkFlagsMutuallyExclusive("patterns", "pattern")
	cmd.MarkFlagsOneRequired("patterns", "pattern")

	return cmd
}

func readPatternsFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading patterns file: %w", err)
	}

	var patterns []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			patterns = append(patterns, line)
		}
	}
	return patterns, nil
}
