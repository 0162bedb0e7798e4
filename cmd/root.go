// Package cmd implements the log2src command line: map log lines back to
// the source statements that produced them.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ttiimm/log2src/internal/index"
	"github.com/ttiimm/log2src/internal/lang"
	"github.com/ttiimm/log2src/internal/layout"
	"github.com/ttiimm/log2src/internal/logparse"
	"github.com/ttiimm/log2src/internal/match"
	"github.com/ttiimm/log2src/internal/output"
	"github.com/ttiimm/log2src/internal/persistence"
	"github.com/ttiimm/log2src/internal/store"
	"github.com/ttiimm/log2src/internal/tui"
)

var (
	directories []string
	logPath     string
	formatFlag  string
	startLine   int
	endLine     int
	verbose     bool
	noCache     bool
)

var rootCmd = &cobra.Command{
	Use:   "log2src",
	Short: "Map log lines back to the source statements that emitted them",
	Long: `log2src indexes the logging calls of a source tree and maps each line
of a finished log file back to the call that produced it, recovering the
values that filled its placeholders and resolving embedded stack traces
to source references.

Output is one JSON object per requested log line on stdout; diagnostics
go to stderr. Unmatched lines are reported with a sentinel source
reference, never an error.`,
	Version:       Version,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runMap,
}

// Execute runs the root command, cancelling long operations on SIGINT
// and SIGTERM at file-boundary granularity.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.Flags().StringArrayVarP(&directories, "directory", "d", []string{"."},
		"source root (repeatable; later roots shadow earlier ones)")
	rootCmd.Flags().StringVar(&logPath, "log", "", "log file to analyse")
	rootCmd.Flags().StringVarP(&formatFlag, "format", "f", "",
		"layout pattern ({timestamp} {level} {thread} {logger} {message})")
	rootCmd.Flags().IntVar(&startLine, "start", 1, "1-based first log line, inclusive")
	rootCmd.Flags().IntVar(&endLine, "end", 0, "1-based end log line, exclusive (0 = end of file)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false,
		"log diagnostics to stderr and surface match scores")
	rootCmd.Flags().BoolVar(&noCache, "no-cache", false, "rebuild the template index unconditionally")
	_ = rootCmd.MarkFlagRequired("log")
}

func runMap(cmd *cobra.Command, _ []string) error {
	logger := diagLogger()

	cfg, err := persistence.Load(directories[0])
	if err != nil {
		return err
	}

	lay, err := resolveLayout(cfg)
	if err != nil {
		return err
	}

	idx, err := loadOrBuildIndex(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}

	records, err := logparse.Window(logPath, lay, startLine, endLine)
	if err != nil {
		return err
	}
	logger.Debug("parsed log window", "records", len(records), "start", startLine, "end", endLine)

	matcher := match.New(idx).Threshold(cfg.MatchThreshold()).Verbose(verbose)
	mappings := make([]*match.Mapping, 0, len(records))
	for _, rec := range records {
		mappings = append(mappings, matcher.Map(rec))
	}
	return output.WriteMappings(os.Stdout, mappings)
}

// resolveLayout picks the layout: the --format flag, then the project
// config, then the default.
func resolveLayout(cfg *persistence.Config) (*layout.Layout, error) {
	pattern := formatFlag
	if pattern == "" {
		pattern = cfg.Layout
	}
	if pattern == "" {
		return layout.Default(), nil
	}
	lay, err := layout.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid --format pattern: %w", err)
	}
	return lay, nil
}

// loadOrBuildIndex reuses the on-disk store when its digest matches the
// live tree, rebuilding and overwriting otherwise. Store trouble is never
// fatal; the index is.
func loadOrBuildIndex(ctx context.Context, cfg *persistence.Config, logger *slog.Logger) (*index.Index, error) {
	builder := index.NewBuilder(directories, lang.DefaultRegistry()).Ignore(cfg.Ignore...)

	digest, err := builder.LiveDigest()
	if err != nil {
		return nil, err
	}

	if !noCache {
		if idx, ok := store.Load(directories[0], digest); ok {
			logger.Debug("loaded template index from store", "templates", idx.Len())
			return idx, nil
		}
	}

	started := time.Now()
	idx, warnings, err := builder.Build(ctx)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		tui.Warnf("skipped %s", w)
	}
	logger.Debug("built template index",
		"templates", idx.Len(), "warnings", len(warnings), "elapsed", time.Since(started))

	if err := store.Save(directories[0], idx); err != nil {
		// The store is a hint; failing to write it costs a re-parse.
		tui.Warnf("could not write %s: %v", store.FileName, err)
	}
	return idx, nil
}

// diagLogger logs to stderr, never stdout, as the output contract demands:
// debug diagnostics in verbose mode, only warnings and errors otherwise.
func diagLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
