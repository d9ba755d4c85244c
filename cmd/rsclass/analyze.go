package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/genomenote/rsclass/internal/analysis"
	"github.com/genomenote/rsclass/internal/cache"
	"github.com/genomenote/rsclass/internal/classify"
	"github.com/genomenote/rsclass/internal/duckdb"
	"github.com/genomenote/rsclass/internal/output"
)

var reportFormats = []string{"xlsx", "tab", "parquet"}

type analyzeOptions struct {
	forceRebuild  bool
	offline       bool
	keepUnmatched bool
	formats       []string
	outputDir     string
}

func newAnalyzeCmd(a *app) *cobra.Command {
	var opts analyzeOptions

	cmd := &cobra.Command{
		Use:   "analyze <genotype-file>",
		Short: "Classify the genotype calls of a raw data file",
		Long: `Annotate every RefSNP identifier in a 23andMe or AncestryDNA raw data file and
classify each genotype call. Only identifiers missing from the annotation
table are fetched; reports are written to <report.dir>/<name>/.`,
		Example: `  rsclass analyze user42_file7.23andme.txt
  rsclass analyze --offline --format tab genome.txt
  rsclass analyze --force-rebuild --keep-unmatched ancestry.txt`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if cmd.Flags().Changed("keep-unmatched") {
				cfg.Report.KeepUnmatched = opts.keepUnmatched
			}
			if opts.offline {
				cfg.Fetch.AllowDownload = false
			}
			if len(opts.formats) > 0 {
				cfg.Report.Formats = opts.formats
			}
			if opts.outputDir != "" {
				cfg.Report.Dir = opts.outputDir
			}
			for _, f := range cfg.Report.Formats {
				if !slices.Contains(reportFormats, f) {
					return usageError{fmt.Errorf("unknown report format %q (want one of %v)", f, reportFormats)}
				}
			}
			return runAnalyze(cmd.Context(), a, args[0], opts.forceRebuild, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&opts.forceRebuild, "force-rebuild", false, "Re-resolve every identifier, ignoring the annotation table")
	cmd.Flags().BoolVar(&opts.offline, "offline", false, "Use only records already on disk")
	cmd.Flags().BoolVar(&opts.keepUnmatched, "keep-unmatched", false, "Report annotated calls that no rule matches as 'unmatched'")
	cmd.Flags().StringSliceVarP(&opts.formats, "format", "f", nil, "Report formats: xlsx, tab, parquet (default from config)")
	cmd.Flags().StringVarP(&opts.outputDir, "output-dir", "o", "", "Report directory (default from config)")

	return cmd
}

func runAnalyze(ctx context.Context, a *app, inputPath string, forceRebuild bool, stdout io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := a.cfg
	logger := zap.L()

	base := reportBase(inputPath)
	outDir := filepath.Join(cfg.Report.Dir, base)
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}

	calls, err := loadCalls(inputPath, outDir, logger)
	if err != nil {
		return err
	}

	store, err := duckdb.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	client := newClient(cfg.Fetch, logger)
	annotations := cache.New(store, newResolver(cfg.Fetch, client, logger))
	annotations.SetLogger(logger)

	classifier := classify.NewClassifier()
	classifier.SetKeepUnmatched(cfg.Report.KeepUnmatched)
	classifier.SetLogger(logger)

	analyzer := analysis.NewAnalyzer(annotations, classifier)
	analyzer.SetForceRebuild(forceRebuild)
	analyzer.SetLogger(logger)

	studied, err := loadStudied(cfg.Citations, logger)
	if err != nil {
		return err
	}
	analyzer.SetStudied(studied)

	report, err := analyzer.Analyze(ctx, calls)
	if err != nil {
		return err
	}

	if err := store.WriteReport(ctx, report.RunID, report.Calls); err != nil {
		return fmt.Errorf("store report: %w", err)
	}

	written, err := writeReports(ctx, store, report, outDir, base, cfg.Report.Formats)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Run %s: %d calls, %d identifiers, %d classified (%d fetched)\n",
		report.RunID, len(calls), report.Requested, len(report.Calls), client.Fetches())
	for _, path := range written {
		fmt.Fprintf(stdout, "  %s\n", path)
	}
	if report.Incomplete {
		fmt.Fprintf(os.Stderr, "Warning: %d identifiers could not be resolved; results may be incomplete\n",
			len(report.Failed))
		fmt.Fprintf(os.Stderr, "Hint: rerun without --offline or outside the blackout window to fill them in\n")
	}
	return nil
}

// writeReports writes the report in each format and returns the file paths.
func writeReports(ctx context.Context, store *duckdb.Store, report *analysis.Report, dir, base string, formats []string) ([]string, error) {
	var written []string
	stem := filepath.Join(dir, base+"_variations")

	for _, format := range formats {
		switch format {
		case "tab":
			path := stem + ".tsv"
			if err := writeTab(path, report.Calls); err != nil {
				return written, err
			}
			written = append(written, path)
		case "xlsx":
			path := stem + ".xlsx"
			xw, err := output.NewXLSXWriter()
			if err != nil {
				return written, err
			}
			for _, cc := range report.Calls {
				xw.Write(cc)
			}
			if err := xw.Save(path); err != nil {
				return written, err
			}
			written = append(written, path)
		case "parquet":
			path := stem + ".parquet"
			if err := store.ExportReportParquet(ctx, report.RunID, path); err != nil {
				return written, err
			}
			written = append(written, path)
		}
	}
	return written, nil
}

func writeTab(path string, calls []classify.ClassifiedCall) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer f.Close()

	if err := encodeTab(f, calls); err != nil {
		return err
	}
	return f.Close()
}

func encodeTab(w io.Writer, calls []classify.ClassifiedCall) error {
	tw := output.NewTabWriter(w)
	if err := tw.WriteHeader(); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, cc := range calls {
		if err := tw.Write(cc); err != nil {
			return fmt.Errorf("write report row: %w", err)
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush report: %w", err)
	}
	return nil
}
