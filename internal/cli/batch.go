package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ppiankov/glosshover/internal/pipeline"
	"github.com/ppiankov/glosshover/internal/worker"
	"github.com/spf13/cobra"
)

var (
	batchRender  renderFlags
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <list-file>",
	Short: "Annotate many files and URLs in parallel",
	Long: `Batch annotates every target listed in a file (one path or URL per line,
# comments allowed) with a pool of workers. URL targets are rate limited per
host. Each target is written to <output-dir>/NNN-<name>.html with a
.report.json next to it.

Example:
  glosshover batch targets.txt --glossary glossary.yaml
  glosshover batch targets.txt --db terms.db --concurrency 8 --output-dir ./out`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default: config concurrency.workers)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./glosshover-out", "output directory for annotated documents")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	addRenderFlags(batchCmd, &batchRender)
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}

	if concurrency > 0 {
		cfg.Concurrency.Workers = concurrency
	}

	src, err := openSource(cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	cfg.Render = resolveRender(cmd, cfg, src, &batchRender)
	if batchRender.noCache {
		cfg.Cache.Enabled = false
	}

	c, closeCache, err := openCache(cfg, log)
	if err != nil {
		return err
	}
	defer closeCache()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  glosshover batch\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	p := pipeline.NewPipeline(cfg, src.source, c, log)

	processor := worker.NewBatchProcessor(p, cfg.Concurrency.Workers, cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize).
		WithHostRates(cfg.RateLimiting.Hosts).
		WithOutputDir(outputDir).
		WithLogger(log)

	results, err := processor.ProcessFile(ctx, file)
	if err != nil && results == nil {
		return fmt.Errorf("process file: %w", err)
	}

	successCount := 0
	failureCount := 0
	matches := 0

	for _, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Target, result.Error)
			continue
		}

		successCount++
		matches += result.Output.Report.Matches
		fmt.Fprintf(os.Stderr, "✓ %s → %s (%d tooltips)\n", result.Target, result.OutputPath, result.Output.Report.Matches)
	}

	// Summary
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d targets\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Tooltips:  %d\n", matches)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	if err != nil {
		return fmt.Errorf("batch interrupted: %w", err)
	}
	if failureCount > 0 {
		return fmt.Errorf("%d of %d targets failed", failureCount, len(results))
	}
	return nil
}
