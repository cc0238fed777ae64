package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/avolkov/mdex/internal/filings"
	"github.com/avolkov/mdex/internal/logging"
	"github.com/avolkov/mdex/internal/pipeline"
)

var (
	concurrency  int
	batchTimeout time.Duration
	cikFile      string
	listFile     bool
	filesPerSec  float64
	burst        int
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <dir|zip>",
	Short: "Extract sections from a directory or ZIP of filings in parallel",
	Long: `Batch processes an EDGAR filing corpus concurrently:
- Walk a directory of .txt filings, or unpack a .zip archive
- Keep the best form per company and year (10-K/A > 10-K > 10-Q/A > 10-Q)
- Optionally restrict to a CIK allow-list from a CSV file
- Process filings in parallel with configurable worker count

Example:
  mdex batch ./filings-2023
  mdex batch filings.zip --concurrency 10 --output-dir ./sections
  mdex batch ./filings-2023 --cik-file sp500_2023.csv
  mdex batch paths.txt --list --rate 20`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	// Concurrency flags
	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().Float64Var(&filesPerSec, "rate", 0, "max filings started per second (0 = unlimited)")
	batchCmd.Flags().IntVar(&burst, "burst", 5, "rate limiter burst size")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")

	// Selection flags
	batchCmd.Flags().StringVar(&cikFile, "cik-file", "", "CSV file of CIKs to process (first column)")
	batchCmd.Flags().BoolVar(&listFile, "list", false, "treat the argument as a file listing filing paths")

	// Output flags
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./mdex-output", "output directory for extracted sections")
	batchCmd.Flags().BoolVar(&jsonSidecar, "json", false, "also write a JSON metadata sidecar per filing")
	batchCmd.Flags().BoolVar(&noXrefs, "no-xrefs", false, "do not resolve and append cross-references")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the normalized-document cache")

	// LLM flags
	batchCmd.Flags().BoolVar(&llmEnabled, "llm", false, "enable LLM summary generation")
	batchCmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, ollama)")
	batchCmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name")
}

func runBatch(cmd *cobra.Command, args []string) error {
	input := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  mdex Batch Extraction\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input:        %s\n", input)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	if cikFile != "" {
		fmt.Fprintf(os.Stderr, "  CIK filter:   %s\n", cikFile)
	}

	cfg := baseConfig()
	cfg.Output.Dir = outputDir
	cfg.Output.JSON = jsonSidecar
	cfg.Xref.Resolve = !noXrefs
	cfg.Output.AppendXrefs = !noXrefs
	cfg.Concurrency.Workers = concurrency
	cfg.Concurrency.FilesPerSecond = filesPerSec
	cfg.Concurrency.Burst = burst
	if noCache {
		cfg.Cache.Enabled = false
	}
	if llmEnabled {
		if err := configureLLM(cfg, llmProvider, llmModel); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "  LLM:          %s/%s\n", llmProvider, llmModel)
	}
	fmt.Fprintf(os.Stderr, "\n")

	log := logging.New(verbose, logJSON)
	defer func() { _ = log.Sync() }()

	p, err := pipeline.New(cfg, log)
	if err != nil {
		return fmt.Errorf("initialize pipeline: %w", err)
	}

	var filter *filings.CIKFilter
	if cikFile != "" {
		filter = filings.NewCIKFilter(cikFile, log)
	}

	var stats pipeline.Stats
	switch {
	case listFile:
		stats, err = p.ProcessList(ctx, input, filter)
	case strings.EqualFold(filepath.Ext(input), ".zip"):
		stats, err = p.ProcessArchive(ctx, input, filter)
	default:
		info, statErr := os.Stat(input)
		if statErr != nil {
			return statErr
		}
		if !info.IsDir() {
			return fmt.Errorf("batch input must be a directory, a .zip archive, or a --list file: %s", input)
		}
		stats, err = p.ProcessDirectory(ctx, input, filter)
	}
	if err != nil {
		return fmt.Errorf("batch failed: %w", err)
	}

	// Summary
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d filings\n", stats.Total)
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", stats.Successful)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", stats.Failed)
	if stats.Filtered > 0 {
		fmt.Fprintf(os.Stderr, "  Filtered:  %d\n", stats.Filtered)
	}
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}
