package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/avolkov/mdex/internal/logging"
	"github.com/avolkov/mdex/internal/pipeline"
)

var (
	outputDir   string
	jsonSidecar bool
	noCache     bool
	noXrefs     bool
	timeout     time.Duration
	llmEnabled  bool
	llmProvider string
	llmModel    string
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Extract the discussion section from a single filing",
	Long: `Extract processes one EDGAR text filing:
- Decode and normalize the filing text
- Locate the Management's Discussion and Analysis section
- Validate length and content for the form type
- Detect tables, subsections, and cross-references
- Write the section with a metadata header

Example:
  mdex extract 20230103_10-K_edgar_data_320193_0000320193-23-000106.txt
  mdex extract filing.txt --output-dir ./sections --json
  mdex extract filing.txt --llm --llm-provider openai --llm-model gpt-4o-mini`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	// Output flags
	extractCmd.Flags().StringVar(&outputDir, "output-dir", "./mdex-output", "output directory for extracted sections")
	extractCmd.Flags().BoolVar(&jsonSidecar, "json", false, "also write a JSON metadata sidecar per filing")
	extractCmd.Flags().BoolVar(&noXrefs, "no-xrefs", false, "do not resolve and append cross-references")
	extractCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the normalized-document cache")
	extractCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall extraction timeout")

	// LLM flags
	extractCmd.Flags().BoolVar(&llmEnabled, "llm", false, "enable LLM summary generation")
	extractCmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, ollama)")
	extractCmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name")
}

func runExtract(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cfg := baseConfig()
	cfg.Output.Dir = outputDir
	cfg.Output.JSON = jsonSidecar
	cfg.Xref.Resolve = !noXrefs
	cfg.Output.AppendXrefs = !noXrefs
	if noCache {
		cfg.Cache.Enabled = false
	}
	if llmEnabled {
		if err := configureLLM(cfg, llmProvider, llmModel); err != nil {
			return err
		}
	}

	log := logging.New(verbose, logJSON)
	defer func() { _ = log.Sync() }()

	p, err := pipeline.New(cfg, log)
	if err != nil {
		return fmt.Errorf("initialize pipeline: %w", err)
	}

	result, err := p.ExtractFile(ctx, file)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ %s %s (%s)\n", result.Filing.FormType, result.Filing.CompanyName, result.Filing.CIK)
		fmt.Fprintf(os.Stderr, "✓ Extracted %d words\n", result.WordCount)
		if result.ViaIncorporation {
			fmt.Fprintf(os.Stderr, "✓ Followed incorporation by reference: %s\n", filepath.Base(result.ReferencedDoc))
		}
		if result.TableCount > 0 {
			fmt.Fprintf(os.Stderr, "✓ Detected %d tables\n", result.TableCount)
		}
		if result.Summary != nil {
			fmt.Fprintf(os.Stderr, "✓ Generated summary using %s/%s\n", result.Summary.Provider, result.Summary.Model)
		}
		for _, w := range result.Warnings {
			fmt.Fprintf(os.Stderr, "! %s\n", w)
		}
	}

	outPath := filepath.Join(outputDir, pipeline.OutputName(result.Filing)+".txt")
	fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", outPath)
	return nil
}
