package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/avolkov/mdex/internal/model"
)

// Extractor defines the interface for extracting one filing.
type Extractor interface {
	ExtractFile(ctx context.Context, path string) (*model.ExtractionResult, error)
}

// ExtractJob represents one filing to extract.
type ExtractJob struct {
	Path      string
	Extractor Extractor
	Limiter   *Limiter
}

// Execute runs the extraction job.
func (j *ExtractJob) Execute(ctx context.Context) Result {
	if j.Limiter != nil {
		if err := j.Limiter.Wait(ctx); err != nil {
			return &ExtractResult{Path: j.Path, Error: err}
		}
	}

	result, err := j.Extractor.ExtractFile(ctx, j.Path)
	return &ExtractResult{
		Path:   j.Path,
		Result: result,
		Error:  err,
	}
}

// ExtractResult represents the outcome of one extraction job.
type ExtractResult struct {
	Path   string
	Result *model.ExtractionResult
	Error  error
}

// GetError returns the error from the extraction result.
func (r *ExtractResult) GetError() error {
	return r.Error
}

// BatchProcessor extracts multiple filings concurrently.
type BatchProcessor struct {
	extractor   Extractor
	concurrency int
	limiter     *Limiter
}

// NewBatchProcessor creates a new batch processor. A nil limiter means
// unpaced throughput.
func NewBatchProcessor(extractor Extractor, concurrency int, limiter *Limiter) *BatchProcessor {
	return &BatchProcessor{
		extractor:   extractor,
		concurrency: concurrency,
		limiter:     limiter,
	}
}

// ProcessFiles extracts the given filings concurrently.
func (b *BatchProcessor) ProcessFiles(ctx context.Context, paths []string) []*ExtractResult {
	if len(paths) == 0 {
		return []*ExtractResult{}
	}

	pool := NewPool(b.concurrency)
	pool.Start()

	for _, path := range paths {
		pool.Submit(&ExtractJob{
			Path:      path,
			Extractor: b.extractor,
			Limiter:   b.limiter,
		})
	}

	results := pool.Wait()

	extractResults := make([]*ExtractResult, len(results))
	for i, result := range results {
		extractResults[i] = result.(*ExtractResult)
	}
	return extractResults
}

// ProcessList reads filing paths from a list file (one per line) and
// extracts them concurrently.
func (b *BatchProcessor) ProcessList(ctx context.Context, listPath string) ([]*ExtractResult, error) {
	paths, err := ReadPathsFromFile(listPath)
	if err != nil {
		return nil, fmt.Errorf("read list: %w", err)
	}
	return b.ProcessFiles(ctx, paths), nil
}

// Tally aggregates batch results into run statistics.
func Tally(results []*ExtractResult) model.Stats {
	stats := model.Stats{Total: len(results)}
	for _, r := range results {
		if r.Error != nil || r.Result == nil {
			stats.Failed++
			continue
		}
		stats.Successful++
	}
	return stats
}

// ReadPathsFromFile reads filing paths from a file, one per line. Blank
// lines and #-comments are skipped, duplicates are dropped.
func ReadPathsFromFile(listPath string) ([]string, error) {
	file, err := os.Open(listPath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			paths = append(paths, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return paths, nil
}
