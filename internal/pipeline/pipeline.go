// Package pipeline orchestrates the extraction of one filing: read,
// normalize, locate the discussion section, validate, enrich, render.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/avolkov/mdex/internal/cache"
	"github.com/avolkov/mdex/internal/filings"
	"github.com/avolkov/mdex/internal/llm"
	"github.com/avolkov/mdex/internal/model"
	"github.com/avolkov/mdex/internal/normalize"
	"github.com/avolkov/mdex/internal/reader"
	"github.com/avolkov/mdex/internal/refdoc"
	"github.com/avolkov/mdex/internal/section"
	"github.com/avolkov/mdex/internal/tables"
	"github.com/avolkov/mdex/internal/worker"
	"github.com/avolkov/mdex/internal/xref"
)

// ErrMetadata is returned when neither the filename nor the content
// yields enough metadata to identify the filing.
var ErrMetadata = errors.New("pipeline: filing metadata not found")

// Pipeline runs the complete extraction process for filings.
type Pipeline struct {
	reader     *reader.Reader
	normalizer *normalize.Normalizer
	detector   *section.Detector
	tables     *tables.Detector
	xrefs      *xref.Resolver
	renderer   *Renderer
	summarizer *llm.Summarizer // nil when disabled
	docCache   cache.Cache     // nil when disabled
	cfg        *model.Config
	log        *zap.Logger
}

// New creates a pipeline from configuration.
func New(cfg *model.Config, log *zap.Logger) (*Pipeline, error) {
	if log == nil {
		log = zap.NewNop()
	}

	normalizer := normalize.New()

	var summarizer *llm.Summarizer
	if cfg.LLM.Provider != "" {
		s, err := llm.NewSummarizer(cfg.LLM, log)
		if err != nil {
			log.Warn("LLM summarizer disabled", zap.Error(err))
		} else {
			summarizer = s
		}
	}

	var docCache cache.Cache
	if cfg.Cache.Enabled && cfg.Cache.Dir != "" {
		docCache = cache.NewLayeredCache(cfg.Cache.TTL, cfg.Cache.Dir, cfg.Cache.TTL)
	}

	clean := func(s string) string { return normalizer.Normalize(s, false) }

	return &Pipeline{
		reader:     reader.New(cfg.Reader, log),
		normalizer: normalizer,
		detector:   section.NewDetector(cfg.Detector, log),
		tables:     tables.NewDetector(cfg.Tables),
		xrefs:      xref.NewResolver(cfg.Xref, clean, log),
		renderer:   NewRenderer(cfg.Output),
		summarizer: summarizer,
		docCache:   docCache,
		cfg:        cfg,
		log:        log,
	}, nil
}

// ExtractFile extracts the discussion section from one filing and writes
// the rendered output. It satisfies worker.Extractor.
func (p *Pipeline) ExtractFile(ctx context.Context, path string) (*model.ExtractionResult, error) {
	p.log.Info("processing filing", zap.String("file", filepath.Base(path)))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	normalized, err := p.loadNormalized(path)
	if err != nil {
		return nil, err
	}

	filing, err := p.buildFiling(path, normalized)
	if err != nil {
		return nil, err
	}

	result := &model.ExtractionResult{
		Filing:      filing,
		ExtractedAt: time.Now().UTC(),
	}

	span, err := p.detector.Find(normalized, filing.FormType)
	if err != nil {
		// The section may live in a different document entirely,
		// incorporated by reference.
		recovered, refPath, incErr := p.resolveIncorporation(normalized, path)
		if incErr != nil {
			return nil, incErr
		}
		normalized = recovered
		span = section.Span{Start: 0, End: len(recovered)}
		result.ViaIncorporation = true
		result.ReferencedDoc = refPath
	}

	sectionText := normalized[span.Start:span.End]

	validation := section.Validate(sectionText, filing.FormType)
	result.Start = span.Start
	result.End = span.End
	result.Valid = validation.Valid
	result.WordCount = validation.WordCount
	result.Warnings = validation.Warnings
	for _, w := range validation.Warnings {
		p.log.Warn("validation warning", zap.String("file", filepath.Base(path)), zap.String("warning", w))
	}

	result.Subsections = section.Subsections(sectionText)

	found := p.tables.Detect(sectionText)
	result.TableCount = len(found)
	if len(found) > 0 {
		p.log.Info("found tables in section", zap.Int("count", len(found)))
	}

	refs := xref.Find(sectionText)
	result.XrefCount = len(refs)
	if len(refs) > 0 && p.cfg.Xref.Resolve {
		resolved := p.xrefs.Resolve(refs, normalized)
		if p.cfg.Output.AppendXrefs {
			sectionText += xref.Format(resolved)
		}
	}
	result.Text = sectionText

	// Summaries come last and never fail the extraction.
	if p.summarizer.IsEnabled() {
		summary, err := p.summarizer.Summarize(ctx, filing, sectionText)
		if err != nil {
			p.log.Warn("summary generation failed", zap.Error(err))
		} else {
			result.Summary = summary
		}
	}

	if err := p.renderer.Write(result); err != nil {
		return nil, err
	}

	p.log.Info("extracted section",
		zap.String("file", filepath.Base(path)),
		zap.Int("words", result.WordCount),
		zap.Bool("valid", result.Valid))
	return result, nil
}

// loadNormalized reads and normalizes a filing, going through the
// document cache when one is configured.
func (p *Pipeline) loadNormalized(path string) (string, error) {
	var key string
	if p.docCache != nil {
		if info, err := os.Stat(path); err == nil {
			key = cache.DocumentKey(path, info.Size(), info.ModTime())
			if cached, ok := p.docCache.Get(key); ok {
				p.log.Debug("normalized document from cache", zap.String("file", filepath.Base(path)))
				return string(cached), nil
			}
		}
	}

	raw, err := p.reader.Read(path)
	if err != nil {
		return "", err
	}

	normalized := p.prepare(raw)
	if normalized == "" {
		return "", fmt.Errorf("pipeline: %s normalized to empty document", filepath.Base(path))
	}

	if p.docCache != nil && key != "" {
		if err := p.docCache.Set(key, []byte(normalized), 0); err != nil {
			p.log.Debug("cache write failed", zap.Error(err))
		}
	}
	return normalized, nil
}

// prepare converts raw filing content to clean, structure-preserving
// text: markup comes off first, then the character-level normalization.
func (p *Pipeline) prepare(raw string) string {
	text := stripSECEnvelope(raw)
	if looksLikeHTML(text) {
		text = normalize.StripHTML(text)
	}
	text = stripXBRL(text)
	return p.normalizer.Normalize(text, true)
}

// buildFiling assembles filing metadata, preferring the EDGAR filename
// convention and falling back to the document header.
func (p *Pipeline) buildFiling(path, content string) (model.Filing, error) {
	filing, ok := filings.FromFilename(path)
	if !ok {
		filing = model.Filing{Path: path}
		filing.CIK = contentCIK(content)
		filing.FilingDate = contentFilingDate(content)
		filing.FormType = contentFormType(content)
	}

	filing.CompanyName = normalize.ExtractCompanyName(content)
	if filing.CompanyName == "" {
		filing.CompanyName = "Unknown Company"
	}
	if filing.Accession == "" {
		filing.Accession = refdoc.Accession(path)
	}
	if info, err := os.Stat(path); err == nil {
		filing.SizeBytes = info.Size()
	}

	if filing.CIK == "" || filing.FormType == "" {
		return model.Filing{}, fmt.Errorf("%w: cik=%q form=%q", ErrMetadata, filing.CIK, filing.FormType)
	}
	return filing, nil
}

// resolveIncorporation handles filings whose discussion section lives in
// a proxy statement or exhibit instead of the filing body.
func (p *Pipeline) resolveIncorporation(normalized, path string) (string, string, error) {
	inc := section.CheckIncorporation(normalized, section.Span{Start: 0, End: len(normalized)})
	if inc == nil {
		return "", "", fmt.Errorf("pipeline: discussion section not found in %s", filepath.Base(path))
	}

	p.log.Warn("section incorporated by reference",
		zap.String("file", filepath.Base(path)),
		zap.String("doc_type", inc.DocType))

	resolver := refdoc.NewResolver(filepath.Dir(path), p.log)
	resolved, refPath := resolver.Resolve(inc, path)
	if resolved == "" {
		return "", "", fmt.Errorf("pipeline: could not resolve incorporation by reference for %s", filepath.Base(path))
	}
	return p.normalizer.Normalize(resolved, true), refPath, nil
}

// Stats aggregates a batch outcome.
type Stats = model.Stats

// ProcessDirectory extracts every selected filing in a directory. The CIK
// filter (may be nil) drops companies outside the allow-list; the filing
// manager then picks the best form per company-year.
func (p *Pipeline) ProcessDirectory(ctx context.Context, dir string, filter *filings.CIKFilter) (Stats, error) {
	files, err := reader.ListTextFiles(dir)
	if err != nil {
		return Stats{}, err
	}
	p.log.Info("found text files to process", zap.Int("count", len(files)))

	selected, filtered := p.selectFilings(files, filter)

	results := p.batch().ProcessFiles(ctx, selected)
	stats := worker.Tally(results)
	stats.Total = len(files)
	stats.Filtered = filtered
	for _, r := range results {
		if r.Error != nil {
			p.log.Error("extraction failed", zap.String("file", filepath.Base(r.Path)), zap.Error(r.Error))
		}
	}
	if err := p.renderer.WriteIndex(results); err != nil {
		p.log.Warn("index write failed", zap.Error(err))
	}
	return stats, nil
}

// ProcessArchive unpacks a ZIP of filings into a scratch directory and
// processes the selected members.
func (p *Pipeline) ProcessArchive(ctx context.Context, zipPath string, filter *filings.CIKFilter) (Stats, error) {
	tempDir, err := os.MkdirTemp("", "mdex-zip-*")
	if err != nil {
		return Stats{}, fmt.Errorf("create scratch dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(tempDir) }()

	files, err := p.reader.Unpack(zipPath, tempDir)
	if err != nil {
		return Stats{}, err
	}

	selected, filtered := p.selectFilings(files, filter)

	results := p.batch().ProcessFiles(ctx, selected)
	stats := worker.Tally(results)
	stats.Total = len(files)
	stats.Filtered = filtered
	if err := p.renderer.WriteIndex(results); err != nil {
		p.log.Warn("index write failed", zap.Error(err))
	}
	return stats, nil
}

// ProcessList extracts filings named in a list file, one path per line.
func (p *Pipeline) ProcessList(ctx context.Context, listPath string, filter *filings.CIKFilter) (Stats, error) {
	files, err := worker.ReadPathsFromFile(listPath)
	if err != nil {
		return Stats{}, err
	}

	selected, filtered := p.selectFilings(files, filter)

	results := p.batch().ProcessFiles(ctx, selected)
	stats := worker.Tally(results)
	stats.Total = len(files)
	stats.Filtered = filtered
	if err := p.renderer.WriteIndex(results); err != nil {
		p.log.Warn("index write failed", zap.Error(err))
	}
	return stats, nil
}

// selectFilings applies CIK filtering and per-company-year form
// prioritization. Files whose names carry no metadata are passed through
// as-is; the per-file metadata fallbacks handle them later.
func (p *Pipeline) selectFilings(files []string, filter *filings.CIKFilter) (selected []string, filtered int) {
	manager := filings.NewManager(p.log)
	var unmanaged []string

	for _, path := range files {
		var (
			cik  string
			year int
			form model.FormType
		)
		if f, ok := filings.FromFilename(path); ok {
			cik, year, form = f.CIK, f.FilingDate.Year(), f.FormType
		} else {
			cik, year, form = filings.GuessMeta(path)
		}

		if filter != nil && filter.Active() && cik != "" && !filter.Allow(cik) {
			filtered++
			p.log.Debug("filtered out by CIK list", zap.String("file", filepath.Base(path)))
			continue
		}

		if cik != "" && year != 0 && form != "" {
			manager.Add(path, cik, year, form)
		} else {
			unmanaged = append(unmanaged, path)
		}
	}

	sel := manager.Select()
	return append(sel.Process, unmanaged...), filtered
}

func (p *Pipeline) batch() *worker.BatchProcessor {
	limiter := worker.NewLimiter(p.cfg.Concurrency.FilesPerSecond, p.cfg.Concurrency.Burst)
	return worker.NewBatchProcessor(p, p.cfg.Concurrency.Workers, limiter)
}
