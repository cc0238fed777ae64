package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/avolkov/mdex/internal/model"
	"github.com/avolkov/mdex/internal/normalize"
	"github.com/avolkov/mdex/internal/worker"
)

// Renderer writes extraction results to the output directory.
type Renderer struct {
	cfg model.OutputConfig
}

// NewRenderer creates a renderer.
func NewRenderer(cfg model.OutputConfig) *Renderer {
	return &Renderer{cfg: cfg}
}

// Write saves one result: always the text rendition, plus a JSON sidecar
// when configured.
func (r *Renderer) Write(result *model.ExtractionResult) error {
	if r.cfg.Dir == "" {
		return nil
	}
	if err := os.MkdirAll(r.cfg.Dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	base := OutputName(result.Filing)
	textPath := filepath.Join(r.cfg.Dir, base+".txt")
	if err := os.WriteFile(textPath, []byte(r.formatText(result)), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	if r.cfg.JSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}
		jsonPath := filepath.Join(r.cfg.Dir, base+".json")
		if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
			return fmt.Errorf("write JSON output: %w", err)
		}
	}

	return nil
}

// WriteIndex writes a CSV manifest of a batch run next to the outputs,
// one row per processed filing including failures.
func (r *Renderer) WriteIndex(results []*worker.ExtractResult) error {
	if r.cfg.Dir == "" || len(results) == 0 {
		return nil
	}
	if err := os.MkdirAll(r.cfg.Dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	f, err := os.Create(filepath.Join(r.cfg.Dir, "index.csv"))
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"file", "cik", "company", "form", "filing_date", "words", "valid", "error"}); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	for _, res := range results {
		row := make([]string, 8)
		row[0] = filepath.Base(res.Path)
		if res.Result != nil {
			row[1] = res.Result.Filing.CIK
			row[2] = normalize.CleanForCSV(res.Result.Filing.CompanyName)
			row[3] = string(res.Result.Filing.FormType)
			if !res.Result.Filing.FilingDate.IsZero() {
				row[4] = res.Result.Filing.FilingDate.Format("2006-01-02")
			}
			row[5] = strconv.Itoa(res.Result.WordCount)
			row[6] = strconv.FormatBool(res.Result.Valid)
		}
		if res.Error != nil {
			row[7] = normalize.CleanForCSV(res.Error.Error())
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write index: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

// OutputName builds the output file stem from filing identity:
// (CIK)_(Company)_(Date)_(Form), with the form's slash made path-safe.
func OutputName(filing model.Filing) string {
	date := "unknown"
	if !filing.FilingDate.IsZero() {
		date = filing.FilingDate.Format("2006-01-02")
	}
	company := normalize.SanitizeFilename(filing.CompanyName)
	form := strings.ReplaceAll(string(filing.FormType), "/", "_")
	return fmt.Sprintf("(%s)_(%s)_(%s)_(%s)", filing.CIK, company, date, form)
}

func (r *Renderer) formatText(result *model.ExtractionResult) string {
	var b strings.Builder
	rule := strings.Repeat("=", 80)

	filingDate := "unknown"
	if !result.Filing.FilingDate.IsZero() {
		filingDate = result.Filing.FilingDate.Format("2006-01-02")
	}

	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "CIK: %s\n", result.Filing.CIK)
	fmt.Fprintf(&b, "Company: %s\n", result.Filing.CompanyName)
	fmt.Fprintf(&b, "Form Type: %s\n", result.Filing.FormType)
	fmt.Fprintf(&b, "Filing Date: %s\n", filingDate)
	fmt.Fprintf(&b, "Extraction Date: %s\n", result.ExtractedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Word Count: %d\n", result.WordCount)
	if result.ViaIncorporation {
		fmt.Fprintf(&b, "Source: incorporated by reference (%s)\n", filepath.Base(result.ReferencedDoc))
	}
	b.WriteString(rule + "\n\n")

	b.WriteString(result.Text)

	if result.Summary != nil {
		b.WriteString("\n\n--- SUMMARY (" + result.Summary.Provider + "/" + result.Summary.Model + ") ---\n\n")
		b.WriteString(result.Summary.Text)
		b.WriteString("\n")
	}

	return b.String()
}
