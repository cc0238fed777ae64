// Package filings decides which files from a corpus get processed:
// filename metadata parsing, CIK allow-lists, and per-company-year form
// prioritization (amendments over originals, annual over quarterly).
package filings

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/avolkov/mdex/internal/model"
)

// edgarNameRe matches the EDGAR bulk-download filename convention:
// YYYYMMDD_FORM_edgar_data_CIK_ACCESSION.txt. Amendments appear with
// either a slash or an underscore separator.
var edgarNameRe = regexp.MustCompile(`^(\d{8})_(10-[KQ](?:[/_]A)?)_edgar_data_(\d{1,10})_([0-9\-]+)\.txt$`)

var (
	looseCIKRe  = regexp.MustCompile(`(\d{4,10})`)
	looseYearRe = regexp.MustCompile(`(199[4-9]|20[0-2][0-9])`)
)

// FromFilename parses filing metadata out of an EDGAR-convention filename.
// The second return is false when the name does not follow the convention;
// callers then fall back to content-based metadata extraction.
func FromFilename(path string) (model.Filing, bool) {
	name := filepath.Base(path)
	m := edgarNameRe.FindStringSubmatch(name)
	if m == nil {
		return model.Filing{}, false
	}

	form, ok := model.ParseFormType(strings.ReplaceAll(m[2], "_A", "/A"))
	if !ok {
		return model.Filing{}, false
	}

	filing := model.Filing{
		CIK:       model.PadCIK(m[3]),
		FormType:  form,
		Accession: m[4],
		Path:      path,
	}
	if date, err := time.Parse("20060102", m[1]); err == nil {
		filing.FilingDate = date
	}
	return filing, true
}

// GuessMeta extracts what it can from a non-conventional filename: any
// 4-10 digit run as the CIK, any plausible year, and the form type from
// 10-K/10-Q markers. Missing pieces come back zero-valued.
func GuessMeta(path string) (cik string, year int, form model.FormType) {
	name := filepath.Base(path)

	if m := looseCIKRe.FindStringSubmatch(name); m != nil {
		cik = model.PadCIK(m[1])
	}
	if m := looseYearRe.FindStringSubmatch(name); m != nil {
		year, _ = strconv.Atoi(m[1])
	}

	upper := strings.ToUpper(name)
	amended := strings.Contains(upper, "_A") || strings.Contains(upper, "-A")
	switch {
	case strings.Contains(upper, "10-Q") || strings.Contains(upper, "10Q"):
		form = model.Form10Q
		if amended {
			form = model.Form10QA
		}
	case strings.Contains(upper, "10-K") || strings.Contains(upper, "10K"):
		form = model.Form10K
		if amended {
			form = model.Form10KA
		}
	}
	return cik, year, form
}

// Manager registers candidate filings and selects which to process. For
// each company-year, the highest-priority form wins: a 10-K/A supersedes
// the 10-K it amends, and quarterly reports are only used when no annual
// report exists for that year.
type Manager struct {
	byCIKYear map[string]map[int]map[model.FormType][]string
	log       *zap.Logger
}

// NewManager creates an empty Manager.
func NewManager(log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		byCIKYear: make(map[string]map[int]map[model.FormType][]string),
		log:       log,
	}
}

// Add registers a filing for selection.
func (m *Manager) Add(path, cik string, year int, form model.FormType) {
	cik = model.PadCIK(cik)
	if m.byCIKYear[cik] == nil {
		m.byCIKYear[cik] = make(map[int]map[model.FormType][]string)
	}
	if m.byCIKYear[cik][year] == nil {
		m.byCIKYear[cik][year] = make(map[model.FormType][]string)
	}
	m.byCIKYear[cik][year][form] = append(m.byCIKYear[cik][year][form], path)
}

// Selection partitions registered filings into those to process and those
// superseded by a higher-priority form.
type Selection struct {
	Process []string
	Skip    []string
}

// Select applies the prioritization rules across everything registered.
func (m *Manager) Select() Selection {
	var sel Selection

	for _, years := range m.byCIKYear {
		for _, forms := range years {
			picked := false
			for _, form := range model.FilingPriority {
				paths, ok := forms[form]
				if !ok || len(paths) == 0 {
					continue
				}
				if picked {
					sel.Skip = append(sel.Skip, paths...)
					continue
				}
				picked = true
				if form == model.Form10Q {
					// Several 10-Qs can exist for one year; keep the
					// last registered and skip the earlier quarters.
					sel.Process = append(sel.Process, paths[len(paths)-1])
					sel.Skip = append(sel.Skip, paths[:len(paths)-1]...)
					continue
				}
				sel.Process = append(sel.Process, paths...)
			}
		}
	}

	m.log.Info("filing selection complete",
		zap.Int("process", len(sel.Process)),
		zap.Int("skip", len(sel.Skip)))
	for _, p := range sel.Process {
		if f, ok := FromFilename(p); ok && f.FormType.IsQuarterly() {
			m.log.Info("using quarterly report as fallback",
				zap.String("file", filepath.Base(p)))
		}
	}
	return sel
}
