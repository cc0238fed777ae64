package filings

import (
	"encoding/csv"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/avolkov/mdex/internal/model"
)

var nonDigitRe = regexp.MustCompile(`\D`)

// CIKFilter restricts processing to companies listed in a CSV file. The
// first column holds the CIK; a non-numeric first row is treated as a
// header. An empty or missing filter allows everything.
type CIKFilter struct {
	path string
	log  *zap.Logger

	once sync.Once
	ciks map[string]struct{}
}

// NewCIKFilter creates a filter backed by the given CSV file. An empty
// path disables filtering.
func NewCIKFilter(path string, log *zap.Logger) *CIKFilter {
	if log == nil {
		log = zap.NewNop()
	}
	return &CIKFilter{path: path, log: log}
}

func (f *CIKFilter) load() {
	f.once.Do(func() {
		f.ciks = make(map[string]struct{})
		if f.path == "" {
			return
		}

		file, err := os.Open(f.path)
		if err != nil {
			f.log.Warn("CIK list not loaded", zap.String("file", f.path), zap.Error(err))
			return
		}
		defer file.Close()

		r := csv.NewReader(file)
		r.FieldsPerRecord = -1

		first := true
		for {
			row, err := r.Read()
			if err != nil {
				break
			}
			if first {
				first = false
				// Header rows have a non-numeric first column.
				if len(row) > 0 && nonDigitRe.MatchString(strings.TrimSpace(row[0])) {
					continue
				}
			}
			f.addRow(row)
		}

		f.log.Info("loaded CIK allow-list",
			zap.String("file", f.path),
			zap.Int("ciks", f.count()))
	})
}

func (f *CIKFilter) addRow(row []string) {
	if len(row) == 0 {
		return
	}
	digits := nonDigitRe.ReplaceAllString(row[0], "")
	if digits == "" {
		return
	}
	padded := model.PadCIK(digits)
	f.ciks[padded] = struct{}{}
	// Also index without leading zeros for loose matching.
	f.ciks[strings.TrimLeft(padded, "0")] = struct{}{}
}

// count returns the number of distinct padded CIKs.
func (f *CIKFilter) count() int {
	n := 0
	for cik := range f.ciks {
		if len(cik) == 10 {
			n++
		}
	}
	return n
}

// Active reports whether any CIKs are loaded; an inactive filter allows
// all filings.
func (f *CIKFilter) Active() bool {
	f.load()
	return len(f.ciks) > 0
}

// Allow reports whether the given CIK should be processed.
func (f *CIKFilter) Allow(cik string) bool {
	f.load()
	if len(f.ciks) == 0 {
		return true
	}

	padded := model.PadCIK(cik)
	if _, ok := f.ciks[padded]; ok {
		return true
	}
	_, ok := f.ciks[strings.TrimLeft(padded, "0")]
	return ok
}

// List returns the loaded CIKs in sorted order.
func (f *CIKFilter) List() []string {
	f.load()
	out := make([]string, 0, len(f.ciks))
	for cik := range f.ciks {
		if len(cik) == 10 {
			out = append(out, cik)
		}
	}
	sort.Strings(out)
	return out
}
