package section

import (
	"fmt"
	"strings"

	"github.com/avolkov/mdex/internal/model"
)

// Validation is the sanity verdict on an extracted span.
type Validation struct {
	Valid     bool
	WordCount int
	Warnings  []string
}

var annualKeywords = []string{
	"financial condition", "results of operations",
	"liquidity", "capital resources", "revenue",
}

var quarterlyKeywords = []string{
	"three months", "six months", "nine months",
	"quarter", "quarterly", "interim",
	"results of operations", "liquidity",
}

// Validate checks an extracted span for plausible length and vocabulary.
// Quarterly sections get lower word floors and, unlike annual ones, are
// not invalidated by a keyword miss: short interim discussions routinely
// skip the boilerplate vocabulary.
func Validate(sectionText string, form model.FormType) Validation {
	words := len(strings.Fields(sectionText))
	v := Validation{Valid: true, WordCount: words}

	minWords, maxWords := 100, 50000
	keywords := annualKeywords
	if form.IsQuarterly() {
		minWords, maxWords = 50, 30000
		keywords = quarterlyKeywords
	}

	if words < minWords {
		v.Warnings = append(v.Warnings, fmt.Sprintf("section unusually short for %s", form))
		v.Valid = false
	}
	if words > maxWords {
		v.Warnings = append(v.Warnings, fmt.Sprintf("section unusually long for %s", form))
	}

	lower := strings.ToLower(sectionText)
	found := 0
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			found++
		}
	}
	if found < 1 {
		v.Warnings = append(v.Warnings, fmt.Sprintf("few discussion keywords found for %s", form))
		if !form.IsQuarterly() {
			v.Valid = false
		}
	}
	return v
}
