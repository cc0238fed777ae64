package model

import (
	"strings"
	"time"
)

// FormType identifies the filing category, which selects the heading
// taxonomy used for section detection.
type FormType string

const (
	Form10K  FormType = "10-K"
	Form10KA FormType = "10-K/A"
	Form10Q  FormType = "10-Q"
	Form10QA FormType = "10-Q/A"
)

// IsQuarterly reports whether the form uses the quarterly-report (Item 2)
// heading taxonomy rather than the annual-report (Item 7) one.
func (f FormType) IsQuarterly() bool {
	return strings.Contains(string(f), "10-Q")
}

// IsAmendment reports whether the filing is an amendment (/A suffix).
func (f FormType) IsAmendment() bool {
	return strings.HasSuffix(string(f), "/A")
}

// ParseFormType normalizes a raw form-type string ("10-k", "10-QA") to one
// of the supported FormType values. The second return is false when the
// string names no supported form.
func ParseFormType(s string) (FormType, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	normalized = strings.ReplaceAll(normalized, "10-KA", "10-K/A")
	normalized = strings.ReplaceAll(normalized, "10-QA", "10-Q/A")

	switch FormType(normalized) {
	case Form10K, Form10KA, Form10Q, Form10QA:
		return FormType(normalized), true
	}
	return "", false
}

// FilingPriority orders form types for corpus-level selection: amendments
// supersede originals, annual reports supersede quarterly ones.
var FilingPriority = []FormType{Form10KA, Form10K, Form10QA, Form10Q}

// Filing holds the metadata of one SEC text filing.
type Filing struct {
	CIK         string    `json:"cik"` // zero-padded to 10 digits
	CompanyName string    `json:"company_name"`
	FormType    FormType  `json:"form_type"`
	FilingDate  time.Time `json:"filing_date,omitempty"`
	Accession   string    `json:"accession,omitempty"` // e.g. 0000950170-23-061793
	Path        string    `json:"path"`
	SizeBytes   int64     `json:"size_bytes"`
}

// PadCIK left-pads a CIK to the canonical 10-digit form.
func PadCIK(cik string) string {
	cik = strings.TrimSpace(cik)
	for len(cik) < 10 {
		cik = "0" + cik
	}
	return cik
}
