package pipeline

import (
	"regexp"
	"strings"
	"time"

	"github.com/avolkov/mdex/internal/model"
	"github.com/avolkov/mdex/internal/normalize"
)

// Content-based metadata fallbacks for filings whose filenames carry no
// information. EDGAR submission headers put these fields near the top.

var cikRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)CIK:\s*(\d+)`),
	regexp.MustCompile(`(?i)C\.I\.K\.\s*NO\.\s*(\d+)`),
	regexp.MustCompile(`(?i)COMMISSION FILE NUMBER:\s*\d+-(\d+)`),
}

var (
	formRe      = regexp.MustCompile(`(?i)FORM\s+(?:TYPE:\s*)?(10-[KQ])(/A)?`)
	annualCueRe = regexp.MustCompile(`(?i)ANNUAL REPORT PURSUANT TO SECTION 13`)
)

var dateRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)FILED AS OF DATE:\s*(\d{8})`),
	regexp.MustCompile(`(?i)DATE OF REPORT[^:]*:\s*(\d{4}-\d{2}-\d{2})`),
	regexp.MustCompile(`(?i)For the period ended\s+(\w+\s+\d{1,2},?\s+\d{4})`),
}

var dateLayouts = []string{"20060102", "2006-01-02", "January 2 2006"}

func contentCIK(content string) string {
	if cik := normalize.ExtractCIK(content); cik != "" {
		return model.PadCIK(cik)
	}
	for _, re := range cikRes {
		if m := re.FindStringSubmatch(content); m != nil {
			return model.PadCIK(m[1])
		}
	}
	return ""
}

// contentFormType reads the form type from the first kilobyte of the
// document. Absent any marker it assumes an annual report, which matches
// the corpora this tool is pointed at.
func contentFormType(content string) model.FormType {
	header := content
	if len(header) > 1000 {
		header = header[:1000]
	}

	if m := formRe.FindStringSubmatch(header); m != nil {
		form, ok := model.ParseFormType(m[1] + m[2])
		if ok {
			return form
		}
	}
	if annualCueRe.MatchString(header) {
		return model.Form10K
	}

	upper := strings.ToUpper(header)
	if strings.Contains(upper, "FORM 10-Q") {
		return model.Form10Q
	}
	return model.Form10K
}

func contentFilingDate(content string) time.Time {
	header := content
	if len(header) > 2000 {
		header = header[:2000]
	}

	for _, re := range dateRes {
		m := re.FindStringSubmatch(header)
		if m == nil {
			continue
		}
		raw := strings.ReplaceAll(m[1], ",", "")
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}

// Markup cleanup applied before character normalization.

var (
	secEnvelopeRes = []*regexp.Regexp{
		regexp.MustCompile(`(?is)<SEC-DOCUMENT>.*?</SEC-DOCUMENT>`),
		regexp.MustCompile(`(?is)<SEC-HEADER>.*?</SEC-HEADER>`),
		regexp.MustCompile(`(?i)<TYPE>[^<]+`),
		regexp.MustCompile(`(?i)<SEQUENCE>[^<]+`),
		regexp.MustCompile(`(?i)<FILENAME>[^<]+`),
	}

	xbrlRes = []*regexp.Regexp{
		regexp.MustCompile(`(?is)<xbrl:.*?>.*?</xbrl:.*?>`),
		regexp.MustCompile(`(?i)</?ix:[^>]*>`),
		regexp.MustCompile(`</?[A-Za-z][\w.-]*:[^>]+>`),
	}

	htmlCueRe = regexp.MustCompile(`(?i)<html|<body|<table|<div|</p>`)
)

func stripSECEnvelope(text string) string {
	for _, re := range secEnvelopeRes {
		text = re.ReplaceAllString(text, "")
	}
	return text
}

func stripXBRL(text string) string {
	for _, re := range xbrlRes {
		text = re.ReplaceAllString(text, "")
	}
	return text
}

func looksLikeHTML(text string) bool {
	probe := text
	if len(probe) > 4000 {
		probe = probe[:4000]
	}
	return htmlCueRe.MatchString(probe)
}
