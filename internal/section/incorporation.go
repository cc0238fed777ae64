package section

import (
	"regexp"
	"strings"

	"github.com/avolkov/mdex/internal/patterns"
)

// Incorporation records that a span incorporates its content from another
// document instead of carrying it inline.
type Incorporation struct {
	FullText string // surrounding context of the triggering sentence
	DocType  string // "DEF 14A", "Exhibit 13", "Appendix A", ...
	Caption  string // quoted caption of the referenced section, if named
	Pages    string // "A-26 through A-35" style reference, if given
	Position int    // offset of the trigger within the full document
}

var (
	docTypeRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)DEF\s*14A|Proxy\s+Statement`),
		regexp.MustCompile(`(?i)Exhibit\s*(?:13|99|[\d.]+)`),
		regexp.MustCompile(`(?i)Appendix\s*[A-Z]?`),
		regexp.MustCompile(`(?i)Annual\s+Report`),
		regexp.MustCompile(`(?i)Information\s+Statement`),
	}
	// Quote styles are matched separately so an apostrophe inside a
	// double-quoted caption does not truncate the capture.
	captionRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)caption\s+"([^"]+)"`),
		regexp.MustCompile(`(?i)caption\s+'([^']+)'`),
		regexp.MustCompile(`(?i)(?:section|item)\s+(?:entitled|titled)\s+"([^"]+)"`),
		regexp.MustCompile(`(?i)(?:section|item)\s+(?:entitled|titled)\s+'([^']+)'`),
		regexp.MustCompile(`(?i)heading\s+"([^"]+)"`),
		regexp.MustCompile(`(?i)heading\s+'([^']+)'`),
	}
	pageRangeRe = regexp.MustCompile(`(?i)pages?\s+([\d\-A-Z]+)\s+(?:through|to)\s+([\d\-A-Z]+)`)
	pageRe      = regexp.MustCompile(`(?i)pages?\s+([\d\-A-Z]+)`)
)

// CheckIncorporation inspects the opening of a span for incorporation by
// reference language. Only the first 2000 characters are checked: a real
// incorporation statement stands in place of the section, so it appears
// immediately after the heading.
func CheckIncorporation(text string, span Span) *Incorporation {
	sectionText := text[span.Start:span.End]
	check := sectionText
	if len(check) > 2000 {
		check = check[:2000]
	}

	for _, p := range patterns.Load().Incorporation {
		loc := p.RE.FindStringIndex(check)
		if loc == nil {
			continue
		}
		pos := span.Start + loc[0]
		lo := pos - 250
		if lo < 0 {
			lo = 0
		}
		hi := span.Start + loc[1] + 250
		if hi > len(text) {
			hi = len(text)
		}
		context := text[lo:hi]

		return &Incorporation{
			FullText: strings.TrimSpace(context),
			DocType:  extractDocType(context),
			Caption:  extractCaption(context),
			Pages:    extractPages(context),
			Position: pos,
		}
	}
	return nil
}

func extractDocType(text string) string {
	for _, re := range docTypeRes {
		if m := re.FindString(text); m != "" {
			return strings.TrimSpace(m)
		}
	}
	return ""
}

func extractCaption(text string) string {
	for _, re := range captionRes {
		if m := re.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

func extractPages(text string) string {
	if m := pageRangeRe.FindStringSubmatch(text); m != nil {
		return m[1] + " through " + m[2]
	}
	if m := pageRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}
