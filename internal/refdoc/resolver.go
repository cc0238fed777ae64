// Package refdoc recovers section content from a referenced external
// document when a filing incorporates its discussion by reference instead
// of carrying it inline. Candidate files (proxy statements, Exhibit 13 or
// 99 renditions) are located next to the filing by accession number.
package refdoc

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/avolkov/mdex/internal/section"
)

// Resolver searches a filing directory for referenced documents.
type Resolver struct {
	dir string
	log *zap.Logger
}

func NewResolver(dir string, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{dir: dir, log: log}
}

var (
	accessionRe     = regexp.MustCompile(`\d{10}-\d{2}-\d{6}`)
	accessionFlatRe = regexp.MustCompile(`(\d{10})(\d{2})(\d{6})`)
)

// Accession extracts the SEC accession number from a filename, in dashed
// form. Returns "" when the name carries none.
func Accession(filename string) string {
	base := filepath.Base(filename)
	if m := accessionRe.FindString(base); m != "" {
		return m
	}
	if m := accessionFlatRe.FindStringSubmatch(base); m != nil {
		return m[1] + "-" + m[2] + "-" + m[3]
	}
	return ""
}

// Resolve tries to recover the discussion text named by an incorporation
// statement. Returns the text and the path it came from, or "", "".
func (r *Resolver) Resolve(inc *section.Incorporation, filingPath string) (string, string) {
	accession := Accession(filingPath)
	if accession == "" {
		r.log.Warn("no accession number in filing name", zap.String("path", filingPath))
		return "", ""
	}

	globs := documentGlobs(inc.DocType, accession)
	if len(globs) == 0 {
		r.log.Warn("unsupported referenced document type", zap.String("doc_type", inc.DocType))
		return "", ""
	}

	path := r.findDocument(globs)
	if path == "" {
		r.log.Warn("referenced document not found",
			zap.String("doc_type", inc.DocType), zap.String("accession", accession))
		return "", ""
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		r.log.Error("reading referenced document", zap.String("path", path), zap.Error(err))
		return "", ""
	}
	content := string(raw)

	if inc.Caption != "" {
		if pos := findCaption(content, inc.Caption); pos >= 0 {
			return content[pos:nextMajorSection(content, pos)], path
		}
	}
	if inc.Pages != "" {
		if text := extractByPage(content, inc.Pages); text != "" {
			return text, path
		}
	}
	if text := findDiscussion(content); text != "" {
		return text, path
	}
	return "", ""
}

// documentGlobs builds the filename patterns a referenced document of the
// given type would use, keyed by accession number.
func documentGlobs(docType, accession string) []string {
	flat := strings.ReplaceAll(accession, "-", "")
	lower := strings.ToLower(docType)
	switch {
	case strings.Contains(lower, "def 14a") || strings.Contains(lower, "proxy"):
		return []string{
			"*" + flat + "*def14a*.txt",
			"*" + flat + "*proxy*.txt",
			"*" + accession + "*def14a*.txt",
		}
	case strings.Contains(lower, "exhibit 13"):
		return []string{
			"*" + flat + "*ex13*.txt",
			"*" + flat + "*ex-13*.txt",
			"*" + accession + "*ex13*.txt",
		}
	case strings.Contains(lower, "exhibit 99"):
		return []string{
			"*" + flat + "*ex99*.txt",
			"*" + flat + "*ex-99*.txt",
			"*" + accession + "*ex99*.txt",
		}
	}
	return nil
}

func (r *Resolver) findDocument(globs []string) string {
	for _, g := range globs {
		matches, err := filepath.Glob(filepath.Join(r.dir, g))
		if err == nil && len(matches) > 0 {
			return matches[0]
		}
	}
	return ""
}

// findCaption locates a caption line and returns the offset just past it,
// falling back to a prefix match on the caption's first three words.
func findCaption(text, caption string) int {
	re := regexp.MustCompile(`(?im)(?:^|\n)[ \t]*` + regexp.QuoteMeta(caption) + `[ \t]*(?:\n|$)`)
	if loc := re.FindStringIndex(text); loc != nil {
		return loc[1]
	}
	words := strings.Fields(caption)
	if len(words) >= 2 {
		if len(words) > 3 {
			words = words[:3]
		}
		partial := regexp.MustCompile(`(?im)(?:^|\n)[ \t]*` + regexp.QuoteMeta(strings.Join(words, " ")) + `[^\n]*(?:\n|$)`)
		if loc := partial.FindStringIndex(text); loc != nil {
			return loc[1]
		}
	}
	return -1
}

var majorSectionRes = []*regexp.Regexp{
	regexp.MustCompile(`(?m)(?:^|\n)[ \t]*[A-Z][A-Z ]{10,}[ \t]*(?:\n|$)`),
	regexp.MustCompile(`(?m)(?:^|\n)[ \t]*(?:ITEM|PROPOSAL|ARTICLE)\s+\d+`),
	regexp.MustCompile(`(?m)(?:^|\n)[ \t]*(?:Appendix|Exhibit|Schedule)\s+[A-Z0-9]`),
}

// nextMajorSection returns the offset of the first section break after
// start, skipping breaks inside the first 500 characters so the extract
// carries some content. Capped at 50000 characters.
func nextMajorSection(text string, start int) int {
	search := text[start:]
	cut := len(search)
	for _, re := range majorSectionRes {
		if loc := re.FindStringIndex(search); loc != nil && loc[0] > 500 && loc[0] < cut {
			cut = loc[0]
		}
	}
	if cut > 50000 {
		cut = 50000
	}
	return start + cut
}

// extractByPage anchors on the first page number of a page-range
// reference. Plain text renditions rarely keep page markers, so this is
// best effort.
func extractByPage(text, pages string) string {
	first := strings.Fields(pages)
	if len(first) == 0 {
		return ""
	}
	re := regexp.MustCompile(`(?im)(?:^|\n)[ \t]*(?:Page\s+)?` + regexp.QuoteMeta(first[0]) + `[ \t]*(?:\n|$)`)
	loc := re.FindStringIndex(text)
	if loc == nil {
		return ""
	}
	return text[loc[1]:nextMajorSection(text, loc[1])]
}

var discussionRes = []*regexp.Regexp{
	regexp.MustCompile(`(?im)(?:^|\n)[ \t]*Management['’]?s?\s+Discussion\s+and\s+Analysis`),
	regexp.MustCompile(`(?im)(?:^|\n)[ \t]*MD&A`),
	regexp.MustCompile(`(?im)(?:^|\n)[ \t]*Discussion\s+and\s+Analysis\s+of\s+Financial`),
}

// findDiscussion falls back to locating a discussion heading anywhere in
// the referenced document.
func findDiscussion(text string) string {
	for _, re := range discussionRes {
		if loc := re.FindStringIndex(text); loc != nil {
			return text[loc[0]:nextMajorSection(text, loc[0])]
		}
	}
	return ""
}
