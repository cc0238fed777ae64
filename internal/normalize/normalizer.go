// Package normalize cleans raw EDGAR filing text: markup and submission
// markers come out, mojibake and typographic unicode get folded to ASCII,
// and whitespace is normalized without flattening tables or columnar runs.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// Normalizer applies the cleaning pipeline. The zero value is not usable;
// construct with New.
type Normalizer struct {
	controlChars *regexp.Regexp
	c1Chars      *regexp.Regexp
	pageMarker   *regexp.Regexp
	tocHeader    *regexp.Regexp
	pageNumber   *regexp.Regexp
	sgmlTag      *regexp.Regexp
	hrule        *regexp.Regexp
	multiGap     *regexp.Regexp
	colNumber    *regexp.Regexp
	spaces       *regexp.Regexp
}

func New() *Normalizer {
	return &Normalizer{
		// tabs, newlines and carriage returns survive; the C1 range is
		// stripped later, after mojibake repair has had a chance to use it
		controlChars: regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`),
		c1Chars:      regexp.MustCompile(`[\x{0080}-\x{009F}]`),
		pageMarker:   regexp.MustCompile(`(?i)<PAGE>\s*\d*`),
		tocHeader:    regexp.MustCompile(`(?im)^[ \t]*Table\s+of\s+Contents[ \t]*$`),
		pageNumber:   regexp.MustCompile(`(?m)^[ \t]*\d{1,3}[ \t]*$`),
		sgmlTag:      regexp.MustCompile(`</?[A-Za-z][A-Za-z0-9]*>`),
		hrule:        regexp.MustCompile(`^\s*[-=_]{3,}\s*$`),
		multiGap:     regexp.MustCompile(`\s{3,}`),
		colNumber:    regexp.MustCompile(`(?:\$\s*)?\(?[\d,]+(?:\.\d+)?\)?(?:\s*[%KMB])?`),
		spaces:       regexp.MustCompile(`[ \t]+`),
	}
}

// Normalize runs the full pipeline. When preserveStructure is true, lines
// that look tabular keep their original spacing so the table detector can
// still see column gaps; otherwise whitespace collapses to single spaces.
func (n *Normalizer) Normalize(text string, preserveStructure bool) string {
	if text == "" {
		return ""
	}
	text = n.stripMarkers(text)
	text = n.controlChars.ReplaceAllString(text, " ")
	// Mojibake repair must run before NFKD: the compatibility decomposition
	// rewrites the very characters (like U+2122) the sequences are made of.
	text = fixMojibake(text)
	text = n.c1Chars.ReplaceAllString(text, " ")
	text = foldUnicode(text)
	if preserveStructure {
		text = n.preserveStructure(text)
	} else {
		text = n.spaces.ReplaceAllString(text, " ")
		text = strings.ReplaceAll(text, "\r\n", "\n")
		text = strings.ReplaceAll(text, "\r", "\n")
		text = collapseEmptyLines(text, 1)
	}
	return strings.TrimSpace(text)
}

// stripMarkers removes EDGAR submission artifacts: <PAGE> markers,
// repeated "Table of Contents" headers, standalone page numbers, and bare
// SGML tags left behind by the text rendition of an HTML filing.
func (n *Normalizer) stripMarkers(text string) string {
	text = n.pageMarker.ReplaceAllString(text, "")
	text = n.tocHeader.ReplaceAllString(text, "")
	text = n.pageNumber.ReplaceAllString(text, "")
	text = n.sgmlTag.ReplaceAllString(text, "")
	return text
}

// preserveStructure normalizes prose lines while leaving structured lines
// (rules, pipes, columnar gaps, spaced-out numbers) untouched except for
// trailing whitespace. Runs of blank lines are capped at two.
func (n *Normalizer) preserveStructure(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if n.isStructuredLine(line) {
			out = append(out, strings.TrimRight(line, " \t"))
			continue
		}
		trimmed := strings.TrimLeft(line, " \t")
		indent := len(line) - len(trimmed)
		if indent > 4 {
			indent = 4
		}
		cleaned := strings.Join(strings.Fields(trimmed), " ")
		if cleaned != "" {
			out = append(out, strings.Repeat(" ", indent)+cleaned)
		} else if len(out) > 0 && strings.TrimSpace(out[len(out)-1]) != "" {
			out = append(out, "")
		}
	}
	return collapseEmptyLines(strings.Join(out, "\n"), 2)
}

// isStructuredLine reports whether a line belongs to a table or columnar
// block and so must keep its spacing.
func (n *Normalizer) isStructuredLine(line string) bool {
	if n.hrule.MatchString(line) {
		return true
	}
	if strings.Count(line, "|") >= 2 {
		return true
	}
	if n.multiGap.MatchString(line) {
		segs := n.multiGap.Split(strings.TrimSpace(line), -1)
		nonEmpty := 0
		for _, s := range segs {
			if strings.TrimSpace(s) != "" {
				nonEmpty++
			}
		}
		if len(segs) >= 2 && nonEmpty > 0 {
			return true
		}
	}
	return n.hasColumnarNumbers(line)
}

func (n *Normalizer) hasColumnarNumbers(line string) bool {
	locs := n.colNumber.FindAllStringIndex(line, -1)
	for i := 1; i < len(locs); i++ {
		if locs[i][0]-locs[i-1][0] > 10 {
			return true
		}
	}
	return false
}

// collapseEmptyLines caps consecutive blank lines at max.
func collapseEmptyLines(text string, max int) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blanks := 0
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			blanks++
			if blanks <= max {
				out = append(out, "")
			}
			continue
		}
		blanks = 0
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// asciiFold maps common typographic unicode to plain ASCII. The em dash
// becomes a double dash to keep column widths roughly stable.
var asciiFold = strings.NewReplacer(
	"’", "'",
	"‘", "'",
	"“", `"`,
	"”", `"`,
	"–", "-",
	"—", "--",
	"…", "...",
	" ", " ",
	"•", "*",
	"·", "*",
	"−", "-",
)

func foldUnicode(text string) string {
	text = norm.NFKD.String(text)
	return asciiFold.Replace(text)
}

// mojibakeFixes repairs UTF-8 bytes that were decoded as cp1252 or latin-1
// somewhere upstream. Longer sequences come first so their prefixes don't
// win; strings.Replacer already matches longest-first for shared prefixes.
var mojibakeFixes = strings.NewReplacer(
	// cp1252 renditions (€, ™, œ, and friends become visible characters)
	"â€™", "'",
	"â€œ", `"`,
	"â€”", "--",
	"â€“", "-",
	"â€", `"`,
	// latin-1 renditions keep the raw C1 code points
	"â", "'",
	"â", `"`,
	"â", `"`,
	"â", "-",
	"â", "--",
	"Ã¢", "",
	"Â", "",
)

func fixMojibake(text string) string {
	return mojibakeFixes.Replace(text)
}

// StripHTML extracts visible text from an HTML filing rendition. Block
// elements emit line breaks so headings stay on their own lines; script and
// style subtrees are skipped entirely.
func StripHTML(raw string) string {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		// Malformed beyond what the parser tolerates: fall back to tag
		// stripping so the caller still gets something searchable.
		return regexp.MustCompile(`<[^>]+>`).ReplaceAllString(raw, " ")
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		switch node.Type {
		case html.TextNode:
			b.WriteString(node.Data)
		case html.ElementNode:
			switch node.Data {
			case "script", "style", "head":
				return
			case "br":
				b.WriteByte('\n')
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if node.Type == html.ElementNode && isBlock(node.Data) {
			b.WriteByte('\n')
		}
	}
	walk(doc)
	return b.String()
}

func isBlock(tag string) bool {
	switch tag {
	case "p", "div", "tr", "table", "li", "ul", "ol", "h1", "h2", "h3",
		"h4", "h5", "h6", "blockquote", "pre", "section", "article":
		return true
	}
	return false
}

// CleanForCSV flattens text to a single CSV-safe line.
func CleanForCSV(text string) string {
	text = strings.ReplaceAll(text, "\n", " ")
	text = strings.ReplaceAll(text, "\r", " ")
	text = strings.Join(strings.Fields(text), " ")
	return strings.ReplaceAll(text, `"`, `""`)
}

var companyNamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?im)(?:COMPANY\s*CONFORMED\s*NAME|CONFORMED\s*NAME|COMPANY\s*NAME)[\s:]+([^\n]+)`),
	regexp.MustCompile(`(?m)(?:^|\n)\s*([A-Z][A-Z0-9\s,.\-&]+(?:INC|CORP|LLC|LP|LTD|COMPANY|CO)\.?)\s*\n`),
	regexp.MustCompile(`(?im)(?:REGISTRANT\s*NAME)[\s:]+([^\n]+)`),
}

// ExtractCompanyName pulls the registrant name from the filing header.
// Only the first 5000 characters are searched.
func ExtractCompanyName(text string) string {
	head := text
	if len(head) > 5000 {
		head = head[:5000]
	}
	for _, re := range companyNamePatterns {
		m := re.FindStringSubmatch(head)
		if m == nil {
			continue
		}
		name := strings.Join(strings.Fields(m[1]), " ")
		name = strings.Trim(name, " .")
		if len(name) > 3 && len(name) < 100 {
			return name
		}
	}
	return ""
}

var cikPattern = regexp.MustCompile(`(?i)CENTRAL\s*INDEX\s*KEY[\s:]+(\d{1,10})`)

// ExtractCIK pulls the central index key from the filing header, returning
// the raw digit string or "".
func ExtractCIK(text string) string {
	head := text
	if len(head) > 5000 {
		head = head[:5000]
	}
	if m := cikPattern.FindStringSubmatch(head); m != nil {
		return m[1]
	}
	return ""
}

// SanitizeFilename makes a string safe for use as a filename component,
// truncated to 50 characters.
func SanitizeFilename(name string) string {
	mapped := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', '\n', '\r', '\t':
			return ' '
		}
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, name)
	mapped = strings.Join(strings.Fields(mapped), " ")
	mapped = strings.Trim(mapped, " .")
	if len(mapped) > 50 {
		mapped = strings.TrimSpace(mapped[:50])
	}
	return mapped
}
