// Package tables finds financial tables inside extracted section text so
// they can be preserved verbatim in the output. Three shapes are
// recognized: horizontal-rule delimited, pipe delimited, and space-aligned
// columns under a header line.
package tables

import (
	"regexp"
	"sort"
	"strings"

	"github.com/avolkov/mdex/internal/model"
)

// Table is one detected table. Line numbers are zero-based indexes into
// the lines of the text given to Detect; OriginalText preserves the exact
// source formatting.
type Table struct {
	Rows         [][]string
	StartLine    int
	EndLine      int
	Title        string
	Confidence   float64
	Type         string // "delimited", "pipe", "aligned"
	OriginalText string
}

// Detector finds tables. Safe for concurrent use.
type Detector struct {
	cfg model.TablesConfig
}

func NewDetector(cfg model.TablesConfig) *Detector {
	return &Detector{cfg: cfg}
}

var (
	hruleRe      = regexp.MustCompile(`^\s*(?:-{3,}|={3,}|_{3,})\s*$`)
	multiGapRe   = regexp.MustCompile(`\s{3,}`)
	digitRe      = regexp.MustCompile(`\d`)
	bareNumberRe = regexp.MustCompile(`^\d+$`)
	periodEndRe  = regexp.MustCompile(`(?i)(?:Year|Period|Quarter|Month)\s+End(?:ed|ing)`)
	headerDateRe = regexp.MustCompile(`(?i)(?:December|June|March|September)\s+\d{1,2},?\s+20\d{2}`)
)

var headerKeywords = []string{
	"total", "year", "quarter", "revenue", "income", "assets",
	"change", "increase", "decrease", "%", "$",
	"2019", "2020", "2021", "2022", "2023", "2024",
}

var continuationKeywords = []string{"total", "subtotal", "net", "gross", "sum"}

// Detect finds all tables in text. Results are non-overlapping (the table
// found first claims its line range) and sorted by start line.
func (d *Detector) Detect(text string) []Table {
	lines := strings.Split(text, "\n")
	claimed := make(map[int]bool)

	var out []Table
	out = append(out, d.delimitedPass(lines, claimed)...)
	out = append(out, d.alignedPass(lines, claimed)...)

	out = dedupe(out)
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartLine < out[j].StartLine })
	return out
}

// delimitedPass scans for horizontal-rule and pipe tables.
func (d *Detector) delimitedPass(lines []string, claimed map[int]bool) []Table {
	var out []Table
	for i := 0; i < len(lines); {
		if claimed[i] {
			i++
			continue
		}
		switch {
		case isHRule(lines[i]):
			if t := d.extractDelimited(lines, i); t != nil {
				out = append(out, *t)
				claim(claimed, t)
				i = t.EndLine + 1
				continue
			}
		case strings.Count(lines[i], "|") >= 2:
			if t := d.extractPipe(lines, i); t != nil {
				out = append(out, *t)
				claim(claimed, t)
				i = t.EndLine + 1
				continue
			}
		}
		i++
	}
	return out
}

// alignedPass scans for space-aligned tables introduced by a header line.
func (d *Detector) alignedPass(lines []string, claimed map[int]bool) []Table {
	var out []Table
	for i := 0; i < len(lines); {
		if claimed[i] {
			i++
			continue
		}
		if d.looksLikeHeader(lines[i]) {
			if t := d.extractAligned(lines, i); t != nil {
				out = append(out, *t)
				claim(claimed, t)
				i = t.EndLine + 1
				continue
			}
		}
		i++
	}
	return out
}

func claim(claimed map[int]bool, t *Table) {
	for n := t.StartLine; n <= t.EndLine; n++ {
		claimed[n] = true
	}
}

// isHRule reports whether a line is a run of three or more identical
// dashes, equals signs or underscores.
func isHRule(line string) bool {
	return hruleRe.MatchString(line)
}

func isTableLine(line string) bool {
	if multiGapRe.MatchString(line) {
		if len(multiGapRe.Split(strings.TrimSpace(line), -1)) >= 2 {
			return true
		}
	}
	if strings.Count(line, "|") >= 2 {
		return true
	}
	return isHRule(line)
}

// looksLikeHeader recognizes the line shapes that introduce financial
// tables: period captions, month-day-year dates, or a columnar line
// carrying at least one header keyword.
func (d *Detector) looksLikeHeader(line string) bool {
	if periodEndRe.MatchString(line) || headerDateRe.MatchString(line) {
		return true
	}
	segments := multiGapRe.Split(strings.TrimSpace(line), -1)
	if len(segments) < d.cfg.MinColumns {
		return false
	}
	for _, seg := range segments {
		lower := strings.ToLower(seg)
		for _, kw := range headerKeywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	return false
}

func looksLikeData(line string) bool {
	if digitRe.MatchString(line) {
		return true
	}
	if multiGapRe.MatchString(line) {
		return len(multiGapRe.Split(strings.TrimSpace(line), -1)) >= 2
	}
	return false
}

func isContinuation(line string) bool {
	lower := strings.ToLower(line)
	for _, kw := range continuationKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// extractDelimited builds a table from a horizontal rule: the line above
// is the header, the lines below are data until prose or two consecutive
// blanks.
func (d *Detector) extractDelimited(lines []string, rule int) *Table {
	if rule > 0 && strings.TrimSpace(lines[rule-1]) == "" {
		return nil
	}
	start := rule
	var content []string
	if rule > 0 {
		start = rule - 1
		content = append(content, lines[rule-1])
	}

	cur := rule + 1
	emptyRun := 0
	for cur < len(lines) && emptyRun < 2 {
		line := lines[cur]
		if strings.TrimSpace(line) == "" {
			emptyRun++
		} else {
			emptyRun = 0
			if !looksLikeData(line) {
				break
			}
			content = append(content, line)
		}
		cur++
	}
	if len(content) < d.cfg.MinRows {
		return nil
	}

	end := start + len(content)
	if end > len(lines)-1 {
		end = len(lines) - 1
	}
	rows := make([][]string, 0, len(content))
	for _, line := range content {
		rows = append(rows, strings.Fields(line))
	}
	return &Table{
		Rows:         rows,
		StartLine:    start,
		EndLine:      end,
		Title:        title(lines, start),
		Confidence:   0.9,
		Type:         "delimited",
		OriginalText: strings.Join(lines[start:end+1], "\n"),
	}
}

// extractPipe builds a table from consecutive pipe-bearing lines. Edge
// cells produced by leading or trailing pipes are dropped.
func (d *Detector) extractPipe(lines []string, start int) *Table {
	var raw []string
	cur := start
	for cur < len(lines) && strings.Contains(lines[cur], "|") {
		raw = append(raw, lines[cur])
		cur++
	}
	if len(raw) < d.cfg.MinRows {
		return nil
	}

	var rows [][]string
	for _, line := range raw {
		cells := strings.Split(line, "|")
		for i := range cells {
			cells[i] = strings.TrimSpace(cells[i])
		}
		if len(cells) > 0 && cells[0] == "" {
			cells = cells[1:]
		}
		if len(cells) > 0 && cells[len(cells)-1] == "" {
			cells = cells[:len(cells)-1]
		}
		if len(cells) > 0 {
			rows = append(rows, cells)
		}
	}

	end := start + len(raw) - 1
	return &Table{
		Rows:         rows,
		StartLine:    start,
		EndLine:      end,
		Title:        title(lines, start),
		Confidence:   0.95,
		Type:         "pipe",
		OriginalText: strings.Join(lines[start:end+1], "\n"),
	}
}

// extractAligned builds a table from a header line whose column boundaries
// the following lines populate. Lines that miss the alignment test still
// join the table when they carry total/subtotal vocabulary.
func (d *Detector) extractAligned(lines []string, start int) *Table {
	header := lines[start]
	cols := columnBoundaries(header)
	if len(cols) < d.cfg.MinColumns {
		return nil
	}

	content := []string{header}
	cur := start + 1
	emptyRun := 0
	for cur < len(lines) && emptyRun < 2 {
		line := lines[cur]
		if strings.TrimSpace(line) == "" {
			emptyRun++
			cur++
			continue
		}
		emptyRun = 0
		if d.matchesColumns(line, cols) || isContinuation(line) {
			content = append(content, line)
		} else {
			break
		}
		cur++
	}
	if len(content) < d.cfg.MinRows {
		return nil
	}

	rows := make([][]string, 0, len(content))
	for _, line := range content {
		rows = append(rows, cellsByPosition(line, cols))
	}
	end := start + len(content) - 1
	return &Table{
		Rows:         rows,
		StartLine:    start,
		EndLine:      end,
		Title:        title(lines, start),
		Confidence:   0.8,
		Type:         "aligned",
		OriginalText: strings.Join(content, "\n"),
	}
}

type column struct{ start, end int }

// columnBoundaries derives column extents from a header line: a column
// ends where two or more spaces follow it.
func columnBoundaries(header string) []column {
	var cols []column
	inText := false
	start := 0
	padded := header + " "
	for i := 0; i < len(padded); i++ {
		ch := padded[i]
		if ch != ' ' && !inText {
			start = i
			inText = true
			continue
		}
		if ch == ' ' && inText {
			spacesAhead := 0
			j := i
			for j < len(header) && header[j] == ' ' {
				spacesAhead++
				j++
			}
			if spacesAhead >= 2 || j >= len(header) {
				cols = append(cols, column{start: start, end: i})
				inText = false
			}
		}
	}
	return cols
}

// matchesColumns reports whether a line populates at least MinAlignRatio
// of the header's columns.
func (d *Detector) matchesColumns(line string, cols []column) bool {
	matches := 0
	for _, c := range cols {
		if c.start >= len(line) {
			continue
		}
		end := c.end + 5
		if end > len(line) {
			end = len(line)
		}
		if strings.TrimSpace(line[c.start:end]) != "" {
			matches++
		}
	}
	return float64(matches) >= float64(len(cols))*d.cfg.MinAlignRatio
}

// cellsByPosition slices a line at the header's column starts.
func cellsByPosition(line string, cols []column) []string {
	cells := make([]string, 0, len(cols))
	for i, c := range cols {
		if c.start >= len(line) {
			cells = append(cells, "")
			continue
		}
		end := len(line)
		if i+1 < len(cols) && cols[i+1].start < end {
			end = cols[i+1].start
		}
		cells = append(cells, strings.TrimSpace(line[c.start:end]))
	}
	return cells
}

// title scans up to three non-blank lines above the table for a short
// prose line to use as the caption.
func title(lines []string, tableStart int) string {
	for i := 1; i <= 3 && tableStart-i >= 0; i++ {
		line := strings.TrimSpace(lines[tableStart-i])
		if line == "" {
			continue
		}
		if len(line) < 200 && !isTableLine(line) &&
			!strings.HasSuffix(line, ".") && !bareNumberRe.MatchString(line) {
			return line
		}
	}
	return ""
}

// dedupe drops any table whose start line falls inside an earlier one.
func dedupe(ts []Table) []Table {
	if len(ts) == 0 {
		return ts
	}
	sort.SliceStable(ts, func(i, j int) bool { return ts[i].StartLine < ts[j].StartLine })
	out := ts[:0:0]
	for _, t := range ts {
		overlap := false
		for _, kept := range out {
			if t.StartLine >= kept.StartLine && t.StartLine <= kept.EndLine {
				overlap = true
				break
			}
		}
		if !overlap {
			out = append(out, t)
		}
	}
	return out
}
