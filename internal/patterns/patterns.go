// Package patterns holds the precompiled heading, table and reference
// matchers used across the extraction pipeline. The catalog is built once
// and read-only afterwards; it is safe for concurrent use.
package patterns

import (
	"regexp"
	"sync"
)

// Pattern is one compiled matcher with its confidence weight. Weights are
// assigned at construction (1.0 - 0.1*rank within a set, so earlier, more
// specific variants win tie-breaks) and mean nothing in isolation: only the
// relative order between simultaneously valid candidates matters, and a
// low-ranked pattern's weight may go negative.
type Pattern struct {
	RE     *regexp.Regexp
	Weight float64
}

// Catalog groups the pattern sets by semantic role.
type Catalog struct {
	Item7Start  []Pattern // annual-report section start
	Item7AStart []Pattern // annual-report end: market risk
	Item8Start  []Pattern // annual-report end: financial statements
	Item2Start  []Pattern // quarterly-report section start
	Item3Start  []Pattern // quarterly-report end: market risk
	Item4Start  []Pattern // quarterly-report end: controls
	PartIIStart []Pattern // quarterly-report end: part II

	// PartIItem2 matches the composite "Part I ... Item 2" heading shape
	// seen in quarterly filings. It carries PartIItem2Weight, above every
	// ranked weight, so a part-qualified heading always wins tie-breaks.
	PartIItem2 *regexp.Regexp

	FallbackEndAnnual    []Pattern // signatures / exhibit index / part III
	FallbackEndQuarterly []Pattern

	FormType      []Pattern
	TOCMarkers    []Pattern
	TOCExits      []Pattern
	TOCEntryShape *regexp.Regexp // dot leaders / trailing page numbers

	ReferenceOnly []Pattern // "see Item 2 above" style
	CrossRef      []Pattern
	Incorporation []Pattern

	SECMarkers []Pattern
}

var (
	catalog     *Catalog
	catalogOnce sync.Once
)

// Load returns the process-wide catalog, compiling it on first use.
func Load() *Catalog {
	catalogOnce.Do(func() {
		catalog = compile()
	})
	return catalog
}

// set compiles a ranked pattern list with descending weights.
func set(flags string, exprs ...string) []Pattern {
	out := make([]Pattern, 0, len(exprs))
	for i, e := range exprs {
		out = append(out, Pattern{
			RE:     regexp.MustCompile(flags + e),
			Weight: 1.0 - 0.1*float64(i),
		})
	}
	return out
}

const (
	im = `(?im)` // case-insensitive, ^ matches line starts
	i  = `(?i)`
)

// PartIItem2Weight is attached to PartIItem2 matches.
const PartIItem2Weight = 1.5

func compile() *Catalog {
	return &Catalog{
		Item7Start: set(im,
			`(?:^|\n)[ \t]*ITEM\s*7\.?\s*MANAGEMENT['’]?S?\s*DISCUSSION\s*AND\s*ANALYSIS`,
			`(?:^|\n)[ \t]*ITEM\s*7\.?\s*MANAGEMENT['’]?S?\s*DISCUSSION\s*&\s*ANALYSIS`,
			`(?:^|\n)[ \t]*ITEM\s*7[-–:.\s]+MANAGEMENT['’]?S?\s*DISCUSSION\s*(?:AND|&)\s*ANALYSIS`,
			`(?:^|\n)[ \t]*ITEM\s*7[-:.\s]+MD&A`,
			`(?:^|\n)[ \t]*ITEM\s*7[-:.\s]+M\s*D\s*&?\s*A`,
			`(?:^|\n)[ \t]*ITEM\s+SEVEN\.?\s*MANAGEMENT['’]?S?\s*DISCUSSION\s*AND\s*ANALYSIS`,
			`(?:^|\n)[ \t]*ITEM\s*VII[-:.\s]+MD&A`,
			`(?:^|\n)[ \t]*PART\s*II[-:.\s]+ITEM\s*7\.?\s*MD&A`,
			`(?:^|\n)[ \t]*ITEM\s*7[-:.\s]+DISCUSSION\s*AND\s*ANALYSIS\s*OF\s*FINANCIAL\s*CONDITION`,
			`(?:^|\n)[ \t]*ITEM\s*7[-:.\s]+MANAGEMENT['’]?S?\s*ANALYSIS\s*OF\s*FINANCIAL\s*CONDITION`,
			`(?:^|\n)[ \t]*ITEM\s*7[-:.\s]+FINANCIAL\s*CONDITION\s*AND\s*RESULTS\s*OF\s*OPERATIONS`,
			`(?:^|\n)[ \t]*ITEM\s*7[-:.\s]+ANALYSIS\s*OF\s*RESULTS\s*OF\s*OPERATIONS`,
			`(?:^|\n)[ \t]*ITEM\s*7[-:.\s]+REVIEW\s*OF\s*OPERATIONS`,
			`(?:^|\n)[ \t]*ITEM\s*7[-:.\s]+OPERATING\s*RESULTS\s*AND\s*DISCUSSION`,
			`(?:^|\n)[ \t]*ITEM\s*7[-:.\s]+DISCUSSION\s*AND\s*OUTLOOK`,
			`(?:^|\n)[ \t]*ITEM\s*7[-:.\s]+LIQUIDITY\s*AND\s*CAPITAL\s*RESOURCES`,
			`(?:^|\n)[ \t]*ITEM\s*7[-:.\s]+CRITICAL\s*ACCOUNTING\s*POLICIES`,
		),
		Item7AStart: set(im,
			`^[ \t]*ITEM\s*7A\.?\s*QUANTITATIVE\s*AND\s*QUALITATIVE\s*DISCLOSURES`,
			`^[ \t]*ITEM\s*7A\.?\s*QUANTITATIVE\s*AND\s*QUALITATIVE`,
			`^[ \t]*ITEM\s*7A\.?\s*MARKET\s*RISK\s*DISCLOSURES`,
			`^[ \t]*ITEM\s*7A\.?\s*DISCLOSURES\s*ABOUT\s*MARKET\s*RISK`,
			`^[ \t]*ITEM\s*7A\.?\s*MARKET\s*RISK`,
			`^[ \t]*ITEM\s+SEVEN\s*A\.?\s*QUANTITATIVE\s*AND\s*QUALITATIVE`,
			`^[ \t]*ITEM\s*7A[-:.\s]+QUANTITATIVE`,
			`^[ \t]*ITEM\s*7A[-:.\s]+MARKET\s*RISK`,
			`^[ \t]*ITEM\s*7A[-:.\s]+Q\s*&\s*Q`,
			`^[ \t]*ITEM\s*VIIA\.?\s*QUANTITATIVE`,
		),
		Item8Start: set(im,
			`^[ \t]*ITEM\s*8\.?\s*FINANCIAL\s*STATEMENTS`,
			`^[ \t]*ITEM\s*8\.?\s*CONSOLIDATED\s*FINANCIAL\s*STATEMENTS`,
			`^[ \t]*ITEM\s+EIGHT\.?\s*FINANCIAL\s*STATEMENTS`,
			`^[ \t]*ITEM\s*VIII\.?\s*FINANCIAL\s*STATEMENTS`,
			`^[ \t]*PART\s*II\s*[-–—]\s*ITEM\s*8\.?\s*FINANCIAL\s*STATEMENTS`,
			`^[ \t]*ITEM\s*8[-:.\s]+CONSOLIDATED\s*FINANCIAL\s*STATEMENTS`,
			`^[ \t]*ITEM\s*8[-:.\s]+FINANCIAL\s*DATA`,
			`^[ \t]*ITEM\s*8[-:.\s]+STATEMENTS\s*AND\s*DATA`,
		),
		Item2Start: set(im,
			`(?:^|\n)[ \t]*ITEM\s*2[-:.\s]*MANAGEMENT['’`+"`"+`]?S?\s*DISCUSSION\s*(?:AND|&)\s*ANALYSIS`,
			`(?:^|\n)[ \t]*ITEM\s+TWO[-:.\s]*MANAGEMENT['’`+"`"+`]?S?\s*DISCUSSION\s*(?:AND|&)\s*ANALYSIS`,
			`(?:^|\n)[ \t]*ITEM\s*2[-:.\s]*M\s*D\s*&?\s*A`,
			`(?:^|\n)[ \t]*ITEM\s*2[-:.\s]*DISCUSSION\s+OF\s+OPERATIONS`,
			`(?:^|\n)[ \t]*MANAGEMENT['’`+"`"+`]?S?\s*DISCUSSION\s+AND\s+ANALYSIS\s+OF\s+FINANCIAL\s+CONDITION\s+AND\s+RESULTS\s+OF\s+OPERATIONS`,
		),
		Item3Start: set(im,
			`^[ \t]*ITEM\s*3[-:.\s]*QUANTITATIVE\s+AND\s+QUALITATIVE\s+DISCLOSURES\s+ABOUT\s+MARKET\s+RISK`,
			`^[ \t]*ITEM\s*3[-:.\s]*QUANTITATIVE`,
			`^[ \t]*ITEM\s+THREE[-:.\s]*QUANTITATIVE`,
			`^[ \t]*ITEM\s*3[-:.\s]*MARKET\s+RISK\s+DISCLOSURES`,
		),
		Item4Start: set(im,
			`^[ \t]*ITEM\s*4[-:.\s]*CONTROLS\s+AND\s+PROCEDURES`,
			`^[ \t]*ITEM\s*4[-:.\s]*DISCLOSURE\s+CONTROLS`,
			`^[ \t]*ITEM\s*4[-:.\s]*EVALUATION\s+OF\s+DISCLOSURE\s+CONTROLS`,
			`^[ \t]*ITEM\s+FOUR[-:.\s]*CONTROLS\s+AND\s+PROCEDURES`,
		),
		PartIIStart: set(im,
			`^[ \t]*PART\s*II[-:.\s]*OTHER\s+INFORMATION`,
			`^[ \t]*PART\s+TWO[-:.\s]*OTHER\s+INFORMATION`,
			`^[ \t]*PART\s*II[-:.\s]*ITEM\s*1[-:.\s]*LEGAL\s+PROCEEDINGS`,
			`^[ \t]*PART\s*II\b`,
		),

		PartIItem2: regexp.MustCompile(`(?is)(?:^|\n)[ \t]*(?:PART\s*I\b.{0,200}?)?[ \t]*ITEM\s*2[-:.\s]*MANAGEMENT['’]?S?\s*DISCUSSION`),

		FallbackEndAnnual: set(im,
			`(?:^|\n)[ \t]*SIGNATURES[ \t]*(?:\n|$)`,
			`(?:^|\n)[ \t]*EXHIBIT\s+INDEX[ \t]*(?:\n|$)`,
			`(?:^|\n)[ \t]*PART\s+III[ \t]*(?:\n|$)`,
		),
		FallbackEndQuarterly: set(im,
			`^[ \t]*(?:LEGAL\s+PROCEEDINGS|MARKET\s+RISK\s+DISCLOSURES)`,
			`^[ \t]*(?:UNREGISTERED\s+SALES|DEFAULTS\s+UPON\s+SENIOR)`,
			`^[ \t]*SIGNATURES[ \t]*$`,
			`^[ \t]*EXHIBIT\s+INDEX[ \t]*$`,
		),

		FormType: set(im,
			`(?:FORM|CONFORMED\s*SUBMISSION\s*TYPE)[\s:-]*(\d{1,2}-[KQ](?:/A|A)?)`,
			`^[ \t]*(?:FORM\s*)?(\d{1,2}-[KQ](?:/A|A)?)[ \t]*$`,
			`QUARTERLY\s*REPORT\s*(?:ON\s*)?FORM\s*(\d{1,2}-Q(?:/A|A)?)`,
			`ANNUAL\s*REPORT\s*(?:ON\s*)?FORM\s*(\d{1,2}-K(?:/A|A)?)`,
			`Form\s+(10-[KQ])(/A)?`,
		),
		TOCMarkers: set(im,
			`TABLE\s+OF\s+CONTENTS`,
			`INDEX\s+TO\s+(?:FINANCIAL\s+STATEMENTS|FORM)`,
			`(?:^|\n)[ \t]*(?:Page|PART|ITEM)\s*(?:No\.?|Number)?[ \t]*$`,
		),
		TOCExits: set(im,
			`(?:^|\n)[ \t]*(?:PART\s+I[ \t]*$|BUSINESS[ \t]*$|RISK\s+FACTORS)`,
			`(?:^|\n)[ \t]*FORWARD.?LOOKING\s+STATEMENTS`,
			`(?:^|\n)[ \t]*(?:INTRODUCTION|OVERVIEW|SUMMARY)`,
		),
		TOCEntryShape: regexp.MustCompile(`\.{5,}|…{3,}|[ \t]+\d{1,3}[ \t]*(?:\n|$)`),

		ReferenceOnly: set(i,
			`(?:see|refer\s*to|reference\s*to)\s*Item\s*2`,
			`Item\s*2\s*(?:above|below|herein)`,
			`(?:disclosed|discussed)\s*in\s*Item\s*2`,
			`pursuant\s*to\s*Item\s*2`,
		),
		CrossRef: set(i,
			`(?:see|refer(?:red)?\s*to|as\s*discussed\s*in)\s*Note\s+(\d+)`,
			`Note\s+(\d+)\s*(?:to|of)?\s*(?:the\s*)?(?:consolidated\s*)?financial\s*statements`,
			`Notes?\s+(\d+)\s*(?:through|and)\s+(\d+)`,
			`(?:see|refer(?:red)?\s*to|discussed\s*in|included\s*in)\s*Part\s*([IVX]+)[,\s]*Item\s*(\d+[A-Z]?)`,
			`Item\s*(\d+[A-Z]?)\s*(?:of|in)\s*Part\s*([IVX]+)`,
			`(?:discussed|described)\s*(?:in|under)\s*Item\s*(\d+[A-Z]?)`,
			`as\s+(?:set\s+forth|described)\s+in\s+Item\s*(\d+[A-Z]?)`,
			`(?:see|refer\s*to|contained\s*in)\s*Exhibit\s*(\d+(?:\.\d+)?)`,
			`(?:see|refer\s*to|discussed\s*in)\s*(?:the\s*)?section\s*(?:entitled|captioned|called|titled)?\s*['"]([^'"]+)['"]`,
			`(?:refer\s*back\s*to|see\s*also)\s+Note\s+(\d+)`,
			`(?:see\s+also|refer\s+to)\s+(?:Note|Item|Section)\s*(\d+[A-Z]?)`,
		),
		Incorporation: set(im,
			`(?:information\s+required\s+by\s+)?Item\s*7.{0,120}?(?:is\s+)?incorporated\s+(?:herein\s+)?by\s+reference`,
			`Management['’]?s?\s+Discussion\s+and\s+Analysis.{0,160}?incorporated\s+by\s+reference`,
			`MD&A.{0,120}?incorporated\s+by\s+reference`,
			`incorporated\s+by\s+reference.{0,160}?(?:from|to).{0,80}?(?:Proxy\s+Statement|DEF\s*14A)`,
			`incorporated\s+by\s+reference.{0,120}?Exhibit\s*(?:13|99|[\d.]+)`,
			`incorporated.{0,80}?from.{0,80}?Appendix`,
			`hereby\s+incorporated\s+by\s+reference`,
			`information.{0,120}?set\s+forth.{0,80}?incorporated\s+by\s+reference`,
		),

		SECMarkers: set(im,
			`<PAGE>\s*\d+`,
			`^[ \t]*Table\s+of\s+Contents[ \t]*$`,
			`^[ \t]*\d{1,3}[ \t]*$`,
			`^[ \t]*Filed\s+with\s+the\s+SEC.*$`,
			`^[ \t]*\[.*\][ \t]*$`,
		),
	}
}

// FirstMatch returns the earliest match position across a pattern set in
// text, or -1 when nothing matches.
func FirstMatch(ps []Pattern, text string) int {
	best := -1
	for _, p := range ps {
		if loc := p.RE.FindStringIndex(text); loc != nil {
			if best == -1 || loc[0] < best {
				best = loc[0]
			}
		}
	}
	return best
}

// AnyMatch reports whether any pattern in the set matches text.
func AnyMatch(ps []Pattern, text string) bool {
	for _, p := range ps {
		if p.RE.MatchString(text) {
			return true
		}
	}
	return false
}
