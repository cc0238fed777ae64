package section

import (
	"regexp"
	"sort"
	"strings"

	"github.com/avolkov/mdex/internal/model"
)

var subsectionHeadings = []*regexp.Regexp{
	regexp.MustCompile(`(?im)(?:^|\n)[ \t]*(?:Overview|Executive Summary)[ \t]*(?:\n|$)`),
	regexp.MustCompile(`(?im)(?:^|\n)[ \t]*Results of Operations[ \t]*(?:\n|$)`),
	regexp.MustCompile(`(?im)(?:^|\n)[ \t]*Liquidity and Capital Resources[ \t]*(?:\n|$)`),
	regexp.MustCompile(`(?im)(?:^|\n)[ \t]*Critical Accounting (?:Policies|Estimates)[ \t]*(?:\n|$)`),
	regexp.MustCompile(`(?im)(?:^|\n)[ \t]*Off-Balance Sheet Arrangements[ \t]*(?:\n|$)`),
}

// Subsections finds the conventional named headings inside an extracted
// span. Offsets are relative to the span text; each entry's End is the
// next entry's Start, the last running to the end of the span.
func Subsections(text string) []model.Subsection {
	var subs []model.Subsection
	for _, re := range subsectionHeadings {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			subs = append(subs, model.Subsection{
				Title:   strings.TrimSpace(text[loc[0]:loc[1]]),
				Start:   loc[0],
				HeadEnd: loc[1],
				LineNum: lineAt(text, loc[0]),
			})
		}
	}
	sort.SliceStable(subs, func(i, j int) bool { return subs[i].Start < subs[j].Start })
	for i := range subs {
		if i+1 < len(subs) {
			subs[i].End = subs[i+1].Start
		} else {
			subs[i].End = len(text)
		}
	}
	return subs
}
