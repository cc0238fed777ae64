// Package xref finds cross-references inside an extracted section ("see
// Note 12", "discussed in Item 3", exhibit and captioned-section pointers)
// and resolves them against the full filing text.
package xref

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/avolkov/mdex/internal/model"
	"github.com/avolkov/mdex/internal/patterns"
)

// Type classifies what a reference points at.
type Type string

const (
	TypeNote    Type = "note"
	TypeItem    Type = "item"
	TypeExhibit Type = "exhibit"
	TypeSection Type = "section"
)

// Reference is one detected cross-reference. Start and End are offsets
// into the text it was found in.
type Reference struct {
	Text       string
	Type       Type
	Target     string
	Start      int
	End        int
	Resolved   bool
	Resolution string
}

var (
	digitsRe       = regexp.MustCompile(`\d+`)
	itemTargetRe   = regexp.MustCompile(`(?i)item\s*(\d+[a-z]?)`)
	exhibitTargetRe = regexp.MustCompile(`(?i)exhibit\s*([\d.]+)`)
	quotedRe       = regexp.MustCompile(`["']([^"']+)["']`)
)

// Find returns all cross-references in text, deduplicated by
// (type, target, position) and sorted by position.
func Find(text string) []Reference {
	var refs []Reference
	for _, p := range patterns.Load().CrossRef {
		for _, loc := range p.RE.FindAllStringIndex(text, -1) {
			if ref, ok := classify(text[loc[0]:loc[1]], loc[0], loc[1]); ok {
				refs = append(refs, ref)
			}
		}
	}

	seen := make(map[string]bool, len(refs))
	out := refs[:0]
	for _, r := range refs {
		key := fmt.Sprintf("%s:%s:%d", r.Type, r.Target, r.Start)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// classify derives the reference type and target from the matched text.
func classify(matched string, start, end int) (Reference, bool) {
	lower := strings.ToLower(matched)
	ref := Reference{Text: matched, Start: start, End: end}

	switch {
	case strings.Contains(lower, "note"):
		ref.Type = TypeNote
		ref.Target = digitsRe.FindString(matched)
	case strings.Contains(lower, "item"):
		ref.Type = TypeItem
		if m := itemTargetRe.FindStringSubmatch(matched); m != nil {
			ref.Target = m[1]
		}
	case strings.Contains(lower, "exhibit"):
		ref.Type = TypeExhibit
		if m := exhibitTargetRe.FindStringSubmatch(matched); m != nil {
			ref.Target = m[1]
		}
	case strings.Contains(lower, "section"):
		ref.Type = TypeSection
		if m := quotedRe.FindStringSubmatch(matched); m != nil {
			ref.Target = m[1]
		}
	default:
		return Reference{}, false
	}

	if ref.Target == "" {
		return Reference{}, false
	}
	return ref, true
}

// Resolver locates referenced content in the full document. Resolution
// results are cached per (type, target); a depth cap bounds chains of
// references that point at each other.
type Resolver struct {
	cfg   model.XrefConfig
	cache *gocache.Cache
	clean func(string) string
	log   *zap.Logger
}

// NewResolver builds a resolver. clean, when non-nil, is applied to every
// resolved snippet before it is cached (the pipeline passes the text
// normalizer here).
func NewResolver(cfg model.XrefConfig, clean func(string) string, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{
		cfg:   cfg,
		cache: gocache.New(time.Hour, 10*time.Minute),
		clean: clean,
		log:   log,
	}
}

// Resolve returns resolved copies of refs; the input slice is never
// mutated. Unresolvable references come back unchanged with Resolved
// false.
func (r *Resolver) Resolve(refs []Reference, doc string) []Reference {
	return r.resolve(refs, doc, 0)
}

func (r *Resolver) resolve(refs []Reference, doc string, depth int) []Reference {
	out := make([]Reference, len(refs))
	copy(out, refs)
	if depth >= r.cfg.MaxDepth {
		r.log.Warn("cross-reference depth cap reached", zap.Int("depth", depth))
		return out
	}

	for i := range out {
		ref := &out[i]
		if ref.Resolved {
			continue
		}
		key := string(ref.Type) + ":" + ref.Target
		if cached, ok := r.cache.Get(key); ok {
			ref.Resolution = cached.(string)
			ref.Resolved = true
			continue
		}

		var resolution string
		switch ref.Type {
		case TypeNote:
			resolution = r.resolveNote(ref.Target, doc)
		case TypeItem:
			resolution = r.resolveItem(ref.Target, doc)
		case TypeExhibit:
			resolution = r.resolveExhibit(ref.Target, doc)
		case TypeSection:
			resolution = r.resolveSection(ref.Target, doc)
		}
		if resolution == "" {
			continue
		}
		if r.clean != nil {
			resolution = r.clean(resolution)
		}
		ref.Resolution = resolution
		ref.Resolved = true
		r.cache.Set(key, resolution, gocache.DefaultExpiration)

		// Resolve one level of nested references so the cache is warm
		// when they are encountered again.
		if nested := Find(resolution); len(nested) > 0 {
			r.resolve(nested, doc, depth+1)
		}
	}
	return out
}

var noteEndRe = regexp.MustCompile(`(?im)(?:^|\n)\s*(?:NOTE\s*\d+|ITEM\s*\d+|SIGNATURES)`)

func (r *Resolver) resolveNote(num, doc string) string {
	starts := []*regexp.Regexp{
		regexp.MustCompile(`(?im)(?:^|\n)\s*NOTE\s*` + regexp.QuoteMeta(num) + `\s*[-–—:.\s]+[^\n]+`),
		regexp.MustCompile(`(?im)(?:^|\n)\s*\(` + regexp.QuoteMeta(num) + `\)\s*[^\n]+`),
	}
	for _, re := range starts {
		loc := re.FindStringIndex(doc)
		if loc == nil {
			continue
		}
		end := len(doc)
		if limit := loc[0] + 5000; limit < end {
			end = limit
		}
		if m := noteEndRe.FindStringIndex(doc[loc[1]:]); m != nil && loc[1]+m[0] < end {
			end = loc[1] + m[0]
		}
		return trimResolution(doc[loc[0]:end])
	}
	return ""
}

var itemEndRe = regexp.MustCompile(`(?im)(?:^|\n)\s*(?:ITEM\s*\d+|PART\s*[IVX]+|SIGNATURES)`)

func (r *Resolver) resolveItem(id, doc string) string {
	re := regexp.MustCompile(`(?im)(?:^|\n)\s*ITEM\s*` + regexp.QuoteMeta(id) + `\.?\s*[-–—:.\s]*[^\n]+`)
	loc := re.FindStringIndex(doc)
	if loc == nil {
		return ""
	}
	end := len(doc)
	if limit := loc[0] + 10000; limit < end {
		end = limit
	}
	if m := itemEndRe.FindStringIndex(doc[loc[1]:]); m != nil && loc[1]+m[0] < end {
		end = loc[1] + m[0]
	}
	return trimResolution(firstParagraphs(doc[loc[0]:end], 3))
}

var exhibitIndexRe = regexp.MustCompile(`(?is)EXHIBIT\s*INDEX.*?(?:SIGNATURES|$)`)

// resolveExhibit looks the exhibit up in the exhibit index; exhibits live
// in separate files, so without an index entry only a placeholder is
// possible.
func (r *Resolver) resolveExhibit(id, doc string) string {
	if index := exhibitIndexRe.FindString(doc); index != "" {
		re := regexp.MustCompile(`(?im)(?:^|\n)\s*(?:Exhibit\s*)?` + regexp.QuoteMeta(id) + `\s*[-–—:.\s]*([^\n]+)`)
		if m := re.FindStringSubmatch(index); m != nil {
			return fmt.Sprintf("[Exhibit %s: %s]", id, strings.TrimSpace(m[1]))
		}
	}
	return fmt.Sprintf("[Reference to Exhibit %s]", id)
}

func (r *Resolver) resolveSection(title, doc string) string {
	re := regexp.MustCompile(`(?im)(?:^|\n)\s*` + regexp.QuoteMeta(title) + `\s*(?:\n|$)`)
	loc := re.FindStringIndex(doc)
	if loc == nil {
		return ""
	}
	end := loc[1] + 3000
	if end > len(doc) {
		end = len(doc)
	}
	return trimResolution(firstParagraphs(doc[loc[1]:end], 2))
}

func firstParagraphs(text string, n int) string {
	paras := strings.SplitN(text, "\n\n", n+1)
	if len(paras) > n {
		paras = paras[:n]
	}
	return strings.Join(paras, "\n\n")
}

var tocWordRe = regexp.MustCompile(`(?i)Table\s*of\s*Contents`)

// trimResolution flattens and bounds a resolved snippet.
func trimResolution(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	text = tocWordRe.ReplaceAllString(text, "")
	if len(text) > 2000 {
		text = text[:2000] + "..."
	}
	return strings.TrimSpace(text)
}

// Format renders resolved references as an appendix block for the output
// file. Returns "" when nothing resolved.
func Format(refs []Reference) string {
	any := false
	for _, r := range refs {
		if r.Resolved && r.Resolution != "" {
			any = true
			break
		}
	}
	if !any {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n\n--- CROSS-REFERENCES ---\n")
	for _, r := range refs {
		if !r.Resolved || r.Resolution == "" {
			continue
		}
		fmt.Fprintf(&b, "\n[%s]:\n%s\n", strings.TrimSpace(r.Text), r.Resolution)
	}
	return b.String()
}
