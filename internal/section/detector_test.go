package section

import (
	"strings"
	"testing"

	"github.com/avolkov/mdex/internal/model"
)

func testDetector() *Detector {
	return NewDetector(model.DefaultConfig().Detector, nil)
}

// prose builds n lines of neutral body text with discussion vocabulary.
func prose(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteString("The registrant recorded higher revenue during the fiscal year as customer demand strengthened across all operating segments.\n")
	}
	return b.String()
}

func quarterlyProse(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteString("For the three months ended June 30, the company reported improved results of operations and stable liquidity across segments.\n")
	}
	return b.String()
}

func annualFixture() string {
	var b strings.Builder
	b.WriteString(prose(3))
	b.WriteString("\nTABLE OF CONTENTS\n\n")
	b.WriteString("Item 1. Business.........................4\n")
	b.WriteString("Item 7. Management's Discussion and Analysis.........42\n")
	b.WriteString("Item 7A. Quantitative and Qualitative Disclosures.....58\n")
	b.WriteString("Item 8. Financial Statements..........................60\n\n")
	b.WriteString(prose(60)) // push the real heading well past the start floor
	b.WriteString("\nITEM 7. MANAGEMENT'S DISCUSSION AND ANALYSIS OF FINANCIAL CONDITION AND RESULTS OF OPERATIONS\n\n")
	b.WriteString(prose(30)) // ~3.6KB of section body
	b.WriteString("\nITEM 7A. QUANTITATIVE AND QUALITATIVE DISCLOSURES ABOUT MARKET RISK\n\n")
	b.WriteString(prose(5))
	b.WriteString("\nITEM 8. FINANCIAL STATEMENTS AND SUPPLEMENTARY DATA\n")
	b.WriteString(prose(5))
	return b.String()
}

func TestFindAnnualSkipsTOC(t *testing.T) {
	doc := annualFixture()
	span, err := testDetector().Find(doc, model.Form10K)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}

	realStart := strings.Index(doc, "ITEM 7. MANAGEMENT'S DISCUSSION AND ANALYSIS OF FINANCIAL CONDITION")
	if realStart < 0 {
		t.Fatal("fixture broken")
	}
	got := doc[span.Start:span.End]
	if !strings.HasPrefix(strings.TrimSpace(got), "ITEM 7.") {
		t.Errorf("span does not begin at the heading: %q", got[:60])
	}
	if span.Start < 5000 {
		t.Errorf("span start %d is inside the contents region", span.Start)
	}
	if strings.Contains(got, ".........") {
		t.Error("span contains contents-page dot leaders")
	}
	wantEnd := strings.Index(doc, "ITEM 7A. QUANTITATIVE AND QUALITATIVE DISCLOSURES ABOUT MARKET RISK")
	if span.End != wantEnd {
		t.Errorf("span end = %d, want %d (start of the market risk item)", span.End, wantEnd)
	}
}

func TestFindAnnualEndsAtItem8WhenNo7A(t *testing.T) {
	doc := annualFixture()
	doc = strings.Replace(doc, "\nITEM 7A. QUANTITATIVE AND QUALITATIVE DISCLOSURES ABOUT MARKET RISK\n\n", "\n", 1)
	span, err := testDetector().Find(doc, model.Form10K)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	wantEnd := strings.Index(doc, "ITEM 8. FINANCIAL STATEMENTS AND SUPPLEMENTARY DATA")
	if span.End != wantEnd {
		t.Errorf("span end = %d, want %d", span.End, wantEnd)
	}
}

func TestFindDeterministic(t *testing.T) {
	doc := annualFixture()
	d := testDetector()
	a, err := d.Find(doc, model.Form10K)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	b, err := d.Find(doc, model.Form10K)
	if err != nil {
		t.Fatalf("Find (second): %v", err)
	}
	if a != b {
		t.Errorf("same inputs produced different spans: %+v vs %+v", a, b)
	}
}

func TestFindShortDocumentRelaxation(t *testing.T) {
	doc := "ITEM 7. MANAGEMENT'S DISCUSSION AND ANALYSIS\n" +
		"Revenue increased during the fiscal year driven by volume growth and favorable pricing across the registrant's operating segments.\n"
	span, err := testDetector().Find(doc, model.Form10K)
	if err != nil {
		t.Fatalf("Find on short document: %v", err)
	}
	if span.Start != 0 {
		t.Errorf("span start = %d, want 0", span.Start)
	}
	if span.End != len(doc) {
		t.Errorf("span end = %d, want document end %d", span.End, len(doc))
	}
}

func TestFindAnnualNotFound(t *testing.T) {
	_, err := testDetector().Find(prose(50), model.Form10K)
	if err != ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func quarterlyFixture() string {
	var b strings.Builder
	b.WriteString(prose(2))
	b.WriteString("\nTABLE OF CONTENTS\n\n")
	b.WriteString("Item 1. Financial Statements.........................3\n")
	b.WriteString("Item 2. Management's Discussion and Analysis........12\n")
	b.WriteString("Item 3. Quantitative and Qualitative Disclosures....24\n\n")
	b.WriteString(quarterlyProse(30))
	b.WriteString("\nITEM 2. MANAGEMENT'S DISCUSSION AND ANALYSIS OF FINANCIAL CONDITION AND RESULTS OF OPERATIONS\n\n")
	b.WriteString(quarterlyProse(20))
	b.WriteString("\nITEM 3. QUANTITATIVE AND QUALITATIVE DISCLOSURES ABOUT MARKET RISK\n")
	b.WriteString(quarterlyProse(3))
	b.WriteString("\nITEM 4. CONTROLS AND PROCEDURES\n")
	b.WriteString(quarterlyProse(2))
	b.WriteString("\nPART II - OTHER INFORMATION\n")
	return b.String()
}

func TestFindQuarterly(t *testing.T) {
	doc := quarterlyFixture()
	span, err := testDetector().Find(doc, model.Form10Q)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	got := doc[span.Start:span.End]
	if !strings.Contains(got, "MANAGEMENT'S DISCUSSION AND ANALYSIS OF FINANCIAL CONDITION") {
		t.Errorf("span missed the heading: %q", got[:80])
	}
	if strings.Contains(got, "........") {
		t.Error("span contains contents-page residue")
	}
	wantEnd := strings.Index(doc, "ITEM 3. QUANTITATIVE AND QUALITATIVE DISCLOSURES ABOUT MARKET RISK")
	if span.End != wantEnd {
		t.Errorf("span end = %d, want %d", span.End, wantEnd)
	}
}

func TestFindQuarterlySkipsReferenceOnly(t *testing.T) {
	var b strings.Builder
	b.WriteString(quarterlyProse(12))
	b.WriteString("For a discussion of market conditions, see\n")
	b.WriteString("Item 2. Management's Discussion and Analysis above.\n")
	b.WriteString(quarterlyProse(30))
	b.WriteString("\nITEM 2. MANAGEMENT'S DISCUSSION AND ANALYSIS OF FINANCIAL CONDITION AND RESULTS OF OPERATIONS\n\n")
	b.WriteString(quarterlyProse(20))
	b.WriteString("\nITEM 3. QUANTITATIVE AND QUALITATIVE DISCLOSURES ABOUT MARKET RISK\n")
	doc := b.String()

	span, err := testDetector().Find(doc, model.Form10Q)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	refPos := strings.Index(doc, "Item 2. Management's Discussion and Analysis above")
	if span.Start <= refPos {
		t.Errorf("span start %d did not skip the reference mention at %d", span.Start, refPos)
	}
	if !strings.Contains(doc[span.Start:span.End], "RESULTS OF OPERATIONS") {
		t.Error("span missed the real heading")
	}
}

func TestFindQuarterlyFallbackEnd(t *testing.T) {
	var b strings.Builder
	b.WriteString("ITEM 2. MANAGEMENT'S DISCUSSION AND ANALYSIS OF FINANCIAL CONDITION AND RESULTS OF OPERATIONS\n\n")
	b.WriteString(quarterlyProse(10))
	b.WriteString("LEGAL PROCEEDINGS\n")
	b.WriteString(quarterlyProse(2))
	doc := b.String()

	span, err := testDetector().Find(doc, model.Form10Q)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	wantEnd := strings.Index(doc, "LEGAL PROCEEDINGS")
	if span.End != wantEnd {
		t.Errorf("span end = %d, want fallback cue position %d", span.End, wantEnd)
	}
}

func TestFindAnnualCapsSpanWithoutEndMarkers(t *testing.T) {
	cfg := model.DefaultConfig().Detector
	cfg.MaxSpanAnnual = 4000
	d := NewDetector(cfg, nil)

	doc := "ITEM 7. MANAGEMENT'S DISCUSSION AND ANALYSIS\n\n" + prose(100)
	span, err := d.Find(doc, model.Form10K)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if span.End-span.Start != 4000 {
		t.Errorf("span length = %d, want the 4000-byte cap", span.End-span.Start)
	}
}

func TestValidate(t *testing.T) {
	long := strings.Repeat("liquidity and capital resources improved while revenue grew ", 30)
	v := Validate(long, model.Form10K)
	if !v.Valid {
		t.Errorf("valid annual section rejected: %+v", v)
	}
	if v.WordCount == 0 {
		t.Error("word count not populated")
	}

	v = Validate("too short", model.Form10K)
	if v.Valid {
		t.Error("nine-character section accepted for 10-K")
	}

	// keyword miss invalidates annual but not quarterly sections
	neutral := strings.Repeat("the registrant operates retail stores in several states ", 20)
	if Validate(neutral, model.Form10K).Valid {
		t.Error("annual section with no discussion keywords accepted")
	}
	if !Validate(neutral+strings.Repeat("word ", 50), model.Form10Q).Valid {
		t.Error("quarterly section invalidated by keyword miss alone")
	}
}

func TestSubsections(t *testing.T) {
	text := "Overview\n" + prose(2) +
		"Results of Operations\n" + prose(2) +
		"Liquidity and Capital Resources\n" + prose(2)
	subs := Subsections(text)
	if len(subs) != 3 {
		t.Fatalf("got %d subsections, want 3", len(subs))
	}
	wantTitles := []string{"Overview", "Results of Operations", "Liquidity and Capital Resources"}
	for i, sub := range subs {
		if sub.Title != wantTitles[i] {
			t.Errorf("subsection %d title = %q, want %q", i, sub.Title, wantTitles[i])
		}
		if i > 0 && subs[i-1].End != sub.Start {
			t.Errorf("subsection %d end %d != next start %d", i-1, subs[i-1].End, sub.Start)
		}
	}
	if subs[2].End != len(text) {
		t.Errorf("last subsection end = %d, want %d", subs[2].End, len(text))
	}
}

func TestCheckIncorporation(t *testing.T) {
	doc := "ITEM 7. MANAGEMENT'S DISCUSSION AND ANALYSIS\n\n" +
		"The information required by Item 7 is incorporated herein by reference to the " +
		"caption \"Management's Discussion and Analysis\" on pages A-26 through A-35 of the " +
		"Registrant's Annual Report filed as Exhibit 13.\n"
	span := Span{Start: 0, End: len(doc)}
	inc := CheckIncorporation(doc, span)
	if inc == nil {
		t.Fatal("incorporation language not detected")
	}
	if inc.Caption != "Management's Discussion and Analysis" {
		t.Errorf("caption = %q", inc.Caption)
	}
	if inc.Pages != "A-26 through A-35" {
		t.Errorf("pages = %q", inc.Pages)
	}
	if inc.DocType == "" {
		t.Error("document type not extracted")
	}

	plain := "ITEM 7. MANAGEMENT'S DISCUSSION AND ANALYSIS\n\n" + prose(3)
	if got := CheckIncorporation(plain, Span{Start: 0, End: len(plain)}); got != nil {
		t.Errorf("false positive on inline section: %+v", got)
	}
}
