package normalize

import (
	"strings"
	"testing"
)

func TestNormalizeStripsMarkers(t *testing.T) {
	n := New()
	in := "<PAGE> 12\nTable of Contents\nRevenue grew in fiscal 2003.\n42\n<B>bold</B> text"
	out := n.Normalize(in, true)
	for _, gone := range []string{"<PAGE>", "Table of Contents", "<B>", "</B>"} {
		if strings.Contains(out, gone) {
			t.Errorf("output still contains %q:\n%s", gone, out)
		}
	}
	if !strings.Contains(out, "Revenue grew in fiscal 2003.") {
		t.Errorf("prose lost:\n%s", out)
	}
	if !strings.Contains(out, "bold text") {
		t.Errorf("tag contents lost:\n%s", out)
	}
}

func TestNormalizeFoldsUnicode(t *testing.T) {
	n := New()
	out := n.Normalize("management\u2019s \u201Cresults\u201D \u2013 up \u2026", false)
	want := `management's "results" - up ...`
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestNormalizeFixesMojibake(t *testing.T) {
	n := New()
	out := n.Normalize("the company\u00E2\u0080\u0099s revenue", false)
	if out != "the company's revenue" {
		t.Errorf("got %q", out)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	n := New()
	in := "ITEM 7. MANAGEMENT'S DISCUSSION\n\n\n\nRevenue   was   flat.\n\nAssets    1,200    1,100\n"
	once := n.Normalize(in, true)
	twice := n.Normalize(once, true)
	if once != twice {
		t.Errorf("not idempotent:\nonce:  %q\ntwice: %q", once, twice)
	}
}

func TestPreserveStructureKeepsColumnGaps(t *testing.T) {
	n := New()
	in := "Some ordinary    prose    line here made of words only and more words\nRevenue      1,200      1,100\n-----------------------------\n| a | b | c |"
	out := n.Normalize(in, true)
	if !strings.Contains(out, "Revenue      1,200      1,100") {
		t.Errorf("columnar line was collapsed:\n%s", out)
	}
	if !strings.Contains(out, "| a | b | c |") {
		t.Errorf("pipe row was collapsed:\n%s", out)
	}
	if !strings.Contains(out, "-----") {
		t.Errorf("rule line removed:\n%s", out)
	}
}

func TestNormalizeCapsBlankRuns(t *testing.T) {
	n := New()
	out := n.Normalize("para one\n\n\n\n\npara two", true)
	if strings.Contains(out, "\n\n\n") {
		t.Errorf("more than two consecutive blanks survived:\n%q", out)
	}
}

func TestStripHTML(t *testing.T) {
	raw := `<html><head><style>p{color:red}</style></head><body>
<p>ITEM 7. MANAGEMENT'S DISCUSSION</p><div>Revenue grew.</div>
<script>alert(1)</script></body></html>`
	out := StripHTML(raw)
	if !strings.Contains(out, "ITEM 7. MANAGEMENT'S DISCUSSION") {
		t.Errorf("heading lost: %q", out)
	}
	if strings.Contains(out, "alert") || strings.Contains(out, "color:red") {
		t.Errorf("script/style leaked: %q", out)
	}
	// block elements must break lines so headings stay matchable at ^
	if strings.Contains(out, "DISCUSSIONRevenue") {
		t.Errorf("block boundary lost: %q", out)
	}
}

func TestExtractCompanyName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"COMPANY CONFORMED NAME: ACME WIDGET CORP\nCENTRAL INDEX KEY: 0000012345", "ACME WIDGET CORP"},
		{"header\nGLOBAL INDUSTRIES INC.\nFORM 10-K\n", "GLOBAL INDUSTRIES INC"},
		{"no names here at all", ""},
	}
	for _, tc := range cases {
		if got := ExtractCompanyName(tc.in); got != tc.want {
			t.Errorf("ExtractCompanyName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestExtractCIK(t *testing.T) {
	if got := ExtractCIK("CENTRAL INDEX KEY: 0000320193\n"); got != "0000320193" {
		t.Errorf("got %q", got)
	}
	if got := ExtractCIK("nothing"); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestSanitizeFilename(t *testing.T) {
	got := SanitizeFilename(`ACME/WIDGET: "CO" <2003>`)
	if strings.ContainsAny(got, `/\:*?"<>|`) {
		t.Errorf("illegal characters remain: %q", got)
	}
	long := SanitizeFilename(strings.Repeat("A B ", 40))
	if len(long) > 50 {
		t.Errorf("not truncated: %d chars", len(long))
	}
}

func TestCleanForCSV(t *testing.T) {
	got := CleanForCSV("line one\nline \"two\"\r\n")
	if strings.ContainsAny(got, "\n\r") {
		t.Errorf("newlines remain: %q", got)
	}
	if !strings.Contains(got, `""two""`) {
		t.Errorf("quotes not escaped: %q", got)
	}
}
