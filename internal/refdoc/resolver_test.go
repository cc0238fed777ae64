package refdoc

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/avolkov/mdex/internal/section"
)

func TestAccession(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"20030331_10-K_edgar_data_320193_0000950170-03-061793.txt", "0000950170-03-061793"},
		{"000095017003061793.txt", "0000950170-03-061793"},
		{"just-a-file.txt", ""},
	}
	for _, tc := range cases {
		if got := Accession(tc.in); got != tc.want {
			t.Errorf("Accession(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestResolveFromExhibit13(t *testing.T) {
	dir := t.TempDir()
	refBody := "ANNUAL FINANCIAL REVIEW\n\nManagement's Discussion and Analysis\n" +
		strings.Repeat("Revenue and operating income both improved over the prior fiscal year.\n", 20) +
		"\nCONSOLIDATED FINANCIAL STATEMENTS\n" +
		strings.Repeat("balance sheet data\n", 5)
	refName := "0000950170-03-061793_ex13.txt"
	if err := os.WriteFile(filepath.Join(dir, refName), []byte(refBody), 0o644); err != nil {
		t.Fatal(err)
	}

	r := NewResolver(dir, nil)
	inc := &section.Incorporation{DocType: "Exhibit 13"}
	text, path := r.Resolve(inc, "20030331_10-K_edgar_data_320193_0000950170-03-061793.txt")
	if text == "" {
		t.Fatal("no content resolved")
	}
	if filepath.Base(path) != refName {
		t.Errorf("resolved from %q, want %q", path, refName)
	}
	if !strings.Contains(text, "Management's Discussion and Analysis") {
		t.Errorf("resolved text misses the discussion heading: %q", text[:80])
	}
	if strings.Contains(text, "CONSOLIDATED FINANCIAL STATEMENTS") {
		t.Error("resolved text ran into the next major section")
	}
}

func TestResolveWithCaption(t *testing.T) {
	dir := t.TempDir()
	body := "PROXY STATEMENT\n\nFinancial Review and Outlook\n" +
		strings.Repeat("The company discusses its liquidity and results in this review section.\n", 15) +
		"\nPROPOSAL 2\nelection of directors\n"
	if err := os.WriteFile(filepath.Join(dir, "000095017003061793_def14a.txt"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	r := NewResolver(dir, nil)
	inc := &section.Incorporation{DocType: "DEF 14A", Caption: "Financial Review and Outlook"}
	text, _ := r.Resolve(inc, "0000950170-03-061793.txt")
	if text == "" {
		t.Fatal("no content resolved")
	}
	if !strings.Contains(text, "liquidity and results") {
		t.Errorf("caption content not extracted: %q", text[:80])
	}
	if strings.Contains(text, "PROPOSAL 2") {
		t.Error("extract crossed the proposal boundary")
	}
}

func TestResolveMissingDocument(t *testing.T) {
	r := NewResolver(t.TempDir(), nil)
	inc := &section.Incorporation{DocType: "Exhibit 13"}
	if text, _ := r.Resolve(inc, "0000950170-03-061793.txt"); text != "" {
		t.Errorf("resolved %q from an empty directory", text)
	}
}

func TestResolveNoAccession(t *testing.T) {
	r := NewResolver(t.TempDir(), nil)
	inc := &section.Incorporation{DocType: "Exhibit 13"}
	if text, _ := r.Resolve(inc, "filing.txt"); text != "" {
		t.Error("resolution should fail without an accession number")
	}
}
