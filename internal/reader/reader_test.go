package reader

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/avolkov/mdex/internal/model"
)

func testReader() *Reader {
	return New(model.ReaderConfig{MaxFileSizeMB: 1}, nil)
}

func TestReadUTF8(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "filing.txt")
	content := "ITEM 7. MANAGEMENT'S DISCUSSION AND ANALYSIS\n\nRevenue grew."
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := testReader().Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got != content {
		t.Errorf("content mismatch: %q", got)
	}
}

func TestReadWindows1252Fallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "filing.txt")
	// 0x92 is a right single quote in Windows-1252 and invalid as UTF-8.
	raw := []byte("the Company\x92s results")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := testReader().Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !strings.Contains(got, "Company’s") {
		t.Errorf("expected curly apostrophe from cp1252 decode, got %q", got)
	}
}

func TestDecodeLatin1Fallback(t *testing.T) {
	// 0x81 is unassigned in Windows-1252, so the decode falls through to
	// Latin-1 where every byte maps to a code point.
	got, enc := Decode([]byte("before\x81after"))
	if enc != "latin-1" {
		t.Fatalf("encoding = %q, want latin-1", enc)
	}
	if !strings.Contains(got, "before") || !strings.Contains(got, "after") {
		t.Errorf("decoded text mangled: %q", got)
	}
}

func TestReadRejectsOversizedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.txt")
	if err := os.WriteFile(path, make([]byte, 2*1024*1024), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := testReader().Read(path); err == nil {
		t.Fatal("expected size-limit error")
	}
}

func TestReadMissingFile(t *testing.T) {
	if _, err := testReader().Read(filepath.Join(t.TempDir(), "absent.txt")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestListTextFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.txt", "a.TXT", "notes.md", "c.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	files, err := ListTextFiles(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 3 {
		t.Fatalf("got %d files, want 3: %v", len(files), files)
	}
	if filepath.Base(files[0]) != "a.TXT" {
		t.Errorf("expected sorted order, got %v", files)
	}
}

func TestUnpack(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "filings.zip")

	zf, err := os.Create(zipPath)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(zf)
	for name, body := range map[string]string{
		"20230101_10-K_edgar_data_320193_0000320193-23-000106.txt": "annual report",
		"index.json": "{}",
		"../evil.txt": "nope",
	} {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := zf.Close(); err != nil {
		t.Fatal(err)
	}

	destDir := t.TempDir()
	files, err := testReader().Unpack(zipPath, destDir)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("got %d extracted files, want 1: %v", len(files), files)
	}
	data, err := os.ReadFile(files[0])
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "annual report" {
		t.Errorf("extracted content = %q", data)
	}
}

func TestListArchives(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"2023.zip", "readme.txt", "2022.ZIP"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	archives, err := ListArchives(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(archives) != 2 {
		t.Fatalf("got %d archives, want 2: %v", len(archives), archives)
	}
}
