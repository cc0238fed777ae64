// Package reader loads SEC filing text from disk and from EDGAR bulk
// archives, handling the encoding mess of older filings.
package reader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"

	"github.com/avolkov/mdex/internal/model"
)

// Reader loads filing files with an encoding fallback chain. EDGAR text
// filings predate consistent UTF-8 use: many are Windows-1252, a few are
// raw Latin-1.
type Reader struct {
	cfg model.ReaderConfig
	log *zap.Logger
}

// New creates a Reader.
func New(cfg model.ReaderConfig, log *zap.Logger) *Reader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reader{cfg: cfg, log: log}
}

// Read loads a filing and returns its content as UTF-8 text. Files larger
// than the configured cap are rejected rather than truncated.
func (r *Reader) Read(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}

	maxBytes := int64(r.cfg.MaxFileSizeMB) * 1024 * 1024
	if maxBytes > 0 && info.Size() > maxBytes {
		return "", fmt.Errorf("file too large (%.1f MB, limit %d MB): %s",
			float64(info.Size())/(1024*1024), r.cfg.MaxFileSizeMB, path)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	text, enc := Decode(raw)
	if enc != "utf-8" {
		r.log.Debug("decoded with fallback encoding",
			zap.String("file", filepath.Base(path)),
			zap.String("encoding", enc))
	}
	return text, nil
}

// Decode converts raw filing bytes to a UTF-8 string, trying UTF-8, then
// Windows-1252, then Latin-1. The second return names the encoding used.
func Decode(raw []byte) (string, string) {
	if utf8.Valid(raw) {
		return string(raw), "utf-8"
	}

	// Windows-1252 decodes every byte, but leaves U+FFFD for the handful
	// of unassigned code points. Treat any replacement rune as a miss and
	// fall through to Latin-1, which is total.
	if decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw); err == nil {
		if !strings.ContainsRune(string(decoded), utf8.RuneError) {
			return string(decoded), "windows-1252"
		}
	}

	decoded, _ := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	return string(decoded), "latin-1"
}

// ListTextFiles returns the .txt files directly under dir, sorted by name.
// The extension match is case-insensitive.
func ListTextFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".txt") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
