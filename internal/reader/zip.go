package reader

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Unpack extracts the text filings from an EDGAR bulk archive into destDir
// and returns their paths, sorted by name. Non-text members are skipped.
// Member names that would escape destDir are rejected.
func (r *Reader) Unpack(zipPath, destDir string) ([]string, error) {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", zipPath, err)
	}
	defer zr.Close()

	var extracted []string
	for _, member := range zr.File {
		if member.FileInfo().IsDir() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(member.Name), ".txt") {
			continue
		}

		dest := filepath.Join(destDir, filepath.FromSlash(member.Name))
		rel, err := filepath.Rel(destDir, dest)
		if err != nil || strings.HasPrefix(rel, "..") {
			r.log.Warn("skipping archive member outside destination",
				zap.String("member", member.Name))
			continue
		}

		if err := extractMember(member, dest); err != nil {
			return nil, fmt.Errorf("extract %s: %w", member.Name, err)
		}
		extracted = append(extracted, dest)
	}

	sort.Strings(extracted)
	r.log.Info("unpacked archive",
		zap.String("archive", filepath.Base(zipPath)),
		zap.Int("text_files", len(extracted)))
	return extracted, nil
}

// ListArchives returns the ZIP archives directly under dir, sorted by name.
func ListArchives(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	var archives []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".zip") {
			archives = append(archives, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(archives)
	return archives, nil
}

func extractMember(member *zip.File, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	src, err := member.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return err
	}
	return out.Close()
}
