package text

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"novel-downloader/model"
	"novel-downloader/storage"
)

// MergeBook concatenates every downloaded chapter of bookDir into out, in
// index order, with the book name as the first line. The chapter index is
// the source of truth; files the index does not list are ignored.
func MergeBook(bookDir string, out io.Writer) error {
	meta, err := storage.ReadMeta(bookDir)
	if err != nil {
		return err
	}
	index, err := storage.ReadIndex(bookDir)
	if err != nil {
		return err
	}
	if len(index) == 0 {
		return fmt.Errorf("no downloaded chapters under %v", bookDir)
	}

	entries := make([]model.IndexEntry, 0, len(index))
	for _, entry := range index {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Idx < entries[j].Idx })

	if _, err := fmt.Fprintf(out, "%s\n", meta.Name); err != nil {
		return fmt.Errorf("failed to write book header: %w", err)
	}
	for _, entry := range entries {
		data, err := os.ReadFile(filepath.Join(bookDir, storage.ChaptersDir, entry.File))
		if err != nil {
			return fmt.Errorf("failed to read chapter %04d: %w", entry.Idx, err)
		}
		if _, err := fmt.Fprintf(out, "\n%s\n", data); err != nil {
			return fmt.Errorf("failed to write chapter %04d: %w", entry.Idx, err)
		}
	}
	return nil
}
