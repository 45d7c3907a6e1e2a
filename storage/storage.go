package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"novel-downloader/model"
	"novel-downloader/utils"
)

// ChaptersDir is the subdirectory chapter files live in, under the book dir.
const ChaptersDir = "chapters"

const (
	indexFile = "index.json"
	metaFile  = "meta.json"
)

// Storage owns one book directory: its chapter files, meta.json and the
// resume index. Safe for concurrent use by the download workers.
type Storage struct {
	bookDir    string
	chapterDir string
	indexPath  string
	logger     *zap.Logger

	mu      sync.RWMutex
	entries map[string]model.IndexEntry
}

// BookDir returns the directory a book is stored under. An author prefixes
// the name the way library shelves do: "[author] name".
func BookDir(outputDir, name, author string) string {
	dirName := utils.CleanFileName(name)
	if author != "" {
		dirName = fmt.Sprintf("[%s] %s", utils.CleanFileName(author), dirName)
	}
	return filepath.Join(outputDir, dirName)
}

// New creates the book directory layout under outputDir and loads the index
// a previous run may have left behind.
func New(outputDir, name, author string, logger *zap.Logger) (*Storage, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if utils.CleanFileName(name) == "" {
		return nil, fmt.Errorf("book name %q is empty after removing illegal characters", name)
	}

	bookDir := BookDir(outputDir, name, author)
	chapterDir := filepath.Join(bookDir, ChaptersDir)
	if err := os.MkdirAll(chapterDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create chapter directory: %w", err)
	}

	s := &Storage{
		bookDir:    bookDir,
		chapterDir: chapterDir,
		indexPath:  filepath.Join(bookDir, indexFile),
		logger:     logger,
		entries:    make(map[string]model.IndexEntry),
	}
	s.loadIndex()
	return s, nil
}

// loadIndex reads whatever index exists. A missing or unreadable index just
// means nothing can be skipped this run.
func (s *Storage) loadIndex() {
	data, err := os.ReadFile(s.indexPath)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("failed to read chapter index, starting empty", zap.Error(err))
		}
		return
	}
	if err := json.Unmarshal(data, &s.entries); err != nil {
		s.logger.Warn("failed to parse chapter index, starting empty", zap.Error(err))
		s.entries = make(map[string]model.IndexEntry)
	}
}

// IsDone reports whether url was already saved by this or a previous run.
func (s *Storage) IsDone(url string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[url]
	return ok
}

// Count returns the number of chapters recorded in the index.
func (s *Storage) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Save writes the chapter file first and records it in the index only once
// the write succeeded, so an interrupted run can never claim a chapter it
// does not actually have.
func (s *Storage) Save(idx int, title, content, url string) error {
	safeTitle := utils.CleanFileName(title)
	fileName := fmt.Sprintf("%04d_%s.txt", idx, safeTitle)

	body := title + "\n\n" + content
	if err := os.WriteFile(filepath.Join(s.chapterDir, fileName), []byte(body), 0644); err != nil {
		return fmt.Errorf("failed to write chapter file: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[url] = model.IndexEntry{Idx: idx, Title: safeTitle, File: fileName}
	if err := s.writeIndexLocked(); err != nil {
		return fmt.Errorf("failed to write chapter index: %w", err)
	}
	return nil
}

// writeIndexLocked rewrites the full index through a temp file so a crash
// mid-write cannot tear the entries already on disk. Callers hold mu.
func (s *Storage) writeIndexLocked() error {
	tmp, err := os.CreateTemp(s.bookDir, indexFile+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s.entries); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.indexPath)
}

// SaveMeta writes meta.json, pretty-printed with non-ASCII kept readable.
func (s *Storage) SaveMeta(meta *model.MetaInfo) error {
	f, err := os.Create(filepath.Join(s.bookDir, metaFile))
	if err != nil {
		return fmt.Errorf("failed to create meta file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return fmt.Errorf("failed to write meta file: %w", err)
	}
	return nil
}

// ReadIndex loads the chapter index of a downloaded book directory.
func ReadIndex(bookDir string) (map[string]model.IndexEntry, error) {
	data, err := os.ReadFile(filepath.Join(bookDir, indexFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read chapter index: %w", err)
	}
	entries := make(map[string]model.IndexEntry)
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse chapter index: %w", err)
	}
	return entries, nil
}

// ReadMeta loads the meta.json of a downloaded book directory.
func ReadMeta(bookDir string) (*model.MetaInfo, error) {
	data, err := os.ReadFile(filepath.Join(bookDir, metaFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read meta file: %w", err)
	}
	meta := &model.MetaInfo{}
	if err := json.Unmarshal(data, meta); err != nil {
		return nil, fmt.Errorf("failed to parse meta file: %w", err)
	}
	return meta, nil
}
