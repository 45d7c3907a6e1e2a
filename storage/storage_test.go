package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novel-downloader/model"
)

func TestSaveWritesFileThenIndex(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := New(dir, "测试书", "", nil)
	require.NoError(t, err)

	url := "https://example.com/c/1.html"
	require.NoError(t, s.Save(1, "第一章 起点", "正文第一段\n正文第二段", url))

	chapterPath := filepath.Join(dir, "测试书", ChaptersDir, "0001_第一章 起点.txt")
	data, err := os.ReadFile(chapterPath)
	require.NoError(t, err)
	assert.Equal(t, "第一章 起点\n\n正文第一段\n正文第二段", string(data))

	entries, err := ReadIndex(filepath.Join(dir, "测试书"))
	require.NoError(t, err)
	require.Contains(t, entries, url)
	assert.Equal(t, model.IndexEntry{Idx: 1, Title: "第一章 起点", File: "0001_第一章 起点.txt"}, entries[url])
	assert.True(t, s.IsDone(url))
}

func TestSaveSanitizesTitleForFileName(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := New(dir, "book", "", nil)
	require.NoError(t, err)

	require.NoError(t, s.Save(3, `第三章: "对决?"`, "text", "u3"))

	data, err := os.ReadFile(filepath.Join(dir, "book", ChaptersDir, "0003_第三章 对决.txt"))
	require.NoError(t, err)
	// The file name loses the illegal characters, the heading keeps them.
	assert.True(t, strings.HasPrefix(string(data), `第三章: "对决?"`+"\n\n"))
}

func TestSaveFailureLeavesIndexUntouched(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := New(dir, "book", "", nil)
	require.NoError(t, err)

	// With the chapters directory gone the content write fails, and the
	// failed chapter must not surface in the index.
	require.NoError(t, os.RemoveAll(filepath.Join(dir, "book", ChaptersDir)))

	err = s.Save(1, "t", "c", "u1")
	require.Error(t, err)
	assert.False(t, s.IsDone("u1"))
	_, err = ReadIndex(filepath.Join(dir, "book"))
	require.Error(t, err, "no index may exist after a failed first save")
}

func TestIndexRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := New(dir, "book", "", nil)
	require.NoError(t, err)

	require.NoError(t, s.Save(1, "一", "a", "u1"))
	require.NoError(t, s.Save(2, "二", "b", "u2"))
	require.NoError(t, s.Save(3, "三", "c", "u3"))

	reloaded, err := New(dir, "book", "", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, reloaded.Count())
	for _, url := range []string{"u1", "u2", "u3"} {
		assert.True(t, reloaded.IsDone(url))
	}

	entries, err := ReadIndex(filepath.Join(dir, "book"))
	require.NoError(t, err)
	assert.Equal(t, map[string]model.IndexEntry{
		"u1": {Idx: 1, Title: "一", File: "0001_一.txt"},
		"u2": {Idx: 2, Title: "二", File: "0002_二.txt"},
		"u3": {Idx: 3, Title: "三", File: "0003_三.txt"},
	}, entries)
}

func TestSaveIsIdempotent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := New(dir, "book", "", nil)
	require.NoError(t, err)

	require.NoError(t, s.Save(1, "一", "content", "u1"))
	first, err := os.ReadFile(filepath.Join(dir, "book", ChaptersDir, "0001_一.txt"))
	require.NoError(t, err)

	require.NoError(t, s.Save(1, "一", "content", "u1"))
	second, err := os.ReadFile(filepath.Join(dir, "book", ChaptersDir, "0001_一.txt"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, s.Count())
}

func TestSaveMeta(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := New(dir, "书名", "", nil)
	require.NoError(t, err)

	meta := &model.MetaInfo{
		Name:          "书名",
		URL:           "https://example.com/book/1/",
		TotalChapters: 12,
		Status:        model.MetaStatusDownloading,
	}
	require.NoError(t, s.SaveMeta(meta))

	raw, err := os.ReadFile(filepath.Join(dir, "书名", "meta.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\n  \"name\"", "meta.json is pretty-printed")
	assert.Contains(t, string(raw), "书名", "non-ASCII is not escaped")

	got, err := ReadMeta(filepath.Join(dir, "书名"))
	require.NoError(t, err)
	assert.Equal(t, meta, got)
}

func TestBookDirWithAuthor(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := New(dir, "书名?", "作者*", nil)
	require.NoError(t, err)
	require.NoError(t, s.Save(1, "t", "c", "u1"))

	assert.Equal(t, filepath.Join(dir, "[作者] 书名"), BookDir(dir, "书名?", "作者*"))
	assert.DirExists(t, filepath.Join(dir, "[作者] 书名", ChaptersDir))
}

func TestNewRejectsUnusableName(t *testing.T) {
	t.Parallel()

	_, err := New(t.TempDir(), `\/:*?`, "", nil)
	require.Error(t, err)
}

func TestCorruptIndexStartsEmpty(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	bookDir := filepath.Join(dir, "book")
	require.NoError(t, os.MkdirAll(bookDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(bookDir, "index.json"), []byte("{not json"), 0644))

	s, err := New(dir, "book", "", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Count())
	assert.False(t, s.IsDone("anything"))
}

func TestIndexSurvivesPreexistingEntries(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := New(dir, "book", "", nil)
	require.NoError(t, err)
	require.NoError(t, s.Save(1, "一", "a", "u1"))

	// A fresh instance appends without losing what is already recorded.
	s2, err := New(dir, "book", "", nil)
	require.NoError(t, err)
	require.NoError(t, s2.Save(2, "二", "b", "u2"))

	entries, err := ReadIndex(filepath.Join(dir, "book"))
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Contains(t, entries, "u1")
	assert.Contains(t, entries, "u2")
}
