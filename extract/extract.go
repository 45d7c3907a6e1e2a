package extract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"novel-downloader/model"
	"novel-downloader/rule"
)

var (
	// ErrNoTitle means the title selector matched nothing usable.
	ErrNoTitle = errors.New("no chapter title found")
	// ErrEmptyContent means every content match was empty after trimming.
	ErrEmptyContent = errors.New("no chapter content found")
)

// Chapter applies the site's selectors to a chapter page. The title is the
// first match's text, kept verbatim; content blocks are trimmed, empties
// dropped and the rest joined with single newlines. Errors mean the page
// must not be persisted, there is no partial chapter.
func Chapter(html string, site *rule.Site) (*model.ChapterRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	title := doc.Find(site.Rules.ChapterTitle).First().Text()
	if title == "" {
		return nil, ErrNoTitle
	}

	var blocks []string
	doc.Find(site.Rules.ChapterContent).Each(func(i int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			blocks = append(blocks, text)
		}
	})
	if len(blocks) == 0 {
		return nil, ErrEmptyContent
	}

	return &model.ChapterRecord{
		Title:   title,
		Content: strings.Join(blocks, "\n"),
	}, nil
}
