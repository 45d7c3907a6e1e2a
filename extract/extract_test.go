package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novel-downloader/rule"
)

var testSite = &rule.Site{
	Name:     "test",
	Encoding: "utf-8",
	Rules: rule.Selectors{
		ChapterTitle:   "h1.title",
		ChapterContent: "div#content p",
	},
}

func TestChapter(t *testing.T) {
	t.Parallel()

	html := `<html><body>
		<h1 class="title">第一章 出发</h1>
		<div id="content">
			<p>  开头一段。  </p>
			<p>第二段。</p>
		</div>
	</body></html>`

	record, err := Chapter(html, testSite)
	require.NoError(t, err)
	assert.Equal(t, "第一章 出发", record.Title)
	assert.Equal(t, "开头一段。\n第二段。", record.Content)
}

func TestChapterTitleKeptVerbatim(t *testing.T) {
	t.Parallel()

	html := `<h1 class="title">  第二章 · 归途  </h1><div id="content"><p>正文</p></div>`

	record, err := Chapter(html, testSite)
	require.NoError(t, err)
	assert.Equal(t, "  第二章 · 归途  ", record.Title)
}

func TestChapterUsesFirstTitleMatch(t *testing.T) {
	t.Parallel()

	html := `<h1 class="title">真标题</h1><h1 class="title">广告标题</h1>
		<div id="content"><p>正文</p></div>`

	record, err := Chapter(html, testSite)
	require.NoError(t, err)
	assert.Equal(t, "真标题", record.Title)
}

func TestChapterDropsEmptyContentBlocks(t *testing.T) {
	t.Parallel()

	html := `<h1 class="title">t</h1><div id="content">
		<p>一</p><p>   </p><p></p><p>二</p>
	</div>`

	record, err := Chapter(html, testSite)
	require.NoError(t, err)
	assert.Equal(t, "一\n二", record.Content)
}

func TestChapterMissingTitle(t *testing.T) {
	t.Parallel()

	html := `<div id="content"><p>正文</p></div>`

	_, err := Chapter(html, testSite)
	require.ErrorIs(t, err, ErrNoTitle)
}

func TestChapterWhitespaceOnlyContent(t *testing.T) {
	t.Parallel()

	html := `<h1 class="title">t</h1><div id="content"><p>   </p><p>
	</p></div>`

	_, err := Chapter(html, testSite)
	require.ErrorIs(t, err, ErrEmptyContent)
}

func TestChapterNoContentMatches(t *testing.T) {
	t.Parallel()

	html := `<h1 class="title">t</h1><div class="elsewhere">text</div>`

	_, err := Chapter(html, testSite)
	require.ErrorIs(t, err, ErrEmptyContent)
}
