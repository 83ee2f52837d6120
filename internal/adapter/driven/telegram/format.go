package telegram

import (
	"bytes"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// markdownPunct is the ASCII punctuation CommonMark lets a backslash escape.
const markdownPunct = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

var (
	mdRenderer goldmark.Markdown
	tgPolicy   *bluemonday.Policy
)

func init() {
	mdRenderer = goldmark.New(goldmark.WithExtensions(extension.Strikethrough))

	// Telegram accepts only a small tag set; block elements such as <p> are
	// rejected with 400, so they are stripped and their text kept.
	tgPolicy = bluemonday.NewPolicy()
	tgPolicy.AllowElements("b", "strong", "i", "em", "u", "s", "del", "code", "pre")
	tgPolicy.AllowAttrs("href").OnElements("a")
	tgPolicy.AllowURLSchemes("http", "https", "tg")
	tgPolicy.RequireParseableURLs(true)
}

// RenderHTML converts markdown text into the HTML subset accepted by
// Telegram's HTML parse mode. Returns empty string for empty input.
func RenderHTML(src string) string {
	if src == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(src), &buf); err != nil {
		return html.EscapeString(src)
	}

	// Keep the blank line between paragraphs once <p> is stripped.
	out := strings.ReplaceAll(buf.String(), "</p>\n<p>", "</p>\n\n<p>")

	return strings.TrimSpace(tgPolicy.Sanitize(out))
}

// EscapeMarkdown backslash-escapes every character markdown could treat as
// syntax, so RenderHTML reproduces s literally.
func EscapeMarkdown(s string) string {
	var b strings.Builder
	b.Grow(len(s) + len(s)/4)
	for _, r := range s {
		if strings.ContainsRune(markdownPunct, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
