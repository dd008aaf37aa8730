package apkmirror

import (
	"log/slog"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	readability "github.com/go-shiori/go-readability"
)

// maxDescription caps the stored description; release notes can run long.
const maxDescription = 2000

// mdConverter is goroutine-safe and reused for every page.
var mdConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
	),
)

// Description returns the app description as Markdown. The "#description
// .notes" block is preferred; otherwise the readability excerpt of the page
// is used. A page with neither yields "".
func (p *Page) Description() string {
	if notes := p.doc.FindMatcher(selDescription).First(); notes.Length() > 0 {
		inner, err := notes.Html()
		if err == nil {
			md, err := mdConverter.ConvertString(inner, converter.WithDomain(p.base.String()))
			if err == nil {
				if md = strings.TrimSpace(md); md != "" {
					return truncate(md)
				}
			} else {
				slog.Debug("description markdown conversion failed", "url", p.url.String(), "error", err)
			}
		}
	}

	rawHTML, err := p.doc.Html()
	if err != nil {
		return ""
	}
	article, err := readability.FromReader(strings.NewReader(rawHTML), p.url)
	if err != nil {
		slog.Debug("readability failed", "url", p.url.String(), "error", err)
		return ""
	}
	return truncate(collapseSpace(article.Excerpt))
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxDescription {
		return s
	}
	return strings.TrimSpace(string(r[:maxDescription])) + "…"
}
