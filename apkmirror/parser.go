// Package apkmirror knows the APKMirror markup: it parses listing, detail,
// variant and download pages and walks them to a direct download URL.
package apkmirror

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/apkscout/dedup"
	"github.com/use-agent/apkscout/models"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Page is one parsed document together with the URL it was served from.
// Relative links are resolved against base.
type Page struct {
	doc  *goquery.Document
	url  *url.URL
	base *url.URL
}

// ParsePage parses rawHTML served at pageURL. Links are resolved against
// baseURL, or pageURL when baseURL is empty.
func ParsePage(rawHTML, pageURL, baseURL string) (*Page, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}
	base := u
	if baseURL != "" {
		if base, err = url.Parse(baseURL); err != nil {
			return nil, fmt.Errorf("parse base url: %w", err)
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Page{doc: doc, url: u, base: base}, nil
}

// Candidates returns the listing rows in document order. At most limit rows
// are examined; rows without a title link are skipped.
func (p *Page) Candidates(limit int) []models.Candidate {
	var out []models.Candidate
	rows := p.doc.FindMatcher(selAppRow)
	if limit > 0 && rows.Length() > limit {
		rows = rows.Slice(0, limit)
	}

	rows.Each(func(_ int, row *goquery.Selection) {
		titleEl := row.FindMatcher(selRowTitle).First()
		if titleEl.Length() == 0 {
			return
		}
		link := titleEl.FindMatcher(selAnchor).First()
		if link.Length() == 0 {
			return
		}

		title := collapseSpace(titleEl.Text())
		href, _ := link.Attr("href")
		abs, ok := p.resolve(href)
		if title == "" || !ok {
			return
		}

		out = append(out, models.Candidate{
			Title:     title,
			URL:       abs,
			Developer: collapseSpace(row.FindMatcher(selDeveloper).First().Text()),
			Version:   dedup.Version(title),
		})
	})
	return out
}

// VariantLink returns the first anchor that directly wraps a variant tag
// icon and carries the variant class.
func (p *Page) VariantLink() (string, error) {
	var found string
	p.doc.FindMatcher(selTagIcon).EachWithBreak(func(_ int, icon *goquery.Selection) bool {
		parent := icon.Get(0).Parent
		if !isVariantAnchor(parent) {
			return true
		}
		if abs, ok := p.resolve(attr(parent, "href")); ok {
			found = abs
			return false
		}
		return true
	})
	if found == "" {
		return "", fmt.Errorf("variant link: %w", models.ErrParseMiss)
	}
	return found, nil
}

func isVariantAnchor(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode || n.DataAtom != atom.A {
		return false
	}
	for _, class := range strings.Fields(attr(n, "class")) {
		if class == variantClass {
			return true
		}
	}
	return false
}

// DetailButton returns the first download button on a detail page that
// leads to a download page: its path starts with /apk/ and it is not a
// #downloads jump, on this page or any other.
func (p *Page) DetailButton() (string, error) {
	var found string
	p.doc.FindMatcher(selDownloadBtn).EachWithBreak(func(_ int, btn *goquery.Selection) bool {
		href, _ := btn.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") {
			return true
		}
		u, err := p.base.Parse(href)
		if err != nil || !strings.HasPrefix(u.Path, "/apk/") {
			return true
		}
		if u.Fragment == downloadsAnchor {
			return true
		}
		found = u.String()
		return false
	})
	if found == "" {
		return "", fmt.Errorf("detail download button: %w", models.ErrParseMiss)
	}
	return found, nil
}

// DownloadButton returns the target of the first download button with a
// usable href.
func (p *Page) DownloadButton() (string, error) {
	var found string
	p.doc.FindMatcher(selDownloadBtn).EachWithBreak(func(_ int, btn *goquery.Selection) bool {
		href, _ := btn.Attr("href")
		if strings.HasPrefix(strings.TrimSpace(href), "#") {
			return true
		}
		if abs, ok := p.resolve(href); ok {
			found = abs
			return false
		}
		return true
	})
	if found == "" {
		return "", fmt.Errorf("download button: %w", models.ErrParseMiss)
	}
	return found, nil
}

// TerminalLink returns the direct download URL on a final download page.
func (p *Page) TerminalLink() (string, error) {
	var found string
	p.doc.FindMatcher(selTerminal).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if !strings.Contains(href, terminalPath) {
			return true
		}
		if abs, ok := p.resolve(href); ok {
			found = abs
			return false
		}
		return true
	})
	if found == "" {
		return "", fmt.Errorf("terminal link: %w", models.ErrParseMiss)
	}
	return found, nil
}

// resolve makes href absolute. Only http(s) results are accepted.
func (p *Page) resolve(href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}
	u, err := p.base.Parse(href)
	if err != nil {
		return "", false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	return u.String(), true
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// SearchURL builds the listing URL for query under baseURL.
func SearchURL(baseURL, query string) string {
	return strings.TrimRight(baseURL, "/") + searchPath + url.QueryEscape(query)
}
