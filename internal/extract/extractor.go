// Package extract converts HTML into the RawDocument shape shared by both
// acquisition paths: the live crawler feeds fetched pages through FromHTML,
// and Archive walks a directory of locally saved pages for offline,
// reproducible ingestion runs.
package extract

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/harlibot/harlibot/internal/document"
)

// MinContentLength rejects navigation shells and near-empty pages; anything
// shorter is not worth indexing.
const MinContentLength = 100

// nonContentSelector lists elements stripped before text extraction.
const nonContentSelector = "nav, header, footer, script, style, iframe, noscript, .advertisement, .sidebar, .menu, #menu, #nav, #footer, #header"

// contentSelectors are tried in order; the first non-empty region wins.
var contentSelectors = []string{"main", "article", "#content", ".main-content", "body"}

// FromHTML extracts a RawDocument from an HTML page. It returns nil (no
// error) when the page has too little content to index.
func FromHTML(html io.Reader, pageURL string, allowedDomain string) (*document.RawDocument, error) {
	doc, err := goquery.NewDocumentFromReader(html)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	doc.Find(nonContentSelector).Remove()

	var content string
	for _, sel := range contentSelectors {
		if text := document.CleanText(doc.Find(sel).First().Text()); text != "" {
			content = text
			break
		}
	}
	if len(content) < MinContentLength {
		return nil, nil
	}

	title := document.CleanText(doc.Find("h1").First().Text())
	if title == "" {
		title = document.CleanText(doc.Find("title").First().Text())
	}
	if title == "" {
		title = "Untitled"
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if ok && strings.Contains(href, allowedDomain) {
			links = append(links, href)
		}
	})

	parsed, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse url %q: %w", pageURL, err)
	}
	segments := pathSegments(parsed.Path)
	category := "general"
	if len(segments) > 0 {
		category = segments[0]
	}

	return &document.RawDocument{
		URL:     pageURL,
		URLHash: document.HashURL(pageURL),
		Title:   title,
		Content: content,
		Metadata: document.Metadata{
			Category:  category,
			Tags:      segments,
			Language:  document.DetectLanguage(content),
			ScrapedAt: time.Now().UTC().Format(time.RFC3339),
		},
		Links: links,
	}, nil
}

func pathSegments(p string) []string {
	var segments []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}
