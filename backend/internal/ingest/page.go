// Package ingest pulls memorizable text out of external sources
package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"memgraph/backend/internal/constants"
	apperrors "memgraph/backend/pkg/errors"

	"github.com/PuerkitoBio/goquery"
)

const userAgent = "Mozilla/5.0 (compatible; MemgraphBot/1.0)"

// Elements that never carry article text
const noiseSelector = "script, style, noscript, iframe, svg, nav, header, footer, aside, form"

// Elements whose text is kept, in document order
const textSelector = "h1, h2, h3, h4, p, li, blockquote, pre"

// FetchPageText downloads url and returns its readable text: the page title
// followed by headings, paragraphs and list items. A missing scheme
// defaults to https.
func FetchPageText(ctx context.Context, client *http.Client, url string) (string, error) {
	if client == nil {
		client = http.DefaultClient
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", apperrors.NewIngestFailed(url, fmt.Errorf("invalid URL: %w", err))
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return "", apperrors.NewIngestFailed(url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apperrors.NewIngestFailed(url, fmt.Errorf("HTTP %d", resp.StatusCode))
	}

	text, err := ExtractText(io.LimitReader(resp.Body, constants.MaxPageBytes))
	if err != nil {
		return "", apperrors.NewIngestFailed(url, err)
	}
	if text == "" {
		return "", apperrors.NewIngestFailed(url, fmt.Errorf("page has no readable text"))
	}
	return text, nil
}

// ExtractText parses an HTML document and returns its readable text with
// whitespace collapsed, capped at MaxPageTextRunes
func ExtractText(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc.Find(noiseSelector).Remove()

	var parts []string
	if title := collapse(doc.Find("title").First().Text()); title != "" {
		parts = append(parts, title)
	}

	doc.Find(textSelector).Each(func(_ int, s *goquery.Selection) {
		// Nested matches (a p inside a li) are read through their parent
		if s.ParentsFiltered(textSelector).Length() > 0 {
			return
		}
		if text := collapse(s.Text()); text != "" {
			parts = append(parts, text)
		}
	})

	// Pages without semantic markup still have body text
	if len(parts) <= 1 {
		if body := collapse(doc.Find("body").Text()); body != "" {
			parts = append(parts, body)
		}
	}

	return truncate(strings.Join(parts, "\n"), constants.MaxPageTextRunes), nil
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
