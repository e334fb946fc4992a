package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/doyensec/safeurl"
)

const (
	// fetchTimeout bounds a single page fetch.
	fetchTimeout = 15 * time.Second

	// maxBodySize caps how much of a page body is read (2 MiB).
	maxBodySize = 2 << 20

	// maxTextRunes caps the extracted text passed to generation.
	maxTextRunes = 8000
)

// WebExtractor fetches a page over an SSRF-guarded HTTP client and
// reduces it to readable text. safeurl validates the resolved IP at
// dial time, so private ranges, loopback, and cloud metadata addresses
// are rejected even after DNS games.
type WebExtractor struct {
	client *http.Client
}

// NewWebExtractor builds the extractor with its guarded client.
func NewWebExtractor() *WebExtractor {
	config := safeurl.GetConfigBuilder().
		SetTimeout(fetchTimeout).
		SetAllowedSchemes("http", "https").
		SetAllowedPorts(80, 443).
		Build()

	return &WebExtractor{client: safeurl.Client(config).Client}
}

// Extract fetches url and returns its readable text. The result favors
// the page's <article> element when present, falling back to all
// paragraph text.
func (e *WebExtractor) Extract(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("source: build request: %w", err)
	}
	req.Header.Set("User-Agent", "Lumafin/1.0 ContentStudio")
	req.Header.Set("Accept", "text/html, application/xhtml+xml")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("source: fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("source: fetch %s: status %d", url, resp.StatusCode)
	}

	body := io.LimitReader(resp.Body, maxBodySize)
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return "", fmt.Errorf("source: parse %s: %w", url, err)
	}

	text := ReadableText(doc)
	if text == "" {
		return "", fmt.Errorf("source: no readable text at %s", url)
	}
	return text, nil
}

// ReadableText reduces a parsed document to plain text. Scripts, styles,
// and site chrome are removed; <article> wins over the whole body when
// the page marks one up.
func ReadableText(doc *goquery.Document) string {
	doc.Find("script, style, noscript, nav, header, footer, aside").Remove()

	root := doc.Selection
	if article := doc.Find("article"); article.Length() > 0 {
		root = article.First()
	}

	var parts []string
	root.Find("h1, h2, h3, p, li").Each(func(_ int, sel *goquery.Selection) {
		t := strings.TrimSpace(sel.Text())
		if t != "" {
			parts = append(parts, t)
		}
	})

	// Pages without paragraph markup still yield their bare text.
	if len(parts) == 0 {
		parts = append(parts, strings.TrimSpace(root.Text()))
	}

	text := strings.Join(parts, "\n\n")
	runes := []rune(text)
	if len(runes) > maxTextRunes {
		text = string(runes[:maxTextRunes])
	}
	return text
}
