package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	// FetchTimeout bounds a single page fetch
	FetchTimeout = 30 * time.Second

	// MaxFetchedContentRunes caps extracted page text so a fetched
	// topic stays within a reasonable prompt size
	MaxFetchedContentRunes = 8000
)

// FetchURLContent fetches a web page and extracts its readable text
// (title, headings, paragraphs, list items) so it can seed a debate
// topic. Unlike model generation, fetch failures are returned as
// errors; the caller decides how to surface them.
func FetchURLContent(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	// Some sites refuse requests without browser-ish headers
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	client := &http.Client{Timeout: FetchTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code %d for %s", resp.StatusCode, url)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style, nav, header, footer, noscript").Remove()

	var b strings.Builder
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		b.WriteString(title)
		b.WriteString("\n\n")
	}

	doc.Find("h1, h2, h3, p, li").Each(func(i int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			b.WriteString(text)
			b.WriteString("\n")
		}
	})

	content := strings.TrimSpace(b.String())
	if content == "" {
		return "", fmt.Errorf("no readable content found at %s", url)
	}

	return truncateRunes(content, MaxFetchedContentRunes), nil
}
