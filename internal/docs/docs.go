// Package docs loads API documentation from local markdown files or web
// pages and extracts business-flow tables for coverage analysis.
package docs

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
)

// fetchTimeout bounds a single documentation download.
const fetchTimeout = 30 * time.Second

// LoadFile reads a documentation file as UTF-8 text.
func LoadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read documentation %s: %w", path, err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("documentation %s is empty", path)
	}
	return string(data), nil
}

// LoadURL fetches a web page and extracts its readable text content,
// stripping navigation, ads and boilerplate.
func LoadURL(ctx context.Context, rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse documentation URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("unsupported documentation URL scheme %q", parsed.Scheme)
	}

	reqCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("build documentation request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch documentation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch documentation: unexpected status %s", resp.Status)
	}

	article, err := readability.FromReader(resp.Body, parsed)
	if err != nil {
		return "", fmt.Errorf("extract readable content: %w", err)
	}

	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return "", fmt.Errorf("no readable content at %s", rawURL)
	}
	return text, nil
}
