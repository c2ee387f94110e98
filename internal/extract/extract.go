// Package extract turns a document locator (local file path or HTTP URL)
// into plain text for segmentation. Plain-text and markdown documents are
// supported; binary formats are rejected with a clear error so the caller
// can surface it before any pipeline side effects occur.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// ErrUnsupportedFormat is returned for locators whose format has no text
// extractor registered.
var ErrUnsupportedFormat = errors.New("extract: unsupported document format")

// Extractor converts a document locator into its plain-text content.
type Extractor interface {
	Extract(ctx context.Context, locator string) (string, error)
}

// Config holds the configuration for the text extractor.
type Config struct {
	// HTTPTimeout is the timeout for each remote document fetch.
	// Defaults to 30s if zero.
	HTTPTimeout time.Duration

	// UserAgent is the HTTP User-Agent header sent with fetch requests.
	UserAgent string

	// MaxBytes caps the size of a fetched or read document.
	// Defaults to 16 MiB if zero.
	MaxBytes int64
}

// TextExtractor reads plain-text and markdown documents from the local
// filesystem or over HTTP.
type TextExtractor struct {
	cfg        *Config
	httpClient *http.Client
}

// NewTextExtractor constructs a TextExtractor with the given config.
func NewTextExtractor(cfg *Config) *TextExtractor {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "pdfcast-go/1.0 (document ingestion)"
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 16 << 20
	}
	return &TextExtractor{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
	}
}

// Extract returns the plain-text content of the document at locator.
// HTTP(S) locators are fetched; everything else is treated as a local path.
// Returns ErrUnsupportedFormat for document kinds with no extractor.
func (e *TextExtractor) Extract(ctx context.Context, locator string) (string, error) {
	meta := InferMetadata(locator)
	if !meta.Kind.Extractable() {
		return "", fmt.Errorf("extract: %s (%s): %w", locator, meta.Kind, ErrUnsupportedFormat)
	}

	var (
		content string
		err     error
	)
	if meta.Remote {
		content, err = e.fetch(ctx, locator)
	} else {
		content, err = e.readFile(locator)
	}
	if err != nil {
		return "", err
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return "", fmt.Errorf("extract: %s: document contains no text", locator)
	}
	return content, nil
}

// readFile reads a local document, enforcing the size cap.
func (e *TextExtractor) readFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("extract: opening %s: %w", path, err)
	}
	defer f.Close()

	body, err := io.ReadAll(io.LimitReader(f, e.cfg.MaxBytes))
	if err != nil {
		return "", fmt.Errorf("extract: reading %s: %w", path, err)
	}
	return string(body), nil
}

// fetch retrieves the raw text content of a URL.
func (e *TextExtractor) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("extract: creating request: %w", err)
	}
	req.Header.Set("User-Agent", e.cfg.UserAgent)
	req.Header.Set("Accept", "text/plain, text/markdown, text/html")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("extract: http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("extract: unexpected status %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, e.cfg.MaxBytes))
	if err != nil {
		return "", fmt.Errorf("extract: reading body: %w", err)
	}
	return string(body), nil
}
