package extract

import (
	"net/url"
	"path"
	"strings"
)

// Kind classifies a document locator by format.
type Kind string

const (
	// KindText is a plain-text document.
	KindText Kind = "text"
	// KindMarkdown is a markdown document.
	KindMarkdown Kind = "markdown"
	// KindHTML is an HTML page, ingested as raw text.
	KindHTML Kind = "html"
	// KindPDF is a PDF document. Recognized but not extractable.
	KindPDF Kind = "pdf"
	// KindUnknown is any locator whose format could not be classified.
	KindUnknown Kind = "unknown"
)

// Extractable reports whether a text extractor exists for the kind.
// Unknown locators are attempted as plain text.
func (k Kind) Extractable() bool {
	return k != KindPDF
}

// Metadata holds the kind and source label inferred from a document
// locator's structure. Caller-supplied values take precedence over inferred
// ones; this is the best-effort fallback.
type Metadata struct {
	// Kind is the inferred document format.
	Kind Kind
	// Remote is true for http(s) locators.
	Remote bool
	// Source is the display label stored alongside ingested chunks:
	// the hostname for remote documents, the base filename otherwise.
	Source string
}

// InferMetadata inspects a document locator and returns best-effort metadata.
func InferMetadata(locator string) Metadata {
	m := Metadata{Kind: KindUnknown, Source: path.Base(locator)}

	lower := strings.ToLower(locator)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		m.Remote = true
		if parsed, err := url.Parse(locator); err == nil && parsed.Hostname() != "" {
			m.Source = parsed.Hostname()
		}
		lower = strings.ToLower(strings.SplitN(lower, "?", 2)[0])
	}

	switch strings.ToLower(path.Ext(lower)) {
	case ".txt", ".text":
		m.Kind = KindText
	case ".md", ".markdown":
		m.Kind = KindMarkdown
	case ".html", ".htm":
		m.Kind = KindHTML
	case ".pdf":
		m.Kind = KindPDF
	}

	return m
}
