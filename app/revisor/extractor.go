package revisor

import (
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"

	"github.com/Semior001/briefly/app/store"
	"github.com/go-shiori/go-readability"
)

var spaces = regexp.MustCompile(`\s+`)

// Extractor extracts the article from an HTML page.
type Extractor struct{}

// Extract extracts the article from an HTML page, found by the URL.
func (e Extractor) Extract(rd io.Reader, pageURL *url.URL) (store.Brief, error) {
	doc, err := readability.FromReader(rd, pageURL)
	if err != nil {
		return store.Brief{}, fmt.Errorf("parse html: %w", err)
	}

	return store.Brief{
		Title:    doc.Title,
		Excerpt:  sanitize(doc.Excerpt),
		Content:  sanitize(doc.TextContent),
		Author:   doc.Byline,
		ImageURL: doc.Image,
	}, nil
}

func sanitize(s string) string {
	// nbsp
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.TrimSpace(spaces.ReplaceAllString(s, " "))
}
