// Package scraper fetches retailer pages and parses the ones it has
// dedicated knowledge of.
package scraper

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"mspro-labs/bean-scout/internal/models"
	"mspro-labs/bean-scout/internal/textnorm"
)

// Parser turns one retailer page into a partial extraction. The caller
// owns source_url and page_type.
type Parser interface {
	Parse(ctx context.Context, pageURL string) (*models.CoffeeExtraction, error)
}

// ParserFunc adapts a function to Parser.
type ParserFunc func(ctx context.Context, pageURL string) (*models.CoffeeExtraction, error)

func (f ParserFunc) Parse(ctx context.Context, pageURL string) (*models.CoffeeExtraction, error) {
	return f(ctx, pageURL)
}

// Registry maps a normalized host to its structured parser.
type Registry map[string]Parser

// NewRegistry returns the built-in structured parsers.
func NewRegistry(fetcher *Fetcher) Registry {
	return Registry{
		"momos.co.kr": &MomosParser{fetcher: fetcher},
	}
}

// Lookup returns the parser for u's host, if any.
func (r Registry) Lookup(u *url.URL) (Parser, bool) {
	p, ok := r[NormalizeHost(u.Hostname())]
	return p, ok
}

// NormalizeHost lowercases host and strips a leading "www.".
func NormalizeHost(host string) string {
	return strings.TrimPrefix(strings.ToLower(host), "www.")
}

func parseDocument(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, eris.Wrap(err, "scraper: parse html")
	}
	return doc, nil
}

// firstText returns the normalized text of the first match of selector.
func firstText(doc *goquery.Document, selector string) string {
	return textnorm.NormalizeWhitespace(doc.Find(selector).First().Text())
}

// firstAttr returns the normalized attribute of the first match of selector.
func firstAttr(doc *goquery.Document, selector, attr string) string {
	v, _ := doc.Find(selector).First().Attr(attr)
	return textnorm.NormalizeWhitespace(v)
}

// imageSrc prefers src and falls back to the lazy-load attributes used by
// the Cafe24 storefronts.
func imageSrc(s *goquery.Selection) string {
	for _, attr := range []string{"src", "ec-data-src", "data-src"} {
		if v, ok := s.Attr(attr); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
