package scraper

import (
	"encoding/json"
	"sort"
	"strconv"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"mspro-labs/bean-scout/internal/textnorm"
)

// productLD is the subset of a schema.org Product block the parsers read.
type productLD struct {
	Name          string
	Description   string
	Images        []string
	OfferNames    []string
	OfferPrice    string
	OfferCurrency string
}

// findProductLD returns the first Product node across all JSON-LD blocks,
// searched depth first. Object keys are visited in sorted order so the
// result is stable. Malformed blocks are skipped.
func findProductLD(doc *goquery.Document) *productLD {
	var found map[string]any
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var v any
		if err := json.Unmarshal([]byte(s.Text()), &v); err != nil {
			zap.L().Debug("scraper: skipping malformed json-ld", zap.Error(err))
			return true
		}
		found = searchProduct(v)
		return found == nil
	})
	if found == nil {
		return nil
	}
	return toProductLD(found)
}

func searchProduct(v any) map[string]any {
	switch node := v.(type) {
	case []any:
		for _, item := range node {
			if hit := searchProduct(item); hit != nil {
				return hit
			}
		}
	case map[string]any:
		if isProductType(node["@type"]) {
			return node
		}
		keys := make([]string, 0, len(node))
		for k := range node {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if hit := searchProduct(node[k]); hit != nil {
				return hit
			}
		}
	}
	return nil
}

func isProductType(t any) bool {
	switch v := t.(type) {
	case string:
		return v == "Product"
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && s == "Product" {
				return true
			}
		}
	}
	return false
}

func toProductLD(node map[string]any) *productLD {
	ld := &productLD{
		Name:        textnorm.NormalizeWhitespace(scalar(node["name"])),
		Description: textnorm.NormalizeWhitespace(scalar(node["description"])),
	}

	switch img := node["image"].(type) {
	case string:
		ld.Images = append(ld.Images, img)
	case []any:
		for _, item := range img {
			if s, ok := item.(string); ok {
				ld.Images = append(ld.Images, s)
			}
		}
	}

	var offers []map[string]any
	switch o := node["offers"].(type) {
	case map[string]any:
		offers = append(offers, o)
	case []any:
		for _, item := range o {
			if m, ok := item.(map[string]any); ok {
				offers = append(offers, m)
			}
		}
	}
	for _, offer := range offers {
		if name := textnorm.NormalizeWhitespace(scalar(offer["name"])); name != "" {
			ld.OfferNames = append(ld.OfferNames, name)
		}
	}
	if len(offers) > 0 {
		ld.OfferPrice = textnorm.NormalizeWhitespace(scalar(offers[0]["price"]))
		ld.OfferCurrency = textnorm.NormalizeWhitespace(scalar(offers[0]["priceCurrency"]))
	}
	return ld
}

// scalar renders JSON strings and numbers as text.
func scalar(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case json.Number:
		return s.String()
	}
	return ""
}
