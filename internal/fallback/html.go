package fallback

import (
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"mspro-labs/bean-scout/internal/textnorm"
)

var (
	reScript = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	reStyle  = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	reTitle  = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)

	strict = stripPolicy()
)

// stripPolicy drops every tag and leaves a space in its place so adjacent
// block text does not run together.
func stripPolicy() *bluemonday.Policy {
	p := bluemonday.StrictPolicy()
	p.AddSpaceWhenStrippingTag(true)
	return p
}

// productRegions are containers that hold the gallery on common storefronts.
var productRegions = []string{
	".imgArea",
	".xans-product-image",
	".keyImg",
	"#prdDetail",
	".product-detail",
	".product-gallery",
	".woocommerce-product-gallery",
	".product__media",
}

// StripHTML reduces a page to plain text of at most budget runes.
func StripHTML(page string, budget int) string {
	page = reScript.ReplaceAllString(page, " ")
	page = reStyle.ReplaceAllString(page, " ")
	text := html.UnescapeString(strict.Sanitize(page))
	return textnorm.Truncate(textnorm.NormalizeWhitespace(text), budget)
}

// ExtractTitle returns the first <title> content, or "".
func ExtractTitle(page string) string {
	m := reTitle.FindStringSubmatch(page)
	if m == nil {
		return ""
	}
	return textnorm.NormalizeWhitespace(html.UnescapeString(m[1]))
}

// SelectImages returns og:image URLs followed by images found inside known
// product regions, absolute, deduplicated and capped at max.
func SelectImages(doc *goquery.Document, pageURL string, max int) []string {
	var images []string
	add := func(raw string) {
		raw = strings.TrimSpace(raw)
		if raw == "" || strings.HasPrefix(strings.ToLower(raw), "data:") {
			return
		}
		if abs := textnorm.ToAbsoluteURL(raw, pageURL); abs != "" {
			images = append(images, abs)
		}
	}

	doc.Find(`meta[property="og:image"], meta[name="og:image"]`).Each(func(_ int, s *goquery.Selection) {
		content, _ := s.Attr("content")
		add(content)
	})

	for _, region := range productRegions {
		doc.Find(region).Find("img").Each(func(_ int, s *goquery.Selection) {
			for _, attr := range []string{"src", "ec-data-src", "data-src", "data-lazy-src"} {
				if v, ok := s.Attr(attr); ok && strings.TrimSpace(v) != "" && !strings.HasPrefix(strings.TrimSpace(strings.ToLower(v)), "data:") {
					add(v)
					return
				}
			}
		})
	}

	return textnorm.Cap(textnorm.Dedupe(images), max)
}
