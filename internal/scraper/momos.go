package scraper

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"mspro-labs/bean-scout/internal/classify"
	"mspro-labs/bean-scout/internal/models"
	"mspro-labs/bean-scout/internal/textnorm"
)

const momosMaxImages = 10

var reNonDigit = regexp.MustCompile(`[^0-9]`)

// MomosParser reads product pages of momos.co.kr.
type MomosParser struct {
	fetcher *Fetcher
}

// Parse fetches pageURL and extracts it.
func (p *MomosParser) Parse(ctx context.Context, pageURL string) (*models.CoffeeExtraction, error) {
	page, err := p.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return parseMomos(page.HTML, pageURL)
}

func parseMomos(html, pageURL string) (*models.CoffeeExtraction, error) {
	doc, err := parseDocument(html)
	if err != nil {
		return nil, err
	}

	name := firstText(doc, ".prd-title .name")

	var notes []string
	if li := doc.Find(`li[data-title="노트"]`).Last(); li.Length() > 0 {
		for _, n := range strings.Split(li.Text(), ",") {
			if n = textnorm.NormalizeWhitespace(n); n != "" {
				notes = append(notes, n)
			}
		}
		notes = textnorm.Dedupe(notes)
	}

	var origin string
	if origins := classify.DetectOrigins([]string{name}); len(origins) > 0 {
		origin = origins[0]
	}

	var images []string
	doc.Find(`meta[property="og:image"]`).Each(func(_ int, s *goquery.Selection) {
		content, _ := s.Attr("content")
		if abs := textnorm.ToAbsoluteURL(content, pageURL); abs != "" {
			images = append(images, abs)
		}
	})
	images = textnorm.Cap(textnorm.Dedupe(images), momosMaxImages)

	var price string
	if digits := reNonDigit.ReplaceAllString(doc.Find(`li[data-title="판매가"]`).First().Text(), ""); digits != "" {
		price = textnorm.NormalizePrice(strings.TrimLeft(digits, "0"), "KRW")
	}

	zap.L().Debug("scraper: momos parsed",
		zap.String("url", pageURL),
		zap.String("name", name),
		zap.Int("notes", len(notes)),
		zap.Int("images", len(images)),
	)

	return &models.CoffeeExtraction{
		Title:       models.StringPtr(textnorm.NormalizeWhitespace(doc.Find("title").First().Text())),
		NameKR:      models.StringPtr(name),
		Description: models.StringPtr(firstAttr(doc, `meta[name="description"]`, "content")),
		Origin:      models.StringPtr(origin),
		Notes:       notes,
		Images:      images,
		Price:       models.StringPtr(price),
	}, nil
}
