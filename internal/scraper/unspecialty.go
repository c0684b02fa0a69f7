package scraper

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"mspro-labs/bean-scout/internal/classify"
	"mspro-labs/bean-scout/internal/models"
	"mspro-labs/bean-scout/internal/textnorm"
)

const (
	unspecialtyMaxImages     = 40
	unspecialtyMaxDetailText = 4000
)

var unspecialtyHosts = map[string]bool{
	"unspecialty.com":     true,
	"www.unspecialty.com": true,
}

// IsUnspecialtyURL reports whether u is an unspecialty product detail page.
func IsUnspecialtyURL(u *url.URL) bool {
	return unspecialtyHosts[strings.ToLower(u.Hostname())] &&
		u.Path == "/product/detail.html" &&
		u.Query().Has("product_no")
}

// UnspecialtyPage holds the raw fields read from a rendered product page.
type UnspecialtyPage struct {
	PageTitle     string
	CanonicalURL  string
	ProductNo     *int64
	ProductName   string
	Description   string
	Price         string
	Currency      string
	Images        []string
	DetailText    string
	InfoTable     []models.InfoRow
	OfferOptions  []string
	SelectOptions []string
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// ExtractUnspecialtyPage reads a rendered document. It performs no I/O.
func ExtractUnspecialtyPage(doc *goquery.Document, pageURL string) *UnspecialtyPage {
	var origin string
	if u, err := url.Parse(pageURL); err == nil && u.Host != "" {
		origin = u.Scheme + "://" + u.Host
	}
	abs := func(v string) string { return textnorm.ToAbsoluteURL(v, origin) }

	ld := findProductLD(doc)
	if ld == nil {
		ld = &productLD{}
	}

	page := &UnspecialtyPage{
		PageTitle:    firstText(doc, "title"),
		CanonicalURL: firstAttr(doc, "link[rel='canonical']", "href"),
		ProductName: firstNonEmpty(
			firstText(doc, "#uns-info .headingArea h2"),
			firstAttr(doc, "meta[property='og:title']", "content"),
			ld.Name,
		),
		Description: firstNonEmpty(
			firstAttr(doc, "meta[name='description']", "content"),
			ld.Description,
		),
		Price: firstNonEmpty(
			firstText(doc, "#span_product_price_text"),
			firstAttr(doc, "meta[property='product:sale_price:amount']", "content"),
			firstAttr(doc, "meta[property='product:price:amount']", "content"),
			ld.OfferPrice,
		),
		Currency: firstNonEmpty(
			firstAttr(doc, "meta[property='product:price:currency']", "content"),
			firstAttr(doc, "meta[property='product:sale_price:currency']", "content"),
			ld.OfferCurrency,
		),
		OfferOptions: ld.OfferNames,
	}

	var images []string
	doc.Find("meta[property='og:image']").Each(func(_ int, s *goquery.Selection) {
		content, _ := s.Attr("content")
		images = append(images, abs(content))
	})
	for _, sel := range []string{".imgArea img", "#prdDetail img"} {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			images = append(images, abs(imageSrc(s)))
		})
	}
	for _, img := range ld.Images {
		images = append(images, abs(img))
	}
	page.Images = textnorm.Cap(textnorm.Dedupe(textnorm.NonEmpty(images)), unspecialtyMaxImages)

	doc.Find("#product_option_id1 option").Each(func(_ int, s *goquery.Selection) {
		if text := textnorm.NormalizeWhitespace(s.Text()); text != "" {
			page.SelectOptions = append(page.SelectOptions, text)
		}
	})

	doc.Find("#uns-info .xans-product-detaildesign table tbody tr").Each(func(_ int, s *goquery.Selection) {
		key := textnorm.NormalizeWhitespace(s.Find("th").First().Text())
		value := textnorm.NormalizeWhitespace(s.Find("td").First().Text())
		if key != "" && value != "" {
			page.InfoTable = append(page.InfoTable, models.InfoRow{Key: key, Value: value})
		}
	})

	page.DetailText = textnorm.Truncate(firstText(doc, "#prdDetail"), unspecialtyMaxDetailText)

	rawNo := firstAttr(doc, "meta[property='product:productId']", "content")
	if rawNo == "" {
		if u, err := url.Parse(pageURL); err == nil {
			rawNo = strings.TrimSpace(u.Query().Get("product_no"))
		}
	}
	if n, err := strconv.ParseInt(rawNo, 10, 64); err == nil {
		page.ProductNo = &n
	}

	return page
}

// RenderUnspecialty renders target in a fresh browser session and extracts it.
// The session is closed exactly once on every path, cancellation included.
func RenderUnspecialty(ctx context.Context, renderer Renderer, target string) (*UnspecialtyPage, error) {
	session, err := renderer.Open(ctx)
	if err != nil {
		return nil, models.WrapKind(models.ErrRender, "scraper: open browser", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			zap.L().Warn("scraper: close browser", zap.Error(err))
		}
	}()

	html, err := session.Render(ctx, target)
	if err != nil {
		return nil, models.WrapKind(models.ErrRender, "scraper: render", err)
	}

	doc, err := parseDocument(html)
	if err != nil {
		return nil, models.WrapKind(models.ErrRender, "scraper: render", err)
	}
	return ExtractUnspecialtyPage(doc, target), nil
}

// BuildUnspecialtyResult classifies the extracted page into the rich payload.
func BuildUnspecialtyResult(target string, page *UnspecialtyPage) *models.UnspecialtyResult {
	options := ReconcileOptions(page.OfferOptions, page.SelectOptions, page.ProductName)
	origins := classify.DetectOrigins(options)
	notes := classify.Notes(append([]string{page.ProductName}, options...))

	extraction := models.CoffeeExtraction{
		SourceURL:   target,
		Title:       models.StringPtr(textnorm.NormalizeWhitespace(firstNonEmpty(page.PageTitle, page.ProductName))),
		PageType:    models.PageProduct,
		NameKR:      models.StringPtr(page.ProductName),
		Description: models.StringPtr(page.Description),
		Notes:       notes,
		Price:       models.StringPtr(textnorm.NormalizePrice(page.Price, page.Currency)),
	}
	if len(origins) > 0 {
		extraction.Origin = models.StringPtr(strings.Join(origins, ", "))
	}
	if len(page.Images) > 0 {
		extraction.Images = page.Images
	}

	canonical := firstNonEmpty(page.CanonicalURL, target)
	if options == nil {
		options = []string{}
	}

	return &models.UnspecialtyResult{
		SourceURL:         target,
		CanonicalURL:      canonical,
		ProductNo:         page.ProductNo,
		CoffeeCrawl:       extraction,
		CoffeeOptions:     options,
		Processing:        nonNil(classify.Processing(options)),
		Varieties:         nonNil(classify.Varieties(options)),
		Origins:           nonNil(origins),
		InfoTable:         nonNilRows(page.InfoTable),
		DetailTextExcerpt: models.StringPtr(page.DetailText),
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func nonNilRows(rows []models.InfoRow) []models.InfoRow {
	if rows == nil {
		return []models.InfoRow{}
	}
	return rows
}
