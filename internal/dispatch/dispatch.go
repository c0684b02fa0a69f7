// Package dispatch routes a URL to the cheapest extraction path that
// understands it: a structured parser, a rendered-DOM parser, or the model
// fallback.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"mspro-labs/bean-scout/internal/fallback"
	"mspro-labs/bean-scout/internal/metrics"
	"mspro-labs/bean-scout/internal/models"
	"mspro-labs/bean-scout/internal/scraper"
)

// UnspecialtyExample is shown to callers whose URL fails the whitelist.
const UnspecialtyExample = "https://unspecialty.com/product/detail.html?product_no=390"

// Deps are the capabilities a Dispatcher drives.
type Deps struct {
	Fetcher  *scraper.Fetcher
	Parsers  scraper.Registry
	Renderer scraper.Renderer
	Fallback *fallback.Extractor
	Metrics  *metrics.Metrics
}

// Dispatcher holds no per-request state and is safe for concurrent use.
type Dispatcher struct {
	deps Deps
}

func New(deps Deps) *Dispatcher {
	return &Dispatcher{deps: deps}
}

func invalidInput(msg string) error {
	return models.WrapKind(models.ErrInvalidInput, msg, nil)
}

// parseTarget accepts only absolute http(s) URLs.
func parseTarget(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, invalidInput("invalid url")
	}
	return u, nil
}

// Extract produces a CoffeeExtraction for rawURL. source_url is always
// rawURL and page_type is always pageType, whatever path produced the rest.
func (d *Dispatcher) Extract(ctx context.Context, rawURL, pageType string) (out *models.CoffeeExtraction, err error) {
	if strings.TrimSpace(rawURL) == "" || strings.TrimSpace(pageType) == "" {
		return nil, invalidInput("missing url or pageType")
	}
	pt := models.PageType(pageType)
	if !pt.Valid() {
		return nil, invalidInput(fmt.Sprintf("unknown pageType %q", pageType))
	}
	target, err := parseTarget(rawURL)
	if err != nil {
		return nil, err
	}

	path := metrics.PathFallback
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("dispatch: panic: %v", r)
			out = nil
		}
		d.observe(path, target, start, err)
	}()

	if parser, ok := d.deps.Parsers.Lookup(target); ok {
		path = metrics.PathStructured
		out, err = parser.Parse(ctx, target.String())
	} else if scraper.IsUnspecialtyURL(target) {
		path = metrics.PathRender
		var page *scraper.UnspecialtyPage
		page, err = scraper.RenderUnspecialty(ctx, d.deps.Renderer, target.String())
		if err == nil {
			crawl := scraper.BuildUnspecialtyResult(rawURL, page).CoffeeCrawl
			out = &crawl
		}
	} else {
		out, err = d.fallback(ctx, target, pt)
	}
	if err != nil {
		return nil, err
	}

	out.SourceURL = rawURL
	out.PageType = pt
	return out, nil
}

func (d *Dispatcher) fallback(ctx context.Context, target *url.URL, pt models.PageType) (*models.CoffeeExtraction, error) {
	page, err := d.deps.Fetcher.Fetch(ctx, target.String())
	if err != nil {
		return nil, err
	}
	return d.deps.Fallback.Extract(ctx, target.String(), pt, page.HTML)
}

// Unspecialty renders a whitelisted unspecialty product page and returns the
// rich classified payload. Any other URL is rejected before any I/O.
func (d *Dispatcher) Unspecialty(ctx context.Context, rawURL string) (out *models.UnspecialtyResult, err error) {
	raw := strings.TrimSpace(rawURL)
	if raw == "" {
		return nil, invalidInput("missing url")
	}
	target, err := parseTarget(raw)
	if err != nil {
		return nil, err
	}
	if !scraper.IsUnspecialtyURL(target) {
		return nil, invalidInput("Only unspecialty product detail URLs are allowed. Example: " + UnspecialtyExample)
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("dispatch: panic: %v", r)
			out = nil
		}
		d.observe(metrics.PathRender, target, start, err)
	}()

	page, err := scraper.RenderUnspecialty(ctx, d.deps.Renderer, target.String())
	if err != nil {
		return nil, err
	}
	return scraper.BuildUnspecialtyResult(raw, page), nil
}

func (d *Dispatcher) observe(path string, target *url.URL, start time.Time, err error) {
	elapsed := time.Since(start)
	outcome := Outcome(err)
	d.deps.Metrics.ObserveExtraction(path, outcome, elapsed)

	fields := []zap.Field{
		zap.String("path", path),
		zap.String("host", target.Hostname()),
		zap.String("outcome", outcome),
		zap.Duration("elapsed", elapsed),
	}
	if err != nil {
		zap.L().Warn("dispatch: extraction failed", append(fields, zap.Error(err))...)
		return
	}
	zap.L().Info("dispatch: extracted", fields...)
}

// Outcome names the error kind of err for metrics and logs.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, models.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, models.ErrUpstream):
		return "upstream_error"
	case errors.Is(err, models.ErrRender):
		return "render_error"
	case errors.Is(err, models.ErrSchema):
		return "schema_error"
	default:
		return "error"
	}
}
