package scraper

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"mspro-labs/bean-scout/internal/models"
)

// BrowserUserAgent is sent with every plain fetch; several retailers serve
// an empty shell to unknown clients.
const BrowserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

const maxBodyBytes = 10 << 20

// Page is a fetched HTML document.
type Page struct {
	URL        string
	StatusCode int
	HTML       string
}

// Fetcher performs single GET requests. It never retries.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

// NewFetcher returns a Fetcher. A nil client gets a 30s default.
func NewFetcher(client *http.Client, userAgent string) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if userAgent == "" {
		userAgent = BrowserUserAgent
	}
	return &Fetcher{client: client, userAgent: userAgent}
}

// Fetch GETs pageURL. Network failures and non-2xx responses are reported
// as upstream errors.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, models.WrapKind(models.ErrInvalidInput, "scraper: new request", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "ko-KR,ko;q=0.9,en-US;q=0.7,en;q=0.5")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, models.WrapKind(models.ErrUpstream, "scraper: fetch", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &models.UpstreamError{URL: pageURL, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, models.WrapKind(models.ErrUpstream, "scraper: read body", eris.Wrap(err, pageURL))
	}

	zap.L().Debug("scraper: fetched",
		zap.String("url", pageURL),
		zap.Int("status", resp.StatusCode),
		zap.Int("size", len(body)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &Page{URL: pageURL, StatusCode: resp.StatusCode, HTML: string(body)}, nil
}
