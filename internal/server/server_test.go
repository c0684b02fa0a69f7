package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mspro-labs/bean-scout/internal/catalog"
	"mspro-labs/bean-scout/internal/db"
	"mspro-labs/bean-scout/internal/metrics"
	"mspro-labs/bean-scout/internal/models"
)

type fakeExtractor struct {
	err   error
	calls int
}

func (f *fakeExtractor) Extract(_ context.Context, rawURL, pageType string) (*models.CoffeeExtraction, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &models.CoffeeExtraction{
		SourceURL: rawURL,
		PageType:  models.PageType(pageType),
		NameKR:    models.StringPtr("에티오피아 구지"),
	}, nil
}

func (f *fakeExtractor) Unspecialty(_ context.Context, rawURL string) (*models.UnspecialtyResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &models.UnspecialtyResult{
		SourceURL:     rawURL,
		CoffeeCrawl:   models.CoffeeExtraction{SourceURL: rawURL, PageType: models.PageProduct},
		CoffeeOptions: []string{"200g"},
	}, nil
}

func newTestServer(t *testing.T, ext Extractor) http.Handler {
	t.Helper()
	database, err := db.Connect(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return New(ext, catalog.NewService(database), metrics.New(), Options{AllowedOrigins: []string{"http://localhost:3000"}}).Routes()
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCrawl(t *testing.T) {
	h := newTestServer(t, &fakeExtractor{})

	rec := do(t, h, http.MethodPost, "/api/crawl", `{"url":"https://roaster.example/a","pageType":"product"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Object map[string]any `json:"object"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "https://roaster.example/a", got.Object["source_url"])
	assert.Equal(t, "product", got.Object["page_type"])
	assert.Contains(t, got.Object, "name_en")
	assert.Nil(t, got.Object["name_en"])
}

func TestCrawlErrorStatuses(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		contains string
	}{
		{"input", models.WrapKind(models.ErrInvalidInput, "missing url or pageType", nil), http.StatusBadRequest, "missing url or pageType"},
		{"input with cause", models.WrapKind(models.ErrInvalidInput, "scraper: new request", errors.New(`parse "http://10.0.0.7:8080/admin?token=hunter2": invalid port`)), http.StatusBadRequest, `"invalid input"`},
		{"upstream", &models.UpstreamError{URL: "https://roaster.example/a", Status: 404}, http.StatusBadGateway, "Failed to fetch"},
		{"schema", models.WrapKind(models.ErrSchema, "ai: validate model output", errors.New("missing notes")), http.StatusInternalServerError, "Internal Server Error"},
		{"internal", errors.New("db password is hunter2"), http.StatusInternalServerError, "Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(t, &fakeExtractor{err: tt.err})
			rec := do(t, h, http.MethodPost, "/api/crawl", `{"url":"https://roaster.example/a","pageType":"product"}`)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.contains)
			assert.NotContains(t, rec.Body.String(), "hunter2")
			assert.NotContains(t, rec.Body.String(), "missing notes")
		})
	}
}

func TestCrawlRejectsMalformedBody(t *testing.T) {
	ext := &fakeExtractor{}
	h := newTestServer(t, ext)

	rec := do(t, h, http.MethodPost, "/api/crawl", `{"url":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, ext.calls)
}

func TestUnspecialtyEndpoint(t *testing.T) {
	h := newTestServer(t, &fakeExtractor{})

	rec := do(t, h, http.MethodPost, "/api/crawl/unspecialty", `{"url":"https://unspecialty.com/product/detail.html?product_no=1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"coffee_crawl"`)
	assert.Contains(t, rec.Body.String(), `"coffee_options":["200g"]`)
}

func TestCatalogEndpoints(t *testing.T) {
	h := newTestServer(t, &fakeExtractor{})

	body := `{
		"extraction": {"source_url": "https://roaster.example/guji", "page_type": "product", "name_kr": "구지", "notes": ["자스민"]},
		"fields": ["name_kr", "notes", "source_url"],
		"record": {"nations": "Ethiopia", "farm": "Shantawene"}
	}`
	rec := do(t, h, http.MethodPost, "/api/coffee", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Record models.CoffeeRecord `json:"record"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotZero(t, created.Record.ID)
	assert.Equal(t, "구지", models.Deref(created.Record.NameKR))

	rec = do(t, h, http.MethodGet, "/api/coffee?nation=Ethiopia&note=%EC%9E%90%EC%8A%A4%EB%AF%BC", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Records []models.CoffeeRecord `json:"records"`
		URL     string                `json:"url"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Records, 1)
	assert.Equal(t, "Shantawene", models.Deref(list.Records[0].Farm))
	assert.True(t, strings.HasPrefix(list.URL, "/coffee/list?"))

	rec = do(t, h, http.MethodGet, "/api/coffee/facets", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"nations":["Ethiopia"],"notes":["자스민"]}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/coffee", `{"fields":["roast_level"]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/coffee/9999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"catalog: no such record"}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/coffee/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	h := newTestServer(t, &fakeExtractor{})

	rec := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	do(t, h, http.MethodPost, "/api/crawl", `{"url":"https://roaster.example/a","pageType":"product"}`)
	rec = do(t, h, http.MethodGet, "/metrics", "")
	assert.Contains(t, rec.Body.String(), `route="/api/crawl"`)
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	h := newTestServer(t, &fakeExtractor{})

	req := httptest.NewRequest(http.MethodOptions, "/api/crawl", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/crawl", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
