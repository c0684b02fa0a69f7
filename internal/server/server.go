// Package server exposes extraction and the catalog over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"mspro-labs/bean-scout/internal/catalog"
	"mspro-labs/bean-scout/internal/metrics"
	"mspro-labs/bean-scout/internal/models"
)

// Extractor is the extraction pipeline the server fronts.
type Extractor interface {
	Extract(ctx context.Context, rawURL, pageType string) (*models.CoffeeExtraction, error)
	Unspecialty(ctx context.Context, rawURL string) (*models.UnspecialtyResult, error)
}

// Options tune the HTTP surface.
type Options struct {
	RequestTimeout time.Duration
	// AllowedOrigins may call the API from a browser.
	AllowedOrigins []string
}

type Server struct {
	extractor Extractor
	catalog   *catalog.Service
	metrics   *metrics.Metrics
	opts      Options
}

func New(extractor Extractor, cat *catalog.Service, m *metrics.Metrics, opts Options) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 60 * time.Second
	}
	return &Server{
		extractor: extractor,
		catalog:   cat,
		metrics:   m,
		opts:      opts,
	}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.metrics.Middleware)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.opts.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type"},
			MaxAge:         300,
		}))
		r.Use(middleware.Timeout(s.opts.RequestTimeout))

		r.Post("/crawl", s.handleCrawl)
		r.Post("/crawl/unspecialty", s.handleUnspecialty)

		r.Get("/coffee", s.handleListCoffee)
		r.Get("/coffee/facets", s.handleFacets)
		r.Get("/coffee/{id}", s.handleGetCoffee)
		r.Post("/coffee", s.handleApprove)
	})
	return r
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("server: listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return eris.Wrap(err, "server: listen")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	zap.L().Info("server: shutting down")
	return eris.Wrap(srv.Shutdown(shutdownCtx), "server: shutdown")
}

type crawlRequest struct {
	URL      string `json:"url"`
	PageType string `json:"pageType"`
}

type crawlResponse struct {
	Object *models.CoffeeExtraction `json:"object"`
}

func (s *Server) handleCrawl(w http.ResponseWriter, r *http.Request) {
	var req crawlRequest
	if !decode(w, r, &req) {
		return
	}
	out, err := s.extractor.Extract(r.Context(), req.URL, req.PageType)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, crawlResponse{Object: out})
}

func (s *Server) handleUnspecialty(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if !decode(w, r, &req) {
		return
	}
	out, err := s.extractor.Unspecialty(r.Context(), req.URL)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListCoffee(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	criteria := catalog.ParseCriteria(q.Get("nation"), q.Get("note"))
	recs, err := s.catalog.Select(r.Context(), criteria)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"criteria": criteria,
		"url":      catalog.BuildListURL(criteria),
		"records":  recs,
	})
}

func (s *Server) handleFacets(w http.ResponseWriter, r *http.Request) {
	criteria := catalog.ParseCriteria(r.URL.Query().Get("nation"), "")
	facets, err := s.catalog.Facets(r.Context(), criteria.Nations)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, facets)
}

func (s *Server) handleGetCoffee(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, r, models.WrapKind(models.ErrInvalidInput, "invalid id", nil))
		return
	}
	rec, err := s.catalog.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"record": rec})
}

type approveRequest struct {
	Extraction models.CoffeeExtraction `json:"extraction"`
	Fields     []string                `json:"fields"`
	Record     models.CoffeeRecord     `json:"record"`
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	var req approveRequest
	if !decode(w, r, &req) {
		return
	}
	rec, err := s.catalog.Approve(r.Context(), req.Extraction, req.Fields, req.Record)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"record": rec})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, r, models.WrapKind(models.ErrInvalidInput, "invalid JSON body", nil))
		return false
	}
	return true
}

// writeError maps an error kind to a status. Input and not-found errors
// expose only their caller-facing message; everything else is logged and
// answered generically.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	msg := http.StatusText(status)
	switch {
	case errors.Is(err, models.ErrNotFound):
		status, msg = http.StatusNotFound, models.Message(err, models.ErrNotFound.Error())
	case errors.Is(err, models.ErrInvalidInput):
		status, msg = http.StatusBadRequest, models.Message(err, models.ErrInvalidInput.Error())
	case errors.Is(err, models.ErrUpstream):
		status, msg = http.StatusBadGateway, "Failed to fetch the page"
	}

	fields := []zap.Field{
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		zap.L().Error("server: request failed", fields...)
	} else {
		zap.L().Info("server: request rejected", fields...)
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}
