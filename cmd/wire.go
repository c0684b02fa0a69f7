package cmd

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"mspro-labs/bean-scout/internal/ai"
	"mspro-labs/bean-scout/internal/config"
	"mspro-labs/bean-scout/internal/dispatch"
	"mspro-labs/bean-scout/internal/fallback"
	"mspro-labs/bean-scout/internal/metrics"
	"mspro-labs/bean-scout/internal/scraper"
)

// unavailableModel stands in for a provider that failed to initialize, so
// structured and rendered paths keep working.
type unavailableModel struct {
	err error
}

func (m unavailableModel) GenerateStructured(context.Context, ai.Request) ([]byte, error) {
	return nil, m.err
}

func (m unavailableModel) Close() error { return nil }

func newModel(ctx context.Context, c *config.Config) ai.Client {
	client, err := ai.NewClient(ctx, ai.Options{
		Provider:       c.Model.Provider,
		GeminiKey:      c.Model.GeminiKey,
		GeminiModel:    c.Model.GeminiModel,
		AnthropicKey:   c.Model.AnthropicKey,
		AnthropicModel: c.Model.AnthropicModel,
		MaxImages:      c.Model.MaxImages,
	})
	if err != nil {
		zap.L().Warn("model unavailable; fallback extraction will fail", zap.String("provider", c.Model.Provider), zap.Error(err))
		return unavailableModel{err: err}
	}
	return client
}

// newDispatcher wires the extraction pipeline from c. The returned close
// func releases the model client.
func newDispatcher(ctx context.Context, c *config.Config, m *metrics.Metrics) (*dispatch.Dispatcher, func()) {
	fetcher := scraper.NewFetcher(&http.Client{Timeout: c.Fetch.Timeout}, c.Fetch.UserAgent)
	model := newModel(ctx, c)

	d := dispatch.New(dispatch.Deps{
		Fetcher: fetcher,
		Parsers: scraper.NewRegistry(fetcher),
		Renderer: &scraper.RodRenderer{
			NavTimeout:  c.Browser.NavTimeout,
			SettleDelay: c.Browser.SettleDelay,
			NoSandbox:   c.Browser.NoSandbox,
			RemoteURL:   c.Browser.RemoteURL,
			UserAgent:   c.Fetch.UserAgent,
		},
		Fallback: fallback.New(model, fallback.Options{
			MaxImages:    c.Model.MaxImages,
			ModelTimeout: c.Model.Timeout,
		}),
		Metrics: m,
	})
	return d, func() {
		if err := model.Close(); err != nil {
			zap.L().Warn("close model client", zap.Error(err))
		}
	}
}
