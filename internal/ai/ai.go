// Package ai wraps the multimodal models used to structure pages that no
// dedicated parser understands.
package ai

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

// Request is one structured-generation call.
type Request struct {
	Schema *Schema
	Prompt string
	// ImageURLs are downloaded and attached as inline image parts.
	ImageURLs []string
}

// Generator returns raw JSON conforming to Request.Schema, or an error.
// Implementations never retry.
type Generator interface {
	GenerateStructured(ctx context.Context, req Request) ([]byte, error)
}

// Client is a Generator holding provider resources.
type Client interface {
	Generator
	Close() error
}

// Options selects and configures the model provider.
type Options struct {
	Provider       string
	GeminiKey      string
	GeminiModel    string
	AnthropicKey   string
	AnthropicModel string
	MaxImages      int
	HTTPClient     *http.Client
}

// NewClient creates the configured provider client.
func NewClient(ctx context.Context, opts Options) (Client, error) {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	images := NewImageLoader(client, opts.MaxImages)

	switch opts.Provider {
	case "", "gemini":
		if opts.GeminiKey == "" {
			return nil, eris.New("ai: GEMINI_API_KEY is required for the gemini provider")
		}
		return NewGemini(ctx, opts.GeminiKey, opts.GeminiModel, images)
	case "anthropic":
		if opts.AnthropicKey == "" {
			return nil, eris.New("ai: ANTHROPIC_API_KEY is required for the anthropic provider")
		}
		return NewAnthropic(opts.AnthropicKey, opts.AnthropicModel, images), nil
	default:
		return nil, eris.Errorf("ai: unknown provider %q", opts.Provider)
	}
}
