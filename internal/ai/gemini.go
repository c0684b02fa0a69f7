package ai

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"mspro-labs/bean-scout/internal/models"
)

const defaultGeminiModel = "gemini-2.0-flash"

// Gemini generates structured output with Google's GenAI models.
type Gemini struct {
	client *genai.Client
	model  string
	images *ImageLoader
}

// NewGemini creates a connected Gemini client. Every generate call makes
// exactly one HTTP attempt.
func NewGemini(ctx context.Context, apiKey, model string, images *ImageLoader) (*Gemini, error) {
	return newGemini(ctx, apiKey, model, images, http.DefaultTransport)
}

func newGemini(ctx context.Context, apiKey, model string, images *ImageLoader, base http.RoundTripper) (*Gemini, error) {
	hc := &http.Client{Transport: &singleAttemptTransport{base: base, apiKey: apiKey}}
	c, err := genai.NewClient(ctx, option.WithAPIKey(apiKey), option.WithHTTPClient(hc))
	if err != nil {
		return nil, eris.Wrap(err, "ai: create gemini client")
	}
	if model == "" {
		model = defaultGeminiModel
	}
	return &Gemini{client: c, model: model, images: images}, nil
}

// GeminiStatusError is a throttled or failed response from the Gemini API.
type GeminiStatusError struct {
	Status int
	Body   string
}

func (e *GeminiStatusError) Error() string {
	return fmt.Sprintf("gemini returned status %d: %s", e.Status, e.Body)
}

// singleAttemptTransport authenticates requests and turns retryable statuses
// into transport errors, which the generated client never retries.
type singleAttemptTransport struct {
	base   http.RoundTripper
	apiKey string
}

func (t *singleAttemptTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("x-goog-api-key", t.apiKey)

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		_ = resp.Body.Close()
		return nil, &GeminiStatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return resp, nil
}

// Close terminates the connection.
func (g *Gemini) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// GenerateStructured asks for JSON constrained by req.Schema.
func (g *Gemini) GenerateStructured(ctx context.Context, req Request) ([]byte, error) {
	doc, err := req.Schema.Document()
	if err != nil {
		return nil, err
	}

	m := g.client.GenerativeModel(g.model)
	m.ResponseMIMEType = "application/json"
	m.ResponseSchema = toGenaiSchema(doc)
	m.SetTemperature(0)

	parts := []genai.Part{genai.Text(req.Prompt)}
	for _, img := range g.images.Load(ctx, req.ImageURLs) {
		parts = append(parts, genai.Blob{MIMEType: img.MediaType, Data: img.Data})
	}

	zap.L().Debug("ai: gemini request",
		zap.String("model", g.model),
		zap.Int("parts", len(parts)),
	)

	resp, err := m.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, eris.Wrap(err, "ai: gemini generate")
	}

	text := geminiText(resp)
	if text == "" {
		return nil, models.WrapKind(models.ErrSchema, "ai: gemini returned no content", nil)
	}
	return []byte(text), nil
}

func geminiText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return strings.TrimSpace(b.String())
}

// toGenaiSchema converts the JSON Schema subset used here. A "null" member
// of a type list becomes Nullable; string formats other than enum are
// dropped since the API rejects them.
func toGenaiSchema(node map[string]any) *genai.Schema {
	s := &genai.Schema{}

	switch t := node["type"].(type) {
	case string:
		s.Type = genaiType(t)
	case []any:
		for _, v := range t {
			name, _ := v.(string)
			if name == "null" {
				s.Nullable = true
				continue
			}
			s.Type = genaiType(name)
		}
	}

	if enum, ok := node["enum"].([]any); ok {
		for _, v := range enum {
			if str, ok := v.(string); ok {
				s.Enum = append(s.Enum, str)
			}
		}
		s.Format = "enum"
	}
	if items, ok := node["items"].(map[string]any); ok {
		s.Items = toGenaiSchema(items)
	}
	if props, ok := node["properties"].(map[string]any); ok {
		s.Properties = make(map[string]*genai.Schema, len(props))
		for name, v := range props {
			if child, ok := v.(map[string]any); ok {
				s.Properties[name] = toGenaiSchema(child)
			}
		}
	}
	if required, ok := node["required"].([]any); ok {
		for _, v := range required {
			if str, ok := v.(string); ok {
				s.Required = append(s.Required, str)
			}
		}
	}
	return s
}

func genaiType(name string) genai.Type {
	switch name {
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	}
	return genai.TypeUnspecified
}
