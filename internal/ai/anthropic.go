package ai

import (
	"context"
	"encoding/base64"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"

	"mspro-labs/bean-scout/internal/models"
)

const (
	defaultAnthropicModel = "claude-sonnet-4-5-20250929"
	anthropicMaxTokens    = 2048
)

var anthropicImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Anthropic generates structured output through the Messages API.
type Anthropic struct {
	client sdk.Client
	model  string
	images *ImageLoader
}

// NewAnthropic creates a client. SDK retries are disabled.
func NewAnthropic(apiKey, model string, images *ImageLoader, opts ...option.RequestOption) *Anthropic {
	if model == "" {
		model = defaultAnthropicModel
	}
	base := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	return &Anthropic{
		client: sdk.NewClient(append(base, opts...)...),
		model:  model,
		images: images,
	}
}

// Close is a no-op; the SDK holds no connection state.
func (a *Anthropic) Close() error { return nil }

// GenerateStructured sends the prompt, the schema and any images, and
// returns the JSON object found in the reply.
func (a *Anthropic) GenerateStructured(ctx context.Context, req Request) ([]byte, error) {
	var blocks []sdk.ContentBlockParamUnion
	for _, img := range a.images.Load(ctx, req.ImageURLs) {
		if !anthropicImageTypes[img.MediaType] {
			continue
		}
		blocks = append(blocks, sdk.NewImageBlockBase64(img.MediaType, base64.StdEncoding.EncodeToString(img.Data)))
	}
	blocks = append(blocks, sdk.NewTextBlock(req.Prompt))

	params := sdk.MessageNewParams{
		Model:     sdk.Model(a.model),
		MaxTokens: anthropicMaxTokens,
		System:    []sdk.TextBlockParam{{Text: schemaInstruction(req.Schema)}},
		Messages:  []sdk.MessageParam{sdk.NewUserMessage(blocks...)},
	}

	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return nil, eris.Wrap(err, "ai: anthropic create message")
	}

	var b strings.Builder
	for _, c := range msg.Content {
		if c.Type == "text" {
			b.WriteString(c.Text)
		}
	}
	out := extractJSONObject(b.String())
	if out == "" {
		return nil, models.WrapKind(models.ErrSchema, "ai: anthropic reply has no JSON object", nil)
	}
	return []byte(out), nil
}

func schemaInstruction(s *Schema) string {
	return "Respond with exactly one JSON object and nothing else. " +
		"It must validate against this JSON Schema:\n" + string(s.Raw)
}

// extractJSONObject returns the outermost {...} span of text, which drops
// code fences and any prose around the object.
func extractJSONObject(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return ""
	}
	return text[start : end+1]
}
