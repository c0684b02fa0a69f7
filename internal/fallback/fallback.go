// Package fallback structures arbitrary pages with a multimodal model.
package fallback

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"mspro-labs/bean-scout/internal/ai"
	"mspro-labs/bean-scout/internal/models"
	"mspro-labs/bean-scout/internal/textnorm"
)

const (
	DefaultTextBudget   = 6000
	DefaultMaxImages    = 5
	DefaultModelTimeout = 45 * time.Second
)

// Options bounds model input and time.
type Options struct {
	TextBudget   int
	MaxImages    int
	ModelTimeout time.Duration
}

// Extractor turns fetched HTML into an extraction through a Generator.
type Extractor struct {
	gen  ai.Generator
	opts Options
}

// New returns an Extractor. Zero options take the defaults.
func New(gen ai.Generator, opts Options) *Extractor {
	if opts.TextBudget <= 0 {
		opts.TextBudget = DefaultTextBudget
	}
	if opts.MaxImages <= 0 {
		opts.MaxImages = DefaultMaxImages
	}
	if opts.ModelTimeout <= 0 {
		opts.ModelTimeout = DefaultModelTimeout
	}
	return &Extractor{gen: gen, opts: opts}
}

// Extract builds the prompt from page and calls the model once. Output
// that fails schema validation is an error; nothing is filled in.
func (e *Extractor) Extract(ctx context.Context, pageURL string, pageType models.PageType, page string) (*models.CoffeeExtraction, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, eris.Wrap(err, "fallback: parse html")
	}

	in := PromptInput{
		URL:      pageURL,
		Title:    ExtractTitle(page),
		PageType: pageType,
		Images:   SelectImages(doc, pageURL, e.opts.MaxImages),
		Text:     StripHTML(page, e.opts.TextBudget),
	}

	modelCtx, cancel := context.WithTimeout(ctx, e.opts.ModelTimeout)
	defer cancel()

	start := time.Now()
	raw, err := e.gen.GenerateStructured(modelCtx, ai.Request{
		Schema:    ai.ExtractionSchema,
		Prompt:    BuildPrompt(in),
		ImageURLs: in.Images,
	})
	if err != nil {
		return nil, eris.Wrap(err, "fallback: model call")
	}
	zap.L().Info("fallback: model responded",
		zap.String("url", pageURL),
		zap.Int("images", len(in.Images)),
		zap.Int("text_runes", len([]rune(in.Text))),
		zap.Duration("elapsed", time.Since(start)),
	)

	out, err := ai.DecodeExtraction(raw)
	if err != nil {
		return nil, err
	}
	return tidy(out, e.opts.MaxImages), nil
}

// tidy blanks empty strings and removes duplicates the model may emit.
func tidy(x *models.CoffeeExtraction, maxImages int) *models.CoffeeExtraction {
	clean := func(p *string) *string {
		if p == nil {
			return nil
		}
		return models.StringPtr(textnorm.NormalizeWhitespace(*p))
	}
	x.Title = clean(x.Title)
	x.NameKR = clean(x.NameKR)
	x.NameEN = clean(x.NameEN)
	x.Description = clean(x.Description)
	x.Origin = clean(x.Origin)
	x.Price = clean(x.Price)

	if x.Notes != nil {
		var notes []string
		for _, n := range x.Notes {
			if n = textnorm.NormalizeWhitespace(n); n != "" {
				notes = append(notes, n)
			}
		}
		x.Notes = textnorm.Dedupe(notes)
	}
	if x.Images != nil {
		x.Images = textnorm.Cap(textnorm.Dedupe(x.Images), maxImages)
	}
	return x
}
