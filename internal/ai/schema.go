package ai

import (
	"bytes"
	"encoding/json"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"mspro-labs/bean-scout/internal/models"
)

// Schema is a JSON Schema document compiled on first use.
type Schema struct {
	Name string
	Raw  []byte

	once     sync.Once
	compiled *jsonschema.Schema
	doc      map[string]any
	err      error
}

// NewSchema wraps a raw JSON Schema document.
func NewSchema(name string, raw []byte) *Schema {
	return &Schema{Name: name, Raw: raw}
}

func (s *Schema) load() error {
	s.once.Do(func() {
		if err := json.Unmarshal(s.Raw, &s.doc); err != nil {
			s.err = eris.Wrapf(err, "ai: decode schema %s", s.Name)
			return
		}
		compiler := jsonschema.NewCompiler()
		compiler.AssertFormat = true
		resource := s.Name + ".json"
		if err := compiler.AddResource(resource, bytes.NewReader(s.Raw)); err != nil {
			s.err = eris.Wrapf(err, "ai: add schema %s", s.Name)
			return
		}
		s.compiled, s.err = compiler.Compile(resource)
		if s.err != nil {
			s.err = eris.Wrapf(s.err, "ai: compile schema %s", s.Name)
		}
	})
	return s.err
}

// Document returns the decoded schema.
func (s *Schema) Document() (map[string]any, error) {
	if err := s.load(); err != nil {
		return nil, err
	}
	return s.doc, nil
}

// Validate checks data against the schema. Any mismatch carries ErrSchema.
func (s *Schema) Validate(data []byte) error {
	if err := s.load(); err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return models.WrapKind(models.ErrSchema, "ai: decode model output", err)
	}
	if err := s.compiled.Validate(v); err != nil {
		return models.WrapKind(models.ErrSchema, "ai: validate model output", err)
	}
	return nil
}

// ExtractionSchema describes a CoffeeExtraction. Every key is required; any
// field may be null except source_url and page_type.
var ExtractionSchema = NewSchema("coffee_extraction", []byte(`{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["source_url", "title", "page_type", "name_kr", "name_en", "description", "origin", "notes", "images", "price"],
  "properties": {
    "source_url": {"type": "string", "format": "uri"},
    "title": {"type": ["string", "null"]},
    "page_type": {"type": "string", "enum": ["menu", "product", "blog", "review", "news", "brand", "cafeteria", "roastery", "landing", "other"]},
    "name_kr": {"type": ["string", "null"]},
    "name_en": {"type": ["string", "null"]},
    "description": {"type": ["string", "null"]},
    "origin": {"type": ["string", "null"]},
    "notes": {"type": ["array", "null"], "items": {"type": "string"}},
    "images": {"type": ["array", "null"], "items": {"type": "string", "format": "uri"}},
    "price": {"type": ["string", "null"]}
  }
}`))

// DecodeExtraction validates raw model output and decodes it.
func DecodeExtraction(raw []byte) (*models.CoffeeExtraction, error) {
	if err := ExtractionSchema.Validate(raw); err != nil {
		return nil, err
	}
	var out models.CoffeeExtraction
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, models.WrapKind(models.ErrSchema, "ai: decode extraction", err)
	}
	return &out, nil
}
