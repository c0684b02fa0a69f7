package catalog

import (
	"fmt"
	"strings"

	"mspro-labs/bean-scout/internal/models"
)

// Approvable names the extraction fields an operator may copy onto a record.
var Approvable = []string{
	"name_kr", "name_en", "origin", "notes", "description",
	"source_url", "title", "images", "price", "page_type",
}

// Approve turns an operator's manual draft into a record, filling each named
// field from the extraction. A field whose extracted value is empty keeps the
// draft's value, except source_url which is always taken from the extraction.
func Approve(ext models.CoffeeExtraction, fields []string, manual models.CoffeeRecord) (models.CoffeeRecord, error) {
	rec := manual
	rec.ID = 0

	for _, raw := range fields {
		field := strings.ToLower(strings.TrimSpace(raw))
		switch field {
		case "name_kr":
			rec.NameKR = pick(ext.NameKR, rec.NameKR)
		case "name_en":
			rec.NameEN = pick(ext.NameEN, rec.NameEN)
		case "origin":
			rec.Origin = pick(ext.Origin, rec.Origin)
		case "description":
			rec.Description = pick(ext.Description, rec.Description)
		case "title":
			rec.Title = pick(ext.Title, rec.Title)
		case "price":
			rec.Price = pick(ext.Price, rec.Price)
		case "notes":
			if len(ext.Notes) > 0 {
				rec.Notes = append([]string(nil), ext.Notes...)
			}
		case "images":
			if len(ext.Images) > 0 {
				rec.Images = append([]string(nil), ext.Images...)
			}
		case "source_url":
			rec.SourceOriginURL = models.StringPtr(ext.SourceURL)
		case "page_type":
			if ext.PageType != "" {
				rec.PageType = models.StringPtr(string(ext.PageType))
			}
		default:
			return models.CoffeeRecord{}, models.WrapKind(models.ErrInvalidInput, fmt.Sprintf("catalog: unknown field %q", raw), nil)
		}
	}
	return rec, nil
}

func pick(extracted, current *string) *string {
	if v := strings.TrimSpace(models.Deref(extracted)); v != "" {
		return &v
	}
	return current
}
