package catalog

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"mspro-labs/bean-scout/internal/models"
	"mspro-labs/bean-scout/internal/textnorm"
)

// AvailableNations lists the distinct trimmed nations of records in
// first-seen order.
func AvailableNations(records []models.CoffeeRecord) []string {
	var nations []string
	for _, r := range records {
		if n := strings.TrimSpace(models.Deref(r.Nations)); n != "" {
			nations = append(nations, n)
		}
	}
	return textnorm.Dedupe(nations)
}

// AvailableNotes lists the notes of records in the given nations, or of
// every nation when none are given. Korean labels come first, then the
// rest, each group in Korean collation order.
func AvailableNotes(records []models.CoffeeRecord, nations []string) []string {
	if len(nations) == 0 {
		nations = AvailableNations(records)
	}
	want := make(map[string]struct{}, len(nations))
	for _, n := range nations {
		want[strings.TrimSpace(n)] = struct{}{}
	}

	var notes []string
	for _, r := range records {
		if _, ok := want[strings.TrimSpace(models.Deref(r.Nations))]; !ok {
			continue
		}
		for _, note := range r.Notes {
			if note = strings.TrimSpace(note); note != "" {
				notes = append(notes, note)
			}
		}
	}

	col := collate.New(language.Korean)
	sort.SliceStable(notes, func(i, j int) bool {
		ki, kj := isKorean(notes[i]), isKorean(notes[j])
		if ki != kj {
			return ki
		}
		return col.CompareString(notes[i], notes[j]) < 0
	})
	return textnorm.Dedupe(notes)
}

func isKorean(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Hangul, r) {
			return true
		}
	}
	return false
}
