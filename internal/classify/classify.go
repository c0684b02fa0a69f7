// Package classify maps free text and option strings onto fixed coffee labels.
//
// Every table is an ordered list. Detection reports labels in table order, not
// in the order they appear in the input, so the same input always yields the
// same output.
package classify

import (
	"regexp"
	"strings"
)

// Pattern pairs a standard label with the expression that detects it.
type Pattern struct {
	Label string
	Regex *regexp.Regexp
}

func pattern(label, expr string) Pattern {
	return Pattern{Label: label, Regex: regexp.MustCompile(`(?i)` + expr)}
}

// DetectLabels joins texts with a space and returns the label of every
// pattern that matches the combined text.
func DetectLabels(texts []string, patterns []Pattern) []string {
	combined := strings.Join(texts, " ")
	var labels []string
	for _, p := range patterns {
		if p.Regex.MatchString(combined) {
			labels = append(labels, p.Label)
		}
	}
	return labels
}

// DetectOrigins returns the gazetteer entries contained in the joined texts.
func DetectOrigins(texts []string) []string {
	combined := strings.Join(texts, " ")
	var origins []string
	for _, origin := range OriginKeywords {
		if strings.Contains(combined, origin) {
			origins = append(origins, origin)
		}
	}
	return origins
}

// Processing detects processing-method labels.
func Processing(texts []string) []string { return DetectLabels(texts, ProcessingPatterns) }

// Varieties detects botanical-variety labels.
func Varieties(texts []string) []string { return DetectLabels(texts, VarietyPatterns) }

// Notes detects tasting-note labels.
func Notes(texts []string) []string { return DetectLabels(texts, NotePatterns) }
