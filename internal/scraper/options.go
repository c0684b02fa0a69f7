package scraper

import (
	"regexp"
	"strings"

	"mspro-labs/bean-scout/internal/textnorm"
)

const (
	optionPlaceholder = "- [필수] 옵션을 선택해 주세요 -"
	optionSeparator   = "-------------------"
	optionPrintOptOut = "월픽 인쇄물(월픽 카드와 스티커) 받지 않기"
	optionGrindGuide  = "분쇄도 가이드"
)

var (
	reOptionLead = regexp.MustCompile(`^[-:]+`)
	reOptionTail = regexp.MustCompile(`(?i)\s*-\s*(?:\d+(?:\.\d+)?(?:g|kg)|\d+\s*개|해당없음)\s*$`)
)

// CleanOptionName strips the product-name prefix, leading separators and
// the trailing weight/count/"해당없음" suffix from an option label.
func CleanOptionName(raw, productName string) string {
	name := textnorm.NormalizeWhitespace(raw)
	if anchor := textnorm.NormalizeWhitespace(productName); anchor != "" {
		name = strings.TrimSpace(strings.TrimPrefix(name, anchor))
	}
	name = strings.TrimSpace(reOptionLead.ReplaceAllString(name, ""))
	name = strings.TrimSpace(reOptionTail.ReplaceAllString(name, ""))
	return name
}

func isSelectFiller(raw string) bool {
	raw = textnorm.NormalizeWhitespace(raw)
	return strings.HasPrefix(raw, optionPlaceholder) || raw == optionSeparator
}

func isExcludedOption(name string) bool {
	return name == "" || name == optionPrintOptOut || strings.Contains(name, optionGrindGuide)
}

// ReconcileOptions cleans both option sources and merges them, offer names
// first, without duplicates.
func ReconcileOptions(offerNames, selectNames []string, productName string) []string {
	var merged []string
	for _, raw := range offerNames {
		if name := CleanOptionName(raw, productName); !isExcludedOption(name) {
			merged = append(merged, name)
		}
	}
	for _, raw := range selectNames {
		if isSelectFiller(raw) {
			continue
		}
		if name := CleanOptionName(raw, productName); !isExcludedOption(name) {
			merged = append(merged, name)
		}
	}
	return textnorm.Dedupe(merged)
}
