// Package textnorm holds the small string helpers every parser relies on.
package textnorm

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var reSpace = regexp.MustCompile(`[\s\p{Zs}\x{feff}]+`)

// NormalizeWhitespace collapses whitespace runs to one space and trims.
// Blank input yields "".
func NormalizeWhitespace(s string) string {
	return strings.TrimSpace(reSpace.ReplaceAllString(s, " "))
}

// ToAbsoluteURL resolves candidate against base. Protocol-relative and
// relative references are supported. Anything that does not end up as an
// http(s) URL with a host yields "".
func ToAbsoluteURL(candidate, base string) string {
	candidate = NormalizeWhitespace(candidate)
	if candidate == "" {
		return ""
	}
	ref, err := url.Parse(candidate)
	if err != nil {
		return ""
	}
	if base != "" {
		b, err := url.Parse(base)
		if err != nil {
			return ""
		}
		ref = b.ResolveReference(ref)
	} else if strings.HasPrefix(candidate, "//") {
		ref.Scheme = "https"
	}
	if ref.Scheme != "http" && ref.Scheme != "https" {
		return ""
	}
	if ref.Host == "" {
		return ""
	}
	return ref.String()
}

var (
	reCurrencyGlyph = regexp.MustCompile(`[₩원]`)
	reDigits        = regexp.MustCompile(`^\d+$`)
	krwPrinter      = message.NewPrinter(language.Korean)
)

// NormalizePrice renders a bare KRW integer as "15,000원". Values that already
// carry a currency glyph, or any other currency, pass through trimmed.
func NormalizePrice(raw, currency string) string {
	normalized := NormalizeWhitespace(raw)
	if normalized == "" {
		return ""
	}
	if reCurrencyGlyph.MatchString(normalized) {
		return normalized
	}
	numberOnly := strings.ReplaceAll(normalized, ",", "")
	if reDigits.MatchString(numberOnly) && strings.EqualFold(strings.TrimSpace(currency), "KRW") {
		n, err := strconv.ParseInt(numberOnly, 10, 64)
		if err != nil {
			return normalized
		}
		return krwPrinter.Sprintf("%d", n) + "원"
	}
	return normalized
}

// Dedupe keeps the first occurrence of each value, preserving order.
func Dedupe[T comparable](values []T) []T {
	if values == nil {
		return nil
	}
	seen := make(map[T]struct{}, len(values))
	out := make([]T, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Truncate cuts s to at most max runes.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

// Cap returns at most n leading elements of values.
func Cap[T any](values []T, n int) []T {
	if len(values) > n {
		return values[:n]
	}
	return values
}

// NonEmpty drops blank strings.
func NonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
