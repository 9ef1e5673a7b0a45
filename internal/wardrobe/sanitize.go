package wardrobe

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/raine/wardrobe-editorial/internal/mapping"
)

var (
	inlineSpaceRun   = regexp.MustCompile(`[ \t]{2,}`)
	spaceBeforePunct = regexp.MustCompile(`[ \t]+([.,;:!?])`)
)

// Sanitizer removes brand names from generated output with the same tables
// and splice rules the Normalizer applies to input.
type Sanitizer struct {
	brands *mapping.Table
	// prose matches brands only where they are not part of a longer word
	prose *mapping.Table
}

// NewSanitizer returns a Sanitizer over tables, or the built-in tables when
// tables is nil.
func NewSanitizer(tables *mapping.Set) *Sanitizer {
	if tables == nil {
		tables = mapping.Default()
	}
	return &Sanitizer{brands: tables.Brands, prose: tables.Brands.WithBoundary(mapping.Letter)}
}

// Sanitize rewrites every item name that mentions a brand. Items that were
// only a brand are dropped; untouched items are returned as is.
func (s *Sanitizer) Sanitize(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if !s.brands.Contains(item) {
			out = append(out, item)
			continue
		}
		clean, _ := spliceBrands(s.brands, item)
		clean = strings.Trim(strings.Join(strings.Fields(clean), " "), strayPunct)
		if !hasAlnum(clean) {
			continue
		}
		if startsUpper(item) {
			clean = capitalize(clean)
		}
		out = append(out, clean)
	}
	return out
}

// SanitizeText replaces brand names inside free prose in place. Words that
// merely contain a brand ("conversely", "basics") are left alone.
func (s *Sanitizer) SanitizeText(text string) string {
	if !s.prose.Contains(text) {
		return text
	}
	out := s.prose.ReplaceAll(text)
	for {
		out = inlineSpaceRun.ReplaceAllString(out, " ")
		out = spaceBeforePunct.ReplaceAllString(out, "$1")
		m, ok := s.prose.Find(out)
		if !ok {
			return strings.TrimSpace(out)
		}
		before, after := mapping.Cut(out, m)
		out = before + " " + after
	}
}

// SanitizePayload walks a decoded JSON object and sanitizes it. Arrays made
// only of strings are treated as item names; every other string is
// sanitized as prose. The input is not modified.
func (s *Sanitizer) SanitizePayload(payload map[string]any) map[string]any {
	if payload == nil {
		return nil
	}
	return s.sanitizeValue(payload).(map[string]any)
}

func (s *Sanitizer) sanitizeValue(v any) any {
	switch val := v.(type) {
	case string:
		return s.SanitizeText(val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[k] = s.sanitizeValue(child)
		}
		return out
	case []any:
		if names, ok := stringSlice(val); ok {
			clean := s.Sanitize(names)
			out := make([]any, len(clean))
			for i, name := range clean {
				out[i] = name
			}
			return out
		}
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = s.sanitizeValue(child)
		}
		return out
	default:
		return v
	}
}

func stringSlice(values []any) ([]string, bool) {
	if len(values) == 0 {
		return nil, false
	}
	out := make([]string, len(values))
	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			return nil, false
		}
		out[i] = str
	}
	return out, true
}

func startsUpper(s string) bool {
	r, _ := utf8.DecodeRuneInString(strings.TrimSpace(s))
	return unicode.IsUpper(r)
}
