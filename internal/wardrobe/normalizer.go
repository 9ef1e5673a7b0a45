// Package wardrobe cleans free-text wardrobe descriptions before they reach
// the model and scrubs brand names from what the model sends back.
package wardrobe

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/raine/wardrobe-editorial/internal/editorial"
	"github.com/raine/wardrobe-editorial/internal/mapping"
)

// minItemRunes is the shortest item kept after normalization.
const minItemRunes = 2

var (
	separatorRun = regexp.MustCompile(`\s*[,;|]+\s*`)
	dashRun      = regexp.MustCompile(`(?: -)+ `)
)

// Items is a normalized wardrobe list. Notes explain dropped input.
type Items struct {
	Normalized []string `json:"normalized"`
	Notes      []string `json:"notes,omitempty"`
}

// Len returns the number of normalized items.
func (i Items) Len() int { return len(i.Normalized) }

// Normalizer turns raw wardrobe text into brand-free, deduplicated items.
// It only reads its tables and is safe for concurrent use.
type Normalizer struct {
	tables    *mapping.Set
	canonical *mapping.Table
}

// NewNormalizer returns a Normalizer over tables, or the built-in tables
// when tables is nil.
func NewNormalizer(tables *mapping.Set) *Normalizer {
	if tables == nil {
		tables = mapping.Default()
	}
	vocabulary := make(map[string]string)
	for _, e := range tables.Colors.Entries() {
		if e.Replacement != "" {
			vocabulary[e.Replacement] = e.Replacement
		}
	}
	return &Normalizer{
		tables:    tables,
		canonical: mapping.New("canonical color", mapping.Word, vocabulary),
	}
}

// Normalize splits text into items and cleans each one: brands are replaced
// or removed, slang and color terms are rewritten, whitespace and stray
// punctuation are collapsed and the first letter is capitalized. Items that
// end up empty or too short are dropped with a note; duplicates keep their
// first position.
func (n *Normalizer) Normalize(text string) Items {
	out := Items{Normalized: []string{}}
	seen := make(map[string]bool)

	for _, candidate := range splitItems(text) {
		item, hadBrand := spliceBrands(n.tables.Brands, candidate)
		if hadBrand && !hasAlnum(item) {
			out.Notes = append(out.Notes, fmt.Sprintf(editorial.MsgBrandOnlyItem, candidate))
			continue
		}

		item = n.tables.Slang.ReplaceAll(item)
		item = n.recolor(item)

		item, ok := n.finish(item)
		if !ok {
			out.Notes = append(out.Notes, fmt.Sprintf(editorial.MsgBrandOnlyItem, candidate))
			continue
		}
		if utf8.RuneCountInString(item) < minItemRunes {
			out.Notes = append(out.Notes, fmt.Sprintf(editorial.MsgTooShortItem, candidate))
			continue
		}
		if seen[item] {
			continue
		}
		seen[item] = true
		out.Normalized = append(out.Normalized, item)
	}
	return out
}

// recolor canonicalizes at most one color term. An item that already uses
// the canonical vocabulary outside the matched term is left alone.
func (n *Normalizer) recolor(item string) string {
	m, ok := n.tables.Colors.Find(item)
	if !ok {
		return item
	}
	before, after := mapping.Cut(item, m)
	if n.canonical.Contains(before) || n.canonical.Contains(after) {
		return item
	}
	return before + m.Replacement + after
}

// finish collapses the item and makes sure collapsing did not join a
// brand back together.
func (n *Normalizer) finish(item string) (string, bool) {
	for pass := 0; pass < maxBrandPasses; pass++ {
		item = collapse(item)
		if !n.tables.Brands.Contains(item) {
			return item, true
		}
		item = scrubBrands(n.tables.Brands, item)
	}
	return "", false
}

func splitItems(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		switch r {
		case ',', ';', '|', '\n', '\r':
			return true
		}
		return false
	})
	items := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(stripEmoji(f)); f != "" {
			items = append(items, f)
		}
	}
	return items
}

func collapse(s string) string {
	s = strings.ToLower(s)
	s = separatorRun.ReplaceAllString(s, " - ")
	s = strings.Join(strings.Fields(s), " ")
	s = dashRun.ReplaceAllString(s, " - ")
	s = strings.Trim(s, strayPunct)
	return capitalize(s)
}

func capitalize(s string) string {
	for i, r := range s {
		if unicode.IsLetter(r) {
			return s[:i] + string(unicode.ToUpper(r)) + s[i+utf8.RuneLen(r):]
		}
	}
	return s
}

func stripEmoji(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == 0xFE0F || r == 0x200D:
			return -1
		case r >= 0x1F000,
			r >= 0x2600 && r <= 0x27BF,
			r >= 0x2B00 && r <= 0x2BFF:
			return ' '
		}
		return r
	}, s)
}

func hasAlnum(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
