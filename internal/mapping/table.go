// Package mapping holds the immutable pattern→replacement tables used to
// rewrite wardrobe text, and the longest-match-first substitution primitive
// shared by every pass that reads them.
package mapping

import (
	"sort"
	"strings"
	"unicode"
)

// Boundary controls where a pattern is allowed to match.
type Boundary int

const (
	// Substring matches a pattern anywhere, even inside a longer word.
	Substring Boundary = iota
	// Word only matches a pattern that is not glued to other word runes
	// (letters, digits, hyphens, apostrophes) on either side.
	Word
	// Letter only refuses a match glued to letters, so "nike-inspired" and
	// "#nike" match while "conversely" does not.
	Letter
)

// Entry is one pattern and the text that replaces it.
// An empty Replacement means the matched span is removed.
type Entry struct {
	Pattern     string
	Replacement string
}

// Match is a located pattern. Start and End are rune offsets into the
// searched text.
type Match struct {
	Entry
	Start int
	End   int
}

// Table is an ordered, read-only collection of entries for one concern.
// Entries are kept longest pattern first so a multi-word pattern always
// wins over its own prefix.
type Table struct {
	name     string
	boundary Boundary
	entries  []Entry
	patterns [][]rune
}

// New builds a table from pattern→replacement pairs. Patterns are trimmed
// and lowercased; empty patterns are skipped.
func New(name string, boundary Boundary, pairs map[string]string) *Table {
	entries := make([]Entry, 0, len(pairs))
	seen := make(map[string]bool, len(pairs))
	for pattern, replacement := range pairs {
		p := strings.ToLower(strings.TrimSpace(pattern))
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		entries = append(entries, Entry{Pattern: p, Replacement: strings.TrimSpace(replacement)})
	}

	sort.Slice(entries, func(i, j int) bool {
		li, lj := len([]rune(entries[i].Pattern)), len([]rune(entries[j].Pattern))
		if li != lj {
			return li > lj
		}
		return entries[i].Pattern < entries[j].Pattern
	})

	patterns := make([][]rune, len(entries))
	for i, e := range entries {
		patterns[i] = []rune(e.Pattern)
	}

	return &Table{name: name, boundary: boundary, entries: entries, patterns: patterns}
}

// WithBoundary returns a table with the same entries matched under b.
func (t *Table) WithBoundary(b Boundary) *Table {
	if t == nil {
		return nil
	}
	return &Table{name: t.name, boundary: b, entries: t.entries, patterns: t.patterns}
}

// Name returns the concern the table covers ("brand", "slang", "color").
func (t *Table) Name() string { return t.name }

// Len returns the number of entries.
func (t *Table) Len() int { return len(t.entries) }

// Entries returns a copy of the entries in lookup order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Find returns the longest pattern occurring in s, matched case-insensitively.
// Among patterns of equal length the table order decides; for a given
// pattern the leftmost valid occurrence is returned.
func (t *Table) Find(s string) (Match, bool) {
	if t == nil || s == "" {
		return Match{}, false
	}
	text := lowerRunes(s)
	return t.find(text)
}

func (t *Table) find(text []rune) (Match, bool) {
	for i, pattern := range t.patterns {
		if start := t.index(text, pattern); start >= 0 {
			return Match{Entry: t.entries[i], Start: start, End: start + len(pattern)}, true
		}
	}
	return Match{}, false
}

// Contains reports whether any pattern occurs in s.
func (t *Table) Contains(s string) bool {
	_, ok := t.Find(s)
	return ok
}

// ReplaceFirst substitutes the single longest match in s.
func (t *Table) ReplaceFirst(s string) (string, bool) {
	m, ok := t.Find(s)
	if !ok {
		return s, false
	}
	before, after := Cut(s, m)
	return before + m.Replacement + after, true
}

// ReplaceAll substitutes every match in s. The longest match is replaced
// first and the text on either side of it is processed the same way;
// replacement text is never rescanned.
func (t *Table) ReplaceAll(s string) string {
	m, ok := t.Find(s)
	if !ok {
		return s
	}
	before, after := Cut(s, m)
	return t.ReplaceAll(before) + m.Replacement + t.ReplaceAll(after)
}

// Cut returns the text before and after the matched span of s.
func Cut(s string, m Match) (before, after string) {
	runes := []rune(s)
	if m.Start < 0 || m.End > len(runes) || m.Start > m.End {
		return s, ""
	}
	return string(runes[:m.Start]), string(runes[m.End:])
}

func (t *Table) index(text, pattern []rune) int {
	n, m := len(text), len(pattern)
	for i := 0; i+m <= n; i++ {
		if !equalRunes(text[i:i+m], pattern) {
			continue
		}
		if t.boundary != Substring {
			glued := isWordRune
			if t.boundary == Letter {
				glued = unicode.IsLetter
			}
			if i > 0 && glued(text[i-1]) {
				continue
			}
			if i+m < n && glued(text[i+m]) {
				continue
			}
		}
		return i
	}
	return -1
}

func equalRunes(a, b []rune) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// lowerRunes lowercases rune by rune so offsets stay aligned with the
// original text.
func lowerRunes(s string) []rune {
	runes := []rune(s)
	for i, r := range runes {
		runes[i] = unicode.ToLower(r)
	}
	return runes
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '\''
}
