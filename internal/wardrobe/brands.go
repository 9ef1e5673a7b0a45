package wardrobe

import (
	"strings"

	"github.com/raine/wardrobe-editorial/internal/mapping"
)

// maxBrandPasses bounds how many brand spans are spliced in one item. Any
// brand left after that is scrubbed without a replacement.
const maxBrandPasses = 8

// strayPunct is trimmed from the ends of items and qualifier words.
const strayPunct = " \t-–—.,;:!?*_~/\\\"'`"

// connectors are dropped when they dangle at either end of the text left
// around a brand ("calça da Nike" keeps "calça", not "calça da").
var connectors = map[string]bool{
	"a": true, "o": true, "e": true, "de": true, "da": true, "do": true,
	"das": true, "dos": true, "com": true, "em": true, "na": true, "no": true,
	"&": true, "+": true, "x": true,
}

// spliceBrands replaces brand spans in s, longest match first. The first
// brand with a garment description becomes "<description>, <remaining
// words>"; later ones are replaced where they stand so every garment keeps
// its head noun. A brand-only match is removed. The result never contains
// a brand pattern. found reports whether any brand was seen.
func spliceBrands(brands *mapping.Table, s string) (out string, found bool) {
	spliced := false
	for pass := 0; pass < maxBrandPasses; pass++ {
		m, ok := brands.Find(s)
		if !ok {
			return s, found
		}
		found = true
		before, after := mapping.Cut(s, m)
		switch {
		case m.Replacement == "":
			s = trimConnectors(joinWords(before, after))
		case spliced:
			s = before + m.Replacement + after
		default:
			spliced = true
			rest := trimConnectors(joinWords(before, after))
			if q := qualifiers(rest, m.Replacement); q != "" {
				s = m.Replacement + ", " + q
			} else {
				s = m.Replacement
			}
		}
	}
	return scrubBrands(brands, s), found
}

// scrubBrands removes every remaining brand span without replacement.
func scrubBrands(brands *mapping.Table, s string) string {
	for {
		m, ok := brands.Find(s)
		if !ok {
			return s
		}
		before, after := mapping.Cut(s, m)
		s = trimConnectors(joinWords(before, after))
	}
}

// qualifiers returns the words of rest that the replacement does not
// already say.
func qualifiers(rest, replacement string) string {
	known := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(replacement)) {
		known[w] = true
	}
	var kept []string
	for _, w := range strings.Fields(rest) {
		key := strings.ToLower(strings.Trim(w, strayPunct))
		if key == "" || known[key] {
			continue
		}
		kept = append(kept, w)
	}
	return trimConnectors(strings.Join(kept, " "))
}

func joinWords(before, after string) string {
	return strings.Join(strings.Fields(before+" "+after), " ")
}

func trimConnectors(s string) string {
	words := strings.Fields(s)
	for len(words) > 0 && isConnector(words[0]) {
		words = words[1:]
	}
	for len(words) > 0 && isConnector(words[len(words)-1]) {
		words = words[:len(words)-1]
	}
	return strings.Join(words, " ")
}

func isConnector(w string) bool {
	key := strings.ToLower(strings.Trim(w, strayPunct))
	return key == "" || connectors[key]
}
