package wardrobe

import (
	"strings"
	"unicode/utf8"

	"github.com/raine/wardrobe-editorial/internal/editorial"
)

const (
	DefaultMinItems    = 2
	DefaultMinRawChars = 8
)

// HasMinimum reports whether items holds at least threshold entries.
func HasMinimum(items Items, threshold int) bool {
	return items.Len() >= threshold
}

// Gate decides whether a wardrobe list carries enough content to generate
// from. Both the normalized count and the raw length must pass.
type Gate struct {
	MinItems    int
	MinRawChars int
}

// DefaultGate returns the gate used when nothing is configured.
func DefaultGate() Gate {
	return Gate{MinItems: DefaultMinItems, MinRawChars: DefaultMinRawChars}
}

// Check returns an insufficient_items failure when raw or items fall short.
func (g Gate) Check(raw string, items Items) error {
	if utf8.RuneCountInString(strings.TrimSpace(raw)) <= g.MinRawChars {
		return editorial.NewError(editorial.KindInsufficientItems, editorial.MsgInsufficientItems)
	}
	if !HasMinimum(items, g.MinItems) {
		return editorial.NewError(editorial.KindInsufficientItems, editorial.MsgInsufficientItems)
	}
	return nil
}
