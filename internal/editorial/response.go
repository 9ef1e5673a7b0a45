package editorial

import (
	"fmt"
	"strings"
)

// TextPart is the {text: string} shape some transports use for content parts.
type TextPart struct {
	Text string `json:"text"`
}

// NormalizeResponse flattens raw model content into one string. It accepts a
// plain string, a sequence of strings and text parts, or a single text part;
// textual parts are concatenated in order. Anything else is rendered with
// its default string form.
func NormalizeResponse(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case []string:
		return strings.Join(v, "")
	case TextPart:
		return v.Text
	case *TextPart:
		if v == nil {
			return ""
		}
		return v.Text
	case map[string]any:
		if text, ok := textOf(v); ok {
			return text
		}
	case []TextPart:
		var b strings.Builder
		for _, p := range v {
			b.WriteString(p.Text)
		}
		return b.String()
	case []any:
		var b strings.Builder
		for _, part := range v {
			switch p := part.(type) {
			case string:
				b.WriteString(p)
			case TextPart:
				b.WriteString(p.Text)
			case *TextPart:
				if p != nil {
					b.WriteString(p.Text)
				}
			case map[string]any:
				if text, ok := textOf(p); ok {
					b.WriteString(text)
				}
			}
		}
		return b.String()
	}
	return fmt.Sprint(raw)
}

func textOf(m map[string]any) (string, bool) {
	text, ok := m["text"].(string)
	return text, ok
}
