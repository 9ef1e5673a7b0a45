package editorial

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeResponse(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want string
	}{
		{"plain string", `{"a":1}`, `{"a":1}`},
		{"nil", nil, ""},
		{"single text object", map[string]any{"text": "hello"}, "hello"},
		{"text part value", TextPart{Text: "hi"}, "hi"},
		{"string slice", []string{"a", "b"}, "ab"},
		{
			name: "mixed parts in order",
			raw: []any{
				"Here you go: ",
				map[string]any{"text": `{"a":`},
				TextPart{Text: "1}"},
				map[string]any{"inlineData": "ignored"},
				42,
			},
			want: `Here you go: {"a":1}`,
		},
		{"text parts", []TextPart{{Text: "x"}, {Text: "y"}}, "xy"},
		{"object without text falls back", map[string]any{"n": 1}, "map[n:1]"},
		{"number falls back", 3.5, "3.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeResponse(tt.raw))
		})
	}
}
