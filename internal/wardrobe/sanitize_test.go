package wardrobe

import (
	"testing"

	"github.com/raine/wardrobe-editorial/internal/mapping"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	s := NewSanitizer(nil)

	got := s.Sanitize([]string{
		"Tênis Vans branco",
		"Blazer de alfaiataria preto",
		"Bolsa Louis Vuitton",
		"Gucci",
		"calça de moletom da Nike",
	})

	assert.Equal(t, []string{
		"Tênis casual de lona de sola reta, branco",
		"Blazer de alfaiataria preto",
		"Bolsa",
		"calça de moletom",
	}, got)
}

func TestSanitize_SeveralBrandsInOneItem(t *testing.T) {
	s := NewSanitizer(nil)

	got := s.Sanitize([]string{"Vans, vans, Converse"})
	require.Len(t, got, 1)
	assert.Equal(t, "Tênis de lona de cano alto, tênis casual de lona de sola reta, tênis casual de lona de sola reta", got[0])

	got = s.Sanitize([]string{"Camisa Lacoste com tênis Vans"})
	require.Len(t, got, 1)
	assert.Contains(t, got[0], "tênis casual de lona de sola reta")
	assert.False(t, mapping.Default().Brands.Contains(got[0]))
}

func TestSanitize_EliminatesEveryBrand(t *testing.T) {
	s := NewSanitizer(nil)
	brands := mapping.Default().Brands

	for _, e := range brands.Entries() {
		input := "Camiseta " + e.Pattern + " preta"
		for _, item := range s.Sanitize([]string{input}) {
			assert.False(t, brands.Contains(item), "%q sanitized to %q", input, item)
		}
	}
}

func TestSanitizeText(t *testing.T) {
	s := NewSanitizer(nil)

	assert.Equal(t,
		"Combine um tênis retrô de perfil baixo com uma jaqueta de couro.",
		s.SanitizeText("Combine um Adidas Samba com uma jaqueta de couro Zara."))
	assert.Equal(t, "Um look sem marcas.", s.SanitizeText("Um look sem marcas."))
}

func TestSanitizeText_SparesWordsContainingBrands(t *testing.T) {
	s := NewSanitizer(nil)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"english adverb", "Conversely, this basics look works.", "Conversely, this basics look works."},
		{"portuguese verb", "Que as peças conversem entre si.", "Que as peças conversem entre si."},
		{"whole word is replaced", "Conversely, um Converse preto.", "Conversely, um tênis de lona de cano alto preto."},
		{"hyphenated brand is removed", "Um visual asics-style.", "Um visual -style."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.SanitizeText(tt.input))
		})
	}
}

func TestSanitizePayload(t *testing.T) {
	s := NewSanitizer(nil)
	payload := map[string]any{
		"profile": map[string]any{
			"style":    "Minimalismo à la Zara",
			"keywords": []any{"clean", "neutro"},
		},
		"editorial": map[string]any{
			"looks": []any{
				map[string]any{
					"name":  "Fim de semana",
					"items": []any{"Tênis Vans branco", "Chanel", "Calça reta"},
				},
			},
			"score": 7.5,
		},
	}

	got := s.SanitizePayload(payload)

	profile := got["profile"].(map[string]any)
	assert.Equal(t, "Minimalismo à la", profile["style"])
	assert.Equal(t, []any{"clean", "neutro"}, profile["keywords"])

	looks := got["editorial"].(map[string]any)["looks"].([]any)
	require.Len(t, looks, 1)
	look := looks[0].(map[string]any)
	assert.Equal(t, []any{"Tênis casual de lona de sola reta, branco", "Calça reta"}, look["items"])
	assert.Equal(t, 7.5, got["editorial"].(map[string]any)["score"])

	// input untouched
	assert.Equal(t, "Minimalismo à la Zara", payload["profile"].(map[string]any)["style"])
	assert.Nil(t, s.SanitizePayload(nil))
}
