package wardrobe

import (
	"strings"
	"testing"

	"github.com/raine/wardrobe-editorial/internal/mapping"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	n := NewNormalizer(nil)

	tests := []struct {
		name      string
		input     string
		want      []string
		wantNotes int
	}{
		{
			name:  "brand with garment description keeps qualifiers",
			input: "tênis Vans branco",
			want:  []string{"Tênis casual de lona de sola reta - branco"},
		},
		{
			name:  "longest brand pattern wins",
			input: "adidas samba branco",
			want:  []string{"Tênis retrô de perfil baixo - branco"},
		},
		{
			name:  "order and dedup",
			input: "Vans, vans, Converse",
			want:  []string{"Tênis casual de lona de sola reta", "Tênis de lona de cano alto"},
		},
		{
			name:      "brand only item is dropped with a note",
			input:     "Gucci, calça jeans",
			want:      []string{"Calça jeans"},
			wantNotes: 1,
		},
		{
			name:  "brand only brand is removed from the item",
			input: "bolsa de couro da Prada",
			want:  []string{"Bolsa de couro"},
		},
		{
			name:  "slang and color",
			input: "cropped pink; moletinho mescla",
			want:  []string{"Top curto rosa", "Moletom leve cinza"},
		},
		{
			name:  "only one color substitution per item",
			input: "bolsa pink e cinto camel",
			want:  []string{"Bolsa pink e cinto caramelo"},
		},
		{
			name:  "emoji whitespace and casing",
			input: "  CAMISA   branca 👕✨ ,\n\n| blazer PRETO!!! ",
			want:  []string{"Camisa branca", "Blazer preto"},
		},
		{
			name:      "too short items are dropped",
			input:     "x, saia midi",
			want:      []string{"Saia midi"},
			wantNotes: 1,
		},
		{
			name:  "empty input",
			input: "",
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.Normalize(tt.input)
			assert.Equal(t, tt.want, got.Normalized)
			assert.Len(t, got.Notes, tt.wantNotes)
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	n := NewNormalizer(nil)
	inputs := []string{
		"tênis Vans branco, calça jeans escuro, jaqueta jeans",
		"Vans, vans, Converse",
		"adidas samba branco; cropped pink | moletinho mescla",
		"bolsa pink e cinto camel, camisa azul marinho, all black",
		"Nike Air Force branco com detalhe pink, Havaianas, mom jeans",
		"levi's 501 azul escuro, ray-ban aviador, camisetão off white",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			first := n.Normalize(input)
			second := n.Normalize(strings.Join(first.Normalized, ", "))
			assert.Equal(t, first.Normalized, second.Normalized)
			assert.Empty(t, second.Notes)
		})
	}
}

func TestNormalize_EliminatesEveryBrand(t *testing.T) {
	n := NewNormalizer(nil)
	brands := mapping.Default().Brands

	for _, e := range brands.Entries() {
		input := "camiseta " + strings.ToUpper(e.Pattern) + " preta"
		got := n.Normalize(input)
		for _, item := range got.Normalized {
			assert.False(t, brands.Contains(item), "%q normalized to %q", input, item)
		}
	}
}

func TestNormalize_ItemsAreCapitalizedAndNonEmpty(t *testing.T) {
	got := NewNormalizer(nil).Normalize("tênis Vans branco, calça jeans escuro, jaqueta jeans")
	require.Len(t, got.Normalized, 3)
	for _, item := range got.Normalized {
		require.NotEmpty(t, item)
		first := []rune(item)[0]
		assert.Equal(t, strings.ToUpper(string(first)), string(first))
		assert.NotContains(t, item, ",")
	}
}

func TestNormalize_CustomTables(t *testing.T) {
	set := mapping.NewSet(
		map[string]string{"acme": "jaqueta corta-vento"},
		map[string]string{"corta vento": "jaqueta corta-vento"},
		map[string]string{"azulão": "azul"},
	)
	got := NewNormalizer(set).Normalize("Acme azulão, corta vento")
	assert.Equal(t, []string{"Jaqueta corta-vento - azul", "Jaqueta corta-vento"}, got.Normalized)
}
