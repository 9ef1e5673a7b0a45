package editorial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateStructure(t *testing.T) {
	required := VariantEditorial.RequiredKeys()

	t.Run("all keys present with extras", func(t *testing.T) {
		candidate := map[string]any{
			"profile":   map[string]any{"style": "minimal"},
			"editorial": "anything goes here",
			"extra":     []any{1},
		}
		p, err := ValidateStructure(candidate, required)
		require.NoError(t, err)
		assert.Equal(t, Payload(candidate), p)
	})

	t.Run("missing key", func(t *testing.T) {
		_, err := ValidateStructure(map[string]any{"profile": map[string]any{}}, required)
		require.Error(t, err)
		assert.Equal(t, KindIncompleteStructure, KindOf(err))
		assert.Contains(t, err.Error(), "editorial")
	})

	t.Run("null key counts as missing", func(t *testing.T) {
		_, err := ValidateStructure(map[string]any{"profile": nil, "editorial": map[string]any{}}, required)
		assert.Equal(t, KindIncompleteStructure, KindOf(err))
	})

	t.Run("nil candidate", func(t *testing.T) {
		_, err := ValidateStructure(nil, required)
		assert.Equal(t, KindIncompleteStructure, KindOf(err))
	})
}

func TestPolicyRejection(t *testing.T) {
	assert.Equal(t, KindSelfieNotAllowed, KindOf(PolicyRejection(map[string]any{"error": "selfie_not_allowed"})))
	assert.Equal(t, KindContentNotAllowed, KindOf(PolicyRejection(map[string]any{"error": " CONTENT_NOT_ALLOWED "})))
	assert.NoError(t, PolicyRejection(map[string]any{"error": "something else"}))
	assert.NoError(t, PolicyRejection(map[string]any{"profile": map[string]any{}}))
	assert.NoError(t, PolicyRejection(map[string]any{"error": map[string]any{"code": 1}}))
}
