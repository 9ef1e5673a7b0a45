package editorial

import (
	"strings"
)

// ValidateStructure checks that every required key is present and non-null
// at the top level of candidate. Nested shapes are not inspected.
func ValidateStructure(candidate map[string]any, required []string) (Payload, error) {
	if candidate == nil {
		return nil, NewError(KindIncompleteStructure, "empty result")
	}
	var missing []string
	for _, key := range required {
		if v, ok := candidate[key]; !ok || v == nil {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, Errorf(KindIncompleteStructure, "missing required keys: %s", strings.Join(missing, ", "))
	}
	return Payload(candidate), nil
}

// PolicyRejection maps a model answer of the form {"error": "<kind>"} to the
// matching policy failure. Any other object, including one whose error value
// is not a policy kind, yields nil and is left to structural validation.
func PolicyRejection(candidate map[string]any) error {
	raw, ok := candidate["error"].(string)
	if !ok {
		return nil
	}
	switch kind := Kind(strings.ToLower(strings.TrimSpace(raw))); kind {
	case KindSelfieNotAllowed:
		return NewError(kind, "references look like a selfie")
	case KindContentNotAllowed:
		return NewError(kind, "references were rejected by the content policy")
	default:
		return nil
	}
}
