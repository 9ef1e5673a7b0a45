package editorial

import (
	"encoding/json"
	"regexp"
	"strings"
)

var codeFence = regexp.MustCompile("```[A-Za-z0-9_-]*")

// StripCodeFences removes Markdown code fence delimiters from s.
func StripCodeFences(s string) string {
	return strings.TrimSpace(codeFence.ReplaceAllString(s, ""))
}

// Extract recovers one JSON object from model text. Fences are stripped, the
// text is parsed as is, and failing that the span from the first '{' to the
// last '}' is parsed. Text without a parseable brace span fails with
// no_json_in_response; JSON that is not an object fails with malformed_json.
func Extract(text string) (map[string]any, error) {
	cleaned := StripCodeFences(text)
	if cleaned == "" {
		return nil, NewError(KindNoJSONInResponse, "empty model response")
	}

	var direct any
	directErr := json.Unmarshal([]byte(cleaned), &direct)
	if directErr == nil {
		if obj, ok := direct.(map[string]any); ok {
			return obj, nil
		}
	}

	candidate, ok := braceSpan(cleaned)
	if !ok {
		if directErr == nil {
			return nil, Errorf(KindMalformedJSON, "model returned JSON %s, expected an object", jsonType(direct))
		}
		return nil, NewError(KindNoJSONInResponse, "no JSON object found in model response")
	}

	var value any
	if err := json.Unmarshal([]byte(candidate), &value); err != nil {
		return nil, Wrap(KindNoJSONInResponse, "could not parse JSON object from model response", err)
	}
	obj, ok := value.(map[string]any)
	if !ok {
		return nil, Errorf(KindMalformedJSON, "model returned JSON %s, expected an object", jsonType(value))
	}
	return obj, nil
}

func braceSpan(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

func jsonType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "array"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	default:
		return "object"
	}
}
