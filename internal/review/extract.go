package review

import (
	"encoding/json"
	"strings"

	"reviewero/internal/apperr"
)

// ExtractArray pulls a JSON array of strings out of free-form model output.
// The candidate spans from the first '[' to the last ']' inclusive, so
// commentary around the array is ignored. Any other shape is a Generic error.
func ExtractArray(text string) ([]string, error) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end < start {
		return nil, invalidArray()
	}

	var raw []any
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil, invalidArray()
	}

	lines := make([]string, 0, len(raw))
	for _, v := range raw {
		s, ok := v.(string)
		if !ok {
			return nil, invalidArray()
		}
		lines = append(lines, s)
	}
	return lines, nil
}

func invalidArray() *apperr.Error {
	return apperr.Generic(apperr.ServiceGemini, "Gemini did not return a valid array of strings.")
}
