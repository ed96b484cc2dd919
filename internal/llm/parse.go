package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrMalformedResponse means the model output contained no {...} span at all.
var ErrMalformedResponse = errors.New("no JSON object found in model response")

var (
	reCodeFence = regexp.MustCompile("(?i)```json|```")
	reObject    = regexp.MustCompile(`(?s)\{.*\}`)
)

// ParseResponse isolates and decodes the JSON object in a raw model reply.
// Code fences are stripped and the widest span from the first '{' to the last
// '}' is decoded. Empty input yields an empty map so callers can tell
// "nothing extracted" apart from a malformed reply.
func ParseResponse(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return map[string]any{}, nil
	}

	cleaned := strings.TrimSpace(reCodeFence.ReplaceAllString(raw, ""))
	span := reObject.FindString(cleaned)
	if span == "" {
		return nil, ErrMalformedResponse
	}

	var out map[string]any
	if err := json.Unmarshal([]byte(span), &out); err != nil {
		return nil, fmt.Errorf("decode model json: %w", err)
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}
