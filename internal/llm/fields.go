package llm

import (
	"encoding/json"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/affidavit-tracker/internal/entity"
)

// UserFieldKeys are the keys the user-details prompt asks for.
var UserFieldKeys = []string{"name", "guardians_name", "age", "address", "phone"}

// ApplyUserFields copies the recognised user keys from a parsed reply onto rec.
// Numbers are rendered as strings; "", "null" and JSON null become nil.
// It returns the keys that were ignored (unknown keys or unusable values).
func ApplyUserFields(fields map[string]any, rec *entity.ExtractionRecord, logger *slog.Logger) []string {
	if logger == nil {
		logger = slog.Default()
	}
	targets := map[string]**string{
		"name":           &rec.Name,
		"guardians_name": &rec.GuardiansName,
		"age":            &rec.Age,
		"address":        &rec.Address,
		"phone":          &rec.Phone,
	}

	var dropped []string
	for k, v := range fields {
		dst, ok := targets[k]
		if !ok {
			dropped = append(dropped, k+"(unknown)")
			continue
		}
		s, ok := nullableString(v)
		if !ok {
			dropped = append(dropped, k+"(type)")
			*dst = nil
			continue
		}
		*dst = s
	}
	if len(dropped) > 0 {
		slices.Sort(dropped)
		logger.Warn("llm.user_fields.sanitized", "dropped", dropped)
	}
	return dropped
}

// nullableString coerces a decoded JSON value into an optional string.
// The second return is false for values that cannot sensibly be a field (objects).
func nullableString(v any) (*string, bool) {
	var s string
	switch t := v.(type) {
	case nil:
		return nil, true
	case string:
		s = strings.TrimSpace(t)
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		s = t.String()
	case bool:
		s = strconv.FormatBool(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, p := range t {
			if ps, ok := nullableString(p); ok && ps != nil {
				parts = append(parts, *ps)
			}
		}
		s = strings.Join(parts, ", ")
	default:
		return nil, false
	}
	if s == "" || strings.EqualFold(s, "null") {
		return nil, true
	}
	return &s, true
}
