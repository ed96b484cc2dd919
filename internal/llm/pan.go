package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/affidavit-tracker/internal/entity"
)

// rePAN is the Permanent Account Number shape: AAAAA9999A.
var rePAN = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)

// NormalizePAN trims whitespace and quotes, upper-cases, and reports whether
// the result is a well-formed PAN. Missing values and the literal "null" are
// never valid.
func NormalizePAN(raw any) (string, bool) {
	if raw == nil {
		return "", false
	}
	var s string
	switch t := raw.(type) {
	case string:
		s = t
	default:
		s = fmt.Sprint(t)
	}
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") {
		return "", false
	}
	s = strings.ToUpper(strings.TrimSpace(strings.Trim(s, `"'`)))
	if !rePAN.MatchString(s) {
		return "", false
	}
	return s, true
}

// coerceConfidence turns a reported score into a float in [0,1]; anything
// unparsable is 0.
func coerceConfidence(raw any) float64 {
	var f float64
	switch t := raw.(type) {
	case float64:
		f = t
	case json.Number:
		v, err := t.Float64()
		if err != nil {
			return 0
		}
		f = v
	case string:
		v, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		f = v
	default:
		return 0
	}
	switch {
	case f != f: // NaN
		return 0
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}

// ApplyPAN validates the PAN reply and writes pan and pan_confidence onto rec.
// An absent or malformed PAN forces pan=nil and confidence=0 regardless of
// what the model reported. It never fails.
//
// A well-formed PAN is not always kept: when its confidence is missing,
// unparsable, negative or 0, the PAN is dropped (pan=nil) instead of being
// returned with confidence 0. This keeps pan nil exactly when confidence is 0.
// Any positive confidence is preserved as reported, clamped to 1.
func ApplyPAN(fields map[string]any, rec *entity.ExtractionRecord) {
	confidence := coerceConfidence(fields["confidence_score"])

	pan, ok := NormalizePAN(fields["pan"])
	if !ok || confidence == 0 {
		rec.PAN = nil
		rec.PANConfidence = 0
		return
	}
	rec.PAN = &pan
	rec.PANConfidence = confidence
}

// ClearPAN applies the null PAN default (used when the PAN task failed outright).
func ClearPAN(rec *entity.ExtractionRecord) {
	rec.PAN = nil
	rec.PANConfidence = 0
}

// ErrInvalidPAN marks a PAN reply that named a value but failed validation.
var ErrInvalidPAN = errors.New("pan failed validation")

// PANReported reports whether the reply carried a non-null pan value at all.
func PANReported(fields map[string]any) bool {
	v, ok := fields["pan"]
	if !ok || v == nil {
		return false
	}
	s, isStr := v.(string)
	return !isStr || (strings.TrimSpace(s) != "" && !strings.EqualFold(strings.TrimSpace(s), "null"))
}
