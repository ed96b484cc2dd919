package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResponse_FencedAndBareAgree(t *testing.T) {
	bare := `{"pan": "ABCDE1234F", "confidence_score": 0.92}`
	variants := map[string]string{
		"bare":            bare,
		"json fence":      "```json\n" + bare + "\n```",
		"upper fence":     "```JSON\n" + bare + "\n```",
		"plain fence":     "```\n" + bare + "\n```",
		"prose around":    "Here is the result:\n" + bare + "\nLet me know if you need more.",
		"leading newline": "\n\n" + bare,
	}

	want, err := ParseResponse(bare)
	require.NoError(t, err)

	for name, raw := range variants {
		t.Run(name, func(t *testing.T) {
			got, err := ParseResponse(raw)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestParseResponse_EmptyInput(t *testing.T) {
	for _, raw := range []string{"", "   ", "\n\t \n"} {
		got, err := ParseResponse(raw)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	}
}

func TestParseResponse_NoObject(t *testing.T) {
	_, err := ParseResponse("I could not find any PAN on this page.")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedResponse))
}

func TestParseResponse_InvalidJSON(t *testing.T) {
	_, err := ParseResponse("```json\n{\"name\": \"Ram\",}\n```")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrMalformedResponse))
	assert.Contains(t, err.Error(), "decode model json")
}

func TestParseResponse_GreedySpan(t *testing.T) {
	// first '{' to last '}' includes nested objects
	got, err := ParseResponse(`result: {"address": {"city": "Patna"}, "name": null}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"address": map[string]any{"city": "Patna"}, "name": nil}, got)
}
