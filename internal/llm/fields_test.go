package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/affidavit-tracker/internal/entity"
)

func TestApplyUserFields(t *testing.T) {
	fields, err := ParseResponse("```json\n" + `{
  "name": "Ramesh Kumar",
  "guardians_name": "Suresh Kumar",
  "age": 45,
  "address": "Ward 4, Patna, Bihar",
  "phone": "null",
  "party": "Independent"
}` + "\n```")
	require.NoError(t, err)

	var rec entity.ExtractionRecord
	dropped := ApplyUserFields(fields, &rec, nil)

	require.NotNil(t, rec.Name)
	assert.Equal(t, "Ramesh Kumar", *rec.Name)
	require.NotNil(t, rec.GuardiansName)
	assert.Equal(t, "Suresh Kumar", *rec.GuardiansName)
	require.NotNil(t, rec.Age)
	assert.Equal(t, "45", *rec.Age)
	require.NotNil(t, rec.Address)
	assert.Equal(t, "Ward 4, Patna, Bihar", *rec.Address)
	assert.Nil(t, rec.Phone)
	assert.Equal(t, []string{"party(unknown)"}, dropped)
}

func TestApplyUserFields_Coercion(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  *string
	}{
		{name: "json null", value: nil, want: nil},
		{name: "empty", value: "   ", want: nil},
		{name: "null literal", value: "NULL", want: nil},
		{name: "integer", value: 45.0, want: strPtr("45")},
		{name: "decimal", value: 45.5, want: strPtr("45.5")},
		{name: "trimmed", value: "  Sita Devi ", want: strPtr("Sita Devi")},
		{name: "array", value: []any{"9876543210", "9123456780"}, want: strPtr("9876543210, 9123456780")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := entity.ExtractionRecord{Name: strPtr("previous")}
			ApplyUserFields(map[string]any{"name": tt.value}, &rec, nil)
			assert.Equal(t, tt.want, rec.Name)
		})
	}
}

func TestApplyUserFields_ObjectValueDropped(t *testing.T) {
	rec := entity.ExtractionRecord{Address: strPtr("old")}
	dropped := ApplyUserFields(map[string]any{"address": map[string]any{"city": "Patna"}}, &rec, nil)
	assert.Nil(t, rec.Address)
	assert.Equal(t, []string{"address(type)"}, dropped)
}

func TestApplyUserFields_EmptyReplyLeavesNulls(t *testing.T) {
	var rec entity.ExtractionRecord
	dropped := ApplyUserFields(map[string]any{}, &rec, nil)
	assert.Empty(t, dropped)
	assert.Equal(t, entity.ExtractionRecord{}, rec)
}

func strPtr(s string) *string { return &s }
