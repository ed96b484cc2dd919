package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckContract_UserFields(t *testing.T) {
	ok := map[string]any{"name": "Ram", "guardians_name": nil, "age": 45.0, "address": "Patna", "phone": nil}
	assert.NoError(t, CheckContract(TaskUserFields, ok))

	extra := map[string]any{"name": "Ram", "guardians_name": nil, "age": "45", "address": nil, "phone": nil, "party": "X"}
	assert.Error(t, CheckContract(TaskUserFields, extra))

	missing := map[string]any{"name": "Ram"}
	assert.Error(t, CheckContract(TaskUserFields, missing))
}

func TestCheckContract_PAN(t *testing.T) {
	assert.NoError(t, CheckContract(TaskPANFields, map[string]any{"pan": "ABCDE1234F", "confidence_score": 0.9}))
	assert.NoError(t, CheckContract(TaskPANFields, map[string]any{"pan": nil, "confidence_score": 0.0}))
	assert.Error(t, CheckContract(TaskPANFields, map[string]any{"pan": "ABCDE1234F", "confidence_score": 1.2}))
	assert.Error(t, CheckContract(TaskPANFields, map[string]any{"pan": "ABC", "confidence_score": 0.5}))
}
