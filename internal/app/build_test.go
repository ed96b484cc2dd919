package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/affidavit-tracker/internal/common"
	"github.com/joseph-ayodele/affidavit-tracker/internal/llm/openai"
	"github.com/joseph-ayodele/affidavit-tracker/internal/ocr"
)

func TestNewOCREngine(t *testing.T) {
	eng, err := NewOCREngine(common.OCRConfig{Engine: "tesseract", DPI: 300}, nil)
	require.NoError(t, err)
	assert.IsType(t, &ocr.TesseractEngine{}, eng)

	_, err = NewOCREngine(common.OCRConfig{Engine: "easyocr"}, nil)
	assert.Error(t, err)
}

func TestNewVisionModel(t *testing.T) {
	m, err := NewVisionModel(context.Background(), common.LLMConfig{Provider: "openai", APIKey: "sk-test", Timeout: time.Second}, nil)
	require.NoError(t, err)
	assert.IsType(t, &openai.Client{}, m)

	_, err = NewVisionModel(context.Background(), common.LLMConfig{Provider: "claude"}, nil)
	assert.Error(t, err)
}

func TestStoreConfig(t *testing.T) {
	rc := StoreConfig(common.DatabaseConfig{Driver: "sqlite", DSN: "x.db", MaxConns: 4})
	assert.Equal(t, "sqlite", rc.Driver)
	assert.Equal(t, "x.db", rc.DSN)
	assert.Equal(t, int32(4), rc.MaxConns)
}
