//go:build !gosseract

package app

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/affidavit-tracker/internal/common"
)

func TestNewOCREngine_GosseractNeedsBuildTag(t *testing.T) {
	eng, err := NewOCREngine(common.OCRConfig{Engine: "gosseract", DPI: 300}, nil)
	assert.ErrorIs(t, err, ErrEngineNotCompiled)
	assert.Nil(t, eng)
}
