package entity

import (
	"time"

	"github.com/google/uuid"
)

// ExtractionRecord is the merged output of one pipeline run. Every field is
// nullable; PANConfidence is 0 whenever PAN is nil.
type ExtractionRecord struct {
	Name          *string `json:"name"`
	GuardiansName *string `json:"guardians_name"`
	Age           *string `json:"age"`
	Address       *string `json:"address"`
	Phone         *string `json:"phone"`
	PAN           *string `json:"pan"`
	PANConfidence float64 `json:"pan_confidence"`
}

// StoredRecord is an ExtractionRecord persisted by the collaborator layer.
type StoredRecord struct {
	ID             uuid.UUID `json:"id"`
	SourceFilename string    `json:"source_filename"`
	ExtractionRecord
	CreatedAt time.Time `json:"created_at"`
}

// StrOrEmpty dereferences p, returning "" for nil.
func StrOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
