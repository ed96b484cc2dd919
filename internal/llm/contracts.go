package llm

import (
	"context"
	"fmt"
)

// Image is a single page image handed to the model.
type Image struct {
	Data     []byte
	MIMEType string // e.g. "image/png"
}

// VisionModel is the multimodal collaborator: one prompt plus one image in,
// unstructured text out. Implementations live in llm/gemini and llm/openai.
type VisionModel interface {
	Generate(ctx context.Context, prompt string, img Image) (string, error)
}

// Task identifies which extraction request a call belongs to.
type Task string

const (
	TaskUserFields Task = "user_fields"
	TaskPANFields  Task = "pan_fields"
)

// ExtractionCallError wraps a transport or model failure for one task.
// The pipeline absorbs it and leaves the task's fields null.
type ExtractionCallError struct {
	Task Task
	Err  error
}

func (e *ExtractionCallError) Error() string {
	return fmt.Sprintf("extraction call %s: %v", e.Task, e.Err)
}

func (e *ExtractionCallError) Unwrap() error { return e.Err }
