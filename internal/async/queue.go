// Package async bounds how many pipeline runs execute at once.
package async

import (
	"context"
	"errors"
	"time"

	"github.com/joseph-ayodele/affidavit-tracker/internal/pipeline"
)

// ErrQueueClosed is returned by Process once Shutdown has begun.
var ErrQueueClosed = errors.New("processing queue is shut down")

// Processor is what a worker runs for each job.
type Processor interface {
	Process(ctx context.Context, path string) (pipeline.Result, error)
}

// Job is one queued pipeline run. The submitter waits on reply.
type Job struct {
	Ctx         context.Context
	Path        string
	SubmittedAt time.Time
	TraceID     string
	reply       chan outcome
}

type outcome struct {
	res pipeline.Result
	err error
}
