package ports

import (
	"context"

	"github.com/quillml/quill/internal/domain"
)

// RunRecorder persists completed evaluation runs. The engine calls it at
// most once per successful run and functions correctly with a no-op
// recorder; no serialization format is mandated by the core.
type RunRecorder interface {
	// Save records a completed run. The record is caller-owned after the
	// run returns, so implementations must not retain mutable references
	// past the call.
	Save(ctx context.Context, run *domain.EvaluationRun) error
}

// NopRecorder discards every run. It is the default recorder.
type NopRecorder struct{}

// Save implements RunRecorder by doing nothing.
func (NopRecorder) Save(context.Context, *domain.EvaluationRun) error { return nil }
