package domain

import (
	"time"

	"github.com/google/uuid"
)

// EvaluationRun is the structured result of one evaluation execution.
// It is mutated only by the owning orchestrator while the run is in
// flight; once returned to the caller it is conceptually frozen and the
// caller is its sole owner.
//
// Outputs and the per-criterion score lists are flattened across all
// datapoints and samples. Unless the run preserved dataset order, both are
// ordered by completion time, so callers must not assume positional
// correspondence between Dataset[i] and Outputs[i].
type EvaluationRun struct {
	// ID uniquely identifies this run.
	ID string `json:"id"`

	// Scores maps each criterion name to the ordered list of per-output
	// scores. Empty when the evaluation has no criteria configured.
	Scores map[string][]float64 `json:"scores,omitempty"`

	// Outputs is the flattened list of all LMP outputs across the dataset.
	Outputs []any `json:"outputs"`

	// Dataset is the dataset the run was executed over.
	Dataset Dataset `json:"dataset"`

	// APIParams holds the merged default and override parameters the LMP
	// was invoked with.
	APIParams APIParams `json:"api_params"`

	// StartTime records when the run began.
	StartTime time.Time `json:"start_time"`

	// EndTime records when the run completed successfully.
	// It stays zero while the run is in flight or after a failed run.
	EndTime time.Time `json:"end_time,omitzero"`
}

// NewEvaluationRun creates a run record with a fresh ID, the current time
// as its start, and empty accumulator state.
func NewEvaluationRun(dataset Dataset, params APIParams) *EvaluationRun {
	return &EvaluationRun{
		ID:        uuid.NewString(),
		Scores:    make(map[string][]float64),
		Outputs:   make([]any, 0, len(dataset)),
		Dataset:   dataset,
		APIParams: params.Clone(),
		StartTime: time.Now(),
	}
}

// Inputs projects the input of every dataset row, in dataset order.
func (r *EvaluationRun) Inputs() []Input { return r.Dataset.Inputs() }

// Completed reports whether the run finished successfully.
func (r *EvaluationRun) Completed() bool { return !r.EndTime.IsZero() }

// Duration returns the wall-clock time of a completed run, or zero for a
// run still in flight.
func (r *EvaluationRun) Duration() time.Duration {
	if !r.Completed() {
		return 0
	}
	return r.EndTime.Sub(r.StartTime)
}

// Mean returns the arithmetic mean of a criterion's scores.
// The second return value is false when the criterion has no scores.
func (r *EvaluationRun) Mean(criterion string) (float64, bool) {
	scores, ok := r.Scores[criterion]
	if !ok || len(scores) == 0 {
		return 0, false
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores)), true
}
