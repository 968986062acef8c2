package application

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/chainguard-dev/clog"

	"github.com/quillml/quill/internal/ports"
)

// Compile-time check that logReporter satisfies the reporter port.
var _ ports.ProgressReporter = (*logReporter)(nil)

// logReporter emits structured progress logs for verbose runs using the
// logger carried by the run's context.
type logReporter struct {
	log        *clog.Logger
	evaluation string
}

// newLogReporter builds a reporter bound to the context's logger.
func newLogReporter(ctx context.Context, evaluation string) *logReporter {
	return &logReporter{
		log:        clog.FromContext(ctx).With("evaluation", evaluation),
		evaluation: evaluation,
	}
}

func (r *logReporter) Start(runID string, total int) {
	r.log.With("run_id", runID).
		With("datapoints", total).
		Info("Starting evaluation run")
}

func (r *logReporter) Update(snapshot ports.ProgressSnapshot) {
	r.log.With("completed", snapshot.Completed).
		With("total", snapshot.Total).
		With("means", formatMeans(snapshot.Means)).
		With("last_output", snapshot.LastOutput).
		Info("Datapoint evaluated")
}

func (r *logReporter) Finish(runID string, err error) {
	if err != nil {
		r.log.With("run_id", runID).
			With("error", err).
			Error("Evaluation run failed")
		return
	}
	r.log.With("run_id", runID).Info("Evaluation run complete")
}

// formatMeans renders running means deterministically for log output.
func formatMeans(means map[string]float64) string {
	if len(means) == 0 {
		return "none"
	}

	names := make([]string, 0, len(means))
	for name := range means {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%.4f", name, means[name]))
	}
	return strings.Join(parts, " ")
}
