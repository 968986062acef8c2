package ports

// ProgressSnapshot captures the state of an evaluation run after one
// datapoint has finished. Means hold the running average per criterion over
// the datapoints completed so far.
type ProgressSnapshot struct {
	// Completed counts finished datapoints, including the one that
	// produced this snapshot.
	Completed int

	// Total is the dataset size.
	Total int

	// Means maps criterion name to its running mean score.
	Means map[string]float64

	// LastOutput is a short preview of the most recent output.
	LastOutput string
}

// ProgressReporter receives run lifecycle events. Implementations must be
// safe for use from the run coordinator goroutine; the engine never calls a
// reporter concurrently with itself.
type ProgressReporter interface {
	// Start announces a run over total datapoints.
	Start(runID string, total int)

	// Update reports one completed datapoint.
	Update(snapshot ProgressSnapshot)

	// Finish announces run completion. err is non-nil when the run aborted.
	Finish(runID string, err error)
}

// NopProgressReporter ignores all events. It is the default reporter for
// non-verbose runs.
type NopProgressReporter struct{}

func (NopProgressReporter) Start(string, int)       {}
func (NopProgressReporter) Update(ProgressSnapshot) {}
func (NopProgressReporter) Finish(string, error)    {}
