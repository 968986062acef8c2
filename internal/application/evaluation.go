// Package application orchestrates evaluation runs, coordinating programs,
// datasets, criteria, and the worker pool that processes datapoints.
package application

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/quillml/quill/internal/domain"
	"github.com/quillml/quill/internal/ports"
)

// validate is the shared validator instance for application configuration.
var validate = validator.New()

// ErrNilProgram indicates Run was called without a program to evaluate.
var ErrNilProgram = errors.New("evaluation: program must not be nil")

// EvaluationConfig declares an evaluation: the dataset to iterate, the
// criteria to score outputs with, and default API parameters applied to
// every run.
type EvaluationConfig struct {
	// Name identifies the evaluation in logs, metrics, and run records.
	Name string `validate:"required,min=1,max=255"`
	// Dataset is the ordered collection of datapoints to evaluate.
	Dataset domain.Dataset `validate:"required"`
	// Criteria maps criterion names to scoring callables. May be empty for
	// output-collection runs that score nothing.
	Criteria domain.Criteria
	// APIParams are default model parameters merged into every run, with
	// run-level parameters taking precedence on conflict.
	APIParams domain.APIParams
}

// RunConfig controls a single invocation of Evaluation.Run.
// The zero value runs sequentially, silently, with one sample per
// datapoint and completion-order accumulation.
type RunConfig struct {
	// Workers bounds concurrent datapoint processing. Values below 1 run
	// sequentially.
	Workers int `validate:"omitempty,min=1,max=1024"`
	// APIParams override the evaluation's default parameters for this run.
	APIParams domain.APIParams
	// Verbose enables per-datapoint progress reporting.
	Verbose bool
	// SamplesPerDatapoint requests multiple generations per datapoint by
	// forcing the "n" API parameter. Values below 1 mean one sample.
	SamplesPerDatapoint int `validate:"omitempty,min=1,max=1000"`
	// PreserveOrder accumulates outputs and scores in dataset order instead
	// of completion order. Completion order is the default because it
	// surfaces results as soon as they exist.
	PreserveOrder bool
}

// Evaluation binds a dataset and criteria into a reusable harness that can
// run any program. A single Evaluation is safe for concurrent runs; each
// run produces an independent record.
type Evaluation struct {
	name          string
	dataset       domain.Dataset
	criteria      domain.Criteria
	defaultParams domain.APIParams

	recorder ports.RunRecorder
	progress ports.ProgressReporter
	metrics  ports.MetricsCollector
	tracer   trace.Tracer
}

// Option customizes optional Evaluation collaborators.
type Option func(*Evaluation)

// WithRecorder installs a recorder invoked once per successful run.
func WithRecorder(recorder ports.RunRecorder) Option {
	return func(e *Evaluation) {
		if recorder != nil {
			e.recorder = recorder
		}
	}
}

// WithProgressReporter replaces the default log-based reporter used by
// verbose runs.
func WithProgressReporter(reporter ports.ProgressReporter) Option {
	return func(e *Evaluation) {
		if reporter != nil {
			e.progress = reporter
		}
	}
}

// WithMetrics installs a collector for run latency, datapoint counters,
// and score distributions.
func WithMetrics(metrics ports.MetricsCollector) Option {
	return func(e *Evaluation) {
		if metrics != nil {
			e.metrics = metrics
		}
	}
}

// WithTracer installs an OpenTelemetry tracer that wraps each run in a span.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Evaluation) {
		if tracer != nil {
			e.tracer = tracer
		}
	}
}

// NewEvaluation validates the configuration and assembles an evaluation
// harness. The dataset and criteria are captured by reference and must not
// be mutated while runs are in flight.
func NewEvaluation(config EvaluationConfig, opts ...Option) (*Evaluation, error) {
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("evaluation configuration invalid: %w", err)
	}

	if len(config.Dataset) == 0 {
		return nil, fmt.Errorf("evaluation %q: %w", config.Name, domain.ErrEmptyDataset)
	}

	if err := config.Criteria.Validate(); err != nil {
		return nil, fmt.Errorf("evaluation %q: %w", config.Name, err)
	}

	e := &Evaluation{
		name:          config.Name,
		dataset:       config.Dataset,
		criteria:      config.Criteria,
		defaultParams: config.APIParams.Clone(),
		recorder:      ports.NopRecorder{},
		metrics:       noopMetrics{},
	}

	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

// Name returns the evaluation's identifier.
func (e *Evaluation) Name() string { return e.name }

// SetCriteria replaces the evaluation's criteria after re-validating them.
// The evaluation is otherwise immutable; this is the one sanctioned mutation
// and must not be called while runs are in flight.
func (e *Evaluation) SetCriteria(criteria domain.Criteria) error {
	if err := criteria.Validate(); err != nil {
		return fmt.Errorf("evaluation %q: %w", e.name, err)
	}
	e.criteria = criteria
	return nil
}

// Run evaluates lmp against every datapoint in the dataset and returns a
// completed run record.
//
// Datapoints are processed by up to cfg.Workers concurrent tasks. Each
// task's outputs and per-criterion scores are accumulated by a single
// coordinator, so accumulation itself needs no locking. The first task
// error cancels all remaining work and fails the run; a failed run returns
// no record.
func (e *Evaluation) Run(ctx context.Context, lmp ports.LMP, cfg RunConfig) (*domain.EvaluationRun, error) {
	if lmp == nil {
		return nil, ErrNilProgram
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("run configuration invalid: %w", err)
	}

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	samples := cfg.SamplesPerDatapoint
	if samples < 1 {
		samples = 1
	}

	params := e.defaultParams.Merge(cfg.APIParams)
	if samples > 1 {
		params = params.WithSamples(samples)
	}

	run := domain.NewEvaluationRun(e.dataset, params)

	if e.tracer != nil {
		var span trace.Span
		ctx, span = e.tracer.Start(ctx, "evaluation.run",
			trace.WithAttributes(
				attribute.String("evaluation.name", e.name),
				attribute.String("run.id", run.ID),
				attribute.String("program.name", lmp.Name()),
				attribute.Int("run.workers", workers),
				attribute.Int("run.samples_per_datapoint", samples),
				attribute.Int("dataset.size", len(e.dataset)),
			),
		)
		defer span.End()
	}

	reporter := e.reporter(ctx, cfg.Verbose)
	reporter.Start(run.ID, len(e.dataset))

	err := e.collect(ctx, lmp, run, params, workers, cfg.PreserveOrder, reporter)
	reporter.Finish(run.ID, err)

	if err != nil {
		e.metrics.RecordCounter("evaluation_runs_failed", 1, map[string]string{"evaluation": e.name})
		return nil, fmt.Errorf("evaluation %q run %s: %w", e.name, run.ID, err)
	}

	run.EndTime = time.Now()

	e.metrics.RecordLatency("evaluation_run", run.Duration(), map[string]string{
		"evaluation": e.name,
		"program":    lmp.Name(),
		"workers":    strconv.Itoa(workers),
	})

	if err := e.recorder.Save(ctx, run); err != nil {
		return nil, fmt.Errorf("evaluation %q run %s: recording failed: %w", e.name, run.ID, err)
	}

	return run, nil
}

// collect fans datapoint tasks out over the worker pool and drains their
// results into the run record.
func (e *Evaluation) collect(
	ctx context.Context,
	lmp ports.LMP,
	run *domain.EvaluationRun,
	params domain.APIParams,
	workers int,
	preserveOrder bool,
	reporter ports.ProgressReporter,
) error {
	results := make(chan taskResult)

	eg, taskCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)

	go func() {
		for i, dp := range e.dataset {
			eg.Go(func() error {
				res, err := processDatapoint(taskCtx, lmp, dp, i, params, e.criteria)
				if err != nil {
					return err
				}
				select {
				case results <- res:
					return nil
				case <-taskCtx.Done():
					return taskCtx.Err()
				}
			})
		}
		// Channel close signals the coordinator that no results remain.
		// The coordinator re-waits on the group to observe the first error.
		_ = eg.Wait()
		close(results)
	}()

	// ordered retains per-datapoint results until all tasks finish, so a
	// preserve-order run can flatten them by dataset index.
	var ordered []taskResult
	if preserveOrder {
		ordered = make([]taskResult, len(e.dataset))
	}

	tracker := newMeanTracker()
	completed := 0

	for res := range results {
		completed++
		tracker.observe(res.scores)

		if preserveOrder {
			ordered[res.index] = res
		} else {
			e.accumulate(run, res)
		}

		e.metrics.RecordCounter("evaluation_datapoints_completed", 1,
			map[string]string{"evaluation": e.name})
		for name, scores := range res.scores {
			for _, score := range scores {
				e.metrics.RecordHistogram("evaluation_criterion_score", score,
					map[string]string{"evaluation": e.name, "criterion": name})
			}
		}

		snapshot := ports.ProgressSnapshot{
			Completed: completed,
			Total:     len(e.dataset),
			Means:     tracker.means(),
		}
		if len(res.outputs) > 0 {
			snapshot.LastOutput = preview(res.outputs[len(res.outputs)-1])
		}
		reporter.Update(snapshot)
	}

	if err := eg.Wait(); err != nil {
		return err
	}

	if preserveOrder {
		for _, res := range ordered {
			e.accumulate(run, res)
		}
	}

	return nil
}

// accumulate appends one task's outputs and scores to the run record.
func (e *Evaluation) accumulate(run *domain.EvaluationRun, res taskResult) {
	run.Outputs = append(run.Outputs, res.outputs...)
	for name, scores := range res.scores {
		run.Scores[name] = append(run.Scores[name], scores...)
	}
}

// reporter selects the progress reporter for one run. Non-verbose runs are
// silent regardless of how the evaluation was configured.
func (e *Evaluation) reporter(ctx context.Context, verbose bool) ports.ProgressReporter {
	if !verbose {
		return ports.NopProgressReporter{}
	}
	if e.progress != nil {
		return e.progress
	}
	return newLogReporter(ctx, e.name)
}

// meanTracker maintains running per-criterion means across completed
// datapoints.
type meanTracker struct {
	sums   map[string]float64
	counts map[string]int
}

func newMeanTracker() *meanTracker {
	return &meanTracker{
		sums:   make(map[string]float64),
		counts: make(map[string]int),
	}
}

func (t *meanTracker) observe(scores map[string][]float64) {
	for name, perOutput := range scores {
		for _, score := range perOutput {
			t.sums[name] += score
			t.counts[name]++
		}
	}
}

func (t *meanTracker) means() map[string]float64 {
	means := make(map[string]float64, len(t.sums))
	for name, sum := range t.sums {
		means[name] = sum / float64(t.counts[name])
	}
	return means
}

// noopMetrics is the default collector when no metrics backend is wired.
type noopMetrics struct{}

func (noopMetrics) RecordLatency(string, time.Duration, map[string]string) {}
func (noopMetrics) RecordCounter(string, float64, map[string]string)       {}
func (noopMetrics) RecordGauge(string, float64, map[string]string)         {}
func (noopMetrics) RecordHistogram(string, float64, map[string]string)     {}
