package domain

import (
	"fmt"
	"maps"
	"slices"
)

// ScoreFunc is a pure scoring function applied to a (datapoint, output)
// pair. Scores must be finite; an error fails the datapoint and aborts
// the run.
type ScoreFunc func(dp Datapoint, output any) (float64, error)

// Criterion is a named scoring function. Criteria are keyed by name within
// an evaluation, so names must be unique and non-empty.
type Criterion interface {
	// Name returns the unique identifier for this criterion.
	Name() string

	// Score evaluates one LMP output against its datapoint.
	Score(dp Datapoint, output any) (float64, error)
}

// criterionFunc adapts a plain ScoreFunc into a named Criterion.
type criterionFunc struct {
	name string
	fn   ScoreFunc
}

// NewCriterion wraps fn into a Criterion with the given name.
func NewCriterion(name string, fn ScoreFunc) Criterion {
	return &criterionFunc{name: name, fn: fn}
}

func (c *criterionFunc) Name() string { return c.name }

func (c *criterionFunc) Score(dp Datapoint, output any) (float64, error) {
	return c.fn(dp, output)
}

// Criteria is a validated name-to-criterion mapping. Every value is
// callable and every key is a non-empty identifier.
type Criteria map[string]Criterion

// NewCriteria validates a name-to-function mapping into a Criteria set.
// A nil function or an empty name fails validation, with the error naming
// the offending key.
func NewCriteria(funcs map[string]ScoreFunc) (Criteria, error) {
	criteria := make(Criteria, len(funcs))
	verr := NewValidationError("criteria")

	for name, fn := range funcs {
		if name == "" {
			verr.AddError("criterion name cannot be empty")
			continue
		}
		if fn == nil {
			verr.AddError(fmt.Sprintf("criterion %q must be callable, got %T", name, fn))
			continue
		}
		criteria[name] = NewCriterion(name, fn)
	}

	if verr.HasErrors() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCriterion, verr)
	}
	return criteria, nil
}

// CriteriaFromList validates an ordered list of named criteria into a
// Criteria set. Anonymous entries (empty name) are rejected with an error
// identifying the offending value's type; later duplicates overwrite
// earlier ones, so callers must avoid name collisions unless intentional.
func CriteriaFromList(list []Criterion) (Criteria, error) {
	criteria := make(Criteria, len(list))

	for i, crit := range list {
		if crit == nil {
			return nil, fmt.Errorf("%w: element %d is %T", ErrInvalidCriterion, i, crit)
		}
		if crit.Name() == "" {
			return nil, fmt.Errorf("%w: element %d (%T)", ErrAnonymousCriterion, i, crit)
		}
		criteria[crit.Name()] = crit
	}

	return criteria, nil
}

// Names returns the criterion names in sorted order for deterministic
// iteration.
func (c Criteria) Names() []string {
	return slices.Sorted(maps.Keys(c))
}

// Validate checks that the set still satisfies the Criteria invariants.
// It exists so callers mutating a set by hand can re-establish the
// contract before running.
func (c Criteria) Validate() error {
	verr := NewValidationError("criteria")
	for name, crit := range c {
		if name == "" {
			verr.AddError("criterion name cannot be empty")
		}
		if crit == nil {
			verr.AddError(fmt.Sprintf("criterion %q must be callable", name))
		}
	}
	if verr.HasErrors() {
		return fmt.Errorf("%w: %s", ErrInvalidCriterion, verr)
	}
	return nil
}
