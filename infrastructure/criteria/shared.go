// Package criteria provides the built-in scoring criteria that ship with
// the evaluation engine: deterministic string matchers and output-shape
// measures that need no model calls.
package criteria

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
)

// Common errors returned by built-in criteria.
var (
	// ErrEmptyCriterionName is returned when a criterion is created without a name.
	ErrEmptyCriterionName = errors.New("criterion name cannot be empty")

	// ErrMissingExpected is returned when a criterion needs a ground-truth
	// value but the datapoint carries none.
	ErrMissingExpected = errors.New("datapoint has no expected value")
)

// Package-level validator instance for configuration validation.
var validate = validator.New()

// foldCaser is a package-level Unicode case folder shared by all matchers.
// This avoids creating a new caser for each comparison.
var foldCaser = cases.Fold()

// outputString renders a program output for string comparison.
// String outputs pass through; anything else uses its default formatting.
func outputString(output any) string {
	if s, ok := output.(string); ok {
		return s
	}
	if b, ok := output.([]byte); ok {
		return string(b)
	}
	return fmt.Sprintf("%v", output)
}
