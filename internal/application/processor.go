package application

import (
	"context"
	"fmt"
	"math"
	"reflect"

	"github.com/quillml/quill/internal/domain"
	"github.com/quillml/quill/internal/ports"
)

// taskResult carries the outcome of one processed datapoint back to the
// run coordinator.
type taskResult struct {
	// index is the datapoint's position in the dataset, used when the run
	// is configured to preserve dataset order.
	index int
	// outputs holds the program outputs for this datapoint, one element per
	// sample. A single non-slice output is wrapped so outputs is never empty.
	outputs []any
	// scores maps criterion name to one score per element of outputs.
	scores map[string][]float64
}

// processDatapoint invokes the program against one datapoint and scores
// every output against every criterion.
// It rejects datapoints whose input was never parsed, normalizes the
// program's return value into a flat output list, and validates that each
// criterion produced a finite score.
func processDatapoint(
	ctx context.Context,
	lmp ports.LMP,
	dp domain.Datapoint,
	index int,
	params domain.APIParams,
	criteria domain.Criteria,
) (taskResult, error) {
	if dp.Input.Kind() == domain.KindInvalid {
		return taskResult{}, fmt.Errorf("datapoint %d: %w: input is unset", index, domain.ErrInvalidInput)
	}

	raw, err := lmp.Invoke(ctx, dp.Input, params)
	if err != nil {
		return taskResult{}, fmt.Errorf("datapoint %d: program %q: %w", index, lmp.Name(), err)
	}

	outputs := normalizeOutputs(raw)

	scores := make(map[string][]float64, len(criteria))
	for _, name := range criteria.Names() {
		criterion := criteria[name]
		perOutput := make([]float64, 0, len(outputs))
		for _, output := range outputs {
			score, err := criterion.Score(dp, output)
			if err != nil {
				return taskResult{}, fmt.Errorf("datapoint %d: criterion %q: %w", index, name, err)
			}
			if math.IsNaN(score) || math.IsInf(score, 0) {
				return taskResult{}, fmt.Errorf(
					"datapoint %d: criterion %q: %w: %v", index, name, domain.ErrInvalidScore, score)
			}
			perOutput = append(perOutput, score)
		}
		scores[name] = perOutput
	}

	return taskResult{index: index, outputs: outputs, scores: scores}, nil
}

// normalizeOutputs flattens a program's return value into a list of
// outputs, one per generated sample.
// Slices and arrays are expanded element-wise; everything else, including
// strings and byte slices, counts as a single output.
func normalizeOutputs(raw any) []any {
	switch v := raw.(type) {
	case nil:
		return []any{nil}
	case []any:
		return v
	case string, []byte:
		return []any{v}
	}

	rv := reflect.ValueOf(raw)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		outputs := make([]any, rv.Len())
		for i := range rv.Len() {
			outputs[i] = rv.Index(i).Interface()
		}
		return outputs
	}

	return []any{raw}
}

// previewLimit bounds the output excerpt shown in progress updates.
const previewLimit = 10

// preview renders a short excerpt of an output for progress reporting.
// Truncation is rune-aware so multi-byte text never splits mid-character.
func preview(output any) string {
	s := fmt.Sprintf("%v", output)
	runes := []rune(s)
	if len(runes) <= previewLimit {
		return s
	}
	return string(runes[:previewLimit]) + "..."
}
