package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvaluationRun(t *testing.T) {
	dataset := Dataset{
		{Input: NamedInput(map[string]any{"name": "Ann"})},
		{Input: NamedInput(map[string]any{"name": "Bo"})},
	}
	params := APIParams{"temperature": 0.2}

	run := NewEvaluationRun(dataset, params)

	t.Run("fresh record", func(t *testing.T) {
		assert.NotEmpty(t, run.ID)
		assert.False(t, run.StartTime.IsZero())
		assert.True(t, run.EndTime.IsZero())
		assert.False(t, run.Completed())
		assert.Empty(t, run.Outputs)
		assert.Empty(t, run.Scores)
	})

	t.Run("params are copied", func(t *testing.T) {
		params["temperature"] = 0.9
		assert.Equal(t, 0.2, run.APIParams["temperature"])
	})

	t.Run("inputs projection follows dataset order", func(t *testing.T) {
		inputs := run.Inputs()
		require.Len(t, inputs, 2)
		name, _ := inputs[0].Field("name")
		assert.Equal(t, "Ann", name)
	})

	t.Run("ids are unique per run", func(t *testing.T) {
		other := NewEvaluationRun(dataset, nil)
		assert.NotEqual(t, run.ID, other.ID)
	})
}

func TestEvaluationRunStats(t *testing.T) {
	run := NewEvaluationRun(nil, nil)
	run.Scores["length"] = []float64{3, 2}

	t.Run("mean over recorded scores", func(t *testing.T) {
		mean, ok := run.Mean("length")
		require.True(t, ok)
		assert.InDelta(t, 2.5, mean, 1e-9)
	})

	t.Run("missing criterion has no mean", func(t *testing.T) {
		_, ok := run.Mean("absent")
		assert.False(t, ok)
	})

	t.Run("duration requires completion", func(t *testing.T) {
		assert.Equal(t, time.Duration(0), run.Duration())

		run.EndTime = run.StartTime.Add(250 * time.Millisecond)
		assert.True(t, run.Completed())
		assert.Equal(t, 250*time.Millisecond, run.Duration())
	})
}

func TestAPIParams(t *testing.T) {
	t.Run("merge favors override", func(t *testing.T) {
		defaults := APIParams{"model": "gpt-4o", "temperature": 0.0}
		merged := defaults.Merge(APIParams{"temperature": 0.7})

		assert.Equal(t, "gpt-4o", merged["model"])
		assert.Equal(t, 0.7, merged["temperature"])
		assert.Equal(t, 0.0, defaults["temperature"])
	})

	t.Run("with samples forces the sample count", func(t *testing.T) {
		params := APIParams{}.WithSamples(4)
		assert.Equal(t, 4, params.Samples())
	})

	t.Run("samples defaults to one", func(t *testing.T) {
		assert.Equal(t, 1, APIParams{}.Samples())
		assert.Equal(t, 1, APIParams{SamplesKey: "four"}.Samples())
		assert.Equal(t, 1, APIParams{SamplesKey: 0}.Samples())
	})

	t.Run("clone of nil is usable", func(t *testing.T) {
		var params APIParams
		cloned := params.Clone()
		cloned["k"] = "v"
		assert.Equal(t, "v", cloned["k"])
	})
}
