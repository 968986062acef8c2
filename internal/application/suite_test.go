package application

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillml/quill/internal/domain"
	"github.com/quillml/quill/internal/testutils"
)

const capitalsSuiteYAML = `
version: "1.0.0"
metadata:
  name: capitals
  description: Checks capital-city answers against ground truth.
  tags: [geography]
prompt:
  template: "What is the capital of {{.country}}?"
  system: Answer with the city name only.
dataset:
  - input: {country: France}
    expected: Paris
  - input: {country: Italy}
    expected: Rome
criteria:
  - name: exact
    type: exact_match
    parameters:
      case_sensitive: false
      trim_whitespace: true
  - name: close
    type: fuzzy_match
params:
  temperature: 0.0
`

func TestSuiteLoader(t *testing.T) {
	loader, err := NewSuiteLoader(NewDefaultCriterionRegistry())
	require.NoError(t, err)

	t.Run("compiles a full suite", func(t *testing.T) {
		suite, err := loader.LoadFromReader(context.Background(), strings.NewReader(capitalsSuiteYAML))
		require.NoError(t, err)

		assert.Equal(t, "capitals", suite.Name)
		require.Len(t, suite.Dataset, 2)

		country, ok := suite.Dataset[0].Input.Field("country")
		require.True(t, ok)
		assert.Equal(t, "France", country)

		expected, ok := suite.Dataset[1].ExpectedString()
		require.True(t, ok)
		assert.Equal(t, "Rome", expected)

		assert.Equal(t, []string{"close", "exact"}, suite.Criteria.Names())
		assert.Equal(t, 0.0, suite.Params["temperature"])

		assert.Equal(t, "What is the capital of {{.country}}?", suite.PromptTemplate)
		assert.Equal(t, "Answer with the city name only.", suite.SystemPrompt)
	})

	t.Run("prompt section is optional", func(t *testing.T) {
		suiteYAML := `
version: "1.0.0"
metadata:
  name: promptless
dataset:
  - input: [x]
`
		suite, err := loader.LoadFromReader(context.Background(), strings.NewReader(suiteYAML))
		require.NoError(t, err)
		assert.Empty(t, suite.PromptTemplate)
		assert.Empty(t, suite.SystemPrompt)
	})

	t.Run("prompt without a template is rejected", func(t *testing.T) {
		suiteYAML := `
version: "1.0.0"
metadata:
  name: badprompt
prompt:
  system: Answer briefly.
dataset:
  - input: [x]
`
		_, err := loader.LoadFromReader(context.Background(), strings.NewReader(suiteYAML))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "validation failed")
	})

	t.Run("identical documents share one compiled suite", func(t *testing.T) {
		first, err := loader.LoadFromReader(context.Background(), strings.NewReader(capitalsSuiteYAML))
		require.NoError(t, err)

		second, err := loader.LoadFromReader(context.Background(), strings.NewReader(capitalsSuiteYAML))
		require.NoError(t, err)

		assert.Same(t, first, second)
	})

	t.Run("positional inputs decode from sequences", func(t *testing.T) {
		suiteYAML := `
version: "1.0.0"
metadata:
  name: positional
dataset:
  - input: [hello, world]
`
		suite, err := loader.LoadFromReader(context.Background(), strings.NewReader(suiteYAML))
		require.NoError(t, err)

		require.Len(t, suite.Dataset, 1)
		assert.Equal(t, domain.KindPositional, suite.Dataset[0].Input.Kind())
		assert.Equal(t, []any{"hello", "world"}, suite.Dataset[0].Input.Args())
	})

	t.Run("scalar inputs are rejected", func(t *testing.T) {
		suiteYAML := `
version: "1.0.0"
metadata:
  name: scalar
dataset:
  - input: just a string
`
		_, err := loader.LoadFromReader(context.Background(), strings.NewReader(suiteYAML))
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("missing input is rejected", func(t *testing.T) {
		suiteYAML := `
version: "1.0.0"
metadata:
  name: missing
dataset:
  - expected: Paris
`
		_, err := loader.LoadFromReader(context.Background(), strings.NewReader(suiteYAML))
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("unknown criterion type is rejected", func(t *testing.T) {
		suiteYAML := `
version: "1.0.0"
metadata:
  name: unknown
dataset:
  - input: [x]
criteria:
  - name: judge
    type: llm_judge
`
		_, err := loader.LoadFromReader(context.Background(), strings.NewReader(suiteYAML))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported criterion type")
	})

	t.Run("duplicate criterion names are rejected", func(t *testing.T) {
		suiteYAML := `
version: "1.0.0"
metadata:
  name: duplicate
dataset:
  - input: [x]
criteria:
  - name: exact
    type: exact_match
  - name: exact
    type: fuzzy_match
`
		_, err := loader.LoadFromReader(context.Background(), strings.NewReader(suiteYAML))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate criterion name")
	})

	t.Run("unknown top-level fields are rejected", func(t *testing.T) {
		suiteYAML := `
version: "1.0.0"
metadata:
  name: typo
dataset:
  - input: [x]
critera: []
`
		_, err := loader.LoadFromReader(context.Background(), strings.NewReader(suiteYAML))
		assert.Error(t, err)
	})

	t.Run("missing version is rejected", func(t *testing.T) {
		suiteYAML := `
metadata:
  name: unversioned
dataset:
  - input: [x]
`
		_, err := loader.LoadFromReader(context.Background(), strings.NewReader(suiteYAML))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "validation failed")
	})
}

func TestSuiteEndToEnd(t *testing.T) {
	loader, err := NewSuiteLoader(NewDefaultCriterionRegistry())
	require.NoError(t, err)

	suite, err := loader.LoadFromReader(context.Background(), strings.NewReader(capitalsSuiteYAML))
	require.NoError(t, err)

	eval, err := suite.NewEvaluation()
	require.NoError(t, err)

	answers := testutils.NewScriptedLMP("capitals", func(_ context.Context, input domain.Input, _ domain.APIParams) (any, error) {
		country, _ := input.Field("country")
		if country == "France" {
			return "Paris", nil
		}
		return "Milan", nil
	})

	run, err := eval.Run(context.Background(), answers, RunConfig{Workers: 2, PreserveOrder: true})
	require.NoError(t, err)

	assert.Equal(t, []any{"Paris", "Milan"}, run.Outputs)
	assert.Equal(t, []float64{1, 0}, run.Scores["exact"])

	require.Len(t, run.Scores["close"], 2)
	assert.Equal(t, 1.0, run.Scores["close"][0])
	assert.Greater(t, run.Scores["close"][1], 0.0)
	assert.Less(t, run.Scores["close"][1], 1.0)
}
