package criteria

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/quillml/quill/internal/domain"
)

func datapointExpecting(expected any) domain.Datapoint {
	return domain.Datapoint{
		Input:    domain.PositionalInput("q"),
		Expected: expected,
	}
}

func TestExactMatchCriterion(t *testing.T) {
	t.Run("requires a name", func(t *testing.T) {
		_, err := NewExactMatchCriterion("", DefaultExactMatchConfig())
		assert.ErrorIs(t, err, ErrEmptyCriterionName)
	})

	t.Run("matches after default normalization", func(t *testing.T) {
		c, err := NewExactMatchCriterion("exact", DefaultExactMatchConfig())
		require.NoError(t, err)

		score, err := c.Score(datapointExpecting("Paris"), "  paris ")
		require.NoError(t, err)
		assert.Equal(t, 1.0, score)
	})

	t.Run("case sensitive matching", func(t *testing.T) {
		c, err := NewExactMatchCriterion("exact", ExactMatchConfig{
			CaseSensitive:  true,
			TrimWhitespace: true,
		})
		require.NoError(t, err)

		score, err := c.Score(datapointExpecting("Paris"), "paris")
		require.NoError(t, err)
		assert.Equal(t, 0.0, score)
	})

	t.Run("whitespace preserved when trimming is off", func(t *testing.T) {
		c, err := NewExactMatchCriterion("exact", ExactMatchConfig{})
		require.NoError(t, err)

		score, err := c.Score(datapointExpecting("Paris"), "Paris ")
		require.NoError(t, err)
		assert.Equal(t, 0.0, score)
	})

	t.Run("unicode case folding", func(t *testing.T) {
		c, err := NewExactMatchCriterion("exact", DefaultExactMatchConfig())
		require.NoError(t, err)

		score, err := c.Score(datapointExpecting("STRASSE"), "straße")
		require.NoError(t, err)
		assert.Equal(t, 1.0, score)
	})

	t.Run("missing expected value fails", func(t *testing.T) {
		c, err := NewExactMatchCriterion("exact", DefaultExactMatchConfig())
		require.NoError(t, err)

		_, err = c.Score(domain.Datapoint{Input: domain.PositionalInput("q")}, "Paris")
		assert.ErrorIs(t, err, ErrMissingExpected)
	})

	t.Run("non-string outputs are stringified", func(t *testing.T) {
		c, err := NewExactMatchCriterion("exact", DefaultExactMatchConfig())
		require.NoError(t, err)

		score, err := c.Score(datapointExpecting("42"), 42)
		require.NoError(t, err)
		assert.Equal(t, 1.0, score)
	})
}

func TestNewExactMatchFromConfig(t *testing.T) {
	t.Run("empty parameters keep defaults", func(t *testing.T) {
		c, err := NewExactMatchFromConfig("exact", yaml.Node{})
		require.NoError(t, err)

		score, err := c.Score(datapointExpecting("Paris"), " PARIS ")
		require.NoError(t, err)
		assert.Equal(t, 1.0, score)
	})

	t.Run("parameters override defaults", func(t *testing.T) {
		var params yaml.Node
		require.NoError(t, yaml.Unmarshal([]byte("case_sensitive: true"), &params))

		c, err := NewExactMatchFromConfig("exact", params)
		require.NoError(t, err)

		score, err := c.Score(datapointExpecting("Paris"), "PARIS")
		require.NoError(t, err)
		assert.Equal(t, 0.0, score)
	})
}
