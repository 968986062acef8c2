package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lengthScore(_ Datapoint, output any) (float64, error) {
	s, _ := output.(string)
	return float64(len(s)), nil
}

func TestNewCriteria(t *testing.T) {
	t.Run("valid mapping keeps names and callables", func(t *testing.T) {
		criteria, err := NewCriteria(map[string]ScoreFunc{
			"length":   lengthScore,
			"constant": func(Datapoint, any) (float64, error) { return 1, nil },
		})
		require.NoError(t, err)

		require.Len(t, criteria, 2)
		assert.ElementsMatch(t, []string{"constant", "length"}, criteria.Names())

		score, err := criteria["length"].Score(Datapoint{}, "abc")
		require.NoError(t, err)
		assert.Equal(t, 3.0, score)
	})

	t.Run("nil function fails naming the key", func(t *testing.T) {
		_, err := NewCriteria(map[string]ScoreFunc{"broken": nil})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidCriterion)
		assert.Contains(t, err.Error(), "broken")
	})

	t.Run("empty name fails", func(t *testing.T) {
		_, err := NewCriteria(map[string]ScoreFunc{"": lengthScore})
		assert.ErrorIs(t, err, ErrInvalidCriterion)
	})
}

func TestCriteriaFromList(t *testing.T) {
	t.Run("named entries are keyed by name", func(t *testing.T) {
		criteria, err := CriteriaFromList([]Criterion{
			NewCriterion("length", lengthScore),
			NewCriterion("exact", func(dp Datapoint, out any) (float64, error) {
				if expected, ok := dp.ExpectedString(); ok && expected == out {
					return 1, nil
				}
				return 0, nil
			}),
		})
		require.NoError(t, err)

		assert.Equal(t, []string{"exact", "length"}, criteria.Names())
	})

	t.Run("anonymous entry is rejected with its type", func(t *testing.T) {
		_, err := CriteriaFromList([]Criterion{NewCriterion("", lengthScore)})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrAnonymousCriterion)
		assert.Contains(t, err.Error(), "criterionFunc")
	})

	t.Run("nil entry is rejected", func(t *testing.T) {
		_, err := CriteriaFromList([]Criterion{nil})
		assert.ErrorIs(t, err, ErrInvalidCriterion)
	})

	t.Run("later duplicates win", func(t *testing.T) {
		first := NewCriterion("dup", func(Datapoint, any) (float64, error) { return 1, nil })
		second := NewCriterion("dup", func(Datapoint, any) (float64, error) { return 2, nil })

		criteria, err := CriteriaFromList([]Criterion{first, second})
		require.NoError(t, err)
		require.Len(t, criteria, 1)

		score, err := criteria["dup"].Score(Datapoint{}, nil)
		require.NoError(t, err)
		assert.Equal(t, 2.0, score)
	})
}

func TestCriteriaValidate(t *testing.T) {
	t.Run("valid set passes", func(t *testing.T) {
		criteria := Criteria{"length": NewCriterion("length", lengthScore)}
		assert.NoError(t, criteria.Validate())
	})

	t.Run("hand-built nil entry fails", func(t *testing.T) {
		criteria := Criteria{"length": nil}
		assert.ErrorIs(t, criteria.Validate(), ErrInvalidCriterion)
	})
}
