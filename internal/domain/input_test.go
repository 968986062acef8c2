package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInput(t *testing.T) {
	t.Run("any slice becomes positional", func(t *testing.T) {
		in, err := ParseInput([]any{"What is the capital of France?", 42})
		require.NoError(t, err)

		assert.Equal(t, KindPositional, in.Kind())
		assert.Equal(t, []any{"What is the capital of France?", 42}, in.Args())
		assert.Nil(t, in.Fields())
	})

	t.Run("typed slice becomes positional", func(t *testing.T) {
		in, err := ParseInput([]string{"a", "b"})
		require.NoError(t, err)

		assert.Equal(t, KindPositional, in.Kind())
		assert.Equal(t, []any{"a", "b"}, in.Args())
	})

	t.Run("string-keyed map becomes named", func(t *testing.T) {
		in, err := ParseInput(map[string]any{"question": "capital of italy?"})
		require.NoError(t, err)

		assert.Equal(t, KindNamed, in.Kind())
		v, ok := in.Field("question")
		require.True(t, ok)
		assert.Equal(t, "capital of italy?", v)
	})

	t.Run("typed map value becomes named", func(t *testing.T) {
		in, err := ParseInput(map[string]string{"name": "Ann"})
		require.NoError(t, err)

		assert.Equal(t, KindNamed, in.Kind())
		v, ok := in.Field("name")
		require.True(t, ok)
		assert.Equal(t, "Ann", v)
	})

	t.Run("existing input passes through", func(t *testing.T) {
		original := PositionalInput("x")
		in, err := ParseInput(original)
		require.NoError(t, err)
		assert.Equal(t, original, in)
	})

	t.Run("bare number is rejected", func(t *testing.T) {
		_, err := ParseInput(5)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidInput)
		assert.Contains(t, err.Error(), "int")
	})

	t.Run("string is rejected", func(t *testing.T) {
		_, err := ParseInput("not a sequence")
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("non-string map keys are rejected", func(t *testing.T) {
		_, err := ParseInput(map[int]string{1: "x"})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestInputAccessors(t *testing.T) {
	t.Run("zero value is invalid", func(t *testing.T) {
		var in Input
		assert.Equal(t, KindInvalid, in.Kind())
		assert.Equal(t, "invalid", in.Kind().String())
		assert.Nil(t, in.Args())
		assert.Nil(t, in.Fields())
	})

	t.Run("args copy does not alias", func(t *testing.T) {
		in := PositionalInput("a", "b")
		args := in.Args()
		args[0] = "mutated"
		assert.Equal(t, []any{"a", "b"}, in.Args())
	})

	t.Run("fields copy does not alias", func(t *testing.T) {
		in := NamedInput(map[string]any{"k": "v"})
		fields := in.Fields()
		fields["k"] = "mutated"
		v, _ := in.Field("k")
		assert.Equal(t, "v", v)
	})

	t.Run("len counts arguments", func(t *testing.T) {
		assert.Equal(t, 2, PositionalInput(1, 2).Len())
		assert.Equal(t, 1, NamedInput(map[string]any{"a": 1}).Len())
	})

	t.Run("string renders named fields deterministically", func(t *testing.T) {
		in := NamedInput(map[string]any{"b": 2, "a": 1})
		assert.Equal(t, "{a:1 b:2}", in.String())
	})
}

func TestNewDatapoint(t *testing.T) {
	t.Run("valid named input", func(t *testing.T) {
		dp, err := NewDatapoint(map[string]any{"name": "Bo"}, "Bo")
		require.NoError(t, err)

		assert.Equal(t, KindNamed, dp.Input.Kind())
		expected, ok := dp.ExpectedString()
		require.True(t, ok)
		assert.Equal(t, "Bo", expected)
	})

	t.Run("invalid input is rejected", func(t *testing.T) {
		_, err := NewDatapoint(3.14, nil)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestDatasetProjections(t *testing.T) {
	dataset := Dataset{
		{Input: NamedInput(map[string]any{"name": "Ann"})},
		{Input: PositionalInput("Bo")},
	}

	t.Run("inputs preserve dataset order", func(t *testing.T) {
		inputs := dataset.Inputs()
		require.Len(t, inputs, 2)
		assert.Equal(t, KindNamed, inputs[0].Kind())
		assert.Equal(t, KindPositional, inputs[1].Kind())
	})

	t.Run("clone does not alias metadata", func(t *testing.T) {
		src := Dataset{{Input: PositionalInput("x"), Meta: map[string]any{"k": 1}}}
		cloned := src.Clone()
		cloned[0].Meta["k"] = 2
		assert.Equal(t, 1, src[0].Meta["k"])
	})
}
