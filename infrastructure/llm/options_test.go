package llm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequestOptions(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		options := ParseRequestOptions(nil, "default-model")

		assert.Equal(t, DefaultMaxTokens, options.MaxTokens)
		assert.Equal(t, "default-model", options.Model)
		assert.Nil(t, options.Temperature)
		assert.Nil(t, options.TopP)
		assert.Empty(t, options.System)
		assert.Empty(t, options.Extra)
	})

	t.Run("standard options", func(t *testing.T) {
		options := ParseRequestOptions(map[string]any{
			"max_tokens":  256,
			"model":       "override-model",
			"temperature": 0.7,
			"top_p":       0.9,
			"system":      "be terse",
		}, "default-model")

		assert.Equal(t, 256, options.MaxTokens)
		assert.Equal(t, "override-model", options.Model)
		require.NotNil(t, options.Temperature)
		assert.InDelta(t, 0.7, *options.Temperature, 1e-9)
		require.NotNil(t, options.TopP)
		assert.InDelta(t, 0.9, *options.TopP, 1e-9)
		assert.Equal(t, "be terse", options.System)
		assert.Empty(t, options.Extra)
	})

	t.Run("invalid values fall back to defaults", func(t *testing.T) {
		options := ParseRequestOptions(map[string]any{
			"max_tokens":  -5,
			"model":       "",
			"temperature": 3.5,
			"top_p":       -0.1,
		}, "default-model")

		assert.Equal(t, DefaultMaxTokens, options.MaxTokens)
		assert.Equal(t, "default-model", options.Model)
		assert.Nil(t, options.Temperature)
		assert.Nil(t, options.TopP)
	})

	t.Run("unrecognized options go to Extra", func(t *testing.T) {
		options := ParseRequestOptions(map[string]any{
			"frequency_penalty": 0.5,
			"stop":              []string{"\n"},
		}, "default-model")

		assert.Equal(t, 0.5, options.Extra["frequency_penalty"])
		assert.Equal(t, []string{"\n"}, options.Extra["stop"])
	})
}

func TestExtractHelpers(t *testing.T) {
	opts := map[string]any{
		"count": 5,
		"name":  "alpha",
		"ratio": 0.25,
		"wrong": "not an int",
	}

	assert.Equal(t, 5, ExtractOptionalInt(opts, "count", 1, IsPositiveInt))
	assert.Equal(t, 1, ExtractOptionalInt(opts, "missing", 1, IsPositiveInt))
	assert.Equal(t, 1, ExtractOptionalInt(opts, "wrong", 1, IsPositiveInt))

	assert.Equal(t, "alpha", ExtractOptionalString(opts, "name", "d", IsNonEmptyString))
	assert.Equal(t, "d", ExtractOptionalString(opts, "missing", "d", IsNonEmptyString))
	assert.Equal(t, "d", ExtractOptionalString(opts, "count", "d", IsNonEmptyString))

	assert.Equal(t, 0.25, ExtractOptionalFloat64(opts, "ratio", -1, IsValidTopP))
	assert.Equal(t, -1.0, ExtractOptionalFloat64(opts, "missing", -1, IsValidTopP))
	assert.Equal(t, -1.0, ExtractOptionalFloat64(opts, "name", -1, IsValidTopP))
}

func TestValidators(t *testing.T) {
	assert.True(t, IsValidTemperature(0.0))
	assert.True(t, IsValidTemperature(2.0))
	assert.False(t, IsValidTemperature(-0.1))
	assert.False(t, IsValidTemperature(2.1))

	assert.True(t, IsValidTopP(0.0))
	assert.True(t, IsValidTopP(1.0))
	assert.False(t, IsValidTopP(1.01))

	assert.True(t, IsPositiveInt(1))
	assert.False(t, IsPositiveInt(0))

	assert.True(t, IsNonEmptyString("x"))
	assert.False(t, IsNonEmptyString(""))
}

func TestValidateBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		wantErr bool
	}{
		{name: "empty is valid", baseURL: "", wantErr: false},
		{name: "https", baseURL: "https://api.example.com/v1", wantErr: false},
		{name: "http", baseURL: "http://localhost:8080", wantErr: false},
		{name: "bad scheme", baseURL: "ftp://example.com", wantErr: true},
		{name: "missing host", baseURL: "https://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			normalized, err := ValidateBaseURL(tt.baseURL)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.baseURL, normalized)
		})
	}
}

func TestValidateTimeout(t *testing.T) {
	assert.Equal(t, time.Duration(0), ValidateTimeout(0))
	assert.Equal(t, time.Duration(0), ValidateTimeout(-time.Second))
	assert.Equal(t, MinTimeout, ValidateTimeout(time.Millisecond))
	assert.Equal(t, 30*time.Second, ValidateTimeout(30*time.Second))
	assert.Equal(t, MaxTimeout, ValidateTimeout(time.Hour))
}

func TestSafeFloat32(t *testing.T) {
	v, ok := SafeFloat32(float64(0.5))
	assert.True(t, ok)
	assert.Equal(t, float32(0.5), v)

	v, ok = SafeFloat32(float32(1.5))
	assert.True(t, ok)
	assert.Equal(t, float32(1.5), v)

	v, ok = SafeFloat32(int(3))
	assert.True(t, ok)
	assert.Equal(t, float32(3), v)

	_, ok = SafeFloat32(float64(1e39))
	assert.False(t, ok)

	_, ok = SafeFloat32(int64(1 << 40))
	assert.False(t, ok)

	_, ok = SafeFloat32("not a number")
	assert.False(t, ok)
}

func TestClamps(t *testing.T) {
	assert.Equal(t, 0.0, ClampFloat64(-1, 0, 1))
	assert.Equal(t, 1.0, ClampFloat64(2, 0, 1))
	assert.Equal(t, 0.5, ClampFloat64(0.5, 0, 1))

	assert.Equal(t, 1, ClampInt(0, 1, 40))
	assert.Equal(t, 40, ClampInt(99, 1, 40))
	assert.Equal(t, 20, ClampInt(20, 1, 40))
}

func TestTokenCounter(t *testing.T) {
	tc := NewTokenCounter()

	assert.Equal(t, 0, tc.EstimateTokens(""))
	assert.Equal(t, 3, tc.EstimateTokens("twelve chars"))
	assert.Equal(t, 42, tc.GetTokenCount(42, "ignored"))
	assert.Equal(t, 3, tc.GetTokenCount(0, "twelve chars"))
}
