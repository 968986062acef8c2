package criteria

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"gopkg.in/yaml.v3"

	"github.com/quillml/quill/internal/domain"
)

var _ domain.Criterion = (*FuzzyMatchCriterion)(nil)

// FuzzyMatchCriterion scores a program output by its string similarity to
// the datapoint's expected value using Levenshtein edit distance. Scores
// range from 0.0 (no similarity) to 1.0 (identical), with similarities
// below the configured threshold collapsed to 0.0.
//
// The criterion is stateless and safe for concurrent scoring.
type FuzzyMatchCriterion struct {
	// name keys this criterion's scores in run records.
	name string
	// config contains the validated configuration parameters.
	config FuzzyMatchConfig
}

// FuzzyMatchConfig defines the configuration parameters for fuzzy matching.
type FuzzyMatchConfig struct {
	// Algorithm specifies the fuzzy matching algorithm to use.
	// Currently only "levenshtein" is supported.
	Algorithm string `yaml:"algorithm" json:"algorithm" validate:"required,oneof=levenshtein"`

	// Threshold defines the minimum similarity (0.0-1.0) that counts as a
	// match. Similarities below this value score 0.0.
	Threshold float64 `yaml:"threshold" json:"threshold" validate:"min=0.0,max=1.0"`

	// CaseSensitive determines whether comparison is case-sensitive.
	// When false, both strings are case-folded before comparison.
	CaseSensitive bool `yaml:"case_sensitive" json:"case_sensitive"`

	// TrimWhitespace controls leading/trailing whitespace normalization
	// before comparison.
	TrimWhitespace bool `yaml:"trim_whitespace" json:"trim_whitespace"`
}

// DefaultFuzzyMatchConfig returns a FuzzyMatchConfig using Levenshtein
// distance, no threshold cutoff, case-insensitive comparison, and
// whitespace trimming.
func DefaultFuzzyMatchConfig() FuzzyMatchConfig {
	return FuzzyMatchConfig{
		Algorithm:      "levenshtein",
		Threshold:      0.0,
		CaseSensitive:  false,
		TrimWhitespace: true,
	}
}

// NewFuzzyMatchCriterion creates a FuzzyMatchCriterion with validated
// configuration. Returns ErrEmptyCriterionName if name is empty.
func NewFuzzyMatchCriterion(name string, config FuzzyMatchConfig) (*FuzzyMatchCriterion, error) {
	if name == "" {
		return nil, ErrEmptyCriterionName
	}

	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &FuzzyMatchCriterion{name: name, config: config}, nil
}

// Name returns the criterion's identifier.
func (c *FuzzyMatchCriterion) Name() string { return c.name }

// Score computes the normalized edit-distance similarity between one
// output and the datapoint's expected value.
// Returns ErrMissingExpected if the datapoint carries no ground truth.
func (c *FuzzyMatchCriterion) Score(dp domain.Datapoint, output any) (float64, error) {
	expected, ok := dp.ExpectedString()
	if !ok {
		return 0, fmt.Errorf("criterion %q: %w", c.name, ErrMissingExpected)
	}

	candidate := c.prepare(outputString(output))
	reference := c.prepare(expected)

	similarity := levenshteinSimilarity(candidate, reference)
	if similarity < c.config.Threshold {
		return 0.0, nil
	}
	return similarity, nil
}

// prepare normalizes a string according to configuration, applying
// whitespace trimming before case folding.
func (c *FuzzyMatchCriterion) prepare(s string) string {
	if c.config.TrimWhitespace {
		s = strings.TrimSpace(s)
	}
	if !c.config.CaseSensitive {
		s = foldCaser.String(s)
	}
	return s
}

// levenshteinSimilarity converts edit distance into a similarity ratio in
// [0, 1], normalized by the longer string's rune count. Two empty strings
// are identical.
func levenshteinSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}

	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 1.0
	}

	distance := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(distance)/float64(maxLen)
}

// NewFuzzyMatchFromConfig builds a FuzzyMatchCriterion from a YAML
// parameters node. Omitted fields keep the defaults from
// DefaultFuzzyMatchConfig.
func NewFuzzyMatchFromConfig(name string, params yaml.Node) (domain.Criterion, error) {
	config := DefaultFuzzyMatchConfig()
	if !params.IsZero() {
		if err := params.Decode(&config); err != nil {
			return nil, fmt.Errorf("failed to decode parameters: %w", err)
		}
	}
	return NewFuzzyMatchCriterion(name, config)
}
