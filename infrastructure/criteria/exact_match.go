package criteria

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/quillml/quill/internal/domain"
)

var _ domain.Criterion = (*ExactMatchCriterion)(nil)

// ExactMatchCriterion performs deterministic exact string matching between
// a program output and the datapoint's expected value. Each output receives
// a binary score: 1.0 for an exact match or 0.0 otherwise, with configurable
// case sensitivity and whitespace handling.
//
// The criterion is stateless and safe for concurrent scoring.
type ExactMatchCriterion struct {
	// name keys this criterion's scores in run records.
	name string
	// config contains the validated configuration parameters.
	config ExactMatchConfig
}

// ExactMatchConfig controls string normalization during exact matching.
// The zero value provides case-insensitive matching without whitespace
// trimming.
type ExactMatchConfig struct {
	// CaseSensitive controls case sensitivity during string comparison.
	// When false, uses Unicode-aware case folding for proper
	// internationalization.
	CaseSensitive bool `yaml:"case_sensitive" json:"case_sensitive"`

	// TrimWhitespace controls leading/trailing whitespace normalization.
	// When true, applies strings.TrimSpace before comparison.
	TrimWhitespace bool `yaml:"trim_whitespace" json:"trim_whitespace"`
}

// DefaultExactMatchConfig returns an ExactMatchConfig with production-ready
// defaults: case-insensitive matching with whitespace trimming enabled.
func DefaultExactMatchConfig() ExactMatchConfig {
	return ExactMatchConfig{
		CaseSensitive:  false,
		TrimWhitespace: true,
	}
}

// NewExactMatchCriterion creates an ExactMatchCriterion with validated
// configuration. Returns ErrEmptyCriterionName if name is empty.
func NewExactMatchCriterion(name string, config ExactMatchConfig) (*ExactMatchCriterion, error) {
	if name == "" {
		return nil, ErrEmptyCriterionName
	}

	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &ExactMatchCriterion{name: name, config: config}, nil
}

// Name returns the criterion's identifier.
func (c *ExactMatchCriterion) Name() string { return c.name }

// Score compares one output against the datapoint's expected value and
// returns 1.0 on an exact match after normalization, 0.0 otherwise.
// Returns ErrMissingExpected if the datapoint carries no ground truth.
func (c *ExactMatchCriterion) Score(dp domain.Datapoint, output any) (float64, error) {
	expected, ok := dp.ExpectedString()
	if !ok {
		return 0, fmt.Errorf("criterion %q: %w", c.name, ErrMissingExpected)
	}

	if c.prepare(outputString(output)) == c.prepare(expected) {
		return 1.0, nil
	}
	return 0.0, nil
}

// prepare normalizes a string according to configuration, applying
// whitespace trimming before case folding.
func (c *ExactMatchCriterion) prepare(s string) string {
	if c.config.TrimWhitespace {
		s = strings.TrimSpace(s)
	}
	if !c.config.CaseSensitive {
		s = foldCaser.String(s)
	}
	return s
}

// NewExactMatchFromConfig builds an ExactMatchCriterion from a YAML
// parameters node. Omitted fields keep the defaults from
// DefaultExactMatchConfig.
func NewExactMatchFromConfig(name string, params yaml.Node) (domain.Criterion, error) {
	config := DefaultExactMatchConfig()
	if !params.IsZero() {
		if err := params.Decode(&config); err != nil {
			return nil, fmt.Errorf("failed to decode parameters: %w", err)
		}
	}
	return NewExactMatchCriterion(name, config)
}
