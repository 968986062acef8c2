package criteria

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/quillml/quill/internal/domain"
)

var _ domain.Criterion = (*LengthCriterion)(nil)

// LengthCriterion scores a program output by its size. It needs no expected
// value, which makes it useful for output-shape checks like verbosity
// tracking or terseness comparisons between programs.
//
// The criterion is stateless and safe for concurrent scoring.
type LengthCriterion struct {
	// name keys this criterion's scores in run records.
	name string
	// config contains the validated configuration parameters.
	config LengthConfig
}

// LengthConfig selects the unit of measurement for length scoring.
type LengthConfig struct {
	// Unit selects what gets counted: "runes" (default), "bytes", or
	// "words" (whitespace-separated fields).
	Unit string `yaml:"unit" json:"unit" validate:"required,oneof=runes bytes words"`
}

// DefaultLengthConfig returns a LengthConfig counting runes.
func DefaultLengthConfig() LengthConfig {
	return LengthConfig{Unit: "runes"}
}

// NewLengthCriterion creates a LengthCriterion with validated configuration.
// Returns ErrEmptyCriterionName if name is empty.
func NewLengthCriterion(name string, config LengthConfig) (*LengthCriterion, error) {
	if name == "" {
		return nil, ErrEmptyCriterionName
	}

	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &LengthCriterion{name: name, config: config}, nil
}

// Name returns the criterion's identifier.
func (c *LengthCriterion) Name() string { return c.name }

// Score measures one output in the configured unit.
func (c *LengthCriterion) Score(_ domain.Datapoint, output any) (float64, error) {
	s := outputString(output)

	switch c.config.Unit {
	case "bytes":
		return float64(len(s)), nil
	case "words":
		return float64(len(strings.Fields(s))), nil
	default:
		return float64(utf8.RuneCountInString(s)), nil
	}
}

// NewLengthFromConfig builds a LengthCriterion from a YAML parameters node.
// An omitted unit counts runes.
func NewLengthFromConfig(name string, params yaml.Node) (domain.Criterion, error) {
	config := DefaultLengthConfig()
	if !params.IsZero() {
		if err := params.Decode(&config); err != nil {
			return nil, fmt.Errorf("failed to decode parameters: %w", err)
		}
	}
	return NewLengthCriterion(name, config)
}
