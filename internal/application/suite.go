package application

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"

	"github.com/quillml/quill/internal/domain"
)

// SuiteConfig is the YAML schema for a declarative evaluation suite:
// a named dataset, the criteria to score with, and default API parameters.
type SuiteConfig struct {
	// Version specifies the configuration schema version using semantic
	// versioning to ensure compatibility across system updates.
	Version string `yaml:"version" validate:"required,semver"`
	// Metadata contains descriptive information about the suite.
	Metadata SuiteMetadata `yaml:"metadata" validate:"required"`
	// Prompt optionally declares the prompt template the suite's program
	// renders, so a suite file is runnable on its own.
	Prompt *PromptConfig `yaml:"prompt"`
	// Dataset lists the datapoints to evaluate, in order.
	Dataset []DatapointConfig `yaml:"dataset" validate:"required,min=1,dive"`
	// Criteria lists the scoring criteria to apply to every output.
	// An empty list produces an output-collection suite that scores nothing.
	Criteria []CriterionConfig `yaml:"criteria" validate:"dive"`
	// Params are default model parameters for every run of this suite.
	Params map[string]any `yaml:"params"`
}

// SuiteMetadata provides descriptive information about an evaluation suite.
type SuiteMetadata struct {
	// Name is the human-readable identifier for this suite.
	Name string `yaml:"name" validate:"required,min=1,max=255"`
	// Description explains the suite's purpose.
	Description string `yaml:"description" validate:"max=1000"`
	// Tags are categorical labels for filtering and grouping suites.
	Tags []string `yaml:"tags" validate:"max=20,dive,min=1,max=50"`
}

// PromptConfig declares the prompt rendered against each datapoint input.
type PromptConfig struct {
	// Template is the prompt template text.
	Template string `yaml:"template" validate:"required,min=1"`
	// System optionally provides a system prompt sent with every request.
	System string `yaml:"system"`
}

// DatapointConfig is the YAML form of one datapoint. The input node may be
// a sequence (positional arguments) or a mapping (named fields); anything
// else is rejected when the suite is compiled.
type DatapointConfig struct {
	// Input holds the raw input node, deferred so sequence and mapping
	// shapes can both be decoded.
	Input yaml.Node `yaml:"input"`
	// Expected is the optional ground-truth value criteria may compare
	// outputs against.
	Expected any `yaml:"expected"`
	// Meta carries arbitrary per-datapoint annotations.
	Meta map[string]any `yaml:"meta"`
}

// CriterionConfig declares one scoring criterion by registry type.
type CriterionConfig struct {
	// Name keys the criterion's scores in run records.
	Name string `yaml:"name" validate:"required,min=1,max=100"`
	// Type selects the factory used to build the criterion.
	Type string `yaml:"type" validate:"required,min=1,max=100"`
	// Parameters contains type-specific configuration as flexible YAML.
	Parameters yaml.Node `yaml:"parameters"`
}

// Suite is a compiled evaluation suite ready to be run.
type Suite struct {
	// Name is the suite's identifier from its metadata.
	Name string
	// Description explains the suite's purpose.
	Description string
	// PromptTemplate is the suite's declared prompt template, empty when the
	// suite leaves the program to the caller.
	PromptTemplate string
	// SystemPrompt is the optional system prompt paired with the template.
	SystemPrompt string
	// Dataset holds the compiled datapoints in declaration order.
	Dataset domain.Dataset
	// Criteria holds the instantiated scoring criteria keyed by name.
	Criteria domain.Criteria
	// Params are the suite's default API parameters.
	Params domain.APIParams
}

// NewEvaluation assembles an evaluation harness from the compiled suite.
func (s *Suite) NewEvaluation(opts ...Option) (*Evaluation, error) {
	return NewEvaluation(EvaluationConfig{
		Name:      s.Name,
		Dataset:   s.Dataset,
		Criteria:  s.Criteria,
		APIParams: s.Params,
	}, opts...)
}

// CriterionFactory builds a criterion from its declared name and the
// type-specific parameters node.
type CriterionFactory func(name string, params yaml.Node) (domain.Criterion, error)

// CriterionRegistry maps criterion type strings to factory functions,
// allowing suites to reference criteria declaratively.
// It is safe for concurrent use.
type CriterionRegistry struct {
	mu        sync.RWMutex
	factories map[string]CriterionFactory
}

// NewCriterionRegistry creates an empty registry.
// Most callers want NewDefaultCriterionRegistry, which pre-registers the
// built-in criterion types.
func NewCriterionRegistry() *CriterionRegistry {
	return &CriterionRegistry{factories: make(map[string]CriterionFactory)}
}

// Register adds a factory for a criterion type, replacing any previous
// registration for the same type.
func (r *CriterionRegistry) Register(criterionType string, factory CriterionFactory) error {
	if criterionType == "" {
		return fmt.Errorf("criterion type cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("factory function cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[criterionType] = factory
	return nil
}

// Create instantiates a criterion of the given type.
func (r *CriterionRegistry) Create(criterionType, name string, params yaml.Node) (domain.Criterion, error) {
	r.mu.RLock()
	factory, exists := r.factories[criterionType]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("unsupported criterion type: %s", criterionType)
	}
	if name == "" {
		return nil, domain.ErrAnonymousCriterion
	}

	criterion, err := factory(name, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create criterion %s of type %s: %w", name, criterionType, err)
	}
	return criterion, nil
}

// SupportedTypes returns all registered criterion types in sorted order.
func (r *CriterionRegistry) SupportedTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.factories))
	for criterionType := range r.factories {
		types = append(types, criterionType)
	}
	sort.Strings(types)
	return types
}

// SuiteLoader provides YAML parsing, validation, and caching for evaluation
// suites, transforming declarative specifications into runnable datasets
// and criteria.
// Compiled suites are cached by the SHA256 hash of their source document.
type SuiteLoader struct {
	// registry provides factories for the criterion types suites reference.
	registry *CriterionRegistry
	// cache stores compiled suites indexed by source document hash.
	// Cached suites must not be mutated by callers.
	cache map[string]*Suite
	// cacheMu guards cache during concurrent loads.
	cacheMu sync.RWMutex
	// sf prevents duplicate compilation when multiple goroutines request
	// the same suite simultaneously.
	sf singleflight.Group
}

// NewSuiteLoader creates a suite loader with an empty cache.
func NewSuiteLoader(registry *CriterionRegistry) (*SuiteLoader, error) {
	if registry == nil {
		return nil, fmt.Errorf("criterion registry must not be nil")
	}
	return &SuiteLoader{
		registry: registry,
		cache:    make(map[string]*Suite),
	}, nil
}

// LoadFromFile loads and compiles a suite from a YAML file.
// Identical documents share one compiled suite via the cache, so callers
// must not mutate the result.
func (sl *SuiteLoader) LoadFromFile(ctx context.Context, path string) (*Suite, error) {
	cleanPath := filepath.Clean(path)

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return sl.load(ctx, data)
}

// LoadFromReader loads and compiles a suite from any reader, applying the
// same caching and validation as LoadFromFile.
func (sl *SuiteLoader) LoadFromReader(ctx context.Context, r io.Reader) (*Suite, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}

	return sl.load(ctx, data)
}

// load compiles suite YAML, deduplicating concurrent compilations of the
// same document through singleflight.
func (sl *SuiteLoader) load(_ context.Context, data []byte) (*Suite, error) {
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	v, err, _ := sl.sf.Do(hash, func() (any, error) {
		// Re-check inside singleflight to close the race between the cache
		// lookup and group execution.
		if suite, ok := sl.getCached(hash); ok {
			return suite, nil
		}

		config, err := sl.parseYAML(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}

		if err := validate.Struct(config); err != nil {
			return nil, fmt.Errorf("validation failed: %w", err)
		}

		suite, err := sl.buildSuite(config)
		if err != nil {
			return nil, fmt.Errorf("failed to build suite: %w", err)
		}

		sl.setCached(hash, suite)
		return suite, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*Suite), nil
}

// parseYAML unmarshals suite YAML with strict decoding so configuration
// typos fail loudly instead of being silently ignored.
func (sl *SuiteLoader) parseYAML(data []byte) (*SuiteConfig, error) {
	var config SuiteConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&config); err != nil {
		return nil, fmt.Errorf("YAML decode failed: %w", err)
	}
	return &config, nil
}

// buildSuite compiles a validated configuration into datapoints and
// instantiated criteria.
func (sl *SuiteLoader) buildSuite(config *SuiteConfig) (*Suite, error) {
	dataset := make(domain.Dataset, 0, len(config.Dataset))
	for i, dc := range config.Dataset {
		if dc.Input.IsZero() {
			return nil, fmt.Errorf("datapoint %d: %w: input is required", i, domain.ErrInvalidInput)
		}

		var raw any
		if err := dc.Input.Decode(&raw); err != nil {
			return nil, fmt.Errorf("datapoint %d: failed to decode input: %w", i, err)
		}

		dp, err := domain.NewDatapoint(raw, dc.Expected)
		if err != nil {
			return nil, fmt.Errorf("datapoint %d: %w", i, err)
		}
		dp.Meta = dc.Meta
		dataset = append(dataset, dp)
	}

	list := make([]domain.Criterion, 0, len(config.Criteria))
	seen := make(map[string]struct{}, len(config.Criteria))
	for _, cc := range config.Criteria {
		if _, dup := seen[cc.Name]; dup {
			return nil, fmt.Errorf("duplicate criterion name %q", cc.Name)
		}
		seen[cc.Name] = struct{}{}

		criterion, err := sl.registry.Create(cc.Type, cc.Name, cc.Parameters)
		if err != nil {
			return nil, err
		}
		list = append(list, criterion)
	}

	criteria, err := domain.CriteriaFromList(list)
	if err != nil {
		return nil, err
	}

	suite := &Suite{
		Name:        config.Metadata.Name,
		Description: config.Metadata.Description,
		Dataset:     dataset,
		Criteria:    criteria,
		Params:      domain.APIParams(config.Params).Clone(),
	}
	if config.Prompt != nil {
		suite.PromptTemplate = config.Prompt.Template
		suite.SystemPrompt = config.Prompt.System
	}
	return suite, nil
}

func (sl *SuiteLoader) getCached(hash string) (*Suite, bool) {
	sl.cacheMu.RLock()
	defer sl.cacheMu.RUnlock()
	suite, ok := sl.cache[hash]
	return suite, ok
}

func (sl *SuiteLoader) setCached(hash string, suite *Suite) {
	sl.cacheMu.Lock()
	defer sl.cacheMu.Unlock()
	sl.cache[hash] = suite
}
