package application

import (
	"github.com/quillml/quill/infrastructure/criteria"
)

// NewDefaultCriterionRegistry creates a registry with the built-in
// criterion types pre-registered: exact_match, fuzzy_match, and length.
func NewDefaultCriterionRegistry() *CriterionRegistry {
	registry := NewCriterionRegistry()

	// Registration of built-ins cannot fail: types and factories are
	// non-empty by construction.
	_ = registry.Register("exact_match", criteria.NewExactMatchFromConfig)
	_ = registry.Register("fuzzy_match", criteria.NewFuzzyMatchFromConfig)
	_ = registry.Register("length", criteria.NewLengthFromConfig)

	return registry
}
