// Package ports defines the core interfaces that form the contract between
// the domain/application layers and the infrastructure layer.
// These interfaces enable dependency inversion and make the system testable.
package ports

import (
	"context"

	"github.com/quillml/quill/internal/domain"
)

// LMP is a language-model program: an invocable unit wrapping a prompt
// template and a model call. The harness treats it as an opaque external
// collaborator.
//
// Invoke receives one datapoint's input plus the merged API parameters and
// returns either a single output or a slice of outputs (one per sample,
// when multi-sample generation is requested via the "n" parameter). Errors
// are not wrapped or retried by the harness; they propagate as-is and
// abort the run.
type LMP interface {
	// Name returns an identifier used for logging and run tracking.
	Name() string

	// Invoke runs the program against one input.
	Invoke(ctx context.Context, input domain.Input, params domain.APIParams) (any, error)
}

// InvokeFunc is a plain function implementing an LMP body.
type InvokeFunc func(ctx context.Context, input domain.Input, params domain.APIParams) (any, error)

// lmpFunc adapts an InvokeFunc into a named LMP.
type lmpFunc struct {
	name string
	fn   InvokeFunc
}

// NewLMP wraps fn into an LMP with the given name.
func NewLMP(name string, fn InvokeFunc) LMP {
	return &lmpFunc{name: name, fn: fn}
}

func (l *lmpFunc) Name() string { return l.name }

func (l *lmpFunc) Invoke(ctx context.Context, input domain.Input, params domain.APIParams) (any, error) {
	return l.fn(ctx, input, params)
}
