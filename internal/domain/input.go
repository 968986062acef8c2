// Package domain contains pure, dependency-free domain models and types
// for the evaluation harness.
package domain

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
)

// InputKind identifies how a datapoint's input is spread into an LMP call.
type InputKind int

const (
	// KindInvalid is the zero value and marks an input that was never
	// constructed through one of the Input constructors.
	KindInvalid InputKind = iota

	// KindPositional marks an ordered sequence of positional arguments.
	KindPositional

	// KindNamed marks a mapping of named arguments.
	KindNamed
)

// String returns a human-readable name for the input kind.
func (k InputKind) String() string {
	switch k {
	case KindPositional:
		return "positional"
	case KindNamed:
		return "named"
	default:
		return "invalid"
	}
}

// Input is a tagged variant describing the arguments an LMP receives for
// one datapoint. It is either a positional argument list or a mapping of
// named arguments; the shape is resolved once, when the dataset is built,
// instead of being re-inspected on every call.
// The zero value is invalid and is rejected by the datapoint processor.
type Input struct {
	kind   InputKind
	args   []any
	fields map[string]any
}

// PositionalInput creates an Input whose arguments are spread positionally.
func PositionalInput(args ...any) Input {
	copied := make([]any, len(args))
	copy(copied, args)
	return Input{kind: KindPositional, args: copied}
}

// NamedInput creates an Input whose arguments are spread by name.
func NamedInput(fields map[string]any) Input {
	return Input{kind: KindNamed, fields: maps.Clone(fields)}
}

// ParseInput resolves a raw input value into a tagged Input.
// Any slice or array becomes a positional input and any string-keyed map
// becomes a named input; every other shape fails with ErrInvalidInput
// naming the offending type. This is the boundary adapter for datasets
// loaded from YAML or built from untyped values.
func ParseInput(value any) (Input, error) {
	switch v := value.(type) {
	case Input:
		return v, nil
	case []any:
		return PositionalInput(v...), nil
	case map[string]any:
		return NamedInput(v), nil
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		args := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			args[i] = rv.Index(i).Interface()
		}
		return Input{kind: KindPositional, args: args}, nil

	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return Input{}, fmt.Errorf("%w: map keyed by %s", ErrInvalidInput, rv.Type().Key())
		}
		fields := make(map[string]any, rv.Len())
		for _, key := range rv.MapKeys() {
			fields[key.String()] = rv.MapIndex(key).Interface()
		}
		return Input{kind: KindNamed, fields: fields}, nil

	default:
		return Input{}, fmt.Errorf("%w: %T", ErrInvalidInput, value)
	}
}

// Kind returns the variant tag for this input.
func (in Input) Kind() InputKind { return in.kind }

// Args returns a copy of the positional arguments.
// It returns nil for named or invalid inputs.
func (in Input) Args() []any {
	if in.kind != KindPositional {
		return nil
	}
	copied := make([]any, len(in.args))
	copy(copied, in.args)
	return copied
}

// Fields returns a copy of the named arguments.
// It returns nil for positional or invalid inputs.
func (in Input) Fields() map[string]any {
	if in.kind != KindNamed {
		return nil
	}
	return maps.Clone(in.fields)
}

// Field looks up a single named argument.
func (in Input) Field(name string) (any, bool) {
	if in.kind != KindNamed {
		return nil, false
	}
	v, ok := in.fields[name]
	return v, ok
}

// Len returns the number of arguments carried by the input.
func (in Input) Len() int {
	if in.kind == KindNamed {
		return len(in.fields)
	}
	return len(in.args)
}

// String renders the input for progress displays and error messages.
func (in Input) String() string {
	switch in.kind {
	case KindPositional:
		return fmt.Sprintf("%v", in.args)
	case KindNamed:
		// Render fields in key order so the output is stable.
		keys := slices.Sorted(maps.Keys(in.fields))
		out := "{"
		for i, k := range keys {
			if i > 0 {
				out += " "
			}
			out += fmt.Sprintf("%s:%v", k, in.fields[k])
		}
		return out + "}"
	default:
		return "<invalid input>"
	}
}
