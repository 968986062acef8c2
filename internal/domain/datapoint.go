package domain

import "maps"

// Datapoint is one row of an evaluation dataset. It carries the input the
// LMP will be invoked with, an optional expected value read by criteria,
// and arbitrary metadata.
type Datapoint struct {
	// Input holds the arguments for the LMP call, already resolved into a
	// positional or named variant.
	Input Input `json:"input"`

	// Expected is the reference value criteria compare outputs against.
	// It may be nil when no criterion needs it.
	Expected any `json:"expected,omitempty"`

	// Meta carries additional row-level metadata available to criteria.
	Meta map[string]any `json:"meta,omitempty"`
}

// NewDatapoint builds a Datapoint from a raw input value, resolving the
// input shape through ParseInput. It fails with ErrInvalidInput when the
// value is neither a sequence nor a string-keyed mapping.
func NewDatapoint(input any, expected any) (Datapoint, error) {
	in, err := ParseInput(input)
	if err != nil {
		return Datapoint{}, err
	}
	return Datapoint{Input: in, Expected: expected}, nil
}

// ExpectedString returns the expected value as a string when it is one.
func (d Datapoint) ExpectedString() (string, bool) {
	s, ok := d.Expected.(string)
	return s, ok
}

// Dataset is an ordered sequence of datapoints. Order is significant only
// for display and indexing; processing order across workers is not
// guaranteed.
type Dataset []Datapoint

// Inputs returns the input of every datapoint in dataset order.
func (d Dataset) Inputs() []Input {
	inputs := make([]Input, len(d))
	for i, dp := range d {
		inputs[i] = dp.Input
	}
	return inputs
}

// Clone returns a shallow-row copy of the dataset. Rows themselves hold
// value-type inputs, so the copy is safe to append to without affecting
// the original.
func (d Dataset) Clone() Dataset {
	out := make(Dataset, len(d))
	copy(out, d)
	for i := range out {
		out[i].Meta = maps.Clone(out[i].Meta)
	}
	return out
}
