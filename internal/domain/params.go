package domain

import "maps"

// SamplesKey is the API parameter controlling how many independent
// generations the LMP produces per datapoint.
const SamplesKey = "n"

// APIParams is the parameter map handed to the LMP on every invocation.
// Typical keys are model, temperature, max_tokens, and the sample count.
type APIParams map[string]any

// Merge combines the receiver with an override map, returning a new map.
// Keys present in the override win on conflict; neither argument is
// modified.
func (p APIParams) Merge(override APIParams) APIParams {
	merged := make(APIParams, len(p)+len(override))
	maps.Copy(merged, p)
	maps.Copy(merged, override)
	return merged
}

// Clone returns a shallow copy of the parameters.
func (p APIParams) Clone() APIParams {
	if p == nil {
		return APIParams{}
	}
	return maps.Clone(p)
}

// WithSamples returns a copy of the parameters with the sample-count field
// forced to n.
func (p APIParams) WithSamples(n int) APIParams {
	merged := p.Clone()
	merged[SamplesKey] = n
	return merged
}

// Samples reports the requested sample count, defaulting to 1 when the
// field is absent or not an integer.
func (p APIParams) Samples() int {
	v, ok := p[SamplesKey]
	if !ok {
		return 1
	}
	switch n := v.(type) {
	case int:
		if n > 0 {
			return n
		}
	case int64:
		if n > 0 {
			return int(n)
		}
	case float64:
		if n >= 1 {
			return int(n)
		}
	}
	return 1
}
