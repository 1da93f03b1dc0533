// Package features computes the fixed-key scene feature vector used by the
// location rules and the location knowledge base.
package features

import (
	"encoding/json"
	"sort"
)

// Vector maps feature names to values.
type Vector map[string]float64

// Get returns a feature value, or zero when absent.
func (v Vector) Get(key string) float64 {
	return v[key]
}

// Keys returns the feature names in sorted order.
func (v Vector) Keys() []string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns an independent copy.
func (v Vector) Clone() Vector {
	out := make(Vector, len(v))
	for k, x := range v {
		out[k] = x
	}
	return out
}

// UnmarshalJSON accepts any object and keeps only its numeric members, so
// hand-edited knowledge files with stray fields still load.
func (v *Vector) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Vector, len(raw))
	for k, msg := range raw {
		var f *float64
		if err := json.Unmarshal(msg, &f); err != nil || f == nil {
			continue
		}
		out[k] = *f
	}
	*v = out
	return nil
}
