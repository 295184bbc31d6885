package kernel

import (
	"maps"
	"slices"
)

// InputKey is the name of the default variable.
const InputKey = "input"

// Variables carries named string values into skill functions.
// Not safe for concurrent mutation.
type Variables struct {
	values map[string]string
}

// NewVariables creates a variable set with the given input value.
func NewVariables(input string) *Variables {
	return &Variables{
		values: map[string]string{InputKey: input},
	}
}

// Input returns the default variable.
func (v *Variables) Input() string {
	return v.values[InputKey]
}

// Update replaces the default variable.
func (v *Variables) Update(input string) *Variables {
	v.values[InputKey] = input
	return v
}

// Get returns the value of key and whether it is set.
func (v *Variables) Get(key string) (string, bool) {
	val, ok := v.values[key]
	return val, ok
}

// Set assigns value to key.
func (v *Variables) Set(key, value string) *Variables {
	v.values[key] = value
	return v
}

// Keys returns the variable names, sorted.
func (v *Variables) Keys() []string {
	return slices.Sorted(maps.Keys(v.values))
}

// Clone returns an independent copy.
func (v *Variables) Clone() *Variables {
	return &Variables{values: maps.Clone(v.values)}
}
