// ABOUTME: Tri-state optional field for partial updates
// ABOUTME: Distinguishes absent (unchanged), explicit null (cleared), and a value (set)
package models

import (
	"bytes"
	"encoding/json"
)

// Field holds one member of a partial update. The zero value is "unchanged".
type Field[T any] struct {
	present bool
	null    bool
	value   T
}

// Set returns a field carrying v.
func Set[T any](v T) Field[T] {
	return Field[T]{present: true, value: v}
}

// Clear returns a field that explicitly clears the stored value.
func Clear[T any]() Field[T] {
	return Field[T]{present: true, null: true}
}

// Unchanged reports whether the field was absent from the update.
func (f Field[T]) Unchanged() bool { return !f.present }

// Cleared reports whether the field was explicitly null.
func (f Field[T]) Cleared() bool { return f.present && f.null }

// IsSet reports whether the field carries a value.
func (f Field[T]) IsSet() bool { return f.present && !f.null }

// Value returns the carried value, or the zero value when unchanged or cleared.
func (f Field[T]) Value() T { return f.value }

// Apply writes the field onto dst: set copies the value, cleared writes the zero value.
func (f Field[T]) Apply(dst *T) {
	if !f.present {
		return
	}
	var zero T
	if f.null {
		*dst = zero
		return
	}
	*dst = f.value
}

func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.present = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		f.null = true
		var zero T
		f.value = zero
		return nil
	}
	f.null = false
	return json.Unmarshal(data, &f.value)
}

func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.present || f.null {
		return []byte("null"), nil
	}
	return json.Marshal(f.value)
}
