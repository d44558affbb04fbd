// Package models defines the records persisted in the store file and the
// patch types used to update them.
package models

import (
	"bytes"
	"encoding/json"
)

// Field is one entry of an update patch. The zero value means "not present"
// and leaves the stored value alone; Null clears it; Set replaces it.
type Field[T any] struct {
	present bool
	null    bool
	value   T
}

func Set[T any](v T) Field[T] {
	return Field[T]{present: true, value: v}
}

func Null[T any]() Field[T] {
	return Field[T]{present: true, null: true}
}

// Present reports whether the patch mentions this field at all.
func (f Field[T]) Present() bool { return f.present }

// IsNull reports whether the field was explicitly cleared.
func (f Field[T]) IsNull() bool { return f.present && f.null }

// Value returns the new value, or T's zero value when unset or null.
func (f Field[T]) Value() T { return f.value }

// UnmarshalJSON lets request DTOs decode straight into Field values: a
// missing key leaves the field absent, a JSON null marks it null.
func (f *Field[T]) UnmarshalJSON(b []byte) error {
	f.present = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		f.null = true
		var zero T
		f.value = zero
		return nil
	}
	f.null = false
	return json.Unmarshal(b, &f.value)
}

func applyValue[T any](dst *T, f Field[T]) {
	if !f.present {
		return
	}
	if f.null {
		var zero T
		*dst = zero
		return
	}
	*dst = f.value
}

func applyPtr[T any](dst **T, f Field[T]) {
	if !f.present {
		return
	}
	if f.null {
		*dst = nil
		return
	}
	v := f.value
	*dst = &v
}

func applySlice[T any](dst *[]T, f Field[[]T]) {
	if !f.present {
		return
	}
	if f.null {
		*dst = []T{}
		return
	}
	*dst = cloneSlice(f.value)
}

func cloneSlice[T any](xs []T) []T {
	if xs == nil {
		return []T{}
	}
	out := make([]T, len(xs))
	copy(out, xs)
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
