package model

import "encoding/json"

// Source classifies where a value came from.
type Source string

const (
	// SourceExplicit marks a value supplied directly by the caller.
	SourceExplicit Source = "explicit"
	// SourceInferred marks a value derived from other supplied data.
	SourceInferred Source = "inferred"
	// SourceDefault marks a system fallback injected for a missing input.
	SourceDefault Source = "default"
)

// Value is a provenance-tagged scalar. The tag travels with the value
// through every transformation; constructing a new Value is the only way
// to change it. The zero Value carries an empty source, which downstream
// confidence derivation treats as defaulted.
type Value[T any] struct {
	value  T
	source Source
}

// Explicit wraps a caller-supplied value.
func Explicit[T any](v T) Value[T] {
	return Value[T]{value: v, source: SourceExplicit}
}

// Inferred wraps a value derived from other inputs.
func Inferred[T any](v T) Value[T] {
	return Value[T]{value: v, source: SourceInferred}
}

// Default wraps a system-default value.
func Default[T any](v T) Value[T] {
	return Value[T]{value: v, source: SourceDefault}
}

// Tagged wraps a value with the given source tag. Unknown tags are kept
// as-is; confidence derivation degrades them to default.
func Tagged[T any](v T, src Source) Value[T] {
	return Value[T]{value: v, source: src}
}

// Get returns the underlying value.
func (v Value[T]) Get() T {
	return v.value
}

// Source returns the provenance tag.
func (v Value[T]) Source() Source {
	return v.source
}

// Map applies a pure transformation to the value, preserving the tag.
func (v Value[T]) Map(f func(T) T) Value[T] {
	return Value[T]{value: f(v.value), source: v.source}
}

// Transform applies a type-changing transformation, preserving the tag.
// Methods cannot introduce type parameters, so the cross-type variant is
// a package function.
func Transform[T, U any](v Value[T], f func(T) U) Value[U] {
	return Value[U]{value: f(v.value), source: v.source}
}

// valueEnvelope is the wire form of a provenance-tagged value.
type valueEnvelope[T any] struct {
	Value  T      `json:"value"`
	Source Source `json:"source"`
}

// MarshalJSON renders the value together with its tag.
func (v Value[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(valueEnvelope[T]{Value: v.value, Source: v.source})
}

// UnmarshalJSON accepts the {value, source} envelope form.
func (v *Value[T]) UnmarshalJSON(data []byte) error {
	var env valueEnvelope[T]
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	v.value = env.Value
	v.source = env.Source
	return nil
}
