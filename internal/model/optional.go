package model

import (
	"bytes"
	"database/sql"
	"encoding/json"
)

// Optional holds a value that may be absent. It is used for the nullable
// columns of the domain (ticket type price and limit, descriptions, guest
// observations, entry time) so "not set" and "set to the zero value" stay
// distinguishable: a price of 0 is a free ticket, a missing price is unpriced.
//
// JSON: an absent value encodes as null, and null (or a missing key) decodes
// as absent.
type Optional[T any] struct {
	value T
	set   bool
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

// None returns an empty Optional.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// FromPtr converts a nil-able pointer, as produced by JSON request decoding,
// into an Optional.
func FromPtr[T any](p *T) Optional[T] {
	if p == nil {
		return None[T]()
	}
	return Some(*p)
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.set
}

// IsSet reports whether a value is present.
func (o Optional[T]) IsSet() bool {
	return o.set
}

// OrElse returns the value, or fallback when absent.
func (o Optional[T]) OrElse(fallback T) T {
	if !o.set {
		return fallback
	}
	return o.value
}

// Null converts to the database/sql nullable wrapper for writes.
func (o Optional[T]) Null() sql.Null[T] {
	return sql.Null[T]{V: o.value, Valid: o.set}
}

// FromNull converts a scanned database/sql nullable into an Optional.
func FromNull[T any](n sql.Null[T]) Optional[T] {
	if !n.Valid {
		return None[T]()
	}
	return Some(n.V)
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.set {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = None[T]()
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}
