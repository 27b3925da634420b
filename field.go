package tally

import "encoding/json"

// Field is an optional value in a patch: a Field that is not set leaves the
// target untouched.
//
// Combined with decimal.NullDecimal it expresses "not in the patch", "set to
// unknown" and "set to a value" without overloading nil.
type Field[T any] struct {
	value T
	set   bool
}

// Set returns a Field holding v.
func Set[T any](v T) Field[T] { return Field[T]{value: v, set: true} }

// Get returns the value and whether it is set.
func (f Field[T]) Get() (T, bool) { return f.value, f.set }

// IsZero reports whether f is not set.
func (f Field[T]) IsZero() bool { return !f.set }

// Or returns the value when set, or 'def'.
func (f Field[T]) Or(def T) T {
	if f.set {
		return f.value
	}
	return def
}

// MarshalJSON encodes a set field as its value, and an unset one as null.
func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.set {
		return []byte("null"), nil
	}
	return json.Marshal(f.value)
}

// UnmarshalJSON sets the field unless the value is null.
func (f *Field[T]) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = Field[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = Set(v)
	return nil
}
