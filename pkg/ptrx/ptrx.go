// Package ptrx holds small generic helpers for optional (pointer) values.
package ptrx

// To returns a pointer to v.
func To[T any](v T) *T {
	return &v
}

// Value dereferences p, returning the zero value for nil.
func Value[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// ValueOr dereferences p, returning def for nil.
func ValueOr[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}

// NonEmpty returns a pointer to s, or nil when s is empty.
func NonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
