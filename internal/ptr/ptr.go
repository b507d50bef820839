// Package ptr provides pointer helpers for optional fields.
package ptr

// To returns a pointer to v, for optional fields set in composite literals.
func To[T any](v T) *T {
	return &v
}
