//go:build !linux || !cgo || nolibinput

package sys

// Native reports ErrUnavailable: this build carries no libinput bindings.
// Callers can still supply their own Library implementation.
func Native() (Library, error) {
	return nil, ErrUnavailable
}
