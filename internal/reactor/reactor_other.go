//go:build !linux

package reactor

import (
	"context"
	"errors"
)

// Reactor is unavailable on this platform.
type Reactor struct{}

// New reports errors.ErrUnsupported.
func New() (*Reactor, error) {
	return nil, errors.ErrUnsupported
}

func (r *Reactor) Register(fd int) error                 { return errors.ErrUnsupported }
func (r *Reactor) Unregister(fd int) error               { return errors.ErrUnsupported }
func (r *Reactor) Registered(fd int) bool                { return false }
func (r *Reactor) Wait(ctx context.Context) (int, error) { return -1, errors.ErrUnsupported }
func (r *Reactor) Close() error                          { return nil }
