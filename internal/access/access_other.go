//go:build !linux

package access

import (
	"context"
	"errors"
	"log/slog"
)

type unsupported struct{}

func (unsupported) Open(string, int) (int, error) { return -1, errors.ErrUnsupported }
func (unsupported) Close(int)                     {}
func (unsupported) Shutdown() error               { return nil }

// NewDirect is unavailable on this platform; every Open fails.
func NewDirect(*slog.Logger) Backend { return unsupported{} }

// DialLogind reports errors.ErrUnsupported on this platform.
func DialLogind(context.Context, *slog.Logger) (Backend, error) {
	return nil, errors.ErrUnsupported
}
