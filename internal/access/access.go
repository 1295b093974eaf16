// Package access opens evdev device nodes on behalf of libinput.
//
// Two back ends exist. Direct calls open(2) and needs read access to
// /dev/input, which usually means root or the input group. Logind asks
// systemd-logind for the descriptors of the caller's session over D-Bus,
// which works for an unprivileged user on an active seat and lets logind
// revoke access when the session is switched away.
package access

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Opener acquires and releases device descriptors. Its methods match
// libinput.OpenFunc and libinput.CloseFunc.
type Opener interface {
	Open(path string, flags int) (int, error)
	Close(fd int)
}

// Mode selects a back end.
type Mode string

const (
	ModeDirect Mode = "direct"
	ModeLogind Mode = "logind"
)

// ParseMode parses a back end name, case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeDirect, ModeLogind:
		return m, nil
	case "":
		return ModeDirect, nil
	default:
		return "", fmt.Errorf("unknown access mode %q (want %q or %q)", s, ModeDirect, ModeLogind)
	}
}

// Backend is an Opener that holds resources of its own.
type Backend interface {
	Opener
	Shutdown() error
}

// Session is implemented by back ends tied to a login session whose
// foreground state can change.
type Session interface {
	// OnActiveChanged registers fn to run when the session becomes active
	// or inactive.
	OnActiveChanged(fn func(active bool))
	// Active reports whether the session is in the foreground.
	Active() (bool, error)
}

// New returns the back end for mode. For ModeLogind it connects to the
// system bus and takes control of the caller's session.
func New(ctx context.Context, mode Mode, log *slog.Logger) (Backend, error) {
	if log == nil {
		log = slog.Default()
	}
	switch mode {
	case ModeDirect:
		return NewDirect(log), nil
	case ModeLogind:
		l, err := DialLogind(ctx, log)
		if err != nil {
			return nil, err
		}
		return l, nil
	default:
		return nil, fmt.Errorf("unknown access mode %q", mode)
	}
}
