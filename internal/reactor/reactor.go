// Package reactor waits for read readiness on a small set of file
// descriptors.
//
// A Reactor is level-triggered: a descriptor that stays readable is
// reported by every Wait until it is drained. Wait is cancellable through
// its context; cancellation wakes the blocked epoll_wait through an internal
// eventfd instead of polling.
//
// Always Unregister a descriptor (or Close the Reactor) before the owner
// closes it, otherwise a recycled descriptor number can produce wake-ups
// for an unrelated file.
package reactor

import "errors"

// ErrClosed is returned by operations on a closed Reactor.
var ErrClosed = errors.New("reactor closed")
