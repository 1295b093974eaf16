package libinput

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"

	"inputd/internal/reactor"
)

type streamState int

const (
	stateWaiting streamState = iota
	stateDraining
	stateExhausted
)

func (s streamState) String() string {
	switch s {
	case stateWaiting:
		return "waiting"
	case stateDraining:
		return "draining"
	default:
		return "exhausted"
	}
}

// EventStream turns a Context into a pull-based sequence of events. It
// waits for the context's descriptor to become readable, dispatches, and
// hands out queued events one at a time in library order. Nothing is
// buffered beyond the library's own queue.
//
// Only one goroutine may call Next at a time, and Close must not run
// concurrently with Next; cancel Next's context first.
type EventStream struct {
	c       *Context
	r       *reactor.Reactor
	fd      int
	state   streamState
	primed  bool
	closed  bool
	stopped bool
}

// Events returns a stream over a clone of c. The stream keeps the context
// alive until the stream is closed.
func (c *Context) Events() (*EventStream, error) {
	r, err := reactor.New()
	if err != nil {
		return nil, fmt.Errorf("create reactor: %w", err)
	}
	clone := c.Clone()
	fd := clone.Fd()
	if err := r.Register(fd); err != nil {
		_ = clone.Close()
		_ = r.Close()
		return nil, fmt.Errorf("watch libinput fd %d: %w", fd, err)
	}
	return &EventStream{c: clone, r: r, fd: fd}, nil
}

// Next returns the next event, waiting for one if necessary. The first
// call dispatches without waiting so that devices added by AssignSeat are
// reported even if the descriptor was already drained.
//
// If ctx ends while waiting, Next returns ctx.Err() and the stream can be
// used again. A dispatch failure is returned once as a *DispatchError;
// every later call returns io.EOF. After Close, Next returns
// ErrStreamClosed.
func (s *EventStream) Next(ctx context.Context) (Event, error) {
	if s.closed {
		return nil, ErrStreamClosed
	}
	for {
		switch s.state {
		case stateExhausted:
			return nil, io.EOF

		case stateDraining:
			if ev, ok := s.c.GetEvent(); ok {
				return ev, nil
			}
			s.state = stateWaiting

		case stateWaiting:
			if s.primed {
				if _, err := s.r.Wait(ctx); err != nil {
					if ctxErr := ctx.Err(); ctxErr != nil {
						return nil, ctxErr
					}
					s.exhaust()
					return nil, fmt.Errorf("wait for libinput fd: %w", err)
				}
			}
			s.primed = true
			if err := s.c.Dispatch(); err != nil {
				s.exhaust()
				return nil, err
			}
			s.state = stateDraining
		}
	}
}

// exhaust stops watching the descriptor after a terminal error. The
// context clone is kept until Close.
func (s *EventStream) exhaust() {
	s.state = stateExhausted
	s.stop()
}

func (s *EventStream) stop() error {
	if s.stopped {
		return nil
	}
	s.stopped = true
	err := s.r.Unregister(s.fd)
	if cerr := s.r.Close(); err == nil {
		err = cerr
	}
	return err
}

// Close stops watching the descriptor and releases the stream's context
// clone. Events already queued in the library but not yet returned are
// left there. Calling Close twice is a no-op.
func (s *EventStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	err := s.stop()
	if cerr := s.c.Close(); err == nil {
		err = cerr
	}
	return err
}

// All ranges over the stream until ctx ends, the stream is exhausted or
// the consumer stops. A terminal error, including ctx.Err(), is yielded
// once as the last pair; io.EOF is not yielded.
func (s *EventStream) All(ctx context.Context) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		for {
			ev, err := s.Next(ctx)
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(ev, nil) {
				return
			}
		}
	}
}
