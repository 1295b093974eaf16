package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"inputd/internal/metrics"
	"inputd/pkg/libinput"
)

// activity carries session foreground changes from the logind signal
// goroutine to the event loop. Suspend and Resume must run on the loop's
// goroutine, so a change only records itself and interrupts the current
// Next.
type activity struct {
	mu      sync.Mutex
	pending *bool
	cancel  context.CancelFunc
}

func (a *activity) set(active bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pending = &active
	if a.cancel != nil {
		a.cancel()
	}
}

// arm returns a context for one Next call that ends when a change arrives.
func (a *activity) arm(parent context.Context) (context.Context, context.CancelFunc) {
	a.mu.Lock()
	defer a.mu.Unlock()
	ctx, cancel := context.WithCancel(parent)
	a.cancel = cancel
	if a.pending != nil {
		cancel()
	}
	return ctx, cancel
}

func (a *activity) take() (active, ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pending == nil {
		return false, false
	}
	active = *a.pending
	a.pending = nil
	return active, true
}

type printer struct {
	out     io.Writer
	log     *slog.Logger
	metrics *metrics.InputMetrics
	act     *activity

	// ready, if set, runs once the seat is assigned and the stream is up.
	ready func()
	err   atomic.Pointer[error]
}

// failure returns the error that ended run, or nil while it is running.
func (p *printer) failure() error {
	if e := p.err.Load(); e != nil {
		return *e
	}
	return nil
}

// run assigns seat and prints key events until ctx ends or the stream
// fails. It returns nil on cancellation of ctx.
func (p *printer) run(ctx context.Context, li *libinput.Context, seat string) (err error) {
	defer func() {
		if err != nil {
			p.err.Store(&err)
		}
	}()
	if err := li.AssignSeat(seat); err != nil {
		return fmt.Errorf("assign seat %q: %w", seat, err)
	}
	stream, err := li.Events()
	if err != nil {
		return err
	}
	defer stream.Close()
	if p.ready != nil {
		p.ready()
	}

	suspended := false
	for {
		if active, ok := p.act.take(); ok {
			suspended = p.apply(li, active, suspended)
			p.drain(li)
		}

		nctx, cancel := p.act.arm(ctx)
		ev, err := stream.Next(nctx)
		cancel()
		switch {
		case err == nil:
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, context.Canceled):
			continue
		case errors.Is(err, io.EOF):
			return nil
		default:
			if errors.Is(err, libinput.ErrDispatch) {
				p.metrics.RecordDispatchError()
			}
			return err
		}

		p.handle(ev)
		ev.Close()
	}
}

func (p *printer) apply(li *libinput.Context, active, suspended bool) bool {
	p.metrics.SetSessionActive(active)
	switch {
	case !active && !suspended:
		p.log.Info("session inactive, suspending")
		li.Suspend()
		return true
	case active && suspended:
		p.log.Info("session active, resuming")
		if err := li.Resume(); err != nil {
			p.log.Error("resume failed", "error", err)
			return true
		}
		return false
	}
	return suspended
}

// drain handles the events Suspend and Resume queue. They do not make the
// descriptor readable, so the stream would not see them until the next
// unrelated input.
func (p *printer) drain(li *libinput.Context) {
	for {
		ev, ok := li.GetEvent()
		if !ok {
			return
		}
		p.handle(ev)
		ev.Close()
	}
}

func (p *printer) handle(ev libinput.Event) {
	p.metrics.RecordEvent(ev.Type().String())

	switch e := ev.(type) {
	case *libinput.DeviceAddedEvent:
		p.log.Debug("device added", "device", e.Device().Name(), "sysname", e.Device().Sysname())
	case *libinput.DeviceRemovedEvent:
		p.log.Debug("device removed", "device", e.Device().Name(), "sysname", e.Device().Sysname())
	case *libinput.KeyboardKeyEvent:
		dev := e.Device()
		node := "Unknown"
		if u, ok := dev.Udev(); ok && u.Devnode != "" {
			node = u.Devnode
		}
		fmt.Fprintf(p.out, "Key \"%d\" %s on \"%s\" at node \"%s\"\n", e.Key, e.State, dev.Name(), node)
	}
}
