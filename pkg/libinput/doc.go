// Package libinput is an ownership-checked Go layer over libinput.
//
// Every wrapper (Context, Device, Seat, DeviceGroup) owns exactly one
// reference on the library object it points to. Clone takes another
// reference and Close gives one back; Close is idempotent per value, so
// it is safe to defer on every path. Wrapping a raw pointer with one of
// the FromRaw constructors always takes a new reference: the caller's own
// reference, if any, is unaffected.
//
// Device descriptors are opened and closed by caller-supplied functions
// (see OpenFunc and CloseFunc), which lets a program open nodes directly
// or through a session manager. The library calls them from inside
// Dispatch, AssignSeat and Resume.
//
// Events are pulled either manually with Dispatch and GetEvent, or through
// an EventStream which waits on the context descriptor:
//
//	li, err := libinput.New(open, close)
//	if err != nil {
//		return err
//	}
//	defer li.Close()
//	if err := li.AssignSeat("seat0"); err != nil {
//		return err
//	}
//	stream, err := li.Events()
//	if err != nil {
//		return err
//	}
//	defer stream.Close()
//	for ev, err := range stream.All(ctx) {
//		if err != nil {
//			return err
//		}
//		handle(ev)
//		ev.Close()
//	}
//
// libinput is not thread safe. A context and the objects reached through
// it must be driven from one goroutine at a time.
package libinput
