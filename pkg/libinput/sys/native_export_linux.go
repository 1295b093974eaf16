//go:build linux && cgo && !nolibinput

package sys

// #include <stdint.h>
import "C"

import (
	"strings"
	"syscall"
)

// Entry points called from the C trampolines in native_linux.c. This file
// may only carry declarations in its preamble.

//export inputdOpenRestricted
func inputdOpenRestricted(path *C.char, flags C.int, userData C.uintptr_t) C.int {
	iface := nativeInterface.Load()
	if iface == nil || iface.OpenRestricted == nil {
		return -C.int(syscall.ENODEV)
	}
	return C.int(iface.OpenRestricted(C.GoString(path), int32(flags), uintptr(userData)))
}

//export inputdCloseRestricted
func inputdCloseRestricted(fd C.int, userData C.uintptr_t) {
	iface := nativeInterface.Load()
	if iface == nil || iface.CloseRestricted == nil {
		return
	}
	iface.CloseRestricted(int32(fd), uintptr(userData))
}

//export inputdLogMessage
func inputdLogMessage(priority C.int, message *C.char) {
	EmitLog(LogPriority(priority), strings.TrimRight(C.GoString(message), "\n"))
}
