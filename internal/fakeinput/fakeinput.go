// Package fakeinput is an in-memory stand-in for libinput.
//
// Library implements sys.Library with the same reference counting rules as
// the C library and keeps a tally of every ref/unref the caller makes, so
// tests can check that the Go wrappers balance them. Device nodes are
// scripted with AddDevice/RemoveDevice and input is injected with Key,
// Motion and Emit. Injected data is "kernel side" until Dispatch moves it
// onto the context's event queue, exactly like the real library; the
// readiness descriptor is an eventfd that is readable while undispatched
// data exists.
//
// Callbacks (open/close restricted, log sink) run with the library lock
// held and must not call back into the Library.
package fakeinput

import (
	"fmt"
	"sort"
	"sync"
	"syscall"

	"github.com/eapache/queue"
	"golang.org/x/sys/unix"

	"inputd/pkg/libinput/sys"
)

// OpenFlags are the flags libinput passes to open_restricted for evdev
// nodes.
const OpenFlags = unix.O_RDWR | unix.O_NONBLOCK | unix.O_CLOEXEC

// DeviceSpec describes a scripted device node.
type DeviceSpec struct {
	Devnode      string
	Sysname      string
	Syspath      string
	Name         string
	Seat         string
	Group        string
	OutputName   string
	VendorID     uint32
	ProductID    uint32
	Bustype      uint32
	Capabilities []sys.Capability
}

// Payload carries the data of an injected event. Only the member matching
// the event type is used.
type Payload struct {
	Keyboard sys.KeyboardData
	Pointer  sys.PointerData
	Touch    sys.TouchData
	Gesture  sys.GestureData
	Switch   sys.SwitchData
}

// Stats counts calls made through the sys.Library surface.
type Stats struct {
	ContextsCreated   int
	ContextsDestroyed int
	ContextRefs       int
	ContextUnrefs     int
	DeviceRefs        int
	DeviceUnrefs      int
	SeatRefs          int
	SeatUnrefs        int
	GroupRefs         int
	GroupUnrefs       int
	EventsDestroyed   int
	Opens             int
	OpenFailures      int
	Closes            int
}

// Live counts objects that have not been freed yet.
type Live struct {
	Contexts int
	Devices  int
	Seats    int
	Groups   int
	Events   int
}

type libctx struct {
	ptr         sys.Ptr
	refs        int
	iface       *sys.Interface
	userData    uintptr
	efd         int
	assigned    bool
	seatID      string
	suspended   bool
	open        map[string]*device
	order       []*device
	seats       map[string]*seat
	groups      map[string]*group
	pending     *queue.Queue
	events      *queue.Queue
	logHandler  bool
	logPriority sys.LogPriority
	dispatchErr syscall.Errno
}

type device struct {
	ptr   sys.Ptr
	refs  int
	spec  DeviceSpec
	fd    int32
	ctx   *libctx
	seat  *seat
	group *group
}

type seat struct {
	ptr      sys.Ptr
	refs     int
	physical string
	logical  string
	ctx      *libctx
}

type group struct {
	ptr  sys.Ptr
	refs int
	key  string
	ctx  *libctx
}

type event struct {
	ptr     sys.Ptr
	typ     sys.EventType
	device  *device
	payload Payload
}

type node struct {
	spec    DeviceSpec
	present bool
}

// Library is a simulated libinput. The zero value is not usable; call New.
type Library struct {
	mu sync.Mutex

	next  sys.Ptr
	clock uint64

	nodes    []*node
	contexts map[sys.Ptr]*libctx
	devices  map[sys.Ptr]*device
	seats    map[sys.Ptr]*seat
	groups   map[sys.Ptr]*group
	events   map[sys.Ptr]*event

	stats       Stats
	failUdev    bool
	failCreate  bool
	failResume  bool
	failAssign  bool
	userDataLog []uintptr
}

var _ sys.Library = (*Library)(nil)

// New returns an empty simulated library.
func New() *Library {
	return &Library{
		next:     0x1000,
		contexts: make(map[sys.Ptr]*libctx),
		devices:  make(map[sys.Ptr]*device),
		seats:    make(map[sys.Ptr]*seat),
		groups:   make(map[sys.Ptr]*group),
		events:   make(map[sys.Ptr]*event),
	}
}

func (l *Library) alloc() sys.Ptr {
	l.next += 0x10
	return l.next
}

func (l *Library) tick() uint64 {
	l.clock += 1000
	return l.clock
}

// Context management

func (l *Library) UdevCreateContext(iface *sys.Interface, userData uintptr) (sys.Ptr, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.failUdev {
		return 0, fmt.Errorf("udev: failed to create context")
	}
	if l.failCreate {
		return 0, fmt.Errorf("libinput: failed to create udev context")
	}

	efd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		return 0, fmt.Errorf("eventfd: %w", err)
	}

	c := &libctx{
		ptr:         l.alloc(),
		refs:        1,
		iface:       iface,
		userData:    userData,
		efd:         efd,
		open:        make(map[string]*device),
		seats:       make(map[string]*seat),
		groups:      make(map[string]*group),
		pending:     queue.New(),
		events:      queue.New(),
		logPriority: sys.LogError,
	}
	l.contexts[c.ptr] = c
	l.stats.ContextsCreated++
	l.userDataLog = append(l.userDataLog, userData)
	return c.ptr, nil
}

func (l *Library) context(p sys.Ptr) *libctx {
	c, ok := l.contexts[p]
	if !ok {
		panic(fmt.Sprintf("fakeinput: context %#x is not live", uintptr(p)))
	}
	return c
}

func (l *Library) Ref(p sys.Ptr) sys.Ptr {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.context(p).refs++
	l.stats.ContextRefs++
	return p
}

func (l *Library) Unref(p sys.Ptr) sys.Ptr {
	l.mu.Lock()
	defer l.mu.Unlock()

	c := l.context(p)
	c.refs--
	l.stats.ContextUnrefs++
	if c.refs > 0 {
		return p
	}
	l.destroyContext(c)
	return 0
}

func (l *Library) destroyContext(c *libctx) {
	for _, d := range append([]*device(nil), c.order...) {
		l.closeDevice(c, d)
	}
	for c.events.Length() > 0 {
		l.destroyEvent(c.events.Remove().(*event))
	}
	for c.pending.Length() > 0 {
		c.pending.Remove()
	}
	_ = unix.Close(c.efd)
	delete(l.contexts, c.ptr)
	l.stats.ContextsDestroyed++
}

func (l *Library) UserData(p sys.Ptr) uintptr {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.context(p).userData
}

func (l *Library) Fd(p sys.Ptr) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.context(p).efd
}

func (l *Library) Dispatch(p sys.Ptr) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	c := l.context(p)
	if c.dispatchErr != 0 {
		errno := c.dispatchErr
		c.dispatchErr = 0
		return -int(errno)
	}

	var buf [8]byte
	_, _ = unix.Read(c.efd, buf[:])

	for c.pending.Length() > 0 {
		op := c.pending.Remove().(func())
		op()
	}
	return 0
}

func (l *Library) GetEvent(p sys.Ptr) sys.Ptr {
	l.mu.Lock()
	defer l.mu.Unlock()

	c := l.context(p)
	if c.events.Length() == 0 {
		return 0
	}
	return c.events.Remove().(*event).ptr
}

func (l *Library) Suspend(p sys.Ptr) {
	l.mu.Lock()
	defer l.mu.Unlock()

	c := l.context(p)
	if c.suspended {
		return
	}
	c.suspended = true
	for _, d := range append([]*device(nil), c.order...) {
		l.removeDevice(c, d)
	}
}

func (l *Library) Resume(p sys.Ptr) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	c := l.context(p)
	if l.failResume {
		return -1
	}
	if !c.suspended {
		return 0
	}
	c.suspended = false
	if c.assigned {
		l.enumerate(c)
	}
	return 0
}

func (l *Library) UdevAssignSeat(p sys.Ptr, seatID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	c := l.context(p)
	if c.assigned || l.failAssign {
		return -1
	}
	c.assigned = true
	c.seatID = seatID
	if !c.suspended {
		l.enumerate(c)
	}
	return 0
}

func (l *Library) LogSetPriority(p sys.Ptr, priority sys.LogPriority) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.context(p).logPriority = priority
}

func (l *Library) LogSetHandler(p sys.Ptr) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.context(p).logHandler = true
}

func (l *Library) log(c *libctx, priority sys.LogPriority, format string, args ...any) {
	if !c.logHandler || priority < c.logPriority {
		return
	}
	sys.EmitLog(priority, fmt.Sprintf(format, args...))
}

// Devices on the context side

func (l *Library) enumerate(c *libctx) {
	for _, n := range l.nodes {
		if n.present && n.spec.Seat == c.seatID {
			l.addDevice(c, n.spec)
		}
	}
}

func (l *Library) addDevice(c *libctx, spec DeviceSpec) {
	if _, ok := c.open[spec.Devnode]; ok {
		return
	}

	l.stats.Opens++
	fd := c.iface.OpenRestricted(spec.Devnode, OpenFlags, c.userData)
	if fd < 0 {
		l.stats.OpenFailures++
		l.log(c, sys.LogError, "%s: failed to open %s (%s)",
			spec.Sysname, spec.Devnode, syscall.Errno(-fd).Error())
		return
	}
	l.log(c, sys.LogDebug, "%s: opened %s as fd %d", spec.Sysname, spec.Devnode, fd)

	d := &device{
		ptr:   l.alloc(),
		refs:  1,
		spec:  spec,
		fd:    fd,
		ctx:   c,
		seat:  l.seatFor(c, spec.Seat),
		group: l.groupFor(c, spec.Group, spec.Devnode),
	}
	l.devices[d.ptr] = d
	c.open[spec.Devnode] = d
	c.order = append(c.order, d)

	l.queueEvent(c, sys.EventDeviceAdded, d, Payload{})
}

func (l *Library) removeDevice(c *libctx, d *device) {
	l.queueEvent(c, sys.EventDeviceRemoved, d, Payload{})
	l.closeDevice(c, d)
}

func (l *Library) closeDevice(c *libctx, d *device) {
	c.iface.CloseRestricted(d.fd, c.userData)
	l.stats.Closes++
	delete(c.open, d.spec.Devnode)
	for i, o := range c.order {
		if o == d {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	l.unrefDevice(d)
}

func (l *Library) seatFor(c *libctx, physical string) *seat {
	if s, ok := c.seats[physical]; ok {
		s.refs++
		return s
	}
	s := &seat{ptr: l.alloc(), refs: 1, physical: physical, logical: "default", ctx: c}
	c.seats[physical] = s
	l.seats[s.ptr] = s
	return s
}

func (l *Library) groupFor(c *libctx, key, devnode string) *group {
	if key == "" {
		key = devnode
	}
	if g, ok := c.groups[key]; ok {
		g.refs++
		return g
	}
	g := &group{ptr: l.alloc(), refs: 1, key: key, ctx: c}
	c.groups[key] = g
	l.groups[g.ptr] = g
	return g
}

func (l *Library) unrefDevice(d *device) bool {
	d.refs--
	if d.refs > 0 {
		return false
	}
	l.unrefSeat(d.seat)
	l.unrefGroup(d.group)
	delete(l.devices, d.ptr)
	return true
}

func (l *Library) unrefSeat(s *seat) bool {
	s.refs--
	if s.refs > 0 {
		return false
	}
	if s.ctx.seats[s.physical] == s {
		delete(s.ctx.seats, s.physical)
	}
	delete(l.seats, s.ptr)
	return true
}

func (l *Library) unrefGroup(g *group) bool {
	g.refs--
	if g.refs > 0 {
		return false
	}
	if g.ctx.groups[g.key] == g {
		delete(g.ctx.groups, g.key)
	}
	delete(l.groups, g.ptr)
	return true
}

// Events

func (l *Library) queueEvent(c *libctx, typ sys.EventType, d *device, p Payload) {
	d.refs++
	e := &event{ptr: l.alloc(), typ: typ, device: d, payload: p}
	l.events[e.ptr] = e
	c.events.Add(e)
}

func (l *Library) event(p sys.Ptr) *event {
	e, ok := l.events[p]
	if !ok {
		panic(fmt.Sprintf("fakeinput: event %#x is not live", uintptr(p)))
	}
	return e
}

func (l *Library) destroyEvent(e *event) {
	l.unrefDevice(e.device)
	delete(l.events, e.ptr)
	l.stats.EventsDestroyed++
}

func (l *Library) EventGetType(p sys.Ptr) sys.EventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.event(p).typ
}

func (l *Library) EventGetDevice(p sys.Ptr) sys.Ptr {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.event(p).device.ptr
}

func (l *Library) EventDestroy(p sys.Ptr) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.destroyEvent(l.event(p))
}

func (l *Library) payload(p sys.Ptr) Payload {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.event(p).payload
}

func (l *Library) KeyboardEvent(p sys.Ptr) sys.KeyboardData { return l.payload(p).Keyboard }
func (l *Library) PointerEvent(p sys.Ptr) sys.PointerData   { return l.payload(p).Pointer }
func (l *Library) TouchEvent(p sys.Ptr) sys.TouchData       { return l.payload(p).Touch }
func (l *Library) GestureEvent(p sys.Ptr) sys.GestureData   { return l.payload(p).Gesture }
func (l *Library) SwitchEvent(p sys.Ptr) sys.SwitchData     { return l.payload(p).Switch }

// Device handles

func (l *Library) device(p sys.Ptr) *device {
	d, ok := l.devices[p]
	if !ok {
		panic(fmt.Sprintf("fakeinput: device %#x is not live", uintptr(p)))
	}
	return d
}

func (l *Library) DeviceRef(p sys.Ptr) sys.Ptr {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.device(p).refs++
	l.stats.DeviceRefs++
	return p
}

func (l *Library) DeviceUnref(p sys.Ptr) sys.Ptr {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.stats.DeviceUnrefs++
	if l.unrefDevice(l.device(p)) {
		return 0
	}
	return p
}

func (l *Library) spec(p sys.Ptr) DeviceSpec {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.device(p).spec
}

func (l *Library) DeviceName(p sys.Ptr) string      { return l.spec(p).Name }
func (l *Library) DeviceSysname(p sys.Ptr) string   { return l.spec(p).Sysname }
func (l *Library) DeviceVendorID(p sys.Ptr) uint32  { return l.spec(p).VendorID }
func (l *Library) DeviceProductID(p sys.Ptr) uint32 { return l.spec(p).ProductID }
func (l *Library) DeviceBustype(p sys.Ptr) uint32   { return l.spec(p).Bustype }

func (l *Library) DeviceOutputName(p sys.Ptr) (string, bool) {
	s := l.spec(p)
	return s.OutputName, s.OutputName != ""
}

func (l *Library) DeviceHasCapability(p sys.Ptr, c sys.Capability) bool {
	for _, have := range l.spec(p).Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

func (l *Library) DeviceUdev(p sys.Ptr) (sys.UdevInfo, bool) {
	s := l.spec(p)
	if s.Devnode == "" {
		return sys.UdevInfo{}, false
	}
	syspath := s.Syspath
	if syspath == "" {
		syspath = "/sys/devices/virtual/input/" + s.Sysname
	}
	return sys.UdevInfo{Syspath: syspath, Sysname: s.Sysname, Devnode: s.Devnode}, true
}

func (l *Library) DeviceSeat(p sys.Ptr) sys.Ptr {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.device(p).seat.ptr
}

func (l *Library) DeviceGroup(p sys.Ptr) sys.Ptr {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.device(p).group.ptr
}

// Seats and groups

func (l *Library) seat(p sys.Ptr) *seat {
	s, ok := l.seats[p]
	if !ok {
		panic(fmt.Sprintf("fakeinput: seat %#x is not live", uintptr(p)))
	}
	return s
}

func (l *Library) SeatRef(p sys.Ptr) sys.Ptr {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seat(p).refs++
	l.stats.SeatRefs++
	return p
}

func (l *Library) SeatUnref(p sys.Ptr) sys.Ptr {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.stats.SeatUnrefs++
	if l.unrefSeat(l.seat(p)) {
		return 0
	}
	return p
}

func (l *Library) SeatPhysicalName(p sys.Ptr) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.seat(p).physical
}

func (l *Library) SeatLogicalName(p sys.Ptr) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.seat(p).logical
}

func (l *Library) group(p sys.Ptr) *group {
	g, ok := l.groups[p]
	if !ok {
		panic(fmt.Sprintf("fakeinput: device group %#x is not live", uintptr(p)))
	}
	return g
}

func (l *Library) DeviceGroupRef(p sys.Ptr) sys.Ptr {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.group(p).refs++
	l.stats.GroupRefs++
	return p
}

func (l *Library) DeviceGroupUnref(p sys.Ptr) sys.Ptr {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.stats.GroupUnrefs++
	if l.unrefGroup(l.group(p)) {
		return 0
	}
	return p
}

// Inspection

// Stats returns the call tally.
func (l *Library) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}

// Live returns the number of objects not yet freed.
func (l *Library) Live() Live {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Live{
		Contexts: len(l.contexts),
		Devices:  len(l.devices),
		Seats:    len(l.seats),
		Groups:   len(l.groups),
		Events:   len(l.events),
	}
}

// UserDataLog returns every user-data value passed to UdevCreateContext, in
// creation order.
func (l *Library) UserDataLog() []uintptr {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]uintptr(nil), l.userDataLog...)
}

// OpenDevnodes lists the nodes currently held open by a context.
func (l *Library) OpenDevnodes(p sys.Ptr) []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	c := l.context(p)
	nodes := make([]string, 0, len(c.open))
	for n := range c.open {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)
	return nodes
}

// Pending reports the number of undispatched and of queued events for a
// context.
func (l *Library) Pending(p sys.Ptr) (undispatched, queued int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	c := l.context(p)
	return c.pending.Length(), c.events.Length()
}
