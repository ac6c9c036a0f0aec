/*
Package bus implements the correlation mailbox of the agent connection. It
rendezvous two arbitrary ordered streams: inbound frames from the transport
and waiters from the callers. Per correlation key the mailbox holds either a
FIFO of buffered frames or a FIFO of waiters, never both.
*/
package bus

import (
	"container/list"
	"sync"

	"github.com/findy-network/findy-agent-conn/agent/mesg"
	"github.com/golang/glog"
)

// Reconnector is signaled when a waiter registers while the transport is
// closed. Schedule must not block.
type Reconnector interface {
	IsOpen() bool
	Schedule()
}

// ClosePolicy decides what happens to unclaimed buffered frames when the
// transport closes. Waiters are always failed.
type ClosePolicy int

const (
	// KeepBuffered leaves unclaimed frames in place, a waiter after the
	// reconnect can still claim them.
	KeepBuffered ClosePolicy = iota

	// DropBuffered discards unclaimed frames.
	DropBuffered
)

func (p ClosePolicy) String() string {
	return [...]string{"KeepBuffered", "DropBuffered"}[p]
}

type entry struct {
	frames  *list.List // of *mesg.Frame
	waiters *list.List // of *Future
}

func (e *entry) isEmpty() bool {
	return e.frames.Len() == 0 && e.waiters.Len() == 0
}

// Mailbox is the keyed dual-queue. All of the mutations go thru the one lock.
type Mailbox struct {
	entries map[string]*entry
	rc      Reconnector
	policy  ClosePolicy

	sync.Mutex
}

type Option func(m *Mailbox)

func WithReconnector(rc Reconnector) Option {
	return func(m *Mailbox) {
		m.rc = rc
	}
}

func WithClosePolicy(p ClosePolicy) Option {
	return func(m *Mailbox) {
		m.policy = p
	}
}

func New(opts ...Option) *Mailbox {
	m := &Mailbox{entries: make(map[string]*entry)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetReconnector sets the reconnector after construction, because the
// reconnector usually needs the mailbox as well.
func (m *Mailbox) SetReconnector(rc Reconnector) {
	m.Lock()
	defer m.Unlock()
	m.rc = rc
}

// entry returns the key's entry and creates it if needed. Note! It doesn't
// lock.
func (m *Mailbox) entry(key string) *entry {
	e, ok := m.entries[key]
	if !ok {
		e = &entry{frames: list.New(), waiters: list.New()}
		m.entries[key] = e
	}
	return e
}

// gc removes the key if it has nothing queued. Note! It doesn't lock.
func (m *Mailbox) gc(key string, e *entry) {
	if e.isEmpty() {
		delete(m.entries, key)
	}
}

// Resolve routes the inbound frame to the oldest waiter of the key. If there
// is no one waiting, the frame is buffered. An unmatched frame isn't an
// error, it only tells that its waiter hasn't subscribed yet.
func (m *Mailbox) Resolve(key string, f *mesg.Frame) {
	m.Lock()
	defer m.Unlock()

	e := m.entry(key)
	if front := e.waiters.Front(); front != nil {
		w := e.waiters.Remove(front).(*Future)
		w.elem = nil
		w.deliver(f, nil)
		m.gc(key, e)
		glog.V(3).Infoln("mailbox resolved:", key)
		return
	}
	e.frames.PushBack(f)
	glog.V(3).Infof("mailbox buffered unmatched (%d): %s", e.frames.Len(), key)
}

// Await registers a waiter for the key. If a frame is already buffered the
// returned Future is resolved immediately with the oldest one. If the
// transport is closed at the moment of registration a reconnect is
// scheduled; the waiter stays parked until a matching frame arrives or the
// transport is torn down.
func (m *Mailbox) Await(key string) *Future {
	w := newFuture(m, key)

	m.Lock()
	e := m.entry(key)
	if front := e.frames.Front(); front != nil {
		f := e.frames.Remove(front).(*mesg.Frame)
		w.deliver(f, nil)
		m.gc(key, e)
	} else {
		w.elem = e.waiters.PushBack(w)
	}
	rc := m.rc
	m.Unlock()

	if rc != nil && !rc.IsOpen() {
		glog.V(3).Infoln("transport closed, schedule reconnect for:", key)
		rc.Schedule()
	}
	return w
}

// FailAllWaiters completes every parked waiter with err and returns how many
// there were. Buffered frames are left in place.
func (m *Mailbox) FailAllWaiters(err error) (count int) {
	m.Lock()
	defer m.Unlock()

	for key, e := range m.entries {
		for front := e.waiters.Front(); front != nil; front = e.waiters.Front() {
			w := e.waiters.Remove(front).(*Future)
			w.elem = nil
			w.deliver(nil, err)
			count++
		}
		m.gc(key, e)
	}
	if count > 0 {
		glog.V(1).Infof("mailbox failed %d waiters: %v", count, err)
	}
	return count
}

// Fail completes the waiter with err if it's still parked. It tells
// whether the waiter was failed.
func (m *Mailbox) Fail(w *Future, err error) bool {
	m.Lock()
	defer m.Unlock()

	e, ok := m.entries[w.key]
	if w.elem == nil || !ok {
		return false
	}
	e.waiters.Remove(w.elem)
	w.elem = nil
	w.deliver(nil, err)
	m.gc(w.key, e)
	return true
}

// Close is called when the transport closes. It fails all of the waiters
// with err and applies the close policy to the buffered frames.
func (m *Mailbox) Close(err error) {
	m.FailAllWaiters(err)
	if m.policy == DropBuffered {
		m.DropBuffered()
	}
}

// DropBuffered discards all of the unclaimed frames and returns how many
// there were.
func (m *Mailbox) DropBuffered() (count int) {
	m.Lock()
	defer m.Unlock()

	for key, e := range m.entries {
		count += e.frames.Len()
		e.frames.Init()
		m.gc(key, e)
	}
	if count > 0 {
		glog.V(1).Infof("mailbox dropped %d unclaimed frames", count)
	}
	return count
}

// Buffered returns the number of unclaimed frames of the key.
func (m *Mailbox) Buffered(key string) int {
	m.Lock()
	defer m.Unlock()
	if e, ok := m.entries[key]; ok {
		return e.frames.Len()
	}
	return 0
}

// Waiting returns the number of parked waiters of the key.
func (m *Mailbox) Waiting(key string) int {
	m.Lock()
	defer m.Unlock()
	if e, ok := m.entries[key]; ok {
		return e.waiters.Len()
	}
	return 0
}

// withdraw takes the waiter back when its caller stops waiting. If the
// waiter was already resolved the frame is handed back to the mailbox at
// the head of the key's queue so it isn't lost.
func (m *Mailbox) withdraw(w *Future) {
	m.Lock()
	defer m.Unlock()

	e, ok := m.entries[w.key]
	if w.elem != nil && ok {
		e.waiters.Remove(w.elem)
		w.elem = nil
		m.gc(w.key, e)
		return
	}
	var r result
	select {
	case r = <-w.ch:
	default:
		return
	}
	if r.frame == nil {
		return
	}
	e = m.entry(w.key)
	if front := e.waiters.Front(); front != nil {
		next := e.waiters.Remove(front).(*Future)
		next.elem = nil
		next.deliver(r.frame, nil)
		m.gc(w.key, e)
		return
	}
	e.frames.PushFront(r.frame)
	glog.V(3).Infoln("mailbox took back frame of cancelled waiter:", w.key)
}
