/*
Package trans owns the single duplex socket between the client and its agent.
Transport opens and closes the socket, serializes sends and runs the reader
goroutine which passes every inbound text frame to the Listener. Lifecycle
changes are reported to the Listener as well.
*/
package trans

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/findy-network/findy-agent-conn/core"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// CloseReason tells why the socket closed.
type CloseReason int

const (
	ClosedByClient CloseReason = iota
	ClosedByRemote
	ClosedByError
)

func (r CloseReason) String() string {
	return [...]string{"closed-by-client", "closed-by-remote", "closed-by-error"}[r]
}

// Listener receives the lifecycle signals and the inbound frames of the
// Transport. OnFrame is called from the reader goroutine and it must not
// block.
type Listener interface {
	OnOpen()
	OnFrame(data []byte)
	OnClose(reason CloseReason, err error)
	OnError(err error)
}

// Transport is the client side of the agent socket. The same Transport can
// be opened again after it's closed; every Open dials a new socket.
type Transport struct {
	addr string
	dial DialFunc
	l    Listener

	sendLk sync.Mutex // serializes writers of the socket
	dialLk sync.Mutex // one dial at a time

	lk   sync.Mutex
	conn Conn
	gen  uint64 // bumped by Close, a dial of an older gen is discarded
}

func New(addr string, l Listener, dial DialFunc) *Transport {
	if dial == nil {
		dial = WsDial
	}
	return &Transport{addr: addr, dial: dial, l: l}
}

func (t *Transport) Addr() string {
	return t.addr
}

func (t *Transport) IsOpen() bool {
	t.lk.Lock()
	defer t.lk.Unlock()
	return t.conn != nil
}

// Open dials the socket and starts the reader. Opening an open Transport
// does nothing.
func (t *Transport) Open(ctx context.Context) (err error) {
	defer err2.Handle(&err, "transport open")

	if !t.attach(ctx) {
		return nil
	}
	glog.V(1).Infoln("transport open:", t.addr)
	t.l.OnOpen()
	return nil
}

// attach dials a new socket unless one is open already. Concurrent Opens
// make one socket. The dial runs outside lk, so IsOpen and Send never wait
// for it. It tells whether a new socket was attached.
func (t *Transport) attach(ctx context.Context) bool {
	t.dialLk.Lock()
	defer t.dialLk.Unlock()

	t.lk.Lock()
	open, gen := t.conn != nil, t.gen
	t.lk.Unlock()
	if open {
		return false
	}

	conn := try.To1(t.dial(ctx, t.addr))

	t.lk.Lock()
	if t.gen != gen {
		t.lk.Unlock()
		_ = conn.Close()
		try.To(core.NewConnectionError("open", core.ErrClosed))
	}
	t.conn = conn
	t.lk.Unlock()

	go t.read(conn)
	return true
}

// Send writes one text frame. Sends never queue: a closed Transport returns
// core.ErrClosed at once.
func (t *Transport) Send(data []byte) error {
	t.lk.Lock()
	conn := t.conn
	t.lk.Unlock()

	if conn == nil {
		return core.ErrClosed
	}

	t.sendLk.Lock()
	defer t.sendLk.Unlock()

	glog.V(5).Infof("-> %s", data)
	if err := conn.Send(data); err != nil {
		t.l.OnError(err)
		return core.NewConnectionError("send", err)
	}
	return nil
}

// Close closes the socket and reports ClosedByClient. Closing a closed
// Transport does nothing.
func (t *Transport) Close() (err error) {
	t.lk.Lock()
	conn := t.conn
	t.conn = nil
	t.gen++
	t.lk.Unlock()

	if conn == nil {
		return nil
	}
	err = conn.Close()
	glog.V(1).Infoln("transport closed by client:", t.addr)
	t.l.OnClose(ClosedByClient, nil)
	return err
}

// detach clears the socket if it's still the current one. It tells whether
// the caller should report the close.
func (t *Transport) detach(conn Conn) bool {
	t.lk.Lock()
	defer t.lk.Unlock()
	if t.conn != conn {
		return false
	}
	t.conn = nil
	return true
}

func (t *Transport) read(conn Conn) {
	defer err2.Catch(err2.Noop, func(p any) {
		err := fmt.Errorf("transport reader panic: %v", p)
		glog.Error(err)
		if t.detach(conn) {
			_ = conn.Close()
			t.l.OnClose(ClosedByError, err)
		}
	})

	for {
		data, err := conn.Receive()
		if err != nil {
			if !t.detach(conn) {
				glog.V(3).Infoln("old socket reader stopped:", err)
				return
			}
			_ = conn.Close()
			reason := ClosedByError
			if errors.Is(err, io.EOF) {
				reason = ClosedByRemote
			} else {
				t.l.OnError(err)
			}
			glog.V(1).Infof("transport %s: %v", reason, err)
			t.l.OnClose(reason, err)
			return
		}
		glog.V(5).Infof("<- %s", data)
		t.l.OnFrame(data)
	}
}
