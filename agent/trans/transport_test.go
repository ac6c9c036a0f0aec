package trans

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/findy-network/findy-agent-conn/core"
	gomock "github.com/golang/mock/gomock"
	"github.com/lainio/err2/assert"
)

// how to regenerate the mock:
// /go/bin/mockgen -package trans -source ./agent/trans/websocket.go Conn > ./agent/trans/mock_conn_test.go

type event struct {
	name   string
	reason CloseReason
	data   []byte
	err    error
}

type recorder struct {
	ch chan event
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan event, 16)}
}

func (r *recorder) OnOpen()             { r.ch <- event{name: "open"} }
func (r *recorder) OnFrame(data []byte) { r.ch <- event{name: "frame", data: data} }
func (r *recorder) OnError(err error)   { r.ch <- event{name: "error", err: err} }
func (r *recorder) OnClose(reason CloseReason, err error) {
	r.ch <- event{name: "close", reason: reason, err: err}
}

func (r *recorder) next(t *testing.T) event {
	t.Helper()
	select {
	case e := <-r.ch:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("no transport event")
	}
	return event{}
}

func (r *recorder) none(t *testing.T) {
	t.Helper()
	select {
	case e := <-r.ch:
		t.Fatalf("unexpected event: %s", e.name)
	case <-time.After(50 * time.Millisecond):
	}
}

// pipe is the socket behind the mock: frames are pushed to in, closing in
// is the remote close.
type pipe struct {
	in     chan []byte
	fail   chan error
	closed chan struct{}
	once   sync.Once
}

func (p *pipe) receive() ([]byte, error) {
	select {
	case data, ok := <-p.in:
		if !ok {
			return nil, io.EOF
		}
		return data, nil
	case err := <-p.fail:
		return nil, err
	case <-p.closed:
		return nil, errors.New("use of closed network connection")
	}
}

func (p *pipe) close() error {
	p.once.Do(func() { close(p.closed) })
	return nil
}

func expectConn(ctrl *gomock.Controller) (*MockConn, *pipe) {
	p := &pipe{in: make(chan []byte), fail: make(chan error, 1),
		closed: make(chan struct{})}
	c := NewMockConn(ctrl)
	c.EXPECT().Receive().DoAndReturn(p.receive).AnyTimes()
	c.EXPECT().Close().DoAndReturn(p.close).AnyTimes()
	return c, p
}

func dialer(conns ...Conn) (DialFunc, *int) {
	count := 0
	return func(_ context.Context, _ string) (Conn, error) {
		if count >= len(conns) {
			return nil, errors.New("connection refused")
		}
		c := conns[count]
		count++
		return c, nil
	}, &count
}

func TestTransport_Lifecycle(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	conn, p := expectConn(ctrl)
	conn.EXPECT().Send([]byte(`{"a":1}`)).Return(nil)

	l := newRecorder()
	dial, count := dialer(conn)
	tr := New("ws://agent", l, dial)
	assert.That(!tr.IsOpen())

	assert.NoError(tr.Open(context.Background()))
	assert.That(tr.IsOpen())
	assert.Equal(l.next(t).name, "open")
	assert.NoError(tr.Open(context.Background()))
	assert.Equal(*count, 1)

	assert.NoError(tr.Send([]byte(`{"a":1}`)))

	p.in <- []byte("frame1")
	p.in <- []byte("frame2")
	e := l.next(t)
	assert.Equal(e.name, "frame")
	assert.Equal(string(e.data), "frame1")
	assert.Equal(string(l.next(t).data), "frame2")

	close(p.in)
	e = l.next(t)
	assert.Equal(e.name, "close")
	assert.Equal(e.reason, ClosedByRemote)
	assert.That(!tr.IsOpen())

	err := tr.Send([]byte("late"))
	assert.That(errors.Is(err, core.ErrClosed))
	l.none(t)
}

func TestTransport_CloseByClient(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	conn, _ := expectConn(ctrl)
	l := newRecorder()
	dial, _ := dialer(conn)
	tr := New("ws://agent", l, dial)

	assert.NoError(tr.Open(context.Background()))
	assert.Equal(l.next(t).name, "open")

	assert.NoError(tr.Close())
	e := l.next(t)
	assert.Equal(e.name, "close")
	assert.Equal(e.reason, ClosedByClient)
	assert.NoError(tr.Close())

	// the reader of the closed socket stops without reporting
	l.none(t)
}

func TestTransport_ReceiveError(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	conn, p := expectConn(ctrl)
	conn2, _ := expectConn(ctrl)
	l := newRecorder()
	dial, count := dialer(conn, conn2)
	tr := New("ws://agent", l, dial)

	assert.NoError(tr.Open(context.Background()))
	assert.Equal(l.next(t).name, "open")

	p.fail <- errors.New("connection reset by peer")
	assert.Equal(l.next(t).name, "error")
	e := l.next(t)
	assert.Equal(e.name, "close")
	assert.Equal(e.reason, ClosedByError)
	assert.Error(e.err)

	// a reopen dials a new socket
	assert.NoError(tr.Open(context.Background()))
	assert.Equal(l.next(t).name, "open")
	assert.Equal(*count, 2)
	assert.NoError(tr.Close())
	assert.Equal(l.next(t).reason, ClosedByClient)
}

func TestTransport_SendError(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	conn, _ := expectConn(ctrl)
	conn.EXPECT().Send(gomock.Any()).Return(errors.New("broken pipe"))
	l := newRecorder()
	dial, _ := dialer(conn)
	tr := New("ws://agent", l, dial)

	assert.NoError(tr.Open(context.Background()))
	assert.Equal(l.next(t).name, "open")

	err := tr.Send([]byte("x"))
	assert.That(core.IsConnectionError(err))
	assert.Equal(l.next(t).name, "error")

	assert.NoError(tr.Close())
	assert.Equal(l.next(t).name, "close")
}

func TestTransport_DialError(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	l := newRecorder()
	dial, _ := dialer()
	tr := New("ws://agent", l, dial)

	assert.Error(tr.Open(context.Background()))
	assert.That(!tr.IsOpen())
	l.none(t)
}

func TestCloseReason_String(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	assert.Equal(ClosedByClient.String(), "closed-by-client")
	assert.Equal(ClosedByRemote.String(), "closed-by-remote")
	assert.Equal(ClosedByError.String(), "closed-by-error")
}

func TestTransport_DialOutsideLock(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()
	ctrl := gomock.NewController(t)

	conn, _ := expectConn(ctrl)
	dialing := make(chan struct{})
	release := make(chan struct{})
	dial := func(_ context.Context, _ string) (Conn, error) {
		close(dialing)
		<-release
		return conn, nil
	}
	l := newRecorder()
	tr := New("ws://agent", l, dial)

	opened := make(chan error, 1)
	go func() { opened <- tr.Open(context.Background()) }()
	<-dialing

	answered := make(chan bool, 1)
	go func() { answered <- tr.IsOpen() }()
	select {
	case open := <-answered:
		assert.That(!open)
	case <-time.After(time.Second):
		t.Fatal("IsOpen waits for the dial")
	}
	assert.That(errors.Is(tr.Send([]byte("x")), core.ErrClosed))

	// close wins over the pending dial
	assert.NoError(tr.Close())
	close(release)
	err := <-opened
	assert.That(core.IsConnectionError(err), "err: %v", err)
	assert.That(!tr.IsOpen())
	l.none(t)
}
