package bus

import (
	"container/list"
	"context"
	"sync"

	"github.com/findy-network/findy-agent-conn/agent/mesg"
)

type result struct {
	frame *mesg.Frame
	err   error
}

// Future is a registered waiter. It's resolved exactly once, either with a
// frame or with an error when the transport is torn down.
type Future struct {
	key  string
	ch   chan result
	done chan struct{}
	m    *Mailbox
	elem *list.Element // position in the waiter queue, guarded by Mailbox

	lk      sync.Mutex
	settled bool
	r       result
}

func newFuture(m *Mailbox, key string) *Future {
	// buffered, so that delivery never blocks the mailbox lock
	return &Future{key: key, ch: make(chan result, 1), done: make(chan struct{}),
		m: m}
}

// Failed returns a Future which is already resolved with err. It isn't
// owned by any mailbox.
func Failed(key string, err error) *Future {
	w := &Future{key: key, ch: make(chan result, 1), done: make(chan struct{})}
	w.deliver(nil, err)
	return w
}

// deliver is called under the Mailbox lock.
func (w *Future) deliver(f *mesg.Frame, err error) {
	w.ch <- result{frame: f, err: err}
	close(w.done)
}

// Done is closed when the waiter is resolved. The result is still read with
// Wait.
func (w *Future) Done() <-chan struct{} {
	return w.done
}

// Key returns the correlation key of the waiter.
func (w *Future) Key() string {
	return w.key
}

// Wait blocks until the waiter is resolved or ctx is done. The mailbox has
// no timeouts of its own, a caller who needs one uses ctx. When ctx ends
// first the waiter is withdrawn and the possible late frame goes back to the
// mailbox. Later Waits return the same result.
func (w *Future) Wait(ctx context.Context) (*mesg.Frame, error) {
	if r, ok := w.result(); ok {
		return r.frame, r.err
	}
	select {
	case <-w.done:
		r, _ := w.result()
		return r.frame, r.err
	case <-ctx.Done():
		return w.cancel(ctx.Err())
	}
}

// result claims the delivered result once and returns the claimed one
// after that.
func (w *Future) result() (result, bool) {
	w.lk.Lock()
	defer w.lk.Unlock()
	if !w.settled {
		select {
		case r := <-w.ch:
			w.settled, w.r = true, r
		default:
		}
	}
	return w.r, w.settled
}

func (w *Future) cancel(err error) (*mesg.Frame, error) {
	w.lk.Lock()
	defer w.lk.Unlock()
	if w.settled {
		return w.r.frame, w.r.err
	}
	w.settled, w.r = true, result{err: err}
	if w.m != nil {
		w.m.withdraw(w)
	}
	return nil, err
}
