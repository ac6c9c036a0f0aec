/*
Package comm implements the reconnection policy of the agent connection. The
policy is asymmetric: a send needs the socket now, so EnsureOpen reconnects
synchronously and fails loudly. A receive waiter only needs the socket
eventually, so Schedule starts an asynchronous attempt and the watchdog job
keeps retrying until the socket is open again.
*/
package comm

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/findy-network/findy-agent-conn/agent/utils"
	"github.com/findy-network/findy-agent-conn/core"
	"github.com/go-co-op/gocron"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// Opener is the socket the Reconnector keeps open.
type Opener interface {
	Open(ctx context.Context) error
	IsOpen() bool
}

// FailFunc is called when the synchronous reconnect fails. It receives the
// ConnectionError returned to the sender.
type FailFunc func(err error)

type Reconnector struct {
	o        Opener
	onFail   FailFunc
	interval time.Duration

	pending atomic.Bool // a scheduled reconnect hasn't succeeded yet
	stopped atomic.Bool

	attemptLk sync.Mutex // one reconnect attempt at a time

	cronLk sync.Mutex
	cron   *gocron.Scheduler
}

func New(o Opener, onFail FailFunc) *Reconnector {
	return &Reconnector{
		o:        o,
		onFail:   onFail,
		interval: utils.Settings.ReconnectInterval(),
	}
}

// SetInterval sets the watchdog interval. It's used at the next Start.
func (r *Reconnector) SetInterval(interval time.Duration) {
	r.interval = interval
}

func (r *Reconnector) IsOpen() bool {
	return r.o.IsOpen()
}

// Pending tells if a scheduled reconnect is still waiting for success.
func (r *Reconnector) Pending() bool {
	return r.pending.Load()
}

// EnsureOpen is the send path policy. If the socket isn't open it reconnects
// before returning. When that fails the FailFunc is called and a
// ConnectionError is returned; sends are never queued.
func (r *Reconnector) EnsureOpen(ctx context.Context) (err error) {
	if r.o.IsOpen() {
		return nil
	}
	if r.stopped.Load() {
		return core.NewConnectionError("reconnect", core.ErrClosed)
	}
	glog.V(1).Infoln("socket closed on send, reconnecting")
	if err = r.reconnect(ctx); err != nil {
		ce := core.NewConnectionError("reconnect", err)
		glog.Warningln("send path reconnect failed:", err)
		if r.onFail != nil {
			r.onFail(ce)
		}
		return ce
	}
	r.pending.Store(false)
	return nil
}

// Schedule is the receive path policy. It never blocks: it starts one
// reconnect attempt in the background and leaves the rest to the watchdog.
func (r *Reconnector) Schedule() {
	if r.stopped.Load() || !r.pending.CompareAndSwap(false, true) {
		return
	}
	glog.V(1).Infoln("reconnect scheduled")
	go r.attempt()
}

func (r *Reconnector) attempt() {
	defer err2.Catch(func(err error) error {
		glog.Warningln("scheduled reconnect failed, retrying:", err)
		return nil
	})

	if r.stopped.Load() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(),
		utils.Settings.Timeout())
	defer cancel()

	try.To(r.reconnect(ctx))
	if r.pending.CompareAndSwap(true, false) {
		glog.V(1).Infoln("scheduled reconnect done")
	}
}

func (r *Reconnector) reconnect(ctx context.Context) error {
	r.attemptLk.Lock()
	defer r.attemptLk.Unlock()

	if r.o.IsOpen() {
		return nil
	}
	return r.o.Open(ctx)
}

func (r *Reconnector) watch() {
	if r.pending.Load() {
		r.attempt()
	}
}

// Start starts the watchdog job which retries the scheduled reconnects.
func (r *Reconnector) Start() (err error) {
	defer err2.Handle(&err, "reconnect watchdog start")

	r.cronLk.Lock()
	defer r.cronLk.Unlock()

	r.stopped.Store(false)
	if r.cron != nil {
		return nil
	}
	cron := gocron.NewScheduler(time.UTC)
	try.To1(cron.Every(r.interval).SingletonMode().Do(r.watch))
	cron.StartAsync()
	r.cron = cron
	glog.V(2).Infoln("reconnect watchdog started, interval:", r.interval)
	return nil
}

// Stop stops the watchdog and drops a pending reconnect. After Stop only
// Start enables reconnecting again.
func (r *Reconnector) Stop() {
	r.stopped.Store(true)
	r.pending.Store(false)

	r.cronLk.Lock()
	defer r.cronLk.Unlock()
	if r.cron != nil {
		r.cron.Stop()
		r.cron = nil
		glog.V(2).Infoln("reconnect watchdog stopped")
	}
}
