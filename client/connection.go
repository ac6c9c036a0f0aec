/*
Package client implements the agent connection: one persistent socket to the
mediating agent multiplexing any number of independent exchanges. Connection
owns the transport, the correlation mailbox, the reconnector and the pairwise
cache, and it's the surface the orchestration layers use.
*/
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/findy-network/findy-agent-conn/agent/bus"
	"github.com/findy-network/findy-agent-conn/agent/comm"
	"github.com/findy-network/findy-agent-conn/agent/handshake"
	"github.com/findy-network/findy-agent-conn/agent/mesg"
	"github.com/findy-network/findy-agent-conn/agent/pairwise"
	"github.com/findy-network/findy-agent-conn/agent/remote"
	"github.com/findy-network/findy-agent-conn/agent/trans"
	"github.com/findy-network/findy-agent-conn/agent/utils"
	"github.com/findy-network/findy-agent-conn/core"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

type Config struct {
	AgentURL   string
	WalletName string
	WalletKey  string
	Label      string // sent to the other party during pairing

	Dial              trans.DialFunc // default is websocket
	ReconnectInterval time.Duration  // default from utils.Settings
	ClosePolicy       bus.ClosePolicy
}

type Option func(c *Config)

func WithDial(dial trans.DialFunc) Option {
	return func(c *Config) {
		c.Dial = dial
	}
}

func WithReconnectInterval(interval time.Duration) Option {
	return func(c *Config) {
		c.ReconnectInterval = interval
	}
}

func WithClosePolicy(p bus.ClosePolicy) Option {
	return func(c *Config) {
		c.ClosePolicy = p
	}
}

type Connection struct {
	cfg Config

	tr    *trans.Transport
	mb    *bus.Mailbox
	rc    *comm.Reconnector
	cache *pairwise.Cache
	hs    *handshake.Handshake

	status atomic.Int32 // core.ConnectionStatus
	active atomic.Bool  // between Connect and Disconnect
	lk     sync.Mutex   // serializes Connect and Disconnect
	reqLk  sync.Mutex   // keeps waiter registration in send order
}

func New(cfg Config, opts ...Option) *Connection {
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Label == "" {
		cfg.Label = cfg.WalletName
	}
	if cfg.ReconnectInterval == 0 {
		cfg.ReconnectInterval = utils.Settings.ReconnectInterval()
	}
	if utils.Settings.DropBuffered() {
		cfg.ClosePolicy = bus.DropBuffered
	}

	c := &Connection{cfg: cfg, cache: &pairwise.Cache{}}
	c.mb = bus.New(bus.WithClosePolicy(cfg.ClosePolicy))
	c.tr = trans.New(cfg.AgentURL, c, cfg.Dial)
	c.rc = comm.New(c.tr, func(err error) {
		c.mb.FailAllWaiters(err)
	})
	c.rc.SetInterval(cfg.ReconnectInterval)
	c.mb.SetReconnector(c.rc)
	c.hs = handshake.New(c, c.cache, cfg.Label)
	return c
}

func (c *Connection) String() string {
	return fmt.Sprintf("%s@%s (%s)", c.cfg.WalletName, c.cfg.AgentURL, c.Status())
}

func (c *Connection) Status() core.ConnectionStatus {
	return core.ConnectionStatus(c.status.Load())
}

// Connect opens the socket and runs the connect handshake. A failed
// handshake leaves the connection Disconnected.
func (c *Connection) Connect(ctx context.Context) (err error) {
	c.lk.Lock()
	defer c.lk.Unlock()

	if c.Status() == core.Connected {
		return nil
	}
	defer err2.Handle(&err, func(err error) error {
		c.shutdown(err)
		return err
	})

	c.active.Store(true)
	try.To(c.rc.Start())
	try.To(c.rc.EnsureOpen(ctx))
	try.To(c.hs.Connect(ctx, c.cfg.WalletName, c.cfg.WalletKey))

	c.status.Store(int32(core.Connected))
	glog.V(1).Infoln("connected:", c)
	return nil
}

// Disconnect closes the wallet and the socket. Every parked waiter is
// failed with a ConnectionError.
func (c *Connection) Disconnect() error {
	c.lk.Lock()
	defer c.lk.Unlock()

	if !c.active.Load() {
		return nil
	}
	if c.tr.IsOpen() {
		if err := c.tr.Send(mesg.NewWalletDisconnect().JSON()); err != nil {
			glog.Warningln("wallet disconnect:", err)
		}
	}
	c.shutdown(nil)
	glog.V(1).Infoln("disconnected:", c)
	return nil
}

func (c *Connection) shutdown(reason error) {
	c.active.Store(false)
	c.status.Store(int32(core.Disconnected))
	c.rc.Stop()
	if err := c.tr.Close(); err != nil {
		glog.Warningln("transport close:", err)
	}
	c.mb.Close(core.NewConnectionError("disconnect", reason))
}

// Send sends the message to the agent. A closed socket is reopened before
// the send; if that fails the send fails and so do all the parked waiters.
func (c *Connection) Send(ctx context.Context, m *mesg.Msg) (err error) {
	defer err2.Handle(&err, "send %s", m.Type)

	if !c.active.Load() {
		return core.NewConnectionError("send", core.ErrClosed)
	}
	try.To(c.rc.EnsureOpen(ctx))
	try.To(c.tr.Send(m.JSON()))
	glog.V(3).Infoln("sent:", m)
	return nil
}

// Await registers a waiter for the correlation key. While disconnected the
// waiter fails at once.
func (c *Connection) Await(key string) *bus.Future {
	closed := core.NewConnectionError("receive", core.ErrClosed)
	if !c.active.Load() {
		return bus.Failed(key, closed)
	}
	w := c.mb.Await(key)
	// a Disconnect may have closed the mailbox after the check above
	if !c.active.Load() {
		c.mb.Fail(w, closed)
	}
	return w
}

// Request registers the waiter for key and sends m as one step. Replies
// keyed by their type alone are then matched in send order.
func (c *Connection) Request(ctx context.Context, m *mesg.Msg, key string) (w *bus.Future, err error) {
	c.reqLk.Lock()
	defer c.reqLk.Unlock()

	w = c.Await(key)
	if err = c.Send(ctx, m); err != nil {
		c.mb.Fail(w, err)
		return nil, err
	}
	return w, nil
}

// State queries the agent's current state.
func (c *Connection) State(ctx context.Context) (*mesg.State, error) {
	return c.hs.QueryState(ctx)
}

func (c *Connection) GenerateInvite(ctx context.Context) (string, error) {
	return c.hs.GenerateInvite(ctx)
}

// AcceptInvite pairs with the party who generated the invite token.
func (c *Connection) AcceptInvite(ctx context.Context, token string) (*pairwise.Connection, error) {
	return c.hs.AcceptInvite(ctx, token)
}

// WaitForInvitedParty waits for the party who accepts our invite token. A
// TransientPairingError may be retried with CompleteInvitedParty.
func (c *Connection) WaitForInvitedParty(ctx context.Context, token string) (*pairwise.Connection, error) {
	return c.hs.WaitForInvitedParty(ctx, token)
}

func (c *Connection) CompleteInvitedParty(ctx context.Context, token string) (*pairwise.Connection, error) {
	return c.hs.CompleteInvitedParty(ctx, token)
}

// Pairwise returns the connection to theirDID. A cache miss falls back to
// the agent's state.
func (c *Connection) Pairwise(ctx context.Context, theirDID string) (conn *pairwise.Connection, err error) {
	defer err2.Handle(&err, "pairwise %s", theirDID)

	if conn, found := c.cache.Get(theirDID); found {
		return conn, nil
	}
	st := try.To1(c.hs.QueryState(ctx))
	e, found := st.FindByTheirDID(theirDID)
	if !found {
		return nil, errors.New("no pairwise connection")
	}
	return c.cache.Add(pairwise.FromEntry(e)), nil
}

// Pairwises returns the cached connections.
func (c *Connection) Pairwises() []*pairwise.Connection {
	return c.cache.All()
}

// Remote returns the channel to theirDID.
func (c *Connection) Remote(ctx context.Context, theirDID string) (ch *remote.Channel, err error) {
	conn, err := c.Pairwise(ctx, theirDID)
	if err != nil {
		return nil, err
	}
	return remote.New(c, conn), nil
}

// SendTo sends the already serialized payload of class to theirDID.
func (c *Connection) SendTo(ctx context.Context, theirDID, class string, payload []byte) (err error) {
	defer err2.Handle(&err)

	ch := try.To1(c.Remote(ctx, theirDID))
	return ch.Send(ctx, class, payload)
}

// ReceiveFrom waits for the next payload of class from theirDID.
func (c *Connection) ReceiveFrom(ctx context.Context, theirDID, class string) (p json.RawMessage, err error) {
	defer err2.Handle(&err)

	if !c.active.Load() {
		return nil, core.NewConnectionError("receive", core.ErrClosed)
	}
	ch := try.To1(c.Remote(ctx, theirDID))
	return ch.Receive(ctx, class)
}
