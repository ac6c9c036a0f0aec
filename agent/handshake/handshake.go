/*
Package handshake implements the connect and pairing protocols of the agent
connection. Each protocol is a sequential chain of steps where every step
waits for the frame of the previous one. The first failing step aborts the
chain with its error; nothing needs rolling back because the handshake
creates no ledger state.
*/
package handshake

import (
	"context"
	"errors"
	"fmt"

	"github.com/findy-network/findy-agent-conn/agent/bus"
	"github.com/findy-network/findy-agent-conn/agent/mesg"
	"github.com/findy-network/findy-agent-conn/agent/pairwise"
	"github.com/findy-network/findy-agent-conn/agent/pltype"
	"github.com/findy-network/findy-agent-conn/core"
	"github.com/findy-network/findy-agent-conn/std/didexchange/invitation"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// Messenger is the agent connection as the handshake sees it.
type Messenger interface {
	Send(ctx context.Context, m *mesg.Msg) error
	Request(ctx context.Context, m *mesg.Msg, key string) (*bus.Future, error)
	Await(key string) *bus.Future
}

type Handshake struct {
	m     Messenger
	cache *pairwise.Cache
	label string
}

// New returns the handshake over m. Materialized connections go to cache.
// The label is sent to the other party during pairing.
func New(m Messenger, cache *pairwise.Cache, label string) *Handshake {
	return &Handshake{m: m, cache: cache, label: label}
}

// chain keeps the current step of one protocol run for error annotation.
type chain struct {
	name string
	step Step
}

func (c *chain) to(s Step) {
	glog.V(3).Infof("%s: %s", c.name, s)
	c.step = s
}

// abort annotates the error with the failing step. Typed errors which the
// caller handles itself keep their type.
func (c *chain) abort(err *error) {
	if *err == nil {
		return
	}
	glog.V(1).Infof("%s aborted at %s: %v", c.name, c.step, *err)
	if core.IsTransient(*err) || core.IsConnectionError(*err) ||
		errors.Is(*err, context.Canceled) ||
		errors.Is(*err, context.DeadlineExceeded) {
		return
	}
	*err = core.NewConnectionError(c.name+": "+c.step.String(), *err)
}

// await waits for the frame of the key. A frame carrying an agent error
// aborts the step.
func (h *Handshake) await(ctx context.Context, c *chain, key string) (f *mesg.Frame, err error) {
	return h.wait(ctx, c, h.m.Await(key))
}

// request sends m and waits for its reply of key. It's used for the replies
// keyed by their type alone.
func (h *Handshake) request(ctx context.Context, c *chain, m *mesg.Msg, key string) (f *mesg.Frame, err error) {
	w, err := h.m.Request(ctx, m, key)
	if err != nil {
		return nil, err
	}
	return h.wait(ctx, c, w)
}

func (h *Handshake) wait(ctx context.Context, c *chain, w *bus.Future) (f *mesg.Frame, err error) {
	f, err = w.Wait(ctx)
	if err != nil {
		return nil, err
	}
	if ferr := f.Err(); ferr != nil {
		return nil, core.NewConnectionError(c.name+": "+c.step.String(), ferr)
	}
	return f, nil
}

// QueryState sends the state request and returns the agent's state.
func (h *Handshake) QueryState(ctx context.Context) (st *mesg.State, err error) {
	c := &chain{name: "query state"}
	defer c.abort(&err)
	defer err2.Handle(&err)

	return h.queryState(ctx, c), nil
}

func (h *Handshake) queryState(ctx context.Context, c *chain) *mesg.State {
	c.to(QueryingState)
	f := try.To1(h.request(ctx, c, mesg.NewStateRequest(), pltype.AdminState))
	return try.To1(f.State())
}

// Connect brings the agent to the initialized state under the wallet name.
// If the agent already is there the wallet isn't connected again.
func (h *Handshake) Connect(ctx context.Context, walletName, walletKey string) (err error) {
	c := &chain{name: "connect"}
	defer c.abort(&err)
	defer err2.Handle(&err)

	st := h.queryState(ctx, c)
	if st.IsReadyFor(walletName) {
		glog.V(1).Infoln("agent already initialized for:", walletName)
		c.to(Done)
		return nil
	}

	c.to(ConnectingWallet)
	try.To(h.m.Send(ctx, mesg.NewWalletConnect(walletName, walletKey)))

	st = h.queryState(ctx, c)
	if !st.IsReadyFor(walletName) {
		return core.NewConnectionError("connect",
			fmt.Errorf("agent not initialized for wallet %q (agent: %q)",
				walletName, st.AgentName))
	}
	c.to(Done)
	glog.V(1).Infoln("agent connected with wallet:", walletName)
	return nil
}

// GenerateInvite asks the agent for a new invite token.
func (h *Handshake) GenerateInvite(ctx context.Context) (token string, err error) {
	c := &chain{name: "generate invite"}
	defer c.abort(&err)
	defer err2.Handle(&err)

	c.to(GeneratingInvite)
	w := try.To1(h.m.Request(ctx, mesg.NewGenerateInvite(), pltype.ConnectionsInviteGenerated))

	c.to(AwaitingInvite)
	f := try.To1(h.wait(ctx, c, w))
	try.To1(invitation.PublicKey(f.Invite))
	c.to(Done)
	return f.Invite, nil
}

// AcceptInvite runs the initiator role of the pairing. The returned
// connection is cached under the counterparty DID.
func (h *Handshake) AcceptInvite(ctx context.Context, token string) (conn *pairwise.Connection, err error) {
	c := &chain{name: "accept invite"}
	defer c.abort(&err)
	defer err2.Handle(&err)

	c.to(DecodingInvite)
	pubKey := try.To1(invitation.PublicKey(token))

	c.to(ReceivingInvite)
	try.To(h.m.Send(ctx, mesg.NewReceiveInvite(token, h.label)))

	c.to(AwaitingInviteReceived)
	f := try.To1(h.await(ctx, c,
		mesg.Key(pltype.ConnectionsInviteReceived, pubKey)))
	routingKey := f.ConnectionKey

	c.to(SendingRequest)
	try.To(h.m.Send(ctx, mesg.NewSendRequest(routingKey, h.label)))

	c.to(AwaitingResponseReceived)
	f = try.To1(h.await(ctx, c,
		mesg.Key(pltype.ConnectionsResponseReceived, pubKey)))
	theirDID, theirKey := f.TheirDID, f.ConnectionKey

	st := h.queryState(ctx, c)

	c.to(FindingPairwise)
	e, found := st.FindByTheirVerkey(theirKey)
	if !found {
		return nil, fmt.Errorf("no pairwise entry for verkey %s", theirKey)
	}
	conn = pairwise.FromEntry(e)
	if theirDID != "" {
		conn.TheirDID = theirDID
	}
	conn = h.cache.Add(conn)
	c.to(Done)
	glog.V(1).Infoln("pairwise ready (initiator):", conn)
	return conn, nil
}

// WaitForInvitedParty runs the responder role of the pairing for the invite
// token which this party has generated. A TransientPairingError tells that
// the request was answered but the agent hasn't recorded the connection yet;
// the caller continues with CompleteInvitedParty.
func (h *Handshake) WaitForInvitedParty(ctx context.Context, token string) (conn *pairwise.Connection, err error) {
	c := &chain{name: "wait for invited party"}
	defer c.abort(&err)
	defer err2.Handle(&err)

	c.to(DecodingInvite)
	try.To1(invitation.PublicKey(token))

	c.to(AwaitingRequestReceived)
	f := try.To1(h.await(ctx, c, pltype.ConnectionsRequestReceived))

	c.to(SendingResponse)
	try.To(h.m.Send(ctx, mesg.NewSendResponse(f.DID)))

	return h.completeInvitedParty(ctx, c, token), nil
}

// CompleteInvitedParty runs the last steps of the responder role: it
// refreshes the agent state, finds the pairwise entry made with the invite
// and waits for the response_sent frame of it.
func (h *Handshake) CompleteInvitedParty(ctx context.Context, token string) (conn *pairwise.Connection, err error) {
	c := &chain{name: "complete invited party"}
	defer c.abort(&err)
	defer err2.Handle(&err)

	return h.completeInvitedParty(ctx, c, token), nil
}

func (h *Handshake) completeInvitedParty(ctx context.Context, c *chain, token string) *pairwise.Connection {
	pubKey := try.To1(invitation.PublicKey(token))
	st := h.queryState(ctx, c)

	c.to(FindingPairwise)
	e, found := st.FindByConnectionKey(pubKey)
	if !found {
		try.To(&core.TransientPairingError{ConnectionKey: pubKey})
	}

	c.to(AwaitingResponseSent)
	try.To1(h.await(ctx, c, mesg.Key(pltype.ConnectionsResponseSent, e.TheirDID)))

	conn := h.cache.Add(pairwise.FromEntry(e))
	c.to(Done)
	glog.V(1).Infoln("pairwise ready (responder):", conn)
	return conn
}
