/*
Package remote is the typed channel to one counterparty over an established
pairwise connection. Payloads are opaque to the channel; the correlation key
of an inbound payload is its class name and the sender's DID, so any number
of payload types and parties share one agent socket.
*/
package remote

import (
	"context"
	"encoding/json"

	"github.com/findy-network/findy-agent-conn/agent/bus"
	"github.com/findy-network/findy-agent-conn/agent/mesg"
	"github.com/findy-network/findy-agent-conn/agent/pairwise"
	"github.com/findy-network/findy-agent-conn/agent/pltype"
	"github.com/findy-network/findy-agent-conn/agent/utils"
	"github.com/findy-network/findy-agent-conn/core"
	"github.com/findy-network/findy-agent-conn/std/credex"
	"github.com/findy-network/findy-common-go/dto"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// Messenger is the agent connection as the channel sees it.
type Messenger interface {
	Request(ctx context.Context, m *mesg.Msg, key string) (*bus.Future, error)
	Await(key string) *bus.Future
	Status() core.ConnectionStatus
}

type Channel struct {
	m    Messenger
	conn *pairwise.Connection
}

func New(m Messenger, conn *pairwise.Connection) *Channel {
	return &Channel{m: m, conn: conn}
}

func (c *Channel) Connection() *pairwise.Connection {
	return c.conn
}

func (c *Channel) TheirDID() string {
	return c.conn.TheirDID
}

// Send sends the serialized payload of class to the counterparty. It
// doesn't wait for the agent's ack; the ack is claimed in the background
// so that unconfirmed sends don't pile up in the mailbox.
func (c *Channel) Send(ctx context.Context, class string, payload []byte) (err error) {
	defer err2.Handle(&err)

	w := try.To1(c.send(ctx, class, payload))
	go func() {
		ackCtx, cancel := context.WithTimeout(context.Background(),
			utils.Settings.Timeout())
		defer cancel()
		if err := ackError(w.Wait(ackCtx)); err != nil {
			glog.Warningf("send %s to %s: %v", class, c.conn.TheirDID, err)
		}
	}()
	return nil
}

// SendConfirmed sends the payload and waits until the agent acknowledges
// that it has sent it.
func (c *Channel) SendConfirmed(ctx context.Context, class string, payload []byte) (err error) {
	defer err2.Handle(&err)

	w := try.To1(c.send(ctx, class, payload))
	return ackError(w.Wait(ctx))
}

// send sends the message with the waiter of its ack. Acks are keyed by the
// type alone, so they are claimed in send order.
func (c *Channel) send(ctx context.Context, class string, payload []byte) (w *bus.Future, err error) {
	defer err2.Handle(&err, "send %s to %s", class, c.conn.TheirDID)

	w = try.To1(c.m.Request(ctx, mesg.NewSendMessage(c.conn.TheirDID, class, payload),
		pltype.BasicMessageSent))
	glog.V(3).Infof("sent %s to %s", class, c.conn.TheirDID)
	return w, nil
}

func ackError(f *mesg.Frame, err error) error {
	if err != nil {
		return err
	}
	if ferr := f.Err(); ferr != nil {
		return core.NewConnectionError("message sent", ferr)
	}
	return nil
}

// Receive waits for the next payload of class from the counterparty.
func (c *Channel) Receive(ctx context.Context, class string) (p json.RawMessage, err error) {
	defer err2.Handle(&err, "receive %s from %s", class, c.conn.TheirDID)

	f := try.To1(c.m.Await(mesg.PayloadKey(class, c.conn.TheirDID)).Wait(ctx))
	if ferr := f.Err(); ferr != nil {
		return nil, core.NewConnectionError("message received", ferr)
	}
	return f.Payload()
}

// SendPayload serializes the payload and sends it under its class name.
func SendPayload[T credex.Payload](ctx context.Context, c *Channel, p T) (err error) {
	defer err2.Handle(&err)

	return c.Send(ctx, p.ClassName(), dto.ToJSONBytes(p))
}

// ReceivePayload waits for the next payload of type T from the counterparty.
func ReceivePayload[T credex.Payload](ctx context.Context, c *Channel) (p T, err error) {
	defer err2.Handle(&err)

	data := try.To1(c.Receive(ctx, p.ClassName()))
	try.To(json.Unmarshal(data, &p))
	return p, nil
}
