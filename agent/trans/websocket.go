package trans

import (
	"context"
	"net"

	"github.com/findy-network/findy-agent-conn/agent/utils"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"golang.org/x/net/websocket"
)

// Conn is the duplex text socket to the agent. Receive blocks until the next
// frame or an error. Close releases a blocked Receive.
type Conn interface {
	Send(data []byte) error
	Receive() ([]byte, error)
	Close() error
}

// DialFunc opens a new Conn to the address.
type DialFunc func(ctx context.Context, addr string) (Conn, error)

type wsConn struct {
	ws *websocket.Conn
}

// Send sends the data as a text frame. The agent speaks only text frames.
func (c *wsConn) Send(data []byte) error {
	return websocket.Message.Send(c.ws, string(data))
}

func (c *wsConn) Receive() (data []byte, err error) {
	var s string
	if err = websocket.Message.Receive(c.ws, &s); err != nil {
		return nil, err
	}
	return []byte(s), nil
}

func (c *wsConn) Close() error {
	return c.ws.Close()
}

// WsDial is the default DialFunc. The ctx deadline, or Settings.Timeout when
// there is none, bounds the dial.
func WsDial(ctx context.Context, addr string) (c Conn, err error) {
	defer err2.Handle(&err, "ws dial")

	config := try.To1(websocket.NewConfig(addr, utils.Settings.Origin()))
	dialer := &net.Dialer{Timeout: utils.Settings.Timeout()}
	if deadline, ok := ctx.Deadline(); ok {
		dialer.Deadline = deadline
	}
	config.Dialer = dialer

	ws := try.To1(websocket.DialConfig(config))
	glog.V(2).Info("websocket connected to: ", addr)
	return &wsConn{ws: ws}, nil
}

// NewWsConn wraps the server side socket, the agent simulator uses it.
func NewWsConn(ws *websocket.Conn) Conn {
	return &wsConn{ws: ws}
}
