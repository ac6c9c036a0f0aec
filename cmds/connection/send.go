package connection

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/findy-network/findy-agent-conn/client"
	"github.com/findy-network/findy-agent-conn/cmds"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// SendCmd sends a JSON payload of the class to the pairwise.
type SendCmd struct {
	Cmd
	Class     string
	Message   string
	Confirmed bool
}

func (c SendCmd) Validate() error {
	if err := c.Cmd.Validate(); err != nil {
		return err
	}
	if c.Class == "" {
		return errors.New("payload class cannot be empty")
	}
	if !json.Valid([]byte(c.Message)) {
		return errors.New("message must be JSON")
	}
	return nil
}

func (c SendCmd) Exec(w io.Writer) (r cmds.Result, err error) {
	defer err2.Handle(&err, "send to %s", c.TheirDID)

	ctx, cancel := c.Context(context.Background())
	defer cancel()

	return c.Cmd.Exec(ctx, "", func(ctx context.Context, conn *client.Connection) (cmds.Result, error) {
		ch := try.To1(conn.Remote(ctx, c.TheirDID))
		if c.Confirmed {
			try.To(ch.SendConfirmed(ctx, ClassName(c.Class), []byte(c.Message)))
		} else {
			try.To(ch.Send(ctx, ClassName(c.Class), []byte(c.Message)))
		}
		cmds.Fprintln(w, "sent")
		return nil, nil
	})
}

// ReceiveCmd waits for the next payload of the class from the pairwise and
// prints it.
type ReceiveCmd struct {
	Cmd
	Class string
}

func (c ReceiveCmd) Validate() error {
	if err := c.Cmd.Validate(); err != nil {
		return err
	}
	if c.Class == "" {
		return errors.New("payload class cannot be empty")
	}
	return nil
}

func (c ReceiveCmd) Exec(w io.Writer) (r cmds.Result, err error) {
	defer err2.Handle(&err, "receive from %s", c.TheirDID)

	ctx, cancel := c.Context(context.Background())
	defer cancel()

	return c.Cmd.Exec(ctx, "", func(ctx context.Context, conn *client.Connection) (cmds.Result, error) {
		p := try.To1(conn.ReceiveFrom(ctx, c.TheirDID, ClassName(c.Class)))
		cmds.Fprintln(w, string(p))
		return jsonResult{v: p}, nil
	})
}
