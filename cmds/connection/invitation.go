package connection

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/findy-network/findy-agent-conn/agent/pairwise"
	"github.com/findy-network/findy-agent-conn/agent/utils"
	"github.com/findy-network/findy-agent-conn/client"
	"github.com/findy-network/findy-agent-conn/cmds"
	"github.com/findy-network/findy-agent-conn/core"
	"github.com/findy-network/findy-agent-conn/std/didexchange/invitation"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// InvitationCmd generates a new invitation and prints its token.
type InvitationCmd struct {
	cmds.Cmd
	Label string
}

type InvitationResult struct {
	Token string
}

func (r InvitationResult) JSON() ([]byte, error) {
	return []byte(r.Token), nil
}

func (c InvitationCmd) Exec(w io.Writer) (r cmds.Result, err error) {
	defer err2.Handle(&err, "invitation")

	ctx, cancel := c.Context(context.Background())
	defer cancel()

	return c.Cmd.Exec(ctx, c.Label, func(ctx context.Context, conn *client.Connection) (cmds.Result, error) {
		token := try.To1(conn.GenerateInvite(ctx))
		cmds.Fprintln(w, token)
		return InvitationResult{Token: token}, nil
	})
}

// AcceptCmd accepts the invitation token and prints the new pairwise.
type AcceptCmd struct {
	cmds.Cmd
	Label      string
	Invitation string
}

func (c AcceptCmd) Validate() error {
	if err := c.Cmd.Validate(); err != nil {
		return err
	}
	return validateToken(c.Invitation)
}

func (c AcceptCmd) Exec(w io.Writer) (r cmds.Result, err error) {
	defer err2.Handle(&err, "accept")

	ctx, cancel := c.Context(context.Background())
	defer cancel()

	return c.Cmd.Exec(ctx, c.Label, func(ctx context.Context, conn *client.Connection) (cmds.Result, error) {
		pw := try.To1(conn.AcceptInvite(ctx, c.Invitation))
		return printPairwise(w, pw), nil
	})
}

// WaitCmd waits for the invited party to pair with the invitation this wallet
// generated. The transient pairing failure is retried Retries times.
type WaitCmd struct {
	cmds.Cmd
	Invitation string
	Retries    int
}

func (c WaitCmd) Validate() error {
	if err := c.Cmd.Validate(); err != nil {
		return err
	}
	if c.Retries < 0 {
		return errors.New("retries cannot be negative")
	}
	return validateToken(c.Invitation)
}

func (c WaitCmd) Exec(w io.Writer) (r cmds.Result, err error) {
	defer err2.Handle(&err, "wait")

	ctx, cancel := c.Context(context.Background())
	defer cancel()

	return c.Cmd.Exec(ctx, "", func(ctx context.Context, conn *client.Connection) (cmds.Result, error) {
		pw, perr := conn.WaitForInvitedParty(ctx, c.Invitation)
		for i := 0; i < c.Retries && core.IsTransient(perr); i++ {
			glog.V(1).Infof("pairing not ready (%v), retry %d", perr, i+1)
			try.To(pause(ctx, utils.Settings.ReconnectInterval()))
			pw, perr = conn.CompleteInvitedParty(ctx, c.Invitation)
		}
		try.To(perr)
		return printPairwise(w, pw), nil
	})
}

func validateToken(token string) error {
	if token == "" {
		return errors.New("invitation cannot be empty")
	}
	_, err := invitation.PublicKey(token)
	return err
}

func printPairwise(w io.Writer, pw *pairwise.Connection) cmds.Result {
	r := jsonResult{v: pw}
	cmds.Fprintln(w, string(try.To1(r.JSON())))
	return r
}

func pause(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
