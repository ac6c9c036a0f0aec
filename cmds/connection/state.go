package connection

import (
	"context"
	"io"

	"github.com/findy-network/findy-agent-conn/agent/mesg"
	"github.com/findy-network/findy-agent-conn/client"
	"github.com/findy-network/findy-agent-conn/cmds"
	"github.com/findy-network/findy-common-go/dto"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// StateCmd prints the agent's state: the wallet and the pairwise entries.
type StateCmd struct {
	cmds.Cmd
}

type StateResult struct {
	*mesg.State
}

func (r StateResult) JSON() ([]byte, error) {
	return dto.ToJSONBytes(r.State), nil
}

func (c StateCmd) Exec(w io.Writer) (r cmds.Result, err error) {
	defer err2.Handle(&err, "state")

	ctx, cancel := c.Context(context.Background())
	defer cancel()

	return c.Cmd.Exec(ctx, "", func(ctx context.Context, conn *client.Connection) (cmds.Result, error) {
		st := try.To1(conn.State(ctx))
		r := StateResult{State: st}
		cmds.Fprintln(w, string(try.To1(r.JSON())))
		return r, nil
	})
}
