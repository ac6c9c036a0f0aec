package connection

import (
	"context"
	"crypto/sha256"
	"errors"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/findy-network/findy-agent-conn/client"
	"github.com/findy-network/findy-agent-conn/cmds"
	"github.com/findy-network/findy-agent-conn/std/tails"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"github.com/mr-tron/base58"
)

// TailsServeCmd serves the tails files of Dir to the pairwise until
// interrupted. The file name is the revocation registry ID.
type TailsServeCmd struct {
	Cmd
	Dir string
}

func (c TailsServeCmd) Validate() error {
	if err := c.Cmd.Validate(); err != nil {
		return err
	}
	if c.Dir == "" {
		return errors.New("tails directory cannot be empty")
	}
	return nil
}

func (c TailsServeCmd) Exec(w io.Writer) (r cmds.Result, err error) {
	defer err2.Handle(&err, "tails serve")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return c.Cmd.Exec(ctx, "", func(ctx context.Context, conn *client.Connection) (cmds.Result, error) {
		ch := try.To1(conn.Remote(ctx, c.TheirDID))
		cmds.Fprintf(w, "serving tails files of %s to %s\n", c.Dir, c.TheirDID)
		err := ch.ServeTails(ctx, c.serveFile)
		if errors.Is(err, context.Canceled) {
			return nil, nil
		}
		return nil, err
	})
}

func (c TailsServeCmd) serveFile(_ context.Context, req *tails.Request) (_ *tails.Response, err error) {
	defer err2.Handle(&err, "tails file %s", req.RevRegID)

	if req.RevRegID != filepath.Base(req.RevRegID) {
		return nil, errors.New("illegal registry ID")
	}
	content := try.To1(os.ReadFile(filepath.Join(c.Dir, req.RevRegID)))
	hash := TailsHash(content)
	if req.TailsHash != "" && req.TailsHash != hash {
		return nil, errors.New("tails hash mismatch")
	}
	glog.V(1).Infof("serving tails %s (%d bytes)", req.RevRegID, len(content))
	return &tails.Response{TailsHash: hash, Content: content}, nil
}

// TailsGetCmd requests the tails file from the pairwise and writes it to
// Out.
type TailsGetCmd struct {
	Cmd
	RevRegID string
	Out      string
}

func (c TailsGetCmd) Validate() error {
	if err := c.Cmd.Validate(); err != nil {
		return err
	}
	if c.RevRegID == "" {
		return errors.New("revocation registry ID cannot be empty")
	}
	if c.Out == "" {
		return errors.New("output file cannot be empty")
	}
	return nil
}

func (c TailsGetCmd) Exec(w io.Writer) (r cmds.Result, err error) {
	defer err2.Handle(&err, "tails get")

	ctx, cancel := c.Context(context.Background())
	defer cancel()

	return c.Cmd.Exec(ctx, "", func(ctx context.Context, conn *client.Connection) (cmds.Result, error) {
		ch := try.To1(conn.Remote(ctx, c.TheirDID))
		resp := try.To1(ch.RequestTails(ctx, tails.Request{RevRegID: c.RevRegID}))
		if resp.TailsHash != "" && resp.TailsHash != TailsHash(resp.Content) {
			return nil, errors.New("received tails hash mismatch")
		}
		try.To(os.WriteFile(c.Out, resp.Content, 0o600))
		cmds.Fprintf(w, "%s: %d bytes to %s\n", resp.RevRegID, len(resp.Content), c.Out)
		return jsonResult{v: resp}, nil
	})
}

// TailsHash is the base58 encoded SHA-256 of the tails file.
func TailsHash(content []byte) string {
	sum := sha256.Sum256(content)
	return base58.Encode(sum[:])
}
