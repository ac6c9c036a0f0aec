package remote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/findy-network/findy-agent-conn/agent/utils"
	"github.com/findy-network/findy-agent-conn/core"
	"github.com/findy-network/findy-agent-conn/std/tails"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// TailsHandler produces the tails file for the request. Its error is sent to
// the requester in the response.
type TailsHandler func(ctx context.Context, req *tails.Request) (*tails.Response, error)

// RequestTails sends the request and waits for its response once.
func (c *Channel) RequestTails(ctx context.Context, req tails.Request) (r *tails.Response, err error) {
	defer err2.Handle(&err, "request tails %s", req.RevRegID)

	try.To(SendPayload(ctx, c, req))
	resp := try.To1(ReceivePayload[tails.Response](ctx, c))
	if resp.Error != "" {
		return nil, errors.New(resp.Error)
	}
	return &resp, nil
}

// ServeTails serves the counterparty's tails requests until ctx is done or
// the agent connection is disconnected:
//
//	for open { req := await request; resp := h(req); send resp }
//
// A transport break fails the pending wait; the loop waits a moment and
// waits again, which schedules the reconnect. It returns the error that
// stopped it.
func (c *Channel) ServeTails(ctx context.Context, h TailsHandler) error {
	backoff := utils.Settings.ReconnectInterval()
	served := 0
	for {
		req, err := ReceivePayload[tails.Request](ctx, c)
		if err != nil {
			if stop := c.stopServing(ctx); stop != nil {
				glog.V(1).Infof("tails server for %s stopped after %d: %v",
					c.conn.TheirDID, served, stop)
				return stop
			}
			if !core.IsConnectionError(err) {
				glog.Warningln("tails server skips request:", err)
				continue
			}
			glog.Warningln("tails server wait failed, retrying:", err)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			continue
		}

		resp := c.handleTails(ctx, h, &req)
		if err := SendPayload(ctx, c, *resp); err != nil {
			if stop := c.stopServing(ctx); stop != nil {
				return stop
			}
			glog.Warningln("tails response send failed:", err)
			continue
		}
		served++
		glog.V(2).Infof("tails %s served to %s", req.RevRegID, c.conn.TheirDID)
	}
}

func (c *Channel) handleTails(ctx context.Context, h TailsHandler, req *tails.Request) (resp *tails.Response) {
	defer err2.Catch(func(err error) error {
		resp = &tails.Response{RevRegID: req.RevRegID, Error: err.Error()}
		return nil
	}, func(p any) {
		resp = &tails.Response{RevRegID: req.RevRegID, Error: fmt.Sprint(p)}
	})

	resp = try.To1(h(ctx, req))
	if resp == nil {
		return &tails.Response{RevRegID: req.RevRegID, Error: "no tails file"}
	}
	if resp.RevRegID == "" {
		resp.RevRegID = req.RevRegID
	}
	return resp
}

// stopServing returns the error which ends the server loop, or nil if the
// loop continues.
func (c *Channel) stopServing(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if c.m.Status() == core.Disconnected {
		return core.NewConnectionError("tails server", core.ErrClosed)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
