package client

import (
	"github.com/findy-network/findy-agent-conn/agent/mesg"
	"github.com/findy-network/findy-agent-conn/agent/trans"
	"github.com/findy-network/findy-agent-conn/core"
	"github.com/golang/glog"
)

// OnOpen implements trans.Listener.
func (c *Connection) OnOpen() {
	glog.V(2).Infoln("socket open:", c.cfg.AgentURL)
}

// OnFrame classifies the frame and resolves it to the mailbox. It runs on
// the reader goroutine: a frame which can't be classified is dropped and
// the mailbox isn't touched.
func (c *Connection) OnFrame(data []byte) {
	f, key, err := mesg.DecodeAndClassify(data)
	if err != nil {
		if f != nil && f.Err() != nil {
			// its waiter can't be found, it waits until its ctx is done
			glog.Warningf("agent error dropped: %v: %v", err, f.Err())
			return
		}
		glog.Errorf("frame dropped: %v", err)
		return
	}
	glog.V(3).Infoln("frame:", f, "key:", key)
	c.mb.Resolve(key, f)
}

// OnClose fails the parked waiters. The reconnect happens on the next send
// or the next waiter.
func (c *Connection) OnClose(reason trans.CloseReason, err error) {
	if reason == trans.ClosedByClient {
		return
	}
	glog.Warningf("socket %s: %v", reason, err)
	c.mb.Close(core.NewConnectionError("transport "+reason.String(), err))
}

func (c *Connection) OnError(err error) {
	glog.Warningln("socket error:", err)
}
