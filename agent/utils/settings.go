package utils

import (
	"sync"
	"time"

	"github.com/golang/glog"
)

const (
	DefaultTimeout           = 1 * time.Minute
	DefaultReconnectInterval = 2 * time.Second
	DefaultOrigin            = "http://localhost/"
)

var Settings = &Hub{}

type Hub struct {
	timeout           time.Duration // timeout for CLI level waits and websocket dials
	reconnectInterval time.Duration // interval of the reconnect watchdog
	origin            string        // websocket origin header
	dropBuffered      bool          // drop unclaimed messages when transport closes

	l sync.RWMutex
}

// SetTimeout sets the default timeout for dials and CLI level waits. Note
// that the mailbox itself never times out.
func (h *Hub) SetTimeout(to time.Duration) {
	h.l.Lock()
	defer h.l.Unlock()
	h.timeout = to
}

func (h *Hub) Timeout() time.Duration {
	h.l.RLock()
	defer h.l.RUnlock()
	if h.timeout == 0 {
		return DefaultTimeout
	}
	return h.timeout
}

func (h *Hub) SetReconnectInterval(interval time.Duration) {
	h.l.Lock()
	defer h.l.Unlock()
	h.reconnectInterval = interval
}

func (h *Hub) ReconnectInterval() time.Duration {
	h.l.RLock()
	defer h.l.RUnlock()
	if h.reconnectInterval == 0 {
		return DefaultReconnectInterval
	}
	return h.reconnectInterval
}

func (h *Hub) SetOrigin(origin string) {
	h.l.Lock()
	defer h.l.Unlock()
	h.origin = origin
}

// Origin returns the origin used in the websocket handshake. Our agent
// doesn't check it but the x/net/websocket API requires a valid URL.
func (h *Hub) Origin() string {
	h.l.RLock()
	defer h.l.RUnlock()
	if h.origin == "" {
		return DefaultOrigin
	}
	return h.origin
}

// SetDropBuffered sets the mailbox close policy. By default unclaimed
// messages survive a transport close so a waiter after the reconnect can
// still claim them.
func (h *Hub) SetDropBuffered(drop bool) {
	h.l.Lock()
	defer h.l.Unlock()
	if drop && bool(glog.V(1)) {
		glog.Info("unclaimed messages are dropped on transport close")
	}
	h.dropBuffered = drop
}

func (h *Hub) DropBuffered() bool {
	h.l.RLock()
	defer h.l.RUnlock()
	return h.dropBuffered
}
