/*
Package endp parses and builds the agent addresses. An agent address is a URL
whose first path part is the service and the second the agent name, e.g.
ws://localhost:8080/agent/alice.
*/
package endp

import (
	"fmt"
	"net/url"
	"strings"
)

// Addr is an agent address. BasePath is empty for the addresses parsed from a
// server side request path.
type Addr struct {
	BasePath string // scheme and host, e.g. ws://localhost:8080
	Service  string // service name like agent for the websocket agents
	Agent    string // agent name
}

// NewServerAddr creates and fills new object from the URL path of a server
// request. For that reason it cannot fill base address field.
func NewServerAddr(s string) (ea *Addr) {
	ea = new(Addr)
	parts := strings.Split(s, "/")
	for i, part := range parts {
		switch i {
		case 1:
			ea.Service = part
		case 2:
			ea.Agent = part
		}
	}
	return
}

// NewClientAddr creates and fills new object from string which holds full URL
// of the address, including base address as well.
func NewClientAddr(s string) (ea *Addr, err error) {
	u, err := url.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("agent address: %w", err)
	}
	ea = NewServerAddr(u.Path)
	ea.BasePath = u.Scheme + "://" + u.Host
	return ea, nil
}

// Valid tells if the address has both the service and the agent name.
func (e *Addr) Valid() bool {
	return e.Service != "" && e.Agent != ""
}

func (e *Addr) Address() string {
	basePath := e.BasePath
	if e.Service != "" {
		basePath += "/" + e.Service
	}
	if e.Agent != "" {
		basePath += "/" + e.Agent
	}
	return strings.TrimSuffix(basePath, "/")
}

func (e *Addr) String() string {
	return e.Address()
}
