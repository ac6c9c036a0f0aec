package server

import (
	"net/http/httptest"
	"strings"
)

// TestServer is the simulator running on a local httptest server.
type TestServer struct {
	*AgentSim
	srv *httptest.Server
}

func StartTestServer() *TestServer {
	sim := NewAgentSim()
	srv := httptest.NewServer(NewMux(sim))
	sim.SetEndpoint(srv.URL + "/invite")
	return &TestServer{AgentSim: sim, srv: srv}
}

// AgentURL returns the websocket URL of the named agent.
func (ts *TestServer) AgentURL(name string) string {
	return AgentURL(strings.TrimPrefix(ts.srv.URL, "http://"), name)
}

// Close closes the agent sockets first, because httptest waits for the
// running handlers.
func (ts *TestServer) Close() {
	ts.DropConnections()
	ts.srv.Close()
}
