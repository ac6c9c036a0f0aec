/*
Package server encapsulates the http server entry points of the agent
simulator. The simulator implements the agent side of the admin protocol and
it's used by the end-to-end tests and the sim command.
*/
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/findy-network/findy-agent-conn/agent/endp"
	"github.com/findy-network/findy-agent-conn/agent/utils"
	"github.com/golang/glog"
)

// NewMux builds the handler of the simulator: the agent sockets under
// AgentPath and the version endpoint.
func NewMux(sim *AgentSim) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle(AgentPath, sim.Handler())

	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		if glog.V(5) {
			glog.Info("/version requested")
		}
		_, _ = w.Write([]byte(utils.Version))
	})
	return mux
}

// StartHTTPServer serves the simulator on the port until ctx is done. The
// hostAddr is written to the invitations as the service endpoint.
func StartHTTPServer(ctx context.Context, sim *AgentSim, hostAddr string, serverPort uint) error {
	sp := fmt.Sprintf(":%v", serverPort)
	sim.SetEndpoint(hostAddr)

	server := http.Server{
		Addr:    sp,
		Handler: NewMux(sim),
	}
	go func() {
		<-ctx.Done()
		_ = server.Close()
	}()

	if glog.V(1) {
		glog.Infof("agent simulator on port: %v with agent path: \"%s\"",
			serverPort, AgentPath)
	}
	err := server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// AgentURL returns the websocket URL of the named agent at the host.
func AgentURL(host, name string) string {
	addr := endp.Addr{BasePath: "ws://" + host, Service: strings.Trim(AgentPath, "/"), Agent: name}
	return addr.Address()
}
