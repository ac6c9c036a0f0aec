package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"

	"github.com/findy-network/findy-agent-conn/server"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"github.com/spf13/cobra"
)

var simEnvs = map[string]string{
	"host-address": "HOST_ADDRESS",
	"server-port":  "SERVER_PORT",
}

// simCmd represents the sim command
var simCmd = &cobra.Command{
	Use:   "sim",
	Short: "Command for starting the agent simulator",
	Long: `
Starts the agent simulator. Every URL path under /agent/ is an own agent, e.g.
ws://localhost:8080/agent/alice. The agents keep their wallets, invitations and
pairwise connections until the simulator stops.

Example
	findy-agent-conn sim \
		--host-address http://localhost:8080 \
		--server-port 8080
	`,
	PreRunE: func(cmd *cobra.Command, args []string) (err error) {
		return BindEnvs(simEnvs, cmd.Name())
	},
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		defer err2.Handle(&err)

		if rootFlags.dryRun {
			return nil
		}
		cmd.SilenceUsage = true
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		try.To(server.StartHTTPServer(ctx, server.NewAgentSim(), simFlags.hostAddr,
			simFlags.serverPort))
		return nil
	},
}

var simFlags struct {
	hostAddr   string
	serverPort uint
}

func init() {
	defer err2.Catch(err2.Err(func(err error) {
		log.Println(err)
	}))

	flags := simCmd.Flags()
	flags.StringVar(&simFlags.hostAddr, "host-address", "http://localhost:8080", flagInfo("service endpoint written to invitations", simCmd.Name(), simEnvs["host-address"]))
	flags.UintVar(&simFlags.serverPort, "server-port", 8080, flagInfo("http server port", simCmd.Name(), simEnvs["server-port"]))

	rootCmd.AddCommand(simCmd)
}
