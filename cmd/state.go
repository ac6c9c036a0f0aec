package cmd

import (
	"log"
	"os"

	"github.com/findy-network/findy-agent-conn/cmds/connection"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"github.com/spf13/cobra"
)

// stateCmd represents the state subcommand
var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Command for printing the agent state",
	Long: `
Connects the wallet and prints the agent state with the pairwise connections.

Example
	findy-agent-conn state \
		--url ws://localhost:8080/agent/alice \
		--wallet-name alice \
		--wallet-key alice-key
	`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		defer err2.Handle(&err)

		c := connection.StateCmd{Cmd: cFlags.Cmd()}
		try.To(c.Validate())
		if !rootFlags.dryRun {
			cmd.SilenceUsage = true
			try.To1(c.Exec(os.Stdout))
		}
		return nil
	},
}

func init() {
	defer err2.Catch(err2.Err(func(err error) {
		log.Println(err)
	}))

	rootCmd.AddCommand(stateCmd)
}
