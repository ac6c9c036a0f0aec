package cmd

import (
	"fmt"
	"io"

	"github.com/findy-network/findy-agent-conn/agent/pltype"
	"github.com/findy-network/findy-agent-conn/agent/utils"
	"github.com/findy-network/findy-agent-conn/cmds"
	"github.com/lainio/err2"
	"github.com/spf13/cobra"
)

var versionDoc = `Prints the version of the tool and the admin protocol families it
speaks with the agent. Use --short to print the version only.`

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Prints the version and the agent protocols of the CLI tool",
	Long:  versionDoc,
	RunE: func(c *cobra.Command, _ []string) (err error) {
		defer err2.Handle(&err)

		printVersion(c.OutOrStdout(), versionShort)
		return nil
	},
}

var versionShort bool

func printVersion(w io.Writer, short bool) {
	cmds.Fprintln(w, utils.Version)
	if short {
		return
	}
	for _, p := range []string{pltype.Admin, pltype.WalletConnection,
		pltype.Connections, pltype.BasicMessage} {
		cmds.Fprintln(w, "protocol:", p)
	}
	cmds.Fprintln(w, "payload class prefix:", pltype.ClassPrefix)
}

func init() {
	defer err2.Catch(err2.Err(func(err error) {
		fmt.Println(err)
	}))

	versionCmd.Flags().BoolVar(&versionShort, "short", false, "print the version only")
	rootCmd.AddCommand(versionCmd)
}
