package cmd

import (
	"log"
	"os"

	"github.com/findy-network/findy-agent-conn/cmds/connection"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"github.com/spf13/cobra"
)

// tailsCmd represents the tails command
var tailsCmd = &cobra.Command{
	Use:   "tails",
	Short: "Parent command for the tails file transfer",
	Long: `
Parent command for serving and fetching tails files over a pairwise
	`,
	Run: func(cmd *cobra.Command, args []string) {
		SubCmdNeeded(cmd)
	},
}

var tailsServeEnvs = map[string]string{
	"their-did": "THEIR_DID",
	"dir":       "DIR",
}

// tailsServeCmd represents the tails serve subcommand
var tailsServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Command for serving tails files to the pairwise",
	Long: `
Serves the tails files of the directory to the pairwise until interrupted. The
file name is the revocation registry ID.

Example
	findy-agent-conn tails serve \
		--url ws://localhost:8080/agent/alice \
		--wallet-name alice \
		--wallet-key alice-key \
		--their-did 5qKgx1AP8cPFYgyqt5DYBe \
		--dir ./tails
	`,
	PreRunE: func(cmd *cobra.Command, args []string) (err error) {
		return BindEnvs(tailsServeEnvs, "TAILS_SERVE")
	},
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		defer err2.Handle(&err)

		tsCmd.Cmd.Cmd = cFlags.Cmd()
		try.To(tsCmd.Validate())
		if !rootFlags.dryRun {
			cmd.SilenceUsage = true
			try.To1(tsCmd.Exec(os.Stdout))
		}
		return nil
	},
}

var tailsGetEnvs = map[string]string{
	"their-did":  "THEIR_DID",
	"rev-reg-id": "REV_REG_ID",
	"out":        "OUT",
}

// tailsGetCmd represents the tails get subcommand
var tailsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Command for fetching a tails file from the pairwise",
	Long: `
Requests the tails file of the revocation registry from the pairwise and writes
it to the output file.

Example
	findy-agent-conn tails get \
		--url ws://localhost:8080/agent/bob \
		--wallet-name bob \
		--wallet-key bob-key \
		--their-did 4wFEcd8Z1rFQ6pY9RTcXDp \
		--rev-reg-id R1 \
		--out ./R1.tails
	`,
	PreRunE: func(cmd *cobra.Command, args []string) (err error) {
		return BindEnvs(tailsGetEnvs, "TAILS_GET")
	},
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		defer err2.Handle(&err)

		tgCmd.Cmd.Cmd = cFlags.Cmd()
		try.To(tgCmd.Validate())
		if !rootFlags.dryRun {
			cmd.SilenceUsage = true
			try.To1(tgCmd.Exec(os.Stdout))
		}
		return nil
	},
}

var (
	tsCmd connection.TailsServeCmd
	tgCmd connection.TailsGetCmd
)

func init() {
	defer err2.Catch(err2.Err(func(err error) {
		log.Println(err)
	}))

	flags := tailsServeCmd.Flags()
	flags.StringVar(&tsCmd.TheirDID, "their-did", "", flagInfo("DID of the pairwise", "TAILS_SERVE", tailsServeEnvs["their-did"]))
	flags.StringVar(&tsCmd.Dir, "dir", "", flagInfo("tails file directory", "TAILS_SERVE", tailsServeEnvs["dir"]))

	flags = tailsGetCmd.Flags()
	flags.StringVar(&tgCmd.TheirDID, "their-did", "", flagInfo("DID of the pairwise", "TAILS_GET", tailsGetEnvs["their-did"]))
	flags.StringVar(&tgCmd.RevRegID, "rev-reg-id", "", flagInfo("revocation registry ID", "TAILS_GET", tailsGetEnvs["rev-reg-id"]))
	flags.StringVar(&tgCmd.Out, "out", "", flagInfo("output file", "TAILS_GET", tailsGetEnvs["out"]))

	tailsCmd.AddCommand(tailsServeCmd)
	tailsCmd.AddCommand(tailsGetCmd)
	rootCmd.AddCommand(tailsCmd)
}
