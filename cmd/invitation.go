package cmd

import (
	"io"
	"log"
	"os"
	"strings"

	"github.com/findy-network/findy-agent-conn/cmds/connection"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"github.com/spf13/cobra"
)

var invitationEnvs = map[string]string{
	"label": "LABEL",
}

// invitationCmd represents the invitation subcommand
var invitationCmd = &cobra.Command{
	Use:   "invitation",
	Short: "Command for generating an invitation",
	Long: `
Generates a new invitation and prints its token. Give the token to the other
party and start the wait command to complete the pairing.

Example
	findy-agent-conn invitation \
		--url ws://localhost:8080/agent/alice \
		--wallet-name alice \
		--wallet-key alice-key \
		--label Alice
	`,
	PreRunE: func(cmd *cobra.Command, args []string) (err error) {
		return BindEnvs(invitationEnvs, cmd.Name())
	},
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		defer err2.Handle(&err)

		invCmd.Cmd = cFlags.Cmd()
		try.To(invCmd.Validate())
		if !rootFlags.dryRun {
			cmd.SilenceUsage = true
			try.To1(invCmd.Exec(os.Stdout))
		}
		return nil
	},
}

var acceptEnvs = map[string]string{
	"label": "LABEL",
}

// acceptCmd represents the accept subcommand
var acceptCmd = &cobra.Command{
	Use:   "accept [token|-]",
	Short: "Command for accepting an invitation",
	Long: `
Accepts the invitation and prints the pairwise connection when the inviter has
responded. The token is read from standard input when the argument is -.

Example
	findy-agent-conn accept \
		--url ws://localhost:8080/agent/bob \
		--wallet-name bob \
		--wallet-key bob-key \
		--label Bob \
		"http://localhost:8080/alice?c_i=eyJAdHlwZSI6ImRpZDpzb3Y6..."
	`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) (err error) {
		return BindEnvs(acceptEnvs, cmd.Name())
	},
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		defer err2.Handle(&err)

		acpCmd.Cmd = cFlags.Cmd()
		acpCmd.Invitation = try.To1(readToken(args[0], os.Stdin))
		try.To(acpCmd.Validate())
		if !rootFlags.dryRun {
			cmd.SilenceUsage = true
			try.To1(acpCmd.Exec(os.Stdout))
		}
		return nil
	},
}

var waitEnvs = map[string]string{
	"retries": "RETRIES",
}

// waitCmd represents the wait subcommand
var waitCmd = &cobra.Command{
	Use:   "wait [token|-]",
	Short: "Command for waiting the invited party",
	Long: `
Waits for the invited party to pair through the invitation and prints the
pairwise connection. A pairwise not yet visible in the agent state is retried.

Example
	findy-agent-conn wait \
		--url ws://localhost:8080/agent/alice \
		--wallet-name alice \
		--wallet-key alice-key \
		--timeout 5m \
		"http://localhost:8080/alice?c_i=eyJAdHlwZSI6ImRpZDpzb3Y6..."
	`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) (err error) {
		return BindEnvs(waitEnvs, cmd.Name())
	},
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		defer err2.Handle(&err)

		wCmd.Cmd = cFlags.Cmd()
		wCmd.Invitation = try.To1(readToken(args[0], os.Stdin))
		try.To(wCmd.Validate())
		if !rootFlags.dryRun {
			cmd.SilenceUsage = true
			try.To1(wCmd.Exec(os.Stdout))
		}
		return nil
	},
}

// readToken returns the argument or, when it's -, the token read from r.
func readToken(arg string, r io.Reader) (token string, err error) {
	defer err2.Handle(&err, "read invitation")

	if arg != "-" {
		return arg, nil
	}
	d := try.To1(io.ReadAll(r))
	return strings.TrimSpace(string(d)), nil
}

var (
	invCmd connection.InvitationCmd
	acpCmd connection.AcceptCmd
	wCmd   connection.WaitCmd
)

func init() {
	defer err2.Catch(err2.Err(func(err error) {
		log.Println(err)
	}))

	invitationCmd.Flags().StringVar(&invCmd.Label, "label", "", flagInfo("label shown to the other party", invitationCmd.Name(), invitationEnvs["label"]))
	acceptCmd.Flags().StringVar(&acpCmd.Label, "label", "", flagInfo("label shown to the other party", acceptCmd.Name(), acceptEnvs["label"]))
	waitCmd.Flags().IntVar(&wCmd.Retries, "retries", 3, flagInfo("retries of the pairwise lookup", waitCmd.Name(), waitEnvs["retries"]))

	rootCmd.AddCommand(invitationCmd)
	rootCmd.AddCommand(acceptCmd)
	rootCmd.AddCommand(waitCmd)
}
