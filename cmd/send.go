package cmd

import (
	"log"
	"os"

	"github.com/findy-network/findy-agent-conn/cmds/connection"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"github.com/spf13/cobra"
)

var sendEnvs = map[string]string{
	"their-did": "THEIR_DID",
	"class":     "CLASS",
	"msg":       "MESSAGE",
	"confirm":   "CONFIRM",
}

// sendCmd represents the send subcommand
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Command for sending a payload to the pairwise",
	Long: `
Sends a JSON payload to the pairwise. The class names the payload, e.g.
credex.CredentialOffer or credex.Proof. With --confirm the command waits until
the agent has accepted the message.

Example
	findy-agent-conn send \
		--url ws://localhost:8080/agent/alice \
		--wallet-name alice \
		--wallet-key alice-key \
		--their-did 5qKgx1AP8cPFYgyqt5DYBe \
		--class credex.ProofRequest \
		--msg '{"name":"age"}'
	`,
	PreRunE: func(cmd *cobra.Command, args []string) (err error) {
		return BindEnvs(sendEnvs, cmd.Name())
	},
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		defer err2.Handle(&err)

		sCmd.Cmd.Cmd = cFlags.Cmd()
		try.To(sCmd.Validate())
		if !rootFlags.dryRun {
			cmd.SilenceUsage = true
			try.To1(sCmd.Exec(os.Stdout))
		}
		return nil
	},
}

var receiveEnvs = map[string]string{
	"their-did": "THEIR_DID",
	"class":     "CLASS",
}

// receiveCmd represents the receive subcommand
var receiveCmd = &cobra.Command{
	Use:   "receive",
	Short: "Command for receiving a payload from the pairwise",
	Long: `
Waits for the next payload of the class from the pairwise and prints it.

Example
	findy-agent-conn receive \
		--url ws://localhost:8080/agent/bob \
		--wallet-name bob \
		--wallet-key bob-key \
		--their-did 4wFEcd8Z1rFQ6pY9RTcXDp \
		--class credex.ProofRequest
	`,
	PreRunE: func(cmd *cobra.Command, args []string) (err error) {
		return BindEnvs(receiveEnvs, cmd.Name())
	},
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		defer err2.Handle(&err)

		rCmd.Cmd.Cmd = cFlags.Cmd()
		try.To(rCmd.Validate())
		if !rootFlags.dryRun {
			cmd.SilenceUsage = true
			try.To1(rCmd.Exec(os.Stdout))
		}
		return nil
	},
}

var (
	sCmd connection.SendCmd
	rCmd connection.ReceiveCmd
)

func init() {
	defer err2.Catch(err2.Err(func(err error) {
		log.Println(err)
	}))

	flags := sendCmd.Flags()
	flags.StringVar(&sCmd.TheirDID, "their-did", "", flagInfo("DID of the pairwise", sendCmd.Name(), sendEnvs["their-did"]))
	flags.StringVar(&sCmd.Class, "class", "", flagInfo("payload class", sendCmd.Name(), sendEnvs["class"]))
	flags.StringVar(&sCmd.Message, "msg", "", flagInfo("JSON payload", sendCmd.Name(), sendEnvs["msg"]))
	flags.BoolVar(&sCmd.Confirmed, "confirm", false, flagInfo("wait for the agent's acknowledgement", sendCmd.Name(), sendEnvs["confirm"]))

	flags = receiveCmd.Flags()
	flags.StringVar(&rCmd.TheirDID, "their-did", "", flagInfo("DID of the pairwise", receiveCmd.Name(), receiveEnvs["their-did"]))
	flags.StringVar(&rCmd.Class, "class", "", flagInfo("payload class", receiveCmd.Name(), receiveEnvs["class"]))

	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(receiveCmd)
}
