package cmd

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/findy-network/findy-agent-conn/agent/utils"
	"github.com/findy-network/findy-agent-conn/cmds"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "FCONN"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Version: utils.Version,
	Use:     "findy-agent-conn",
	Short:   "Findy agent connection cli tool",
	Long: `
Findy agent connection cli tool. Connects to a mediating agent, pairs with other
parties and exchanges payloads with them. The sim command runs a local agent
simulator.
	`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cmds.ParseLoggingArgs(rootFlags.logging)
		handleViperFlags(cmd)
		cFlags.apply()
	},
}

// Execute root
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// To fix errors printed twice removing the cobra generators next
		// see: https://github.com/spf13/cobra/issues/304
		// fmt.Println(err)

		os.Exit(1)
	}
}

// RootCmd returns a current root command which can be used for adding own
// commands in an own repo.
//
//	implCmd.AddCommand(listCmd)
func RootCmd() *cobra.Command {
	return rootCmd
}

// DryRun returns a value of a dry run flag.
func DryRun() bool {
	return rootFlags.dryRun
}

// RootFlags are the common flags
type RootFlags struct {
	cfgFile string
	dryRun  bool
	logging string
}

// ClientFlags are the agent connection flags
type ClientFlags struct {
	AgentURL          string
	WalletName        string
	WalletKey         string
	Timeout           time.Duration
	ReconnectInterval time.Duration
	Origin            string
	DropBuffered      bool
}

func (f ClientFlags) apply() {
	if f.Timeout != 0 {
		utils.Settings.SetTimeout(f.Timeout)
	}
	if f.ReconnectInterval != 0 {
		utils.Settings.SetReconnectInterval(f.ReconnectInterval)
	}
	if f.Origin != "" {
		utils.Settings.SetOrigin(f.Origin)
	}
	utils.Settings.SetDropBuffered(f.DropBuffered)
}

// Cmd returns the base command of the flags.
func (f ClientFlags) Cmd() cmds.Cmd {
	return cmds.Cmd{
		AgentURL:   f.AgentURL,
		WalletName: f.WalletName,
		WalletKey:  f.WalletKey,
		Timeout:    f.Timeout,
	}
}

var (
	rootFlags = RootFlags{}
	cFlags    = ClientFlags{}
)

var rootEnvs = map[string]string{
	"config":             "CONFIG",
	"logging":            "LOGGING",
	"dry-run":            "DRY_RUN",
	"url":                "URL",
	"wallet-name":        "WALLET_NAME",
	"wallet-key":         "WALLET_KEY",
	"timeout":            "TIMEOUT",
	"reconnect-interval": "RECONNECT_INTERVAL",
	"origin":             "ORIGIN",
	"drop-buffered":      "DROP_BUFFERED",
}

func init() {
	defer err2.Catch(err2.Err(func(err error) {
		log.Println(err)
	}))

	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&rootFlags.cfgFile, "config", "", flagInfo("configuration file", "", rootEnvs["config"]))
	flags.StringVar(&rootFlags.logging, "logging", "-logtostderr=true -v=2", flagInfo("logging startup arguments", "", rootEnvs["logging"]))
	flags.BoolVarP(&rootFlags.dryRun, "dry-run", "n", false, flagInfo("perform a trial run with no changes made", "", rootEnvs["dry-run"]))

	flags.StringVar(&cFlags.AgentURL, "url", "", flagInfo("websocket URL of the agent", "", rootEnvs["url"]))
	flags.StringVar(&cFlags.WalletName, "wallet-name", "", flagInfo("wallet name", "", rootEnvs["wallet-name"]))
	flags.StringVar(&cFlags.WalletKey, "wallet-key", "", flagInfo("wallet key", "", rootEnvs["wallet-key"]))
	flags.DurationVar(&cFlags.Timeout, "timeout", 0, flagInfo("timeout of the command, 0 is the default", "", rootEnvs["timeout"]))
	flags.DurationVar(&cFlags.ReconnectInterval, "reconnect-interval", 0, flagInfo("reconnect watchdog interval, 0 is the default", "", rootEnvs["reconnect-interval"]))
	flags.StringVar(&cFlags.Origin, "origin", "", flagInfo("websocket origin", "", rootEnvs["origin"]))
	flags.BoolVar(&cFlags.DropBuffered, "drop-buffered", false, flagInfo("drop the unclaimed messages when the socket closes", "", rootEnvs["drop-buffered"]))

	for flagKey := range rootEnvs {
		if flagKey == "config" {
			continue
		}
		try.To(viper.BindPFlag(flagKey, flags.Lookup(flagKey)))
	}
	try.To(BindEnvs(rootEnvs, ""))
}

func initConfig() {
	viper.SetEnvPrefix(envPrefix)
	replacer := strings.NewReplacer("-", "_")
	viper.SetEnvKeyReplacer(replacer)
	readConfigFile()
	readBoundRootFlags()
}

func readBoundRootFlags() {
	rootFlags.logging = viper.GetString("logging")
	rootFlags.dryRun = viper.GetBool("dry-run")

	cFlags.AgentURL = viper.GetString("url")
	cFlags.WalletName = viper.GetString("wallet-name")
	cFlags.WalletKey = viper.GetString("wallet-key")
	cFlags.Timeout = viper.GetDuration("timeout")
	cFlags.ReconnectInterval = viper.GetDuration("reconnect-interval")
	cFlags.Origin = viper.GetString("origin")
	cFlags.DropBuffered = viper.GetBool("drop-buffered")
}

func readConfigFile() {
	cfgEnv := os.Getenv(getEnvName("", "config"))
	if rootFlags.cfgFile != "" || cfgEnv != "" {
		printInfo := true
		if rootFlags.cfgFile == "" {
			rootFlags.cfgFile = cfgEnv
			printInfo = false
		}
		viper.SetConfigFile(rootFlags.cfgFile)
		// If a config file is found, read it in.
		if err := viper.ReadInConfig(); err == nil && printInfo {
			fmt.Println("Using config file:", viper.ConfigFileUsed())
		}
	}
}

// BindEnvs calls viper.BindEnv with envMap and cmdName which can be empty if
// flag is general.
func BindEnvs(envMap map[string]string, cmdName string) (err error) {
	defer err2.Handle(&err)
	for flagKey, envName := range envMap {
		finalEnvName := getEnvName(cmdName, envName)
		try.To(viper.BindEnv(flagKey, finalEnvName))
	}
	return nil
}

func flagInfo(info, cmdPrefix, envName string) string {
	return info + ", " + getEnvName(cmdPrefix, envName)
}

func getEnvName(cmdName, envName string) string {
	if cmdName == "" {
		return envPrefix + "_" + strings.ToUpper(envName)
	}
	return envPrefix + "_" + strings.ToUpper(cmdName) + "_" + envName
}

func handleViperFlags(cmd *cobra.Command) {
	setRequiredStringFlags(cmd)
	if cmd.HasParent() {
		handleViperFlags(cmd.Parent())
	}
}

func setRequiredStringFlags(cmd *cobra.Command) {
	defer err2.Catch(err2.Err(func(err error) {
		log.Println(err)
	}))

	try.To(viper.BindPFlags(cmd.LocalFlags()))
	if cmd.PreRunE != nil {
		try.To(cmd.PreRunE(cmd, nil))
	}
	cmd.LocalFlags().VisitAll(func(f *pflag.Flag) {
		if viper.GetString(f.Name) != "" {
			try.To(cmd.LocalFlags().Set(f.Name, viper.GetString(f.Name)))
		}
	})
}

// SubCmdNeeded prints the help and error messages because the cmd is abstract.
func SubCmdNeeded(cmd *cobra.Command) {
	fmt.Println("Subcommand needed!")
	_ = cmd.Help()
	os.Exit(1)
}
