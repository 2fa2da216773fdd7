package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/ValentinKolb/dMQ/cmd/bench"
	"github.com/ValentinKolb/dMQ/cmd/pipeline"
	"github.com/ValentinKolb/dMQ/cmd/pubsub"
	"github.com/ValentinKolb/dMQ/cmd/reqrep"
	"github.com/ValentinKolb/dMQ/cmd/util"
	"github.com/ValentinKolb/dMQ/lib/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	Version = "0.3.0"
)

var (
	stopMetrics context.CancelFunc = func() {}

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "dmq",
		Short: "broker-less messaging sockets",
		Long: fmt.Sprintf(`dMQ (v%s)

Broker-less messaging over TCP, unix and websocket connections.
Sockets talk directly to each other using the pub/sub, push/pull
and req/rep patterns. Reconnects and send buffering are handled
by the sockets.`, Version),
		SilenceUsage:      true,
		PersistentPostRun: func(*cobra.Command, []string) { stopMetrics() },
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of dMQ",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("dMQ v%s\n", Version)
		},
	}
)

func init() {
	RootCmd.PersistentPreRunE = setup
	cobra.OnInitialize(util.InitConfig)

	// Add Commands
	RootCmd.AddCommand(pubsub.PubCmd)
	RootCmd.AddCommand(pubsub.SubCmd)
	RootCmd.AddCommand(pipeline.PushCmd)
	RootCmd.AddCommand(pipeline.PullCmd)
	RootCmd.AddCommand(reqrep.ReqCmd)
	RootCmd.AddCommand(reqrep.RepCmd)
	RootCmd.AddCommand(bench.BenchCmd)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "log-level"
	RootCmd.PersistentFlags().String(key, "info", util.WrapString("Level at which logs are written to stderr (debug, info, warn, error)"))
	key = "config"
	RootCmd.PersistentFlags().String(key, "", util.WrapString("Optional YAML file with the socket configuration, flags override its values"))
	key = "metrics-endpoint"
	RootCmd.PersistentFlags().String(key, "", util.WrapString("Address to serve prometheus metrics on (e.g. localhost:9100), disabled when empty"))
}

// setup binds the flags of the executed command and initializes logging and metrics
func setup(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	if err := viper.BindPFlags(RootCmd.PersistentFlags()); err != nil {
		return err
	}

	if err := common.InitLoggers(viper.GetString("log-level"), os.Stderr); err != nil {
		return err
	}

	if endpoint := viper.GetString("metrics-endpoint"); endpoint != "" {
		var ctx context.Context
		ctx, stopMetrics = context.WithCancel(context.Background())
		util.ServeMetrics(ctx, endpoint)
	}
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
