package pipeline

import (
	"github.com/ValentinKolb/dMQ/cmd/util"
	"github.com/ValentinKolb/dMQ/lib/message"
	"github.com/ValentinKolb/dMQ/lib/socket"
	"github.com/ValentinKolb/dMQ/lib/socket/base"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// PullCmd prints the messages sent by push sockets
	PullCmd = &cobra.Command{
		Use:   "pull",
		Short: "Print messages from push sockets",
		Args:  cobra.NoArgs,
		RunE:  runPull,
	}
)

func init() {
	util.SetupSocketFlags(PullCmd)
	util.SetupIOFlags(PullCmd)
}

func runPull(_ *cobra.Command, _ []string) error {
	config, err := util.GetSocketConfig()
	if err != nil {
		return err
	}

	sep := viper.GetString("separator")
	events := util.Events()
	events.OnMessage = func(_ *base.Peer, msg message.Message) {
		util.Printf("%s\n", util.FormatFrames(msg, sep))
	}

	pull, err := socket.NewPull(config, events)
	if err != nil {
		return err
	}
	defer util.CloseAndWait(pull.Socket)

	if err := util.Open(pull.Socket); err != nil {
		return err
	}

	ctx, cancel := util.SignalContext()
	defer cancel()
	<-ctx.Done()
	return nil
}
