package pubsub

import (
	"github.com/ValentinKolb/dMQ/cmd/util"
	"github.com/ValentinKolb/dMQ/lib/message"
	"github.com/ValentinKolb/dMQ/lib/socket"
	"github.com/ValentinKolb/dMQ/lib/socket/base"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// SubCmd prints the messages published by pub sockets
	SubCmd = &cobra.Command{
		Use:   "sub [pattern...]",
		Short: "Print published messages",
		Long: `Print every message received from pub sockets, one per line.
Patterns filter on the first frame, "*" matches one or more characters (e.g. "user:*").
Without patterns every message is printed.`,
		RunE: runSub,
	}
)

func init() {
	util.SetupSocketFlags(SubCmd)
	util.SetupIOFlags(SubCmd)
}

func runSub(_ *cobra.Command, patterns []string) error {
	config, err := util.GetSocketConfig()
	if err != nil {
		return err
	}

	sep := viper.GetString("separator")
	events := util.Events()
	events.OnMessage = func(_ *base.Peer, msg message.Message) {
		util.Printf("%s\n", util.FormatFrames(msg, sep))
	}

	sub, err := socket.NewSub(config, events)
	if err != nil {
		return err
	}
	defer util.CloseAndWait(sub.Socket)

	for _, pattern := range patterns {
		sub.Subscribe(pattern)
	}

	if err := util.Open(sub.Socket); err != nil {
		return err
	}

	ctx, cancel := util.SignalContext()
	defer cancel()
	<-ctx.Done()
	return nil
}
