package pubsub

import (
	"os"

	"github.com/ValentinKolb/dMQ/cmd/util"
	"github.com/ValentinKolb/dMQ/lib/socket"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// PubCmd publishes every stdin line to all connected sub sockets
	PubCmd = &cobra.Command{
		Use:   "pub [topic]",
		Short: "Publish stdin lines",
		Long: `Publish every line read from stdin to all connected sub sockets.
The line is split into frames at --separator. If a topic is given it is sent as first frame.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runPub,
	}
)

func init() {
	util.SetupSocketFlags(PubCmd)
	util.SetupSenderFlags(PubCmd)
}

func runPub(_ *cobra.Command, args []string) error {
	config, err := util.GetSocketConfig()
	if err != nil {
		return err
	}

	pub, err := socket.NewPub(config, util.Events())
	if err != nil {
		return err
	}
	defer util.CloseAndWait(pub.Socket)

	if err := util.Open(pub.Socket); err != nil {
		return err
	}

	ctx, cancel := util.SignalContext()
	defer cancel()

	sep := viper.GetString("separator")
	err = util.ReadLines(ctx, os.Stdin, func(line string) error {
		frames := util.SplitFrames(line, sep)
		if len(args) == 1 {
			frames = append([][]byte{[]byte(args[0])}, frames...)
		}
		return pub.Send(frames...)
	})
	if err != nil {
		return err
	}

	util.Linger(ctx)
	return nil
}
