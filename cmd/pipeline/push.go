package pipeline

import (
	"os"

	"github.com/ValentinKolb/dMQ/cmd/util"
	"github.com/ValentinKolb/dMQ/lib/socket"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// PushCmd distributes stdin lines over the connected pull sockets
	PushCmd = &cobra.Command{
		Use:   "push",
		Short: "Distribute stdin lines round-robin",
		Long: `Send every line read from stdin to the next connected pull socket.
Lines read while no pull socket is connected are buffered up to --hwm messages.`,
		Args: cobra.NoArgs,
		RunE: runPush,
	}
)

func init() {
	util.SetupSocketFlags(PushCmd)
	util.SetupSenderFlags(PushCmd)
}

func runPush(_ *cobra.Command, _ []string) error {
	config, err := util.GetSocketConfig()
	if err != nil {
		return err
	}

	push, err := socket.NewPush(config, util.Events())
	if err != nil {
		return err
	}
	defer util.CloseAndWait(push.Socket)

	if err := util.Open(push.Socket); err != nil {
		return err
	}

	ctx, cancel := util.SignalContext()
	defer cancel()

	sep := viper.GetString("separator")
	err = util.ReadLines(ctx, os.Stdin, func(line string) error {
		return push.Send(util.SplitFrames(line, sep)...)
	})
	if err != nil {
		return err
	}

	util.Linger(ctx)
	return nil
}
