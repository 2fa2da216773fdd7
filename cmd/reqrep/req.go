package reqrep

import (
	"fmt"
	"os"
	"time"

	"github.com/ValentinKolb/dMQ/cmd/util"
	"github.com/ValentinKolb/dMQ/lib/message"
	"github.com/ValentinKolb/dMQ/lib/socket"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// ReqCmd sends every stdin line as request and prints the replies
	ReqCmd = &cobra.Command{
		Use:   "req",
		Short: "Send stdin lines as requests",
		Long: `Send every line read from stdin as request to the next rep socket and print the reply.
Requests are sent one at a time, the next line is read once the reply arrived.`,
		Args: cobra.NoArgs,
		RunE: runReq,
	}
)

func init() {
	util.SetupSocketFlags(ReqCmd)
	util.SetupIOFlags(ReqCmd)

	key := "timeout"
	ReqCmd.Flags().Duration(key, 10*time.Second, util.WrapString("How long to wait for each reply"))
}

type result struct {
	err  error
	body message.Message
}

func runReq(_ *cobra.Command, _ []string) error {
	config, err := util.GetSocketConfig()
	if err != nil {
		return err
	}

	req, err := socket.NewReq(config, util.Events())
	if err != nil {
		return err
	}
	defer util.CloseAndWait(req.Socket)

	if err := util.Open(req.Socket); err != nil {
		return err
	}

	ctx, cancel := util.SignalContext()
	defer cancel()

	sep := viper.GetString("separator")
	timeout := viper.GetDuration("timeout")
	replies := make(chan result, 1)

	return util.ReadLines(ctx, os.Stdin, func(line string) error {
		err := req.Request(func(err error, body message.Message) {
			replies <- result{err: err, body: body}
		}, util.SplitFrames(line, sep)...)
		if err != nil {
			return err
		}

		select {
		case r := <-replies:
			if r.err != nil {
				util.Printf("error: %v\n", r.err)
				return nil
			}
			util.Printf("%s\n", util.FormatFrames(r.body, sep))
			return nil
		case <-ctx.Done():
			return nil
		case <-time.After(timeout):
			return fmt.Errorf("no reply within %s", timeout)
		}
	})
}
