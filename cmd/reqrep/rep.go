package reqrep

import (
	"errors"

	"github.com/ValentinKolb/dMQ/cmd/util"
	"github.com/ValentinKolb/dMQ/lib/message"
	"github.com/ValentinKolb/dMQ/lib/socket"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// RepCmd answers requests by echoing them
	RepCmd = &cobra.Command{
		Use:   "rep",
		Short: "Answer requests by echoing them",
		Long: `Print every request and answer it with its own frames.
With --reply every request is answered with the given text instead, with --fail
every request is answered with the given error.`,
		Args: cobra.NoArgs,
		RunE: runRep,
	}
)

func init() {
	util.SetupSocketFlags(RepCmd)
	util.SetupIOFlags(RepCmd)

	key := "reply"
	RepCmd.Flags().String(key, "", util.WrapString("Fixed reply sent for every request"))
	key = "fail"
	RepCmd.Flags().String(key, "", util.WrapString("Error message sent for every request"))
}

func runRep(_ *cobra.Command, _ []string) error {
	config, err := util.GetSocketConfig()
	if err != nil {
		return err
	}

	sep := viper.GetString("separator")
	fixed := viper.GetString("reply")
	fail := viper.GetString("fail")

	handler := func(req message.Message, reply *socket.Reply) {
		util.Printf("%s\n", util.FormatFrames(req, sep))

		var err error
		switch {
		case fail != "":
			err = reply.Send(errors.New(fail))
		case fixed != "":
			err = reply.Send(nil, util.SplitFrames(fixed, sep)...)
		default:
			err = reply.Send(nil, req...)
		}
		if err != nil {
			util.Logger.Warningf("failed to reply: %v", err)
		}
	}

	rep, err := socket.NewRep(config, util.Events(), handler)
	if err != nil {
		return err
	}
	defer util.CloseAndWait(rep.Socket)

	if err := util.Open(rep.Socket); err != nil {
		return err
	}

	ctx, cancel := util.SignalContext()
	defer cancel()
	<-ctx.Done()
	return nil
}
