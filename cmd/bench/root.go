package bench

import (
	"encoding/csv"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/dMQ/cmd/util"
	"github.com/ValentinKolb/dMQ/lib/common"
	"github.com/ValentinKolb/dMQ/lib/message"
	"github.com/ValentinKolb/dMQ/lib/socket"
	"github.com/ValentinKolb/dMQ/lib/socket/base"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// BenchCmd measures a socket pair running in this process
	BenchCmd = &cobra.Command{
		Use:   "bench",
		Short: "Measure throughput and latency of a local socket pair",
		Long: `Run push/pull, pub/sub and req/rep benchmarks over a socket pair bound and
connected inside this process. --address selects the transport (e.g. tcp://127.0.0.1:0,
/tmp/dmq-bench.sock, ws://127.0.0.1:0/bench).`,
		Args:    cobra.NoArgs,
		PreRunE: processBenchConfig,
		RunE:    run,
	}
	benchAddress  = "tcp://127.0.0.1:0"
	benchMessages = 100000
	benchRequests = 10000
	benchSize     = 64
	benchSkip     = make([]string, 0)
)

// result of one benchmark
type result struct {
	Name     string
	Messages int64
	Duration time.Duration
	Meter    gometrics.Meter
	Timer    gometrics.Timer
}

func init() {
	key := "address"
	BenchCmd.Flags().String(key, benchAddress, util.WrapString("Address the receiving socket binds to"))
	key = "messages"
	BenchCmd.Flags().Int(key, benchMessages, util.WrapString("Number of messages for the throughput benchmarks"))
	key = "requests"
	BenchCmd.Flags().Int(key, benchRequests, util.WrapString("Number of sequential requests for the latency benchmark"))
	key = "size"
	BenchCmd.Flags().Int(key, benchSize, util.WrapString("Payload size in bytes"))
	key = "skip"
	BenchCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. pubsub,reqrep)"))
	key = "csv"
	BenchCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processBenchConfig(_ *cobra.Command, _ []string) error {
	benchAddress = viper.GetString("address")
	benchMessages = viper.GetInt("messages")
	benchRequests = viper.GetInt("requests")
	benchSize = viper.GetInt("size")
	benchSkip = strings.Split(viper.GetString("skip"), ",")

	if benchMessages <= 0 || benchRequests <= 0 || benchSize < 0 {
		return fmt.Errorf("messages and requests must be positive, size must not be negative")
	}
	return nil
}

func run(_ *cobra.Command, _ []string) error {
	fmt.Println("Performance testing tool for dMQ sockets")

	config := common.DefaultSocketConfig()
	config.RetryTimeout = 10 * time.Millisecond
	config.RetryMaxTimeout = 100 * time.Millisecond

	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(config.String())
	fmt.Printf("Address: %s, Messages: %d, Requests: %d, Size: %dB\n", benchAddress, benchMessages, benchRequests, benchSize)
	fmt.Println()

	fmt.Println("starting tests...")

	payload := make([]byte, benchSize)
	var results []result

	benchmarks := []struct {
		name string
		fn   func(common.SocketConfig, []byte) (result, error)
	}{
		{"pushpull", benchPushPull},
		{"pubsub", benchPubSub},
		{"reqrep", benchReqRep},
	}

	for _, b := range benchmarks {
		if slices.Contains(benchSkip, b.name) {
			fmt.Printf("%-12sskipped\n", b.name)
			continue
		}
		r, err := b.fn(config, payload)
		if err != nil {
			return fmt.Errorf("%s: %w", b.name, err)
		}
		results = append(results, r)
		printResult(r)
	}

	if csvPath := viper.GetString("csv"); csvPath != "" {
		if err := writeResultsToCSV(csvPath, results); err != nil {
			return err
		}
		fmt.Printf("results written to %s\n", csvPath)
	}
	return nil
}

// --------------------------------------------------------------------------
// Benchmarks
// --------------------------------------------------------------------------

// pair binds receiver and connects sender to it
func pair(receiver, sender *base.Socket) error {
	bound := make(chan error, 1)
	if err := receiver.Bind(benchAddress, func(err error) { bound <- err }); err != nil {
		return err
	}
	if err := <-bound; err != nil {
		return err
	}

	connected := make(chan struct{}, 1)
	if err := sender.Connect(receiver.Address(), func() { connected <- struct{}{} }); err != nil {
		return err
	}
	select {
	case <-connected:
		return nil
	case <-time.After(5 * time.Second):
		return fmt.Errorf("could not connect to %s", receiver.Address())
	}
}

// throughput counts the messages arriving at a receiving socket and signals once all arrived
func throughput(total int) (base.Events, gometrics.Meter, <-chan struct{}) {
	meter := gometrics.NewMeter()
	done := make(chan struct{})
	var received atomic.Int64
	events := base.Events{
		OnMessage: func(_ *base.Peer, _ message.Message) {
			meter.Mark(1)
			if received.Add(1) == int64(total) {
				close(done)
			}
		},
	}
	return events, meter, done
}

func waitDone(done <-chan struct{}, start time.Time) (time.Duration, error) {
	select {
	case <-done:
		return time.Since(start), nil
	case <-time.After(time.Minute):
		return 0, fmt.Errorf("timed out waiting for messages")
	}
}

func benchPushPull(config common.SocketConfig, payload []byte) (result, error) {
	events, meter, done := throughput(benchMessages)
	defer meter.Stop()

	pull, err := socket.NewPull(config, events)
	if err != nil {
		return result{}, err
	}
	defer util.CloseAndWait(pull.Socket)
	push, err := socket.NewPush(config, base.Events{})
	if err != nil {
		return result{}, err
	}
	defer util.CloseAndWait(push.Socket)

	if err := pair(pull.Socket, push.Socket); err != nil {
		return result{}, err
	}

	start := time.Now()
	for i := 0; i < benchMessages; i++ {
		if err := push.Send(payload); err != nil {
			return result{}, err
		}
	}
	d, err := waitDone(done, start)
	return result{Name: "pushpull", Messages: int64(benchMessages), Duration: d, Meter: meter.Snapshot()}, err
}

func benchPubSub(config common.SocketConfig, payload []byte) (result, error) {
	events, meter, done := throughput(benchMessages)
	defer meter.Stop()

	subscribed := make(chan struct{}, 1)
	pub, err := socket.NewPub(config, base.Events{
		OnConnection: func(*base.Peer) { subscribed <- struct{}{} },
	})
	if err != nil {
		return result{}, err
	}
	defer util.CloseAndWait(pub.Socket)
	sub, err := socket.NewSub(config, events)
	if err != nil {
		return result{}, err
	}
	defer util.CloseAndWait(sub.Socket)
	sub.Subscribe("bench.*")

	// pub binds, the subscriber connects
	if err := pair(pub.Socket, sub.Socket); err != nil {
		return result{}, err
	}
	select {
	case <-subscribed:
	case <-time.After(5 * time.Second):
		return result{}, fmt.Errorf("subscriber was not accepted")
	}

	topic := []byte("bench.topic")
	start := time.Now()
	for i := 0; i < benchMessages; i++ {
		if i%512 != 511 {
			if err := pub.Send(topic, payload); err != nil {
				return result{}, err
			}
			continue
		}
		// bound the backlog of the subscriber connection by waiting for the writes to drain
		written := make(chan struct{})
		if err := pub.SendWithCallback(func() { close(written) }, topic, payload); err != nil {
			return result{}, err
		}
		<-written
	}
	d, err := waitDone(done, start)
	return result{Name: "pubsub", Messages: int64(benchMessages), Duration: d, Meter: meter.Snapshot()}, err
}

func benchReqRep(config common.SocketConfig, payload []byte) (result, error) {
	timer := gometrics.NewTimer()
	defer timer.Stop()

	rep, err := socket.NewRep(config, base.Events{}, func(req message.Message, reply *socket.Reply) {
		_ = reply.Send(nil, req...)
	})
	if err != nil {
		return result{}, err
	}
	defer util.CloseAndWait(rep.Socket)
	req, err := socket.NewReq(config, base.Events{})
	if err != nil {
		return result{}, err
	}
	defer util.CloseAndWait(req.Socket)

	if err := pair(rep.Socket, req.Socket); err != nil {
		return result{}, err
	}

	replies := make(chan error, 1)
	start := time.Now()
	for i := 0; i < benchRequests; i++ {
		sent := time.Now()
		if err := req.Request(func(err error, _ message.Message) { replies <- err }, payload); err != nil {
			return result{}, err
		}
		select {
		case err := <-replies:
			if err != nil {
				return result{}, err
			}
		case <-time.After(5 * time.Second):
			return result{}, fmt.Errorf("request %d timed out", i)
		}
		timer.UpdateSince(sent)
	}
	return result{Name: "reqrep", Messages: int64(benchRequests), Duration: time.Since(start), Timer: timer.Snapshot()}, nil
}

// --------------------------------------------------------------------------
// Output
// --------------------------------------------------------------------------

var percentiles = []float64{0.5, 0.99, 0.999}

func printResult(r result) {
	perSec := float64(r.Messages) / max(r.Duration.Seconds(), 1e-9)
	fmt.Printf("%-12s%d msgs in %s\t%.0f msgs/sec\n", r.Name, r.Messages, r.Duration.Round(time.Millisecond), perSec)
	if r.Timer != nil {
		ps := r.Timer.Percentiles(percentiles)
		fmt.Printf("%-12smin %s  p50 %s  p99 %s  p99.9 %s  max %s\n", "",
			time.Duration(r.Timer.Min()), time.Duration(ps[0]), time.Duration(ps[1]), time.Duration(ps[2]), time.Duration(r.Timer.Max()))
	}
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results []result) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"Test", "Messages", "DurationMs", "MsgsPerSec", "MeanRate", "P50Ns", "P99Ns", "Address", "SizeBytes"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	for _, r := range results {
		var meanRate, p50, p99 float64
		if r.Meter != nil {
			meanRate = r.Meter.RateMean()
		}
		if r.Timer != nil {
			ps := r.Timer.Percentiles(percentiles)
			p50, p99 = ps[0], ps[1]
		}
		row := []string{
			r.Name,
			strconv.FormatInt(r.Messages, 10),
			strconv.FormatInt(r.Duration.Milliseconds(), 10),
			fmt.Sprintf("%.0f", float64(r.Messages)/max(r.Duration.Seconds(), 1e-9)),
			fmt.Sprintf("%.0f", meanRate),
			fmt.Sprintf("%.0f", p50),
			fmt.Sprintf("%.0f", p99),
			benchAddress,
			strconv.Itoa(benchSize),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", r.Name, err)
		}
	}
	return nil
}
