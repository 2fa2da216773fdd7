package util

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ValentinKolb/dMQ/lib/common"
	"github.com/ValentinKolb/dMQ/lib/message"
	"github.com/ValentinKolb/dMQ/lib/socket/base"
	"github.com/VictoriaMetrics/metrics"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

var Logger = common.GetLogger("cli")

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		if lineWidth > 0 && lineWidth+1+len(word) > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}
		currentLine.WriteString(word)
		lineWidth += len(word)
	}

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}
	return strings.Join(wrappedLines, "\n")
}

// --------------------------------------------------------------------------
// Configuration
// --------------------------------------------------------------------------

// InitConfig loads .env files and makes viper read DMQ_ prefixed environment variables
func InitConfig() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix("dmq")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// SetupSocketFlags adds the socket configuration flags to a command
func SetupSocketFlags(cmd *cobra.Command) {
	defaults := common.DefaultSocketConfig()

	key := "bind"
	cmd.Flags().StringSlice(key, nil, WrapString("Addresses to bind (e.g. 3000, tcp://0.0.0.0:3000, /tmp/dmq.sock, ws://0.0.0.0:3000/dmq). Cannot be combined with --connect"))

	key = "connect"
	cmd.Flags().StringSlice(key, nil, WrapString("Addresses to connect to. Cannot be combined with --bind"))

	key = "hwm"
	cmd.Flags().Int(key, defaults.HWM, WrapString("High water mark of the send queue (-1 for unbounded)"))

	key = "identity"
	cmd.Flags().String(key, "", WrapString("Identity of the socket (defaults to a random uuid per process)"))

	key = "retry-timeout"
	cmd.Flags().Duration(key, defaults.RetryTimeout, WrapString("Initial reconnect delay, 0 disables reconnecting"))

	key = "retry-max-timeout"
	cmd.Flags().Duration(key, defaults.RetryMaxTimeout, WrapString("Upper bound of the reconnect delay"))

	key = "tcp-nodelay"
	cmd.Flags().Bool(key, defaults.Transport.TCPNoDelay, WrapString("Whether to enable TCP_NODELAY"))

	key = "tcp-keepalive"
	cmd.Flags().Duration(key, defaults.Transport.TCPKeepAlive, WrapString("TCP keep-alive period, 0 disables it"))

	key = "tcp-linger"
	cmd.Flags().Int(key, defaults.Transport.TCPLingerSec, WrapString("TCP linger time in seconds (-1 keeps the OS default)"))

	key = "write-buffer"
	cmd.Flags().Int(key, defaults.Transport.WriteBufferSize/1024, WrapString("Size of the socket write buffer in KB (0 keeps the OS default)"))

	key = "read-buffer"
	cmd.Flags().Int(key, defaults.Transport.ReadBufferSize/1024, WrapString("Size of the socket read buffer in KB (0 keeps the OS default)"))

	key = "write-queue"
	cmd.Flags().Int(key, defaults.Transport.WriteQueueSize, WrapString("Messages buffered per connection before it stops being writable"))

	key = "max-frame-size"
	cmd.Flags().Int(key, defaults.Transport.MaxFrameSize, WrapString("Largest frame accepted from a peer in bytes"))
}

// GetSocketConfig builds the socket configuration. The file given by --config
// is the base, flags and environment variables that were set override it.
func GetSocketConfig() (common.SocketConfig, error) {
	config := common.DefaultSocketConfig()
	if path := viper.GetString("config"); path != "" {
		loaded, err := common.LoadSocketConfig(path)
		if err != nil {
			return config, err
		}
		config = loaded
	}

	set := func(key string, apply func()) {
		if viper.IsSet(key) {
			apply()
		}
	}
	set("hwm", func() { config.HWM = viper.GetInt("hwm") })
	set("identity", func() {
		if id := viper.GetString("identity"); id != "" {
			config.Identity = id
		}
	})
	set("retry-timeout", func() { config.RetryTimeout = viper.GetDuration("retry-timeout") })
	set("retry-max-timeout", func() { config.RetryMaxTimeout = viper.GetDuration("retry-max-timeout") })
	set("tcp-nodelay", func() { config.Transport.TCPNoDelay = viper.GetBool("tcp-nodelay") })
	set("tcp-keepalive", func() { config.Transport.TCPKeepAlive = viper.GetDuration("tcp-keepalive") })
	set("tcp-linger", func() { config.Transport.TCPLingerSec = viper.GetInt("tcp-linger") })
	set("write-buffer", func() { config.Transport.WriteBufferSize = viper.GetInt("write-buffer") * 1024 })
	set("read-buffer", func() { config.Transport.ReadBufferSize = viper.GetInt("read-buffer") * 1024 })
	set("write-queue", func() { config.Transport.WriteQueueSize = viper.GetInt("write-queue") })
	set("max-frame-size", func() { config.Transport.MaxFrameSize = viper.GetInt("max-frame-size") })

	return config, config.Validate()
}

// --------------------------------------------------------------------------
// Socket helpers
// --------------------------------------------------------------------------

// Events returns hooks that log the connection lifecycle of a socket
func Events() base.Events {
	return base.Events{
		OnConnect:          func(p *base.Peer) { Logger.Infof("connected to %s", p.RemoteAddr()) },
		OnConnection:       func(p *base.Peer) { Logger.Infof("accepted %s", p) },
		OnDisconnect:       func(p *base.Peer) { Logger.Infof("disconnected %s", p) },
		OnReconnectAttempt: func() { Logger.Debugf("reconnecting") },
		OnDrop:             func(msg message.Message) { Logger.Warningf("queue full, dropped %s", msg) },
		OnError:            func(err error) { Logger.Warningf("socket error: %v", err) },
		OnIgnoredError:     func(err error) { Logger.Debugf("ignored error: %v", err) },
	}
}

// Open binds or connects the socket to the addresses given by --bind and --connect
// and waits until every bind completed. Connects complete in the background.
func Open(s *base.Socket) error {
	binds := viper.GetStringSlice("bind")
	connects := viper.GetStringSlice("connect")

	switch {
	case len(binds) > 0 && len(connects) > 0:
		return errors.New("--bind and --connect cannot be combined")
	case len(binds) == 0 && len(connects) == 0:
		return errors.New("either --bind or --connect is required")
	}

	for _, addr := range binds {
		res := make(chan error, 1)
		if err := s.Bind(addr, func(err error) { res <- err }); err != nil {
			return err
		}
		if err := <-res; err != nil {
			return err
		}
		Logger.Infof("%s socket listening on %s", s.Kind(), s.Address())
	}

	for _, addr := range connects {
		if err := s.Connect(addr, nil); err != nil {
			return err
		}
	}
	return nil
}

// CloseAndWait closes the socket and blocks until it finished closing
func CloseAndWait(s *base.Socket) {
	s.Close(nil)
	<-s.Done()
}

// SignalContext returns a context canceled on SIGINT or SIGTERM
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// ReadLines calls fn for every line read from r until ctx is done or r is exhausted
func ReadLines(ctx context.Context, r io.Reader, fn func(line string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), common.DefaultTransportConfig().MaxFrameSize)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		if err := fn(scanner.Text()); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// SetupIOFlags adds the flags controlling how stdin lines map to frames
func SetupIOFlags(cmd *cobra.Command) {
	key := "separator"
	cmd.Flags().String(key, "\t", WrapString("Separator between the frames of a message on stdin and stdout, empty for single frame messages"))
}

// SetupSenderFlags adds the flags of commands that send stdin lines
func SetupSenderFlags(cmd *cobra.Command) {
	SetupIOFlags(cmd)
	key := "linger"
	cmd.Flags().Duration(key, time.Second, WrapString("How long to keep the socket open after stdin was exhausted, so buffered messages can be delivered"))
}

// FormatFrames joins the frames of a message for printing
func FormatFrames(frames [][]byte, sep string) string {
	if sep == "" {
		sep = " "
	}
	parts := make([]string, len(frames))
	for i, f := range frames {
		parts[i] = string(f)
	}
	return strings.Join(parts, sep)
}

// Linger blocks for the --linger duration or until ctx is done
func Linger(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(viper.GetDuration("linger")):
	}
}

// SplitFrames splits an input line into frames separated by sep. An empty sep yields a single frame.
func SplitFrames(line, sep string) [][]byte {
	if sep == "" {
		return [][]byte{[]byte(line)}
	}
	parts := strings.Split(line, sep)
	frames := make([][]byte, len(parts))
	for i, p := range parts {
		frames[i] = []byte(p)
	}
	return frames
}

// --------------------------------------------------------------------------
// Metrics
// --------------------------------------------------------------------------

// ServeMetrics exposes the socket counters in prometheus format at endpoint
// (e.g. localhost:9100). The server stops when ctx is done.
func ServeMetrics(ctx context.Context, endpoint string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		metrics.WritePrometheus(w, true)
	})
	server := &http.Server{Addr: endpoint, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		_ = server.Close()
	}()
	go func() {
		Logger.Infof("serving metrics on http://%s/metrics", endpoint)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			Logger.Errorf("metrics endpoint failed: %v", err)
		}
	}()
}

// Printf writes to stdout, output of the data commands goes there while logs go to stderr
func Printf(format string, args ...any) {
	fmt.Fprintf(os.Stdout, format, args...)
}
