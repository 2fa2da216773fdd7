package socket

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ValentinKolb/dMQ/lib/common"
	"github.com/ValentinKolb/dMQ/lib/message"
	"github.com/ValentinKolb/dMQ/lib/socket/base"
	"github.com/puzpuzpuz/xsync/v3"
)

var subLogger = common.GetLogger("sock/sub")

// GlobToRegexp compiles a topic pattern where "*" matches one or more characters
// and everything else matches literally. "user:*" matches "user:1" but not "user:".
func GlobToRegexp(pattern string) *regexp.Regexp {
	quoted := regexp.QuoteMeta(pattern)
	return regexp.MustCompile("^" + strings.ReplaceAll(quoted, `\*`, "(.+)") + "$")
}

// Sub receives the messages of pub sockets, filtered by topic
type Sub struct {
	*base.Socket
	subscriptions *xsync.MapOf[string, *regexp.Regexp]
}

// NewSub creates a sub socket, matching messages are delivered via events.OnMessage
func NewSub(config common.SocketConfig, events base.Events) (*Sub, error) {
	s := &Sub{subscriptions: xsync.NewMapOf[string, *regexp.Regexp]()}
	sock, err := base.NewSocket("sub", config, events, s)
	if err != nil {
		return nil, err
	}
	s.Socket = sock
	return s, nil
}

// Subscribe adds a glob pattern (see GlobToRegexp) and returns its compiled form
func (s *Sub) Subscribe(pattern string) *regexp.Regexp {
	return s.SubscribeRegexp(GlobToRegexp(pattern))
}

// SubscribeRegexp adds a regular expression subscription
func (s *Sub) SubscribeRegexp(re *regexp.Regexp) *regexp.Regexp {
	subLogger.Debugf("subscribe to %q", re)
	actual, _ := s.subscriptions.LoadOrStore(re.String(), re)
	return actual
}

// Unsubscribe removes the subscription created for the same glob pattern
func (s *Sub) Unsubscribe(pattern string) {
	s.UnsubscribeRegexp(GlobToRegexp(pattern))
}

// UnsubscribeRegexp removes the subscription with the same expression source
func (s *Sub) UnsubscribeRegexp(re *regexp.Regexp) {
	subLogger.Debugf("unsubscribe from %q", re)
	s.subscriptions.Delete(re.String())
}

// ClearSubscriptions removes all subscriptions, the socket delivers every message again
func (s *Sub) ClearSubscriptions() {
	s.subscriptions.Clear()
}

// HasSubscriptions reports whether any subscription exists
func (s *Sub) HasSubscriptions() bool {
	return s.subscriptions.Size() > 0
}

// Matches reports whether topic matches any subscription
func (s *Sub) Matches(topic string) bool {
	matched := false
	s.subscriptions.Range(func(_ string, re *regexp.Regexp) bool {
		matched = re.MatchString(topic)
		return !matched
	})
	return matched
}

// Send always fails, sub sockets only receive
func (s *Sub) Send(...[]byte) error {
	return fmt.Errorf("%w: subscribers cannot send messages", common.ErrCapability)
}

// --------------------------------------------------------------------------
// Interface Methods (docu see base.Protocol)
// --------------------------------------------------------------------------

func (s *Sub) HandleMessage(p *base.Peer, msg message.Message) {
	if s.HasSubscriptions() {
		topic := msg.Topic()
		if !s.Matches(topic) {
			subLogger.Debugf("not subscribed to %q", topic)
			return
		}
	}
	s.EmitMessage(p, msg)
}

func (s *Sub) PeerAvailable(*base.Peer) {}
