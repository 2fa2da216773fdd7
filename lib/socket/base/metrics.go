package base

import (
	"fmt"

	"github.com/VictoriaMetrics/metrics"
)

// socketMetrics are process wide counters per socket type, exported via metrics.WritePrometheus
type socketMetrics struct {
	sent        *metrics.Counter
	received    *metrics.Counter
	dropped     *metrics.Counter
	flushed     *metrics.Counter
	connects    *metrics.Counter
	disconnects *metrics.Counter
	reconnects  *metrics.Counter
	errors      *metrics.Counter
}

func newSocketMetrics(kind string) *socketMetrics {
	counter := func(name string) *metrics.Counter {
		return metrics.GetOrCreateCounter(fmt.Sprintf(`dmq_%s_total{socket=%q}`, name, kind))
	}

	return &socketMetrics{
		sent:        counter("messages_sent"),
		received:    counter("messages_received"),
		dropped:     counter("messages_dropped"),
		flushed:     counter("messages_flushed"),
		connects:    counter("connections_opened"),
		disconnects: counter("connections_closed"),
		reconnects:  counter("reconnect_attempts"),
		errors:      counter("socket_errors"),
	}
}
