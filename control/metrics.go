// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Prometheus collectors for socket traffic, partitioned by socket name.

package control

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors shared by every socket of a process.
type Metrics struct {
	messagesReceived *prometheus.CounterVec
	messagesSent     *prometheus.CounterVec
	framesReceived   *prometheus.CounterVec
	framesSent       *prometheus.CounterVec
	readErrors       *prometheus.CounterVec
	writeErrors      *prometheus.CounterVec
	queueDepth       *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer, namespace string) (*Metrics, error) {
	counter := func(name, help string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "socket",
			Name:      name,
			Help:      help,
		}, []string{"socket"})
	}
	m := &Metrics{
		messagesReceived: counter("messages_received_total", "Multipart messages fully received."),
		messagesSent:     counter("messages_sent_total", "Multipart messages fully sent."),
		framesReceived:   counter("frames_received_total", "Frames received."),
		framesSent:       counter("frames_sent_total", "Frames sent."),
		readErrors:       counter("read_errors_total", "Receive failures reported to handlers."),
		writeErrors:      counter("write_errors_total", "Send failures reported to handlers."),
		queueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "socket",
			Name:      "outbound_queue_depth",
			Help:      "Messages waiting in the outbound buffer.",
		}, []string{"socket"}),
	}
	for _, c := range []prometheus.Collector{
		m.messagesReceived, m.messagesSent, m.framesReceived, m.framesSent,
		m.readErrors, m.writeErrors, m.queueDepth,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Socket returns the collectors bound to one socket name.
// A nil receiver yields a nil *SocketMetrics, whose methods are no-ops.
func (m *Metrics) Socket(name string) *SocketMetrics {
	if m == nil {
		return nil
	}
	return &SocketMetrics{
		messagesReceived: m.messagesReceived.WithLabelValues(name),
		messagesSent:     m.messagesSent.WithLabelValues(name),
		framesReceived:   m.framesReceived.WithLabelValues(name),
		framesSent:       m.framesSent.WithLabelValues(name),
		readErrors:       m.readErrors.WithLabelValues(name),
		writeErrors:      m.writeErrors.WithLabelValues(name),
		queueDepth:       m.queueDepth.WithLabelValues(name),
	}
}

// SocketMetrics is the per-socket view of Metrics.
type SocketMetrics struct {
	messagesReceived prometheus.Counter
	messagesSent     prometheus.Counter
	framesReceived   prometheus.Counter
	framesSent       prometheus.Counter
	readErrors       prometheus.Counter
	writeErrors      prometheus.Counter
	queueDepth       prometheus.Gauge
}

// Received records one complete inbound message of the given frame count.
func (s *SocketMetrics) Received(frames int) {
	if s == nil {
		return
	}
	s.messagesReceived.Inc()
	s.framesReceived.Add(float64(frames))
}

// FrameSent records one frame handed to the transport.
func (s *SocketMetrics) FrameSent() {
	if s == nil {
		return
	}
	s.framesSent.Inc()
}

// Sent records one complete outbound message.
func (s *SocketMetrics) Sent() {
	if s == nil {
		return
	}
	s.messagesSent.Inc()
}

// ReadError records a receive failure.
func (s *SocketMetrics) ReadError() {
	if s == nil {
		return
	}
	s.readErrors.Inc()
}

// WriteError records a send failure.
func (s *SocketMetrics) WriteError() {
	if s == nil {
		return
	}
	s.writeErrors.Inc()
}

// QueueDepth publishes the outbound buffer length.
func (s *SocketMetrics) QueueDepth(n int) {
	if s == nil {
		return
	}
	s.queueDepth.Set(float64(n))
}
