package control

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_PerSocketCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg, "test")
	require.NoError(t, err)

	a := m.Socket("a")
	a.Received(3)
	a.FrameSent()
	a.FrameSent()
	a.Sent()
	a.WriteError()
	a.QueueDepth(4)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.messagesReceived.WithLabelValues("a")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.framesReceived.WithLabelValues("a")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.framesSent.WithLabelValues("a")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.messagesSent.WithLabelValues("a")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.writeErrors.WithLabelValues("a")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.queueDepth.WithLabelValues("a")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.messagesReceived.WithLabelValues("b")))

	_, err = NewMetrics(reg, "test")
	assert.Error(t, err, "duplicate registration")
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	s := m.Socket("x")
	assert.Nil(t, s)
	assert.NotPanics(t, func() {
		s.Received(1)
		s.Sent()
		s.FrameSent()
		s.ReadError()
		s.WriteError()
		s.QueueDepth(1)
	})
}
