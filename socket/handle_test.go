package socket

import (
	"errors"
	"strings"
	"testing"

	"github.com/momentics/hioload-zmq/api"
	"github.com/momentics/hioload-zmq/control"
	"github.com/momentics/hioload-zmq/fake"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandle(opts ...Option) (*Handle, *fake.Socket, *fake.Guard) {
	sock := fake.NewSocket(7)
	guard := &fake.Guard{}
	return NewHandle(sock, guard, opts...), sock, guard
}

func TestOpen_RegistersDescriptor(t *testing.T) {
	r := fake.NewReactor()
	sock := fake.NewSocket(11)

	h, err := Open(r, sock, WithName("in"))
	require.NoError(t, err)
	require.NotNil(t, r.Guard(11))
	assert.Equal(t, "in", h.Name())
	assert.Same(t, sock, h.Socket())
}

func TestHandle_PollReadyFromSocketEvents(t *testing.T) {
	h, sock, guard := newTestHandle()
	w := &fake.Waker{}

	p, err := h.poll(api.EventWrite, w)
	require.NoError(t, err)
	assert.Equal(t, api.Ready, p)
	assert.Equal(t, 0, guard.Polls, "guard not consulted when socket says ready")

	sock.SetWritable(false)
	p, err = h.poll(api.EventWrite, w)
	require.NoError(t, err)
	assert.Equal(t, api.Pending, p)
	assert.Equal(t, 1, guard.Parked())
	assert.Equal(t, 0, w.N)
}

func TestHandle_StaleEdgeWakesExactlyOnce(t *testing.T) {
	h, _, guard := newTestHandle()
	w := &fake.Waker{}
	guard.SetReady()

	p, err := h.poll(api.EventRead, w)
	require.NoError(t, err)
	assert.Equal(t, api.Pending, p)
	assert.Equal(t, 1, w.N)
	assert.False(t, guard.Ready(), "edge consumed")

	p, err = h.poll(api.EventRead, w)
	require.NoError(t, err)
	assert.Equal(t, api.Pending, p)
	assert.Equal(t, 1, w.N, "no second wake without a new edge")
	assert.Equal(t, 1, guard.Parked())
}

func TestHandle_EventsErrorIsReady(t *testing.T) {
	h, sock, _ := newTestHandle()
	boom := errors.New("boom")
	sock.FailEvents(boom)

	p, err := h.poll(api.EventRead, &fake.Waker{})
	assert.Equal(t, api.Ready, p)
	assert.ErrorIs(t, err, boom)
}

func TestHandle_ClosesWhenBothHalvesReleased(t *testing.T) {
	h, sock, guard := newTestHandle()
	r, sink, driver := h.Split()

	r.Release()
	r.Release()
	assert.False(t, sock.Closed())

	sink.Close()
	assert.True(t, driver.Poll(&fake.Waker{}))
	assert.True(t, sock.Closed())
	assert.True(t, guard.Closed())
	assert.True(t, h.Closed())
}

func TestHandle_CloseIsIdempotent(t *testing.T) {
	h, sock, _ := newTestHandle()
	boom := errors.New("close failed")
	sock.FailClose(boom)

	assert.ErrorIs(t, h.Close(), boom)
	assert.ErrorIs(t, h.Close(), boom)
}

func TestHandle_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := control.NewMetrics(reg, "t")
	require.NoError(t, err)
	h, sock, _ := newTestHandle(WithName("x"), WithMetrics(m))
	w := &fake.Waker{}

	sock.Enqueue(api.StringMessage("a", "b"))
	p, _, err := h.Reader().PollNext(w)
	require.NoError(t, err)
	require.Equal(t, api.Ready, p)

	p, err = h.Write(api.StringMessage("c", "d", "e")).PollWrite(w)
	require.NoError(t, err)
	require.Equal(t, api.Ready, p)

	expected := `
# HELP t_socket_frames_received_total Frames received.
# TYPE t_socket_frames_received_total counter
t_socket_frames_received_total{socket="x"} 2
# HELP t_socket_frames_sent_total Frames sent.
# TYPE t_socket_frames_sent_total counter
t_socket_frames_sent_total{socket="x"} 3
# HELP t_socket_messages_sent_total Multipart messages fully sent.
# TYPE t_socket_messages_sent_total counter
t_socket_messages_sent_total{socket="x"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"t_socket_frames_received_total", "t_socket_frames_sent_total", "t_socket_messages_sent_total"))
}

func TestHandle_SendWakesParkedReader(t *testing.T) {
	h, sock, guard := newTestHandle()
	rw := &fake.Waker{}
	r := h.Reader()

	p, _, err := r.PollNext(rw)
	require.NoError(t, err)
	require.Equal(t, api.Pending, p)

	// Data shows up without an edge on the descriptor.
	sock.Enqueue(api.StringMessage("in"))
	wr := h.Write(api.StringMessage("out"))
	p, err = wr.PollWrite(&fake.Waker{})
	require.NoError(t, err)
	require.Equal(t, api.Ready, p)
	assert.False(t, guard.Ready())
	assert.Equal(t, 1, rw.N, "reader woken after the send")

	p, msg, err := r.PollNext(rw)
	require.NoError(t, err)
	assert.Equal(t, api.Ready, p)
	assert.Equal(t, api.StringMessage("in"), msg)
}

func TestHandle_RecvWakesParkedWriter(t *testing.T) {
	h, sock, _ := newTestHandle()
	ww := &fake.Waker{}
	sock.SetWritable(false)
	wr := h.Write(api.StringMessage("out"))

	p, err := wr.PollWrite(ww)
	require.NoError(t, err)
	require.Equal(t, api.Pending, p)

	sock.Enqueue(api.StringMessage("in"))
	sock.SetWritable(true)
	p, _, err = h.Read().Poll(&fake.Waker{})
	require.NoError(t, err)
	require.Equal(t, api.Ready, p)
	assert.Equal(t, 1, ww.N, "writer woken after the receive")

	p, err = wr.PollWrite(ww)
	require.NoError(t, err)
	assert.Equal(t, api.Ready, p)
	assert.Len(t, sock.SentFrames(), 1)
}

func TestHandle_NoWakeWhileStillNotReady(t *testing.T) {
	h, _, _ := newTestHandle()
	rw := &fake.Waker{}
	r := h.Reader()

	p, _, err := r.PollNext(rw)
	require.NoError(t, err)
	require.Equal(t, api.Pending, p)

	p, err = h.Write(api.StringMessage("out")).PollWrite(&fake.Waker{})
	require.NoError(t, err)
	require.Equal(t, api.Ready, p)
	assert.Equal(t, 0, rw.N)
}
