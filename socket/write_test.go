package socket

import (
	"errors"
	"testing"

	"github.com/momentics/hioload-zmq/api"
	"github.com/momentics/hioload-zmq/fake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_MoreFlags(t *testing.T) {
	h, sock, _ := newTestHandle()
	wr := h.Write(api.StringMessage("a", "b", "c"))

	p, err := wr.PollWrite(&fake.Waker{})
	require.NoError(t, err)
	assert.Equal(t, api.Ready, p)
	assert.Equal(t, 0, wr.Remaining())
	assert.Equal(t, []fake.SentFrame{
		{Data: []byte("a"), More: true},
		{Data: []byte("b"), More: true},
		{Data: []byte("c"), More: false},
	}, sock.SentFrames())
}

func TestWriter_NotWritableIsPending(t *testing.T) {
	h, sock, guard := newTestHandle()
	w := &fake.Waker{}
	sock.SetWritable(false)
	wr := h.Write(api.StringMessage("a", "b"))

	p, err := wr.PollWrite(w)
	require.NoError(t, err)
	assert.Equal(t, api.Pending, p)
	assert.Equal(t, 2, wr.Remaining())
	assert.Equal(t, 0, sock.SendCalls())

	sock.SetWritable(true)
	guard.Fire()
	assert.Equal(t, 1, w.N)

	p, err = wr.PollWrite(w)
	require.NoError(t, err)
	assert.Equal(t, api.Ready, p)
	assert.Len(t, sock.SentMessages(), 1)
}

func TestWriter_FirstFrameWouldBlockRetriesWholeMessage(t *testing.T) {
	h, sock, guard := newTestHandle()
	w := &fake.Waker{}
	ev := api.EventWrite
	sock.SetEvents(&ev)
	sock.SetWritable(false)
	wr := h.Write(api.StringMessage("a", "b", "c"))

	p, err := wr.PollWrite(w)
	require.NoError(t, err)
	assert.Equal(t, api.Pending, p)
	assert.Equal(t, 3, wr.Remaining())
	assert.Equal(t, 1, guard.Parked())

	sock.SetWritable(true)
	p, err = wr.PollWrite(w)
	require.NoError(t, err)
	assert.Equal(t, api.Ready, p)
	assert.Equal(t, []api.Message{api.StringMessage("a", "b", "c")}, sock.SentMessages())
}

// A would-block after the first frame left is not resumable; the message
// fails as a whole.
func TestWriter_PartialSendIsFatal(t *testing.T) {
	h, sock, _ := newTestHandle()
	sock.BlockSendsAfter(1)
	wr := h.Write(api.StringMessage("a", "b", "c"))

	p, err := wr.PollWrite(&fake.Waker{})
	assert.Equal(t, api.Ready, p)
	assert.ErrorIs(t, err, api.ErrPartialSend)
	assert.Equal(t, 0, wr.Remaining(), "message discarded")
	assert.Equal(t, []fake.SentFrame{{Data: []byte("a"), More: true}}, sock.SentFrames())
}

func TestWriter_HardErrorDiscardsMessage(t *testing.T) {
	h, sock, _ := newTestHandle()
	boom := errors.New("host unreachable")
	sock.FailSends(boom)
	wr := h.Write(api.StringMessage("a", "b"))

	p, err := wr.PollWrite(&fake.Waker{})
	assert.Equal(t, api.Ready, p)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, wr.Remaining())

	sock.FailSends(nil)
	p, err = wr.PollWrite(&fake.Waker{})
	assert.Equal(t, api.Ready, p)
	assert.NoError(t, err)
	assert.Empty(t, sock.SentFrames())
}

func TestWriter_EmptyMessage(t *testing.T) {
	h, sock, _ := newTestHandle()
	wr := h.Write(nil)

	p, err := wr.PollWrite(&fake.Waker{})
	require.NoError(t, err)
	assert.Equal(t, api.Ready, p)
	assert.Equal(t, 0, sock.SendCalls())
}
