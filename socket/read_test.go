package socket

import (
	"errors"
	"testing"

	"github.com/momentics/hioload-zmq/api"
	"github.com/momentics/hioload-zmq/fake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReader_FrameOrder(t *testing.T) {
	h, sock, _ := newTestHandle()
	r := h.Reader()
	w := &fake.Waker{}

	sock.Enqueue(api.StringMessage("envelope", "", "body", "tail"))

	p, msg, err := r.PollNext(w)
	require.NoError(t, err)
	require.Equal(t, api.Ready, p)
	assert.Equal(t, api.StringMessage("envelope", "", "body", "tail"), msg)
}

func TestReader_NoLeakAcrossMessages(t *testing.T) {
	h, sock, _ := newTestHandle()
	r := h.Reader()
	w := &fake.Waker{}

	sock.Enqueue(api.StringMessage("a1", "a2"))
	sock.Enqueue(api.StringMessage("b1"))

	_, first, err := r.PollNext(w)
	require.NoError(t, err)
	_, second, err := r.PollNext(w)
	require.NoError(t, err)

	assert.Equal(t, api.StringMessage("a1", "a2"), first, "earlier message untouched by the next read")
	assert.Equal(t, api.StringMessage("b1"), second)
}

func TestReader_LargeFramesOutgrowArena(t *testing.T) {
	h, sock, _ := newTestHandle()
	r := h.Reader()
	big := make([]byte, arenaSize+1)
	for i := range big {
		big[i] = byte(i)
	}
	sock.Enqueue(api.NewMessage([]byte("head"), big, []byte("foot")))

	_, msg, err := r.PollNext(&fake.Waker{})
	require.NoError(t, err)
	require.Len(t, msg, 3)
	assert.Equal(t, "head", string(msg[0]))
	assert.Equal(t, big, msg[1])
	assert.Equal(t, "foot", string(msg[2]))
}

func TestReader_EmptyParksOnGuard(t *testing.T) {
	h, _, guard := newTestHandle()
	w := &fake.Waker{}

	p, msg, err := h.Reader().PollNext(w)
	require.NoError(t, err)
	assert.Equal(t, api.Pending, p)
	assert.Nil(t, msg)
	assert.Equal(t, 1, guard.Parked())

	guard.Fire()
	assert.Equal(t, 1, w.N)
}

func TestReader_SpuriousWake(t *testing.T) {
	h, sock, guard := newTestHandle()
	w := &fake.Waker{}
	ev := api.EventRead
	sock.SetEvents(&ev) // socket claims readable, nothing arrives

	p, _, err := h.Reader().PollNext(w)
	require.NoError(t, err)
	assert.Equal(t, api.Pending, p)
	assert.Equal(t, 0, w.N)
	assert.Equal(t, 1, guard.Parked())

	sock.SetEvents(nil)
	guard.SetReady()
	p, _, err = h.Reader().PollNext(w)
	require.NoError(t, err)
	assert.Equal(t, api.Pending, p)
	assert.Equal(t, 1, w.N, "exactly one rescheduling wake")
	assert.False(t, guard.Ready())
}

func TestReader_MidMessageFailure(t *testing.T) {
	h, sock, _ := newTestHandle()
	r := h.Reader()

	sock.EnqueueFrame([]byte("a"), true)
	p, msg, err := r.PollNext(&fake.Waker{})
	assert.Equal(t, api.Ready, p)
	assert.Nil(t, msg)
	assert.ErrorIs(t, err, api.ErrIncompleteMessage)
	assert.ErrorIs(t, err, api.ErrWouldBlock)

	boom := errors.New("reset")
	sock.EnqueueFrame([]byte("a"), true)
	sock.EnqueueError(boom)
	sock.Enqueue(api.StringMessage("next"))
	_, _, err = r.PollNext(&fake.Waker{})
	assert.ErrorIs(t, err, api.ErrIncompleteMessage)
	assert.ErrorIs(t, err, boom)

	_, msg, err = r.PollNext(&fake.Waker{})
	require.NoError(t, err)
	assert.Equal(t, api.StringMessage("next"), msg)
}

func TestReader_FirstFrameFailure(t *testing.T) {
	h, sock, _ := newTestHandle()
	boom := errors.New("reset")
	sock.EnqueueError(boom)

	p, _, err := h.Reader().PollNext(&fake.Waker{})
	assert.Equal(t, api.Ready, p)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, api.ErrIncompleteMessage)
}

func TestReader_EndOfStream(t *testing.T) {
	h, sock, _ := newTestHandle()
	sock.EnqueueError(api.ErrEndOfStream)

	p, msg, err := h.Reader().PollNext(&fake.Waker{})
	assert.Equal(t, api.Ready, p)
	assert.Nil(t, msg)
	assert.ErrorIs(t, err, api.ErrEndOfStream)
}

func TestReadOp_SingleShot(t *testing.T) {
	h, sock, _ := newTestHandle()
	op := h.Read()
	w := &fake.Waker{}

	p, _, err := op.Poll(w)
	require.NoError(t, err)
	require.Equal(t, api.Pending, p)

	sock.Enqueue(api.StringMessage("reply"))
	sock.Enqueue(api.StringMessage("other"))
	p, msg, err := op.Poll(w)
	require.NoError(t, err)
	require.Equal(t, api.Ready, p)
	assert.Equal(t, api.StringMessage("reply"), msg)

	_, _, err = op.Poll(w)
	assert.ErrorIs(t, err, api.ErrEndOfStream)
	assert.Equal(t, 1, sock.Pending(), "second message left for the next reader")
}

func TestReadOp_ResetReusesBuffer(t *testing.T) {
	h, sock, _ := newTestHandle()
	op := h.Read()
	w := &fake.Waker{}

	sock.Enqueue(api.StringMessage("a"))
	sock.Enqueue(api.StringMessage("b"))
	_, first, err := op.Poll(w)
	require.NoError(t, err)
	spare := cap(op.arena)

	op.Reset()
	p, second, err := op.Poll(w)
	require.NoError(t, err)
	require.Equal(t, api.Ready, p)
	assert.Equal(t, api.StringMessage("b"), second)
	assert.Equal(t, spare-1, cap(op.arena), "second reply carved from the same arena")
	assert.Equal(t, api.StringMessage("a"), first, "earlier reply untouched")
}
