package socket

import (
	"errors"
	"testing"

	"github.com/momentics/hioload-zmq/api"
	"github.com/momentics/hioload-zmq/fake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type streamRecorder[T any] struct {
	verdict  api.Verdict
	started  int
	finished int
	stopped  int
	items    []T
	errs     []error
	onItem   func(T)
}

func (r *streamRecorder[T]) Started() { r.started++ }

func (r *streamRecorder[T]) Handle(item T) {
	r.items = append(r.items, item)
	if r.onItem != nil {
		r.onItem(item)
	}
}

func (r *streamRecorder[T]) Error(err error) api.Verdict {
	r.errs = append(r.errs, err)
	return r.verdict
}

func (r *streamRecorder[T]) Finished() { r.finished++ }
func (r *streamRecorder[T]) Stopped()  { r.stopped++ }

func TestState_String(t *testing.T) {
	assert.Equal(t, "not-started", NotStarted.String())
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "stopped", Stopped.String())
	assert.Equal(t, "unknown", State(9).String())
}

func TestStreamDriver_Lifecycle(t *testing.T) {
	h, sock, guard := newTestHandle()
	rec := &streamRecorder[api.Message]{}
	d := NewStreamDriver[api.Message](h.Reader(), rec)
	w := &fake.Waker{}
	assert.Equal(t, NotStarted, d.State())

	sock.Enqueue(api.StringMessage("1"))
	sock.Enqueue(api.StringMessage("2"))

	assert.False(t, d.Poll(w))
	assert.Equal(t, Running, d.State())
	assert.Equal(t, 1, rec.started)
	assert.Equal(t, 1, w.N, "re-woken after a delivery")

	assert.False(t, d.Poll(w))
	assert.Equal(t, 2, w.N)

	assert.False(t, d.Poll(w))
	assert.Equal(t, 2, w.N, "no wake after pending")
	assert.Equal(t, 1, guard.Parked())

	sock.EnqueueError(api.ErrEndOfStream)
	guard.Fire()
	assert.True(t, d.Poll(w))
	assert.Equal(t, Stopped, d.State())
	assert.Equal(t, 1, rec.started)
	assert.Equal(t, 1, rec.finished)
	assert.Equal(t, 0, rec.stopped)
	assert.Equal(t, []api.Message{api.StringMessage("1"), api.StringMessage("2")}, rec.items)
	assert.True(t, sock.Closed(), "reader released on finish")

	assert.True(t, d.Poll(w))
	assert.Equal(t, 1, rec.finished)
}

func TestStreamDriver_AtMostOneItemPerWake(t *testing.T) {
	h, sock, _ := newTestHandle()
	rec := &streamRecorder[api.Message]{}
	d := NewStreamDriver[api.Message](h.Reader(), rec)

	for i := 0; i < 5; i++ {
		sock.Enqueue(api.StringMessage("m"))
	}
	d.Poll(&fake.Waker{})
	assert.Len(t, rec.items, 1)
	assert.Equal(t, 4, sock.Pending())
}

func TestStreamDriver_ErrorContinue(t *testing.T) {
	h, sock, _ := newTestHandle()
	rec := &streamRecorder[api.Message]{verdict: api.Continue}
	d := NewStreamDriver[api.Message](h.Reader(), rec)
	w := &fake.Waker{}
	boom := errors.New("boom")

	sock.EnqueueError(boom)
	sock.Enqueue(api.StringMessage("after"))

	assert.False(t, d.Poll(w))
	require.Len(t, rec.errs, 1)
	assert.ErrorIs(t, rec.errs[0], boom)
	assert.Equal(t, 1, w.N)

	assert.False(t, d.Poll(w))
	assert.Equal(t, []api.Message{api.StringMessage("after")}, rec.items)
	assert.Equal(t, Running, d.State())
}

func TestStreamDriver_ErrorStop(t *testing.T) {
	h, sock, _ := newTestHandle()
	rec := &streamRecorder[api.Message]{verdict: api.Stop}
	d := NewStreamDriver[api.Message](h.Reader(), rec)

	sock.EnqueueError(errors.New("boom"))
	sock.Enqueue(api.StringMessage("never"))

	assert.True(t, d.Poll(&fake.Waker{}))
	assert.Equal(t, Stopped, d.State())
	assert.Equal(t, 1, rec.stopped)
	assert.Equal(t, 0, rec.finished)
	assert.Empty(t, rec.items)
}

func TestStreamDriver_CancelFromHandler(t *testing.T) {
	h, sock, _ := newTestHandle()
	rec := &streamRecorder[api.Message]{}
	d := NewStreamDriver[api.Message](h.Reader(), rec)
	rec.onItem = func(api.Message) { d.Cancel() }
	w := &fake.Waker{}

	sock.Enqueue(api.StringMessage("1"))
	sock.Enqueue(api.StringMessage("2"))

	assert.True(t, d.Poll(w))
	assert.Equal(t, 0, w.N)
	assert.Len(t, rec.items, 1)
	assert.Equal(t, 0, rec.stopped, "cancel does not notify")
}
