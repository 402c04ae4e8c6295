package fake

import (
	"testing"

	"github.com/momentics/hioload-zmq/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSocket_SendKeepsEmptyFrame(t *testing.T) {
	s := NewSocket(3)
	require.NoError(t, s.Send([]byte("id"), true))
	require.NoError(t, s.Send(nil, true))
	require.NoError(t, s.Send([]byte("body"), false))

	frames := s.SentFrames()
	require.Len(t, frames, 3)
	assert.NotNil(t, frames[1].Data)
	assert.Empty(t, frames[1].Data)
	assert.Equal(t, []api.Message{api.StringMessage("id", "", "body")}, s.SentMessages())
}
