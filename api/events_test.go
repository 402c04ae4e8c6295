package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvents(t *testing.T) {
	both := EventRead | EventWrite
	assert.True(t, both.Has(EventRead))
	assert.True(t, both.Has(EventWrite))
	assert.False(t, EventRead.Has(EventWrite))
	assert.True(t, Events(0).Has(0))

	assert.Equal(t, "none", Events(0).String())
	assert.Equal(t, "read", EventRead.String())
	assert.Equal(t, "write", EventWrite.String())
	assert.Equal(t, "read|write", both.String())
	assert.Equal(t, "unknown", Events(8).String())
}

func TestPollAndVerdict(t *testing.T) {
	assert.Equal(t, "pending", Pending.String())
	assert.Equal(t, "ready", Ready.String())
	assert.Equal(t, "continue", Continue.String())
	assert.Equal(t, "stop", Stop.String())
}
