package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrom(t *testing.T) {
	assert.Equal(t, Scored, From("scored"))
	assert.Equal(t, STTFailed, From("stt_failed"))
	assert.Equal(t, Pending, From("pending"))
	assert.Equal(t, Pending, From(""))
	assert.Equal(t, Pending, From("olia"))
}

func TestFinal(t *testing.T) {
	assert.True(t, Scored.Final())
	assert.True(t, STTFailed.Final())
	assert.False(t, Pending.Final())
}

func TestString(t *testing.T) {
	assert.Equal(t, "stt_failed", STTFailed.String())
}
