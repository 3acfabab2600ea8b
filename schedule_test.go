package tapedelay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDualSchedule_Ratios(t *testing.T) {
	s := newDualSchedule(1.0)
	assert.Equal(t, 1.0, s.writeRatio())
	assert.Equal(t, 1.0, s.readRatio())

	// Speed 2: the record head writes twice as much tape per host sample,
	// and the playback head consumes two tape samples per output sample.
	require.NoError(t, s.apply(2.0))
	assert.Equal(t, 2.0, s.writeRatio())
	assert.Equal(t, 0.5, s.readRatio())
	assert.Zero(t, s.depth())

	s.reset(0.5)
	assert.Equal(t, 0.5, s.writeRatio())
	assert.Equal(t, 2.0, s.readRatio())
}

func TestDeferredSchedule_IdentityWriteSide(t *testing.T) {
	s := newDeferredSchedule(8, 1.0)
	require.NoError(t, s.apply(3.0))
	assert.Equal(t, 1.0, s.writeRatio(), "deferred write side is always an identity copy")
}

// TestDeferredSchedule_Retirement walks a change down the tape: the ratio
// reflects the new speed immediately (material already on tape is repitched)
// and returns to unity once the read head reaches material recorded at the
// new speed.
func TestDeferredSchedule_Retirement(t *testing.T) {
	s := newDeferredSchedule(8, 1.0)
	s.noteWrite(100) // delay-line prefill

	assert.Equal(t, 1.0, s.readRatio())

	// Doubling the speed on material recorded at unity halves the
	// output-per-tape ratio: two tape samples per output sample.
	require.NoError(t, s.apply(2.0))
	assert.Equal(t, 0.5, s.readRatio())
	assert.Equal(t, 1, s.depth())

	s.noteRead(50)
	assert.Equal(t, 0.5, s.readRatio(), "change at position 100 must not retire at 50")

	s.noteRead(50)
	assert.Equal(t, 1.0, s.readRatio())
	assert.Zero(t, s.depth())
}

func TestDeferredSchedule_MultipleChanges(t *testing.T) {
	s := newDeferredSchedule(8, 1.0)

	require.NoError(t, s.apply(2.0)) // at position 0
	s.noteWrite(10)
	require.NoError(t, s.apply(4.0)) // at position 10
	s.noteWrite(10)
	require.NoError(t, s.apply(0.5)) // at position 20
	assert.Equal(t, 3, s.depth())

	// Reading past several changes retires them in order; the recorded
	// speed is the most recent change passed.
	s.noteRead(15)
	assert.Equal(t, 1, s.depth())
	assert.Equal(t, 4.0/0.5, s.readRatio())

	s.noteRead(5)
	assert.Zero(t, s.depth())
	assert.Equal(t, 1.0, s.readRatio())
}

func TestDeferredSchedule_RepeatedSpeedNotQueued(t *testing.T) {
	s := newDeferredSchedule(2, 1.0)
	require.NoError(t, s.apply(2.0))
	require.NoError(t, s.apply(2.0))
	require.NoError(t, s.apply(2.0))
	assert.Equal(t, 1, s.depth())
}

func TestDeferredSchedule_Full(t *testing.T) {
	s := newDeferredSchedule(2, 1.0)
	require.NoError(t, s.apply(2.0))
	require.NoError(t, s.apply(3.0))
	assert.ErrorIs(t, s.apply(4.0), ErrScheduleFull)

	// Retiring frees a slot.
	s.noteWrite(10)
	s.noteRead(10)
	assert.NoError(t, s.apply(4.0))
}

func TestDeferredSchedule_Reset(t *testing.T) {
	s := newDeferredSchedule(4, 1.0)
	s.noteWrite(100)
	require.NoError(t, s.apply(2.0))
	s.noteRead(30)

	s.reset(0.5)
	assert.Zero(t, s.depth())
	assert.Equal(t, 1.0, s.readRatio())
	assert.Equal(t, 1.0, s.writeRatio())
}
