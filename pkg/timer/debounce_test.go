package timer

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncerFiresOnce(t *testing.T) {
	d := NewDebouncer()
	var fired atomic.Int32

	for i := 0; i < 5; i++ {
		d.Arm(20*time.Millisecond, func() { fired.Add(1) })
	}
	assert.True(t, d.Pending())

	require.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, 2*time.Millisecond)
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
	assert.False(t, d.Pending())
}

func TestDebouncerCancel(t *testing.T) {
	d := NewDebouncer()
	var fired atomic.Int32

	d.Arm(20*time.Millisecond, func() { fired.Add(1) })
	d.Cancel()

	assert.False(t, d.Pending())
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}

func TestDebouncerRearmAfterFire(t *testing.T) {
	d := NewDebouncer()
	var fired atomic.Int32

	d.Arm(5*time.Millisecond, func() { fired.Add(1) })
	require.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, time.Millisecond)

	d.Arm(5*time.Millisecond, func() { fired.Add(1) })
	require.Eventually(t, func() bool { return fired.Load() == 2 }, time.Second, time.Millisecond)
}

// A timer that fires while a newer one is being armed must not clobber the
// new handle: Pending must stay true and Cancel must still stop the new
// callback.
func TestDebouncerRearmAfterImmediateFire(t *testing.T) {
	d := NewDebouncer()
	var late atomic.Int32

	for i := 0; i < 100; i++ {
		d.Arm(time.Microsecond, func() {})
		d.Arm(50*time.Millisecond, func() { late.Add(1) })
		require.True(t, d.Pending(), "iteration %d", i)
		d.Cancel()
		require.False(t, d.Pending(), "iteration %d", i)
	}

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, int32(0), late.Load())
}

func TestDebouncerCancelIdleIsNoop(t *testing.T) {
	d := NewDebouncer()
	d.Cancel()
	assert.False(t, d.Pending())
}
