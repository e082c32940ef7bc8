package orchestrator

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_FiresAfterDelay(t *testing.T) {
	fc := clockwork.NewFakeClock()
	s := NewScheduler(fc)

	var fired atomic.Int32
	s.Schedule("advance", time.Second, func() { fired.Add(1) })
	require.True(t, s.Pending("advance"))

	fc.Advance(time.Second)
	require.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, time.Millisecond)
	assert.False(t, s.Pending("advance"))
}

func TestScheduler_ScheduleSupersedesSameKey(t *testing.T) {
	fc := clockwork.NewFakeClock()
	s := NewScheduler(fc)

	var first, second atomic.Int32
	s.Schedule("advance", time.Second, func() { first.Add(1) })
	s.Schedule("advance", 2*time.Second, func() { second.Add(1) })

	fc.Advance(2 * time.Second)
	require.Eventually(t, func() bool { return second.Load() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, int32(0), first.Load())
}

func TestScheduler_CancelDropsPending(t *testing.T) {
	fc := clockwork.NewFakeClock()
	s := NewScheduler(fc)

	var fired atomic.Int32
	s.Schedule("advance", time.Second, func() { fired.Add(1) })
	s.Cancel("advance")
	assert.False(t, s.Pending("advance"))

	fc.Advance(5 * time.Second)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}

func TestScheduler_CancelAll(t *testing.T) {
	fc := clockwork.NewFakeClock()
	s := NewScheduler(fc)

	var fired atomic.Int32
	s.Schedule("a", time.Second, func() { fired.Add(1) })
	s.Schedule("b", time.Second, func() { fired.Add(1) })
	s.CancelAll()

	fc.Advance(5 * time.Second)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}

func TestScheduler_IndependentKeys(t *testing.T) {
	fc := clockwork.NewFakeClock()
	s := NewScheduler(fc)

	var a, b atomic.Int32
	s.Schedule("a", time.Second, func() { a.Add(1) })
	s.Schedule("b", 2*time.Second, func() { b.Add(1) })
	s.Cancel("a")

	fc.Advance(2 * time.Second)
	require.Eventually(t, func() bool { return b.Load() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, int32(0), a.Load())
}

func TestScheduler_StopRejectsFurtherScheduling(t *testing.T) {
	fc := clockwork.NewFakeClock()
	s := NewScheduler(fc)

	var fired atomic.Int32
	s.Schedule("advance", time.Second, func() { fired.Add(1) })
	s.Stop()
	s.Schedule("advance", time.Second, func() { fired.Add(1) })
	assert.False(t, s.Pending("advance"))

	fc.Advance(5 * time.Second)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}
