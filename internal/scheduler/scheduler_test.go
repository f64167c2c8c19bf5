package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestManual_FiresInDueThenInsertionOrder(t *testing.T) {
	req := require.New(t)

	// Given
	m := NewManual()
	var order []string
	m.AfterFunc(20*time.Millisecond, func() { order = append(order, "c") })
	m.AfterFunc(10*time.Millisecond, func() { order = append(order, "a") })
	m.AfterFunc(10*time.Millisecond, func() { order = append(order, "b") })
	m.AfterFunc(30*time.Millisecond, func() { order = append(order, "late") })

	// When
	m.Advance(25 * time.Millisecond)

	// Then
	req.Equal([]string{"a", "b", "c"}, order)
	req.Equal(1, m.Pending())
	req.Equal(25*time.Millisecond, m.Now())

	m.Advance(5 * time.Millisecond)
	req.Equal([]string{"a", "b", "c", "late"}, order)
}

func TestManual_CallbackSchedulesInsideWindow(t *testing.T) {
	req := require.New(t)

	m := NewManual()
	var fired []time.Duration
	m.AfterFunc(10*time.Millisecond, func() {
		fired = append(fired, m.Now())
		m.AfterFunc(5*time.Millisecond, func() { fired = append(fired, m.Now()) })
	})

	m.Advance(time.Second)
	req.Equal([]time.Duration{10 * time.Millisecond, 15 * time.Millisecond}, fired)
}

func TestManual_Stop(t *testing.T) {
	req := require.New(t)

	m := NewManual()
	ran := false
	timer := m.AfterFunc(time.Millisecond, func() { ran = true })

	req.True(timer.Stop())
	req.False(timer.Stop())
	m.Advance(time.Second)
	req.False(ran)
	req.Zero(m.Pending())
}

func TestReal_AfterFunc(t *testing.T) {
	req := require.New(t)

	done := make(chan struct{})
	Real{}.AfterFunc(time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail("callback did not run")
	}
}
