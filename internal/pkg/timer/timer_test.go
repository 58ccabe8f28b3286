package timer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/classtrack/classtrack-backend-go/internal/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testStart = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func waitFired(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case name := <-ch:
		return name
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for handler to fire")
		return ""
	}
}

func TestScheduler_FiresAtDeadline(t *testing.T) {
	mock := clock.NewMock(testStart)
	s := NewScheduler(mock, time.Second)
	s.Start()
	defer s.Stop()

	fired := make(chan string, 1)
	s.Schedule(testStart.Add(5*time.Minute), "session:s1", "window_expiry", func(ctx context.Context) error {
		fired <- "window_expiry"
		return nil
	})

	require.Equal(t, 1, s.Pending())

	mock.Advance(5 * time.Minute)

	assert.Equal(t, "window_expiry", waitFired(t, fired))
	assert.Eventually(t, func() bool { return s.Pending() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestScheduler_PastDeadlineFiresImmediately(t *testing.T) {
	mock := clock.NewMock(testStart)
	s := NewScheduler(mock, time.Second)
	s.Start()
	defer s.Stop()

	fired := make(chan string, 1)
	s.Schedule(testStart.Add(-time.Minute), "session:s1", "overdue", func(ctx context.Context) error {
		fired <- "overdue"
		return nil
	})

	assert.Equal(t, "overdue", waitFired(t, fired))
}

func TestScheduler_FiresInDeadlineOrder(t *testing.T) {
	mock := clock.NewMock(testStart)
	s := NewScheduler(mock, time.Second)
	s.Start()
	defer s.Stop()

	fired := make(chan string, 2)
	s.Schedule(testStart.Add(10*time.Minute), "session:s1", "second", func(ctx context.Context) error {
		fired <- "second"
		return nil
	})
	s.Schedule(testStart.Add(5*time.Minute), "session:s1", "first", func(ctx context.Context) error {
		fired <- "first"
		return nil
	})

	mock.Advance(10 * time.Minute)

	assert.Equal(t, "first", waitFired(t, fired))
	assert.Equal(t, "second", waitFired(t, fired))
}

func TestScheduler_Cancel(t *testing.T) {
	mock := clock.NewMock(testStart)
	s := NewScheduler(mock, time.Second)
	s.Start()
	defer s.Stop()

	id := s.Schedule(testStart.Add(time.Hour), "session:s1", "window_expiry", func(ctx context.Context) error {
		t.Error("cancelled handler must not fire")
		return nil
	})

	assert.True(t, s.Cancel(id))
	assert.False(t, s.Cancel(id))
	assert.Equal(t, 0, s.Pending())

	mock.Advance(2 * time.Hour)
}

func TestScheduler_CancelGroup(t *testing.T) {
	mock := clock.NewMock(testStart)
	s := NewScheduler(mock, time.Second)
	s.Start()
	defer s.Stop()

	fired := make(chan string, 1)
	nop := func(ctx context.Context) error {
		t.Error("cancelled handler must not fire")
		return nil
	}

	s.Schedule(testStart.Add(time.Hour), "session:s1", "window_expiry", nop)
	s.Schedule(testStart.Add(time.Hour), "session:s1", "verification_expiry", nop)
	s.Schedule(testStart.Add(time.Hour), "session:s2", "window_expiry", func(ctx context.Context) error {
		fired <- "other_session"
		return nil
	})

	assert.Equal(t, 2, s.CancelGroup("session:s1"))
	assert.Equal(t, 1, s.Pending())

	mock.Advance(time.Hour)
	assert.Equal(t, "other_session", waitFired(t, fired))
}

func TestScheduler_RetriesFailedHandler(t *testing.T) {
	mock := clock.NewMock(testStart)
	s := NewScheduler(mock, 10*time.Second)
	s.Start()
	defer s.Stop()

	attempts := make(chan int, 2)
	count := 0
	s.Schedule(testStart.Add(time.Minute), "session:s1", "flaky", func(ctx context.Context) error {
		count++
		attempts <- count
		if count == 1 {
			return errors.New("transient failure")
		}
		return nil
	})

	mock.Advance(time.Minute)
	require.Equal(t, 1, <-attempts)

	// Wait for the failed entry to be re-queued before advancing past the
	// retry delay.
	require.Eventually(t, func() bool { return s.Pending() == 1 }, 2*time.Second, 10*time.Millisecond)

	mock.Advance(10 * time.Second)
	require.Equal(t, 2, <-attempts)
	assert.Eventually(t, func() bool { return s.Pending() == 0 }, 2*time.Second, 10*time.Millisecond)
}
