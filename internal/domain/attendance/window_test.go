package attendance

import (
	"testing"
	"time"

	"github.com/classtrack/classtrack-backend-go/internal/domain/session"
	"github.com/stretchr/testify/assert"
)

func testPolicy() session.Policy {
	return session.Policy{
		ClassStart:                time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		ClassEnd:                  time.Date(2026, 3, 2, 10, 40, 0, 0, time.UTC),
		CheckinStartOffsetMinutes: -15,
		CheckinEndOffsetMinutes:   10,
		LateThresholdMinutes:      10,
	}
}

func TestWindowBounds(t *testing.T) {
	p := testPolicy()

	assert.Equal(t, time.Date(2026, 3, 2, 8, 45, 0, 0, time.UTC), WindowStart(p))
	assert.Equal(t, time.Date(2026, 3, 2, 10, 50, 0, 0, time.UTC), WindowEnd(p))
	assert.Equal(t, time.Date(2026, 3, 2, 9, 10, 0, 0, time.UTC), LateBoundary(p))
}

func TestClassifyTime(t *testing.T) {
	p := testPolicy()

	tests := []struct {
		name string
		t    time.Time
		want Timing
	}{
		{"before window", WindowStart(p).Add(-time.Second), TimingTooEarly},
		{"window start boundary", WindowStart(p), TimingOnTime},
		{"late boundary is still on time", LateBoundary(p), TimingOnTime},
		{"just past late boundary", LateBoundary(p).Add(time.Second), TimingLate},
		{"window end boundary is still late", WindowEnd(p), TimingLate},
		{"past window end", WindowEnd(p).Add(time.Second), TimingClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyTime(p, tt.t))
		})
	}
}

func TestExpiryDeadline(t *testing.T) {
	p := testPolicy()

	// Without auto-absent the deadline is the window end.
	assert.Equal(t, WindowEnd(p), ExpiryDeadline(p))

	// A shorter auto-absent cutoff wins.
	thirty := 30
	p.AutoAbsentAfterMinutes = &thirty
	assert.Equal(t, p.ClassStart.Add(30*time.Minute), ExpiryDeadline(p))

	// A cutoff past the window end never extends the deadline.
	huge := 600
	p.AutoAbsentAfterMinutes = &huge
	assert.Equal(t, WindowEnd(p), ExpiryDeadline(p))
}
