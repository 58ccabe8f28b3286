package attendance

import (
	"time"

	"github.com/classtrack/classtrack-backend-go/internal/domain/session"
)

// Timing classifies a check-in attempt time against a session's window.
type Timing int

const (
	TimingTooEarly Timing = iota
	TimingOnTime
	TimingLate
	TimingClosed
)

func (t Timing) String() string {
	switch t {
	case TimingTooEarly:
		return "too_early"
	case TimingOnTime:
		return "on_time"
	case TimingLate:
		return "late"
	case TimingClosed:
		return "closed"
	}
	return "unknown"
}

// WindowStart is classStart + checkinStartOffset (offset may be negative).
func WindowStart(p session.Policy) time.Time {
	return p.ClassStart.Add(time.Duration(p.CheckinStartOffsetMinutes) * time.Minute)
}

// WindowEnd is classEnd + checkinEndOffset.
func WindowEnd(p session.Policy) time.Time {
	return p.ClassEnd.Add(time.Duration(p.CheckinEndOffsetMinutes) * time.Minute)
}

// LateBoundary is classStart + lateThreshold; attempts after it count as late.
func LateBoundary(p session.Policy) time.Time {
	return p.ClassStart.Add(time.Duration(p.LateThresholdMinutes) * time.Minute)
}

// ExpiryDeadline is when records still not_started go absent: window end,
// or classStart + autoAbsentAfter when that comes sooner.
func ExpiryDeadline(p session.Policy) time.Time {
	end := WindowEnd(p)
	if p.AutoAbsentAfterMinutes == nil {
		return end
	}
	auto := p.ClassStart.Add(time.Duration(*p.AutoAbsentAfterMinutes) * time.Minute)
	if auto.Before(end) {
		return auto
	}
	return end
}

// ClassifyTime places t inside the window. Both window boundaries and the
// late boundary are inclusive: t == lateBoundary is still on time,
// t == windowEnd is still late.
func ClassifyTime(p session.Policy, t time.Time) Timing {
	if t.Before(WindowStart(p)) {
		return TimingTooEarly
	}
	if t.After(WindowEnd(p)) {
		return TimingClosed
	}
	if t.After(LateBoundary(p)) {
		return TimingLate
	}
	return TimingOnTime
}
