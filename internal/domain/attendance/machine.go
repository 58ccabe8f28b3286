package attendance

// Reduce is the transition table: a pure function from (record, event) to
// (record, effects). Every pair not listed returns ErrInvalidTransition
// with the record unchanged; no handler ever half-applies a transition.
//
// CheckinTime is kept non-nil exactly for present, late, and
// pending_approval so downstream consumers can rely on it.
func Reduce(rec Record, ev Event) (Record, []Effect, error) {
	switch e := ev.(type) {
	case Checkin:
		if rec.Status != StatusNotStarted {
			return rec, nil, ErrInvalidTransition
		}
		switch e.Timing {
		case TimingTooEarly:
			return rec, nil, ErrTooEarly
		case TimingClosed:
			// The record itself goes absent via the WindowExpired
			// background event, not via this rejection.
			return rec, nil, ErrWindowClosed
		}
		if !e.Geofence.InRange {
			return rec, nil, ErrGeofenceMismatch
		}

		if e.Timing == TimingLate {
			rec.Status = StatusLate
		} else {
			rec.Status = StatusPresent
		}
		t := e.Time
		src := SourceGPS
		lat, lon, acc, dist := e.Latitude, e.Longitude, e.Accuracy, e.Geofence.DistanceMeters
		rec.CheckinTime = &t
		rec.CheckinSource = &src
		rec.CheckinLatitude = &lat
		rec.CheckinLongitude = &lon
		rec.CheckinAccuracy = &acc
		rec.OffsetDistanceMeters = &dist
		return rec, nil, nil

	case PhotoCheckin:
		if rec.Status != StatusNotStarted {
			return rec, nil, ErrInvalidTransition
		}
		switch e.Timing {
		case TimingTooEarly:
			return rec, nil, ErrTooEarly
		case TimingClosed:
			return rec, nil, ErrWindowClosed
		}

		rec.Status = StatusPendingApproval
		t := e.Time
		src := SourcePhoto
		lat, lon, acc, dist := e.Latitude, e.Longitude, e.Accuracy, e.Geofence.DistanceMeters
		photo := e.PhotoRef
		rec.CheckinTime = &t
		rec.CheckinSource = &src
		rec.CheckinLatitude = &lat
		rec.CheckinLongitude = &lon
		rec.CheckinAccuracy = &acc
		// Distance is recorded even though the geofence did not gate the
		// attempt, for later teacher review.
		rec.OffsetDistanceMeters = &dist
		rec.PhotoRef = &photo
		return rec, []Effect{OpenPhotoApproval{}}, nil

	case PhotoDecision:
		if rec.Status != StatusPendingApproval {
			return rec, nil, ErrInvalidTransition
		}
		if e.Approve {
			// CheckinTime stays the original attempt time.
			rec.Status = StatusPresent
			return rec, nil, nil
		}
		rec.Status = StatusAbsent
		rec.CheckinTime = nil
		if e.Comment != nil {
			rec.Remark = e.Comment
		}
		return rec, nil, nil

	case LeaveApply:
		if rec.Status != StatusNotStarted && rec.Status != StatusAbsent {
			return rec, nil, ErrInvalidTransition
		}
		rec.Status = StatusLeavePending
		return rec, []Effect{OpenLeaveApplication{LeaveType: e.LeaveType, Reason: e.Reason}}, nil

	case LeaveDecision:
		if rec.Status != StatusLeavePending {
			return rec, nil, ErrInvalidTransition
		}
		if e.Approve {
			rec.Status = StatusLeave
			return rec, nil, nil
		}
		// leave_rejected finalizes as absent in the same transition.
		rec.Status = StatusAbsent
		remark := "leave application rejected"
		rec.Remark = &remark
		return rec, nil, nil

	case ManualCheckin:
		if rec.Status == StatusPresent && rec.CheckinSource != nil && *rec.CheckinSource == SourceManual {
			// Idempotent: a repeated backfill changes nothing.
			return rec, nil, nil
		}
		rec.Status = StatusPresent
		t := e.Time
		src := SourceManual
		reason := e.Reason
		rec.CheckinTime = &t
		rec.CheckinSource = &src
		rec.CheckinLatitude = nil
		rec.CheckinLongitude = nil
		rec.CheckinAccuracy = nil
		rec.OffsetDistanceMeters = nil
		rec.Remark = &reason
		// A backfill also resolves any open re-check challenge.
		rec.VerificationWindowID = nil
		return rec, nil, nil

	case WindowExpired:
		if rec.Status != StatusNotStarted {
			return rec, nil, ErrInvalidTransition
		}
		rec.Status = StatusAbsent
		return rec, nil, nil

	case VerificationOpened:
		if rec.Status != StatusPresent && rec.Status != StatusLate {
			return rec, nil, ErrInvalidTransition
		}
		id := e.WindowID
		rec.VerificationWindowID = &id
		return rec, nil, nil

	case VerificationCheckin:
		if rec.VerificationWindowID == nil || *rec.VerificationWindowID != e.WindowID {
			return rec, nil, ErrInvalidTransition
		}
		rec.VerificationWindowID = nil
		return rec, nil, nil

	case VerificationExpired:
		if rec.VerificationWindowID == nil || *rec.VerificationWindowID != e.WindowID {
			return rec, nil, ErrInvalidTransition
		}
		rec.Status = StatusAbsent
		rec.VerificationWindowID = nil
		rec.CheckinTime = nil
		src := SourceVerification
		rec.CheckinSource = &src
		remark := "did not answer mid-class verification"
		rec.Remark = &remark
		return rec, nil, nil
	}

	return rec, nil, ErrInvalidTransition
}
