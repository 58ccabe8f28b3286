package session

import (
	"github.com/classtrack/classtrack-backend-go/internal/pkg/validator"
)

type CreateSessionRequest struct {
	CourseID   string   `json:"course_id"`
	Title      string   `json:"title"`
	ClassStart string   `json:"class_start"` // RFC3339
	ClassEnd   string   `json:"class_end"`   // RFC3339
	Latitude   float64  `json:"latitude"`
	Longitude  float64  `json:"longitude"`
	RadiusM    float64  `json:"radius_meters"`
	TeacherIDs []string `json:"teacher_ids"`

	CheckinStartOffsetMinutes int  `json:"checkin_start_offset_minutes"`
	CheckinEndOffsetMinutes   int  `json:"checkin_end_offset_minutes"`
	LateThresholdMinutes      int  `json:"late_threshold_minutes"`
	AutoAbsentAfterMinutes    *int `json:"auto_absent_after_minutes,omitempty"`
}

func (r *CreateSessionRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.CourseID) {
		errs = append(errs, validator.ValidationError{
			Field:   "course_id",
			Message: "course_id is required",
		})
	}

	start, startOK := validator.IsValidDateTime(r.ClassStart)
	if !startOK {
		errs = append(errs, validator.ValidationError{
			Field:   "class_start",
			Message: "class_start must be an RFC3339 timestamp",
		})
	}

	end, endOK := validator.IsValidDateTime(r.ClassEnd)
	if !endOK {
		errs = append(errs, validator.ValidationError{
			Field:   "class_end",
			Message: "class_end must be an RFC3339 timestamp",
		})
	}

	if startOK && endOK && !end.After(start) {
		errs = append(errs, validator.ValidationError{
			Field:   "class_end",
			Message: "class_end must be after class_start",
		})
	}

	if !validator.IsValidLatitude(r.Latitude) {
		errs = append(errs, validator.ValidationError{
			Field:   "latitude",
			Message: "latitude must be between -90 and 90",
		})
	}

	if !validator.IsValidLongitude(r.Longitude) {
		errs = append(errs, validator.ValidationError{
			Field:   "longitude",
			Message: "longitude must be between -180 and 180",
		})
	}

	if r.RadiusM <= 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "radius_meters",
			Message: "radius_meters must be positive",
		})
	}

	if len(r.TeacherIDs) == 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "teacher_ids",
			Message: "at least one teacher is required",
		})
	}

	if r.LateThresholdMinutes < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "late_threshold_minutes",
			Message: "late_threshold_minutes must not be negative",
		})
	}

	if r.AutoAbsentAfterMinutes != nil && *r.AutoAbsentAfterMinutes <= 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "auto_absent_after_minutes",
			Message: "auto_absent_after_minutes must be positive when set",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// UpdatePolicyRequest replaces a session's policy before its window opens.
type UpdatePolicyRequest struct {
	ID         string  `json:"-"`
	ClassStart string  `json:"class_start"`
	ClassEnd   string  `json:"class_end"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	RadiusM    float64 `json:"radius_meters"`

	CheckinStartOffsetMinutes int  `json:"checkin_start_offset_minutes"`
	CheckinEndOffsetMinutes   int  `json:"checkin_end_offset_minutes"`
	LateThresholdMinutes      int  `json:"late_threshold_minutes"`
	AutoAbsentAfterMinutes    *int `json:"auto_absent_after_minutes,omitempty"`
}

func (r *UpdatePolicyRequest) Validate() error {
	req := CreateSessionRequest{
		CourseID:                  "-",
		TeacherIDs:                []string{"-"},
		ClassStart:                r.ClassStart,
		ClassEnd:                  r.ClassEnd,
		Latitude:                  r.Latitude,
		Longitude:                 r.Longitude,
		RadiusM:                   r.RadiusM,
		CheckinStartOffsetMinutes: r.CheckinStartOffsetMinutes,
		CheckinEndOffsetMinutes:   r.CheckinEndOffsetMinutes,
		LateThresholdMinutes:      r.LateThresholdMinutes,
		AutoAbsentAfterMinutes:    r.AutoAbsentAfterMinutes,
	}
	return req.Validate()
}

type SessionResponse struct {
	ID         string   `json:"id"`
	CourseID   string   `json:"course_id"`
	Title      string   `json:"title"`
	State      string   `json:"state"`
	ClassStart string   `json:"class_start"`
	ClassEnd   string   `json:"class_end"`
	Latitude   float64  `json:"latitude"`
	Longitude  float64  `json:"longitude"`
	RadiusM    float64  `json:"radius_meters"`
	TeacherIDs []string `json:"teacher_ids"`

	CheckinStartOffsetMinutes int  `json:"checkin_start_offset_minutes"`
	CheckinEndOffsetMinutes   int  `json:"checkin_end_offset_minutes"`
	LateThresholdMinutes      int  `json:"late_threshold_minutes"`
	AutoAbsentAfterMinutes    *int `json:"auto_absent_after_minutes,omitempty"`

	WindowStart string `json:"window_start"`
	WindowEnd   string `json:"window_end"`
}
