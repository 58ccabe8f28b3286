package attendance

import (
	"strings"

	"github.com/classtrack/classtrack-backend-go/internal/pkg/validator"
)

// ========================================
// CHECK-IN DTOs
// ========================================

type CheckinRequest struct {
	SessionID string  `json:"session_id"`
	StudentID string  `json:"-"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`
}

func (r *CheckinRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.SessionID) {
		errs = append(errs, validator.ValidationError{
			Field:   "session_id",
			Message: "session_id is required",
		})
	}

	if !validator.IsValidLatitude(r.Latitude) {
		errs = append(errs, validator.ValidationError{
			Field:   "latitude",
			Message: "latitude must be a number between -90 and 90",
		})
	}

	if !validator.IsValidLongitude(r.Longitude) {
		errs = append(errs, validator.ValidationError{
			Field:   "longitude",
			Message: "longitude must be a number between -180 and 180",
		})
	}

	if !validator.IsValidAccuracy(r.Accuracy) {
		errs = append(errs, validator.ValidationError{
			Field:   "accuracy",
			Message: "accuracy must be a non-negative number of meters",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type PhotoCheckinRequest struct {
	SessionID string  `json:"session_id"`
	StudentID string  `json:"-"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`
	PhotoRef  string  `json:"photo_ref"`
}

func (r *PhotoCheckinRequest) Validate() error {
	base := CheckinRequest{
		SessionID: r.SessionID,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		Accuracy:  r.Accuracy,
	}
	err := base.Validate()

	var errs validator.ValidationErrors
	if err != nil {
		errs = err.(validator.ValidationErrors)
	}

	if validator.IsEmpty(r.PhotoRef) {
		errs = append(errs, validator.ValidationError{
			Field:   "photo_ref",
			Message: "photo_ref is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ManualCheckinRequest is the teacher-issued backfill ("补卡").
type ManualCheckinRequest struct {
	SessionID string `json:"session_id"`
	StudentID string `json:"student_id"`
	Reason    string `json:"reason"`
	TeacherID string `json:"-"`
}

func (r *ManualCheckinRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.SessionID) {
		errs = append(errs, validator.ValidationError{
			Field:   "session_id",
			Message: "session_id is required",
		})
	}

	if validator.IsEmpty(r.StudentID) {
		errs = append(errs, validator.ValidationError{
			Field:   "student_id",
			Message: "student_id is required",
		})
	}

	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "a backfill reason is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// DecidePhotoRequest resolves a pending photo check-in.
type DecidePhotoRequest struct {
	RecordID   string  `json:"-"`
	Approve    bool    `json:"approve"`
	Comment    *string `json:"comment,omitempty"`
	ApproverID string  `json:"-"`
}

func (r *DecidePhotoRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.RecordID) {
		errs = append(errs, validator.ValidationError{
			Field:   "record_id",
			Message: "record_id is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ========================================
// RESPONSE / LISTING DTOs
// ========================================

type RecordResponse struct {
	ID                   string   `json:"id"`
	SessionID            string   `json:"session_id"`
	StudentID            string   `json:"student_id"`
	StudentName          *string  `json:"student_name,omitempty"`
	Status               string   `json:"status"`
	CheckinTime          *string  `json:"checkin_time,omitempty"`
	CheckinSource        *string  `json:"checkin_source,omitempty"`
	CheckinLatitude      *float64 `json:"checkin_latitude,omitempty"`
	CheckinLongitude     *float64 `json:"checkin_longitude,omitempty"`
	OffsetDistanceMeters *float64 `json:"offset_distance_meters,omitempty"`
	PhotoRef             *string  `json:"photo_ref,omitempty"`
	VerificationWindowID *string  `json:"verification_window_id,omitempty"`
	Remark               *string  `json:"remark,omitempty"`
}

type RecordFilter struct {
	Status *string `json:"status,omitempty"`

	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *RecordFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if f.Page == 0 {
		f.Page = 1 // Default page
	}

	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if f.Limit == 0 {
		f.Limit = 20 // Default limit
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	if f.Status != nil {
		if !Status(strings.ToLower(*f.Status)).Valid() {
			errs = append(errs, validator.ValidationError{
				Field:   "status",
				Message: "status is not a recognized attendance status",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type ListRecordsResponse struct {
	TotalCount int64            `json:"total_count"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"total_pages"`
	Records    []RecordResponse `json:"records"`
}
