package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/classtrack/classtrack-backend-go/internal/domain/attendance"
	"github.com/classtrack/classtrack-backend-go/internal/handler/http/middleware"
	"github.com/classtrack/classtrack-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type AttendanceHandler interface {
	Checkin(w http.ResponseWriter, r *http.Request)
	PhotoCheckin(w http.ResponseWriter, r *http.Request)
	DecidePhoto(w http.ResponseWriter, r *http.Request)
	ManualCheckin(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	GetMyAttendance(w http.ResponseWriter, r *http.Request)
	ListSessionRecords(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
	}
}

// Checkin implements AttendanceHandler.
func (h *attendanceHandlerImpl) Checkin(w http.ResponseWriter, r *http.Request) {
	var req attendance.CheckinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.StudentID = middleware.UserID(r.Context())

	result, err := h.attendanceService.Checkin(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Check-in successful", result)
}

// PhotoCheckin implements AttendanceHandler.
func (h *attendanceHandlerImpl) PhotoCheckin(w http.ResponseWriter, r *http.Request) {
	var req attendance.PhotoCheckinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.StudentID = middleware.UserID(r.Context())

	result, err := h.attendanceService.PhotoCheckin(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Photo check-in submitted for approval", result)
}

// DecidePhoto implements AttendanceHandler.
func (h *attendanceHandlerImpl) DecidePhoto(w http.ResponseWriter, r *http.Request) {
	var req attendance.DecidePhotoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.RecordID = chi.URLParam(r, "recordID")
	req.ApproverID = middleware.UserID(r.Context())

	result, err := h.attendanceService.DecidePhoto(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Photo check-in decided", result)
}

// ManualCheckin implements AttendanceHandler.
func (h *attendanceHandlerImpl) ManualCheckin(w http.ResponseWriter, r *http.Request) {
	var req attendance.ManualCheckinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.TeacherID = middleware.UserID(r.Context())

	result, err := h.attendanceService.ManualCheckin(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Manual check-in recorded", result)
}

// Get implements AttendanceHandler.
func (h *attendanceHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	recordID := chi.URLParam(r, "recordID")

	result, err := h.attendanceService.GetRecord(r.Context(), recordID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetMyAttendance implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetMyAttendance(w http.ResponseWriter, r *http.Request) {
	filter := parseRecordFilter(r)

	result, err := h.attendanceService.GetMyAttendance(r.Context(), middleware.UserID(r.Context()), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result.Records, &response.Meta{
		Page:       result.Page,
		Limit:      result.Limit,
		TotalItems: result.TotalCount,
		TotalPages: result.TotalPages,
	})
}

// ListSessionRecords implements AttendanceHandler.
func (h *attendanceHandlerImpl) ListSessionRecords(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	filter := parseRecordFilter(r)

	result, err := h.attendanceService.ListSessionRecords(r.Context(), sessionID, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result.Records, &response.Meta{
		Page:       result.Page,
		Limit:      result.Limit,
		TotalItems: result.TotalCount,
		TotalPages: result.TotalPages,
	})
}

func parseRecordFilter(r *http.Request) attendance.RecordFilter {
	var filter attendance.RecordFilter

	if page, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
		filter.Limit = limit
	}
	if status := r.URL.Query().Get("status"); status != "" {
		filter.Status = &status
	}

	return filter
}
