package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/classtrack/classtrack-backend-go/internal/domain/attendance"
	"github.com/classtrack/classtrack-backend-go/internal/domain/leave"
	"github.com/classtrack/classtrack-backend-go/internal/handler/http/middleware"
	"github.com/classtrack/classtrack-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type LeaveHandler interface {
	Apply(w http.ResponseWriter, r *http.Request)
	Decide(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	ListOverdue(w http.ResponseWriter, r *http.Request)
}

type leaveHandlerImpl struct {
	attendanceService attendance.AttendanceService
	coordinator       leave.Coordinator
	overdueThreshold  time.Duration
}

func NewLeaveHandler(attendanceService attendance.AttendanceService, coordinator leave.Coordinator, overdueThreshold time.Duration) LeaveHandler {
	return &leaveHandlerImpl{
		attendanceService: attendanceService,
		coordinator:       coordinator,
		overdueThreshold:  overdueThreshold,
	}
}

// Apply implements LeaveHandler.
func (h *leaveHandlerImpl) Apply(w http.ResponseWriter, r *http.Request) {
	var req leave.ApplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.StudentID = middleware.UserID(r.Context())

	result, err := h.attendanceService.ApplyLeave(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Leave application submitted", result)
}

// Decide implements LeaveHandler.
func (h *leaveHandlerImpl) Decide(w http.ResponseWriter, r *http.Request) {
	var req leave.DecideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.ApplicationID = chi.URLParam(r, "applicationID")
	req.ApproverID = middleware.UserID(r.Context())

	result, err := h.attendanceService.DecideLeave(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Decision recorded", result)
}

// Get implements LeaveHandler.
func (h *leaveHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	applicationID := chi.URLParam(r, "applicationID")

	result, err := h.coordinator.GetApplication(r.Context(), applicationID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ListOverdue implements LeaveHandler.
func (h *leaveHandlerImpl) ListOverdue(w http.ResponseWriter, r *http.Request) {
	result, err := h.coordinator.GetOverdue(r.Context(), h.overdueThreshold)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
