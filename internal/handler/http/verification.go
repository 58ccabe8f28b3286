package http

import (
	"encoding/json"
	"net/http"

	"github.com/classtrack/classtrack-backend-go/internal/domain/verification"
	"github.com/classtrack/classtrack-backend-go/internal/handler/http/middleware"
	"github.com/classtrack/classtrack-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type VerificationHandler interface {
	Open(w http.ResponseWriter, r *http.Request)
	Answer(w http.ResponseWriter, r *http.Request)
	GetOpen(w http.ResponseWriter, r *http.Request)
}

type verificationHandlerImpl struct {
	verificationService verification.VerificationService
}

func NewVerificationHandler(verificationService verification.VerificationService) VerificationHandler {
	return &verificationHandlerImpl{
		verificationService: verificationService,
	}
}

// Open implements VerificationHandler.
func (h *verificationHandlerImpl) Open(w http.ResponseWriter, r *http.Request) {
	var req verification.OpenChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.SessionID = chi.URLParam(r, "sessionID")
	req.TeacherID = middleware.UserID(r.Context())

	result, err := h.verificationService.OpenChallenge(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Verification challenge opened", result)
}

// Answer implements VerificationHandler.
func (h *verificationHandlerImpl) Answer(w http.ResponseWriter, r *http.Request) {
	var req verification.AnswerChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.SessionID = chi.URLParam(r, "sessionID")
	req.StudentID = middleware.UserID(r.Context())

	if err := h.verificationService.AnswerChallenge(r.Context(), req); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Presence confirmed", nil)
}

// GetOpen implements VerificationHandler.
func (h *verificationHandlerImpl) GetOpen(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	result, err := h.verificationService.GetOpenChallenge(r.Context(), sessionID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
