package session

import (
	"context"
)

// SessionService defines business logic for session scheduling and lifecycle
type SessionService interface {
	// CreateSession registers a scheduled session with its check-in policy
	CreateSession(ctx context.Context, req CreateSessionRequest) (SessionResponse, error)

	// GetSession retrieves a session by ID
	GetSession(ctx context.Context, id string) (SessionResponse, error)

	// UpdatePolicy replaces the policy; rejected once the window has opened
	UpdatePolicy(ctx context.Context, req UpdatePolicyRequest) (SessionResponse, error)

	// OpenSession creates one not_started attendance record per enrolled
	// student and schedules the window-expiry sweep
	OpenSession(ctx context.Context, id string) (SessionResponse, error)

	// CloseSession closes a session early and cancels all of its
	// outstanding scheduled events
	CloseSession(ctx context.Context, id string) (SessionResponse, error)
}
