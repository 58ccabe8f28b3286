package session

import (
	"context"
)

// SessionRepository - interface for class_sessions and enrollment tables
type SessionRepository interface {
	Create(ctx context.Context, s Session) (Session, error)
	GetByID(ctx context.Context, id string) (Session, error)
	UpdatePolicy(ctx context.Context, id string, policy Policy) error
	SetState(ctx context.Context, id string, state State) error

	// ListEnrolledStudents returns the student IDs enrolled in the
	// session's course at the time of the call.
	ListEnrolledStudents(ctx context.Context, sessionID string) ([]string, error)

	// ListTeachers returns the session's teacher IDs in approver order;
	// the first entry is the primary teacher.
	ListTeachers(ctx context.Context, sessionID string) ([]string, error)
}
