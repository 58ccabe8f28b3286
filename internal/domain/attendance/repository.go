package attendance

import (
	"context"
)

// RecordRepository - interface for attendance_records table.
//
// Update enforces optimistic concurrency on Record.Version and returns
// ErrConcurrentModification when the stored row moved on since the load.
// The per-record serialization in the service makes that rare, not
// impossible (e.g. across process restarts).
type RecordRepository interface {
	Create(ctx context.Context, rec Record) (Record, error)
	BulkCreate(ctx context.Context, recs []Record) error
	GetByID(ctx context.Context, id string) (Record, error)
	GetBySessionAndStudent(ctx context.Context, sessionID, studentID string) (Record, error)
	Update(ctx context.Context, rec Record) (Record, error)

	ListBySession(ctx context.Context, sessionID string, filter RecordFilter) ([]Record, int64, error)
	ListByStudent(ctx context.Context, studentID string, filter RecordFilter) ([]Record, int64, error)

	// ListBySessionAndStatuses is used for snapshot reads by the
	// window-expiry sweep and the verification scheduler.
	ListBySessionAndStatuses(ctx context.Context, sessionID string, statuses []Status) ([]Record, error)
}
