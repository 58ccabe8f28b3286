package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/classtrack/classtrack-backend-go/internal/domain/session"
	"github.com/classtrack/classtrack-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type sessionRepository struct {
	db *database.DB
}

func NewSessionRepository(db *database.DB) session.SessionRepository {
	return &sessionRepository{db: db}
}

// Create implements session.SessionRepository.
func (r *sessionRepository) Create(ctx context.Context, s session.Session) (session.Session, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO class_sessions (
			course_id, title, state,
			class_start, class_end,
			latitude, longitude, radius_meters,
			checkin_start_offset_minutes, checkin_end_offset_minutes,
			late_threshold_minutes, auto_absent_after_minutes
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		) RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		s.CourseID,
		s.Title,
		s.State,
		s.Policy.ClassStart,
		s.Policy.ClassEnd,
		s.Policy.Latitude,
		s.Policy.Longitude,
		s.Policy.RadiusMeters,
		s.Policy.CheckinStartOffsetMinutes,
		s.Policy.CheckinEndOffsetMinutes,
		s.Policy.LateThresholdMinutes,
		s.Policy.AutoAbsentAfterMinutes,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)

	if err != nil {
		return session.Session{}, fmt.Errorf("failed to create session: %w", err)
	}

	for i, teacherID := range s.TeacherIDs {
		_, err := q.Exec(ctx, `
			INSERT INTO session_teachers (session_id, teacher_id, approver_order)
			VALUES ($1, $2, $3)
		`, s.ID, teacherID, i+1)
		if err != nil {
			return session.Session{}, fmt.Errorf("failed to assign session teacher: %w", err)
		}
	}

	return s, nil
}

// GetByID implements session.SessionRepository.
func (r *sessionRepository) GetByID(ctx context.Context, id string) (session.Session, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT
			id, course_id, title, state,
			class_start, class_end,
			latitude, longitude, radius_meters,
			checkin_start_offset_minutes, checkin_end_offset_minutes,
			late_threshold_minutes, auto_absent_after_minutes,
			created_at, updated_at
		FROM class_sessions
		WHERE id = $1
	`

	var s session.Session
	err := q.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.CourseID, &s.Title, &s.State,
		&s.Policy.ClassStart, &s.Policy.ClassEnd,
		&s.Policy.Latitude, &s.Policy.Longitude, &s.Policy.RadiusMeters,
		&s.Policy.CheckinStartOffsetMinutes, &s.Policy.CheckinEndOffsetMinutes,
		&s.Policy.LateThresholdMinutes, &s.Policy.AutoAbsentAfterMinutes,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return session.Session{}, session.ErrSessionNotFound
		}
		return session.Session{}, fmt.Errorf("failed to get session by ID: %w", err)
	}

	teachers, err := r.ListTeachers(ctx, id)
	if err != nil {
		return session.Session{}, err
	}
	s.TeacherIDs = teachers

	return s, nil
}

// UpdatePolicy implements session.SessionRepository.
func (r *sessionRepository) UpdatePolicy(ctx context.Context, id string, p session.Policy) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE class_sessions SET
			class_start = $1, class_end = $2,
			latitude = $3, longitude = $4, radius_meters = $5,
			checkin_start_offset_minutes = $6, checkin_end_offset_minutes = $7,
			late_threshold_minutes = $8, auto_absent_after_minutes = $9,
			updated_at = NOW()
		WHERE id = $10
	`,
		p.ClassStart, p.ClassEnd,
		p.Latitude, p.Longitude, p.RadiusMeters,
		p.CheckinStartOffsetMinutes, p.CheckinEndOffsetMinutes,
		p.LateThresholdMinutes, p.AutoAbsentAfterMinutes,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to update session policy: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return session.ErrSessionNotFound
	}

	return nil
}

// SetState implements session.SessionRepository.
func (r *sessionRepository) SetState(ctx context.Context, id string, state session.State) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE class_sessions SET state = $1, updated_at = NOW() WHERE id = $2
	`, state, id)
	if err != nil {
		return fmt.Errorf("failed to set session state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return session.ErrSessionNotFound
	}

	return nil
}

// ListEnrolledStudents implements session.SessionRepository.
func (r *sessionRepository) ListEnrolledStudents(ctx context.Context, sessionID string) ([]string, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT e.student_id
		FROM course_enrollments e
		JOIN class_sessions cs ON cs.course_id = e.course_id
		WHERE cs.id = $1
		ORDER BY e.student_id ASC
	`

	rows, err := q.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrolled students: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan student ID: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// ListTeachers implements session.SessionRepository.
func (r *sessionRepository) ListTeachers(ctx context.Context, sessionID string) ([]string, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT teacher_id
		FROM session_teachers
		WHERE session_id = $1
		ORDER BY approver_order ASC
	`

	rows, err := q.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list session teachers: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan teacher ID: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}
