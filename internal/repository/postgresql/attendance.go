package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/classtrack/classtrack-backend-go/internal/domain/attendance"
	"github.com/classtrack/classtrack-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type recordRepository struct {
	db *database.DB
}

func NewRecordRepository(db *database.DB) attendance.RecordRepository {
	return &recordRepository{db: db}
}

const recordColumns = `
	id, session_id, student_id, status,
	checkin_time, checkin_source, checkin_latitude, checkin_longitude, checkin_accuracy,
	offset_distance_meters, photo_ref, verification_window_id, remark,
	version, created_at, updated_at
`

func scanRecord(row pgx.Row) (attendance.Record, error) {
	var rec attendance.Record
	err := row.Scan(
		&rec.ID, &rec.SessionID, &rec.StudentID, &rec.Status,
		&rec.CheckinTime, &rec.CheckinSource, &rec.CheckinLatitude, &rec.CheckinLongitude, &rec.CheckinAccuracy,
		&rec.OffsetDistanceMeters, &rec.PhotoRef, &rec.VerificationWindowID, &rec.Remark,
		&rec.Version, &rec.CreatedAt, &rec.UpdatedAt,
	)
	return rec, err
}

// Create implements attendance.RecordRepository.
func (r *recordRepository) Create(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO attendance_records (
			session_id, student_id, status,
			checkin_time, checkin_source, checkin_latitude, checkin_longitude, checkin_accuracy,
			offset_distance_meters, photo_ref, verification_window_id, remark
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		) RETURNING id, version, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		rec.SessionID,
		rec.StudentID,
		rec.Status,
		rec.CheckinTime,
		rec.CheckinSource,
		rec.CheckinLatitude,
		rec.CheckinLongitude,
		rec.CheckinAccuracy,
		rec.OffsetDistanceMeters,
		rec.PhotoRef,
		rec.VerificationWindowID,
		rec.Remark,
	).Scan(&rec.ID, &rec.Version, &rec.CreatedAt, &rec.UpdatedAt)

	if err != nil {
		return attendance.Record{}, fmt.Errorf("failed to create attendance record: %w", err)
	}

	return rec, nil
}

// BulkCreate implements attendance.RecordRepository.
func (r *recordRepository) BulkCreate(ctx context.Context, recs []attendance.Record) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO attendance_records (session_id, student_id, status)
		VALUES ($1, $2, $3)
		ON CONFLICT (session_id, student_id) DO NOTHING
	`

	for _, rec := range recs {
		if _, err := q.Exec(ctx, query, rec.SessionID, rec.StudentID, rec.Status); err != nil {
			return fmt.Errorf("failed to bulk create attendance records: %w", err)
		}
	}

	return nil
}

// GetByID implements attendance.RecordRepository.
func (r *recordRepository) GetByID(ctx context.Context, id string) (attendance.Record, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + recordColumns + ` FROM attendance_records WHERE id = $1`

	rec, err := scanRecord(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Record{}, attendance.ErrRecordNotFound
		}
		return attendance.Record{}, fmt.Errorf("failed to get attendance record by ID: %w", err)
	}

	return rec, nil
}

// GetBySessionAndStudent implements attendance.RecordRepository.
func (r *recordRepository) GetBySessionAndStudent(ctx context.Context, sessionID, studentID string) (attendance.Record, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + recordColumns + `
		FROM attendance_records
		WHERE session_id = $1 AND student_id = $2
	`

	rec, err := scanRecord(q.QueryRow(ctx, query, sessionID, studentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Record{}, attendance.ErrRecordNotFound
		}
		return attendance.Record{}, fmt.Errorf("failed to get attendance record: %w", err)
	}

	return rec, nil
}

// Update implements attendance.RecordRepository. The version predicate
// makes the write optimistic: a stale version updates zero rows and
// surfaces ErrConcurrentModification so the caller can retry the event.
func (r *recordRepository) Update(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE attendance_records SET
			status = $1,
			checkin_time = $2,
			checkin_source = $3,
			checkin_latitude = $4,
			checkin_longitude = $5,
			checkin_accuracy = $6,
			offset_distance_meters = $7,
			photo_ref = $8,
			verification_window_id = $9,
			remark = $10,
			version = version + 1,
			updated_at = NOW()
		WHERE id = $11 AND version = $12
		RETURNING version, updated_at
	`

	err := q.QueryRow(ctx, query,
		rec.Status,
		rec.CheckinTime,
		rec.CheckinSource,
		rec.CheckinLatitude,
		rec.CheckinLongitude,
		rec.CheckinAccuracy,
		rec.OffsetDistanceMeters,
		rec.PhotoRef,
		rec.VerificationWindowID,
		rec.Remark,
		rec.ID,
		rec.Version,
	).Scan(&rec.Version, &rec.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			var exists bool
			if checkErr := q.QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM attendance_records WHERE id = $1)`, rec.ID,
			).Scan(&exists); checkErr == nil && !exists {
				return attendance.Record{}, attendance.ErrRecordNotFound
			}
			return attendance.Record{}, attendance.ErrConcurrentModification
		}
		return attendance.Record{}, fmt.Errorf("failed to update attendance record: %w", err)
	}

	return rec, nil
}

// ListBySession implements attendance.RecordRepository.
func (r *recordRepository) ListBySession(ctx context.Context, sessionID string, filter attendance.RecordFilter) ([]attendance.Record, int64, error) {
	q := GetQuerier(ctx, r.db)

	where := `WHERE r.session_id = $1`
	args := []interface{}{sessionID}
	if filter.Status != nil {
		where += fmt.Sprintf(` AND r.status = $%d`, len(args)+1)
		args = append(args, *filter.Status)
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM attendance_records r ` + where
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count attendance records: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT
			r.id, r.session_id, r.student_id, r.status,
			r.checkin_time, r.checkin_source, r.checkin_latitude, r.checkin_longitude, r.checkin_accuracy,
			r.offset_distance_meters, r.photo_ref, r.verification_window_id, r.remark,
			r.version, r.created_at, r.updated_at,
			s.full_name AS student_name
		FROM attendance_records r
		LEFT JOIN students s ON s.id = r.student_id
		%s
		ORDER BY s.full_name ASC NULLS LAST, r.student_id ASC
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list attendance records: %w", err)
	}
	defer rows.Close()

	var recs []attendance.Record
	for rows.Next() {
		var rec attendance.Record
		if err := rows.Scan(
			&rec.ID, &rec.SessionID, &rec.StudentID, &rec.Status,
			&rec.CheckinTime, &rec.CheckinSource, &rec.CheckinLatitude, &rec.CheckinLongitude, &rec.CheckinAccuracy,
			&rec.OffsetDistanceMeters, &rec.PhotoRef, &rec.VerificationWindowID, &rec.Remark,
			&rec.Version, &rec.CreatedAt, &rec.UpdatedAt,
			&rec.StudentName,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan attendance record: %w", err)
		}
		recs = append(recs, rec)
	}

	return recs, total, rows.Err()
}

// ListByStudent implements attendance.RecordRepository.
func (r *recordRepository) ListByStudent(ctx context.Context, studentID string, filter attendance.RecordFilter) ([]attendance.Record, int64, error) {
	q := GetQuerier(ctx, r.db)

	where := `WHERE student_id = $1`
	args := []interface{}{studentID}
	if filter.Status != nil {
		where += fmt.Sprintf(` AND status = $%d`, len(args)+1)
		args = append(args, *filter.Status)
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM attendance_records ` + where
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count attendance records: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT `+recordColumns+`
		FROM attendance_records
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list attendance records: %w", err)
	}
	defer rows.Close()

	var recs []attendance.Record
	for rows.Next() {
		var rec attendance.Record
		if err := rows.Scan(
			&rec.ID, &rec.SessionID, &rec.StudentID, &rec.Status,
			&rec.CheckinTime, &rec.CheckinSource, &rec.CheckinLatitude, &rec.CheckinLongitude, &rec.CheckinAccuracy,
			&rec.OffsetDistanceMeters, &rec.PhotoRef, &rec.VerificationWindowID, &rec.Remark,
			&rec.Version, &rec.CreatedAt, &rec.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan attendance record: %w", err)
		}
		recs = append(recs, rec)
	}

	return recs, total, rows.Err()
}

// ListBySessionAndStatuses implements attendance.RecordRepository.
func (r *recordRepository) ListBySessionAndStatuses(ctx context.Context, sessionID string, statuses []attendance.Status) ([]attendance.Record, error) {
	q := GetQuerier(ctx, r.db)

	vals := make([]string, 0, len(statuses))
	for _, s := range statuses {
		vals = append(vals, string(s))
	}

	query := `
		SELECT ` + recordColumns + `
		FROM attendance_records
		WHERE session_id = $1 AND status = ANY($2)
		ORDER BY student_id ASC
	`

	rows, err := q.Query(ctx, query, sessionID, vals)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance records by status: %w", err)
	}
	defer rows.Close()

	var recs []attendance.Record
	for rows.Next() {
		var rec attendance.Record
		if err := rows.Scan(
			&rec.ID, &rec.SessionID, &rec.StudentID, &rec.Status,
			&rec.CheckinTime, &rec.CheckinSource, &rec.CheckinLatitude, &rec.CheckinLongitude, &rec.CheckinAccuracy,
			&rec.OffsetDistanceMeters, &rec.PhotoRef, &rec.VerificationWindowID, &rec.Remark,
			&rec.Version, &rec.CreatedAt, &rec.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan attendance record: %w", err)
		}
		recs = append(recs, rec)
	}

	return recs, rows.Err()
}
