package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"attendance-portal/internal/apperr"
	"attendance-portal/internal/model"
)

const attendanceColumns = `id, user_name, user_email, mark_date, mark_time, created_at`

// Attendance implements attendance.Repository.
type Attendance struct {
	db *sql.DB
}

func (r *Attendance) Insert(ctx context.Context, rec model.AttendanceRecord) (model.AttendanceRecord, error) {
	const op = "sqlstore.Attendance.Insert"

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	var id string
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO attendance_records (`+attendanceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_email, mark_date) DO NOTHING
		RETURNING id
	`, rec.ID, rec.User.Name, rec.User.Email, rec.Date, rec.Time, rec.CreatedAt).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.AttendanceRecord{}, fmt.Errorf("%w: attendance already marked for %s", apperr.ErrConflict, rec.Date)
	}
	if err != nil {
		return model.AttendanceRecord{}, apperr.Store(op, err)
	}
	return rec, nil
}

func (r *Attendance) ListByEmail(ctx context.Context, email string) ([]model.AttendanceRecord, error) {
	return r.list(ctx, "sqlstore.Attendance.ListByEmail",
		`SELECT `+attendanceColumns+` FROM attendance_records WHERE user_email = $1 ORDER BY created_at, id`, email)
}

func (r *Attendance) ListAll(ctx context.Context) ([]model.AttendanceRecord, error) {
	return r.list(ctx, "sqlstore.Attendance.ListAll",
		`SELECT `+attendanceColumns+` FROM attendance_records ORDER BY created_at, id`)
}

func (r *Attendance) Update(ctx context.Context, rec model.AttendanceRecord) (model.AttendanceRecord, error) {
	const op = "sqlstore.Attendance.Update"

	res, err := r.db.ExecContext(ctx, `
		UPDATE attendance_records
		SET user_name = $1, user_email = $2, mark_date = $3, mark_time = $4
		WHERE id = $5
	`, rec.User.Name, rec.User.Email, rec.Date, rec.Time, rec.ID)
	if isUniqueViolation(err) {
		return model.AttendanceRecord{}, fmt.Errorf("%w: attendance already marked for %s", apperr.ErrConflict, rec.Date)
	}
	if err := affectedOne(res, err, op); err != nil {
		return model.AttendanceRecord{}, err
	}

	return r.byID(ctx, op, rec.ID)
}

func (r *Attendance) ByID(ctx context.Context, id string) (model.AttendanceRecord, error) {
	return r.byID(ctx, "sqlstore.Attendance.ByID", id)
}

func (r *Attendance) byID(ctx context.Context, op, id string) (model.AttendanceRecord, error) {
	got, err := r.list(ctx, op, `SELECT `+attendanceColumns+` FROM attendance_records WHERE id = $1`, id)
	if err != nil {
		return model.AttendanceRecord{}, err
	}
	if len(got) == 0 {
		return model.AttendanceRecord{}, fmt.Errorf("%w: attendance record", apperr.ErrNotFound)
	}
	return got[0], nil
}

func (r *Attendance) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM attendance_records WHERE id = $1`, id)
	return affectedOne(res, err, "sqlstore.Attendance.Delete")
}

func (r *Attendance) list(ctx context.Context, op, query string, args ...any) ([]model.AttendanceRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.Store(op, err)
	}
	defer rows.Close()

	res := []model.AttendanceRecord{}
	for rows.Next() {
		var rec model.AttendanceRecord
		if err := rows.Scan(&rec.ID, &rec.User.Name, &rec.User.Email, &rec.Date, &rec.Time, &rec.CreatedAt); err != nil {
			return nil, apperr.Store(op, err)
		}
		rec.CreatedAt = rec.CreatedAt.UTC()
		res = append(res, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store(op, err)
	}
	return res, nil
}
