package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"attendance-portal/internal/apperr"
	"attendance-portal/internal/model"
)

const leaveColumns = `id, user_name, user_email, from_date, to_date, reason, status, created_at, decided_at`

// Leave implements leave.Repository.
type Leave struct {
	db *sql.DB
}

func (r *Leave) Insert(ctx context.Context, req model.LeaveRequest) (model.LeaveRequest, error) {
	const op = "sqlstore.Leave.Insert"

	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	var id string
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO leave_requests (id, user_name, user_email, from_date, to_date, reason, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_email, from_date) DO NOTHING
		RETURNING id
	`, req.ID, req.User.Name, req.User.Email, req.FromDate, req.ToDate, req.Reason, string(req.Status), req.CreatedAt).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.LeaveRequest{}, fmt.Errorf("%w: leave already requested from %s", apperr.ErrConflict, req.FromDate)
	}
	if err != nil {
		return model.LeaveRequest{}, apperr.Store(op, err)
	}
	return req, nil
}

func (r *Leave) ListByEmail(ctx context.Context, email string) ([]model.LeaveRequest, error) {
	return r.list(ctx, "sqlstore.Leave.ListByEmail",
		`SELECT `+leaveColumns+` FROM leave_requests WHERE user_email = $1 ORDER BY created_at, id`, email)
}

func (r *Leave) ListAll(ctx context.Context) ([]model.LeaveRequest, error) {
	return r.list(ctx, "sqlstore.Leave.ListAll",
		`SELECT `+leaveColumns+` FROM leave_requests ORDER BY created_at, id`)
}

func (r *Leave) SetStatus(ctx context.Context, id string, status model.LeaveStatus, decidedAt time.Time, onlyPending bool) (model.LeaveRequest, error) {
	const op = "sqlstore.Leave.SetStatus"

	query := `UPDATE leave_requests SET status = $1, decided_at = $2 WHERE id = $3`
	args := []any{string(status), decidedAt, id}
	if onlyPending {
		query += ` AND status = $4`
		args = append(args, string(model.LeavePending))
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return model.LeaveRequest{}, apperr.Store(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.LeaveRequest{}, apperr.Store(op, err)
	}
	if n == 0 {
		return model.LeaveRequest{}, r.missOrDecided(ctx, id)
	}

	req, err := scanLeave(r.db.QueryRowContext(ctx, `SELECT `+leaveColumns+` FROM leave_requests WHERE id = $1`, id))
	if err != nil {
		return model.LeaveRequest{}, apperr.Store(op, err)
	}
	return req, nil
}

// missOrDecided explains an UPDATE that touched no row.
func (r *Leave) missOrDecided(ctx context.Context, id string) error {
	var current string
	err := r.db.QueryRowContext(ctx, `SELECT status FROM leave_requests WHERE id = $1`, id).Scan(&current)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%w: leave request", apperr.ErrNotFound)
	case err != nil:
		return apperr.Store("sqlstore.Leave.SetStatus", err)
	default:
		return fmt.Errorf("%w: leave request already %s", apperr.ErrConflict, current)
	}
}

func (r *Leave) list(ctx context.Context, op, query string, args ...any) ([]model.LeaveRequest, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.Store(op, err)
	}
	defer rows.Close()

	res := []model.LeaveRequest{}
	for rows.Next() {
		req, err := scanLeave(rows)
		if err != nil {
			return nil, apperr.Store(op, err)
		}
		res = append(res, req)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store(op, err)
	}
	return res, nil
}

func scanLeave(s scanner) (model.LeaveRequest, error) {
	var (
		req     model.LeaveRequest
		status  string
		decided sql.NullTime
	)
	if err := s.Scan(&req.ID, &req.User.Name, &req.User.Email, &req.FromDate, &req.ToDate,
		&req.Reason, &status, &req.CreatedAt, &decided); err != nil {
		return model.LeaveRequest{}, err
	}
	req.Status = model.LeaveStatus(status)
	req.CreatedAt = req.CreatedAt.UTC()
	if decided.Valid {
		at := decided.Time.UTC()
		req.DecidedAt = &at
	}
	return req, nil
}
