package attendance

import (
	"context"

	"attendance-portal/internal/model"
)

// Repository persists attendance records.
//
// Insert must be an atomic conditional insert: when a record for the same
// (email, date) already exists it returns apperr.ErrConflict and writes
// nothing. ByID returns apperr.ErrNotFound for an unknown id. Update returns apperr.ErrNotFound for an unknown id and
// apperr.ErrConflict when the new (email, date) belongs to another record.
type Repository interface {
	Insert(ctx context.Context, rec model.AttendanceRecord) (model.AttendanceRecord, error)
	ByID(ctx context.Context, id string) (model.AttendanceRecord, error)
	ListByEmail(ctx context.Context, email string) ([]model.AttendanceRecord, error)
	ListAll(ctx context.Context) ([]model.AttendanceRecord, error)
	Update(ctx context.Context, rec model.AttendanceRecord) (model.AttendanceRecord, error)
	Delete(ctx context.Context, id string) error
}
