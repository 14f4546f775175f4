package attendance

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"attendance-portal/internal/apperr"
	"attendance-portal/internal/metrics"
	"attendance-portal/internal/model"
)

var (
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timePattern = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

// ValidDate reports whether s has the YYYY-MM-DD shape. Ranges are not checked.
func ValidDate(s string) bool { return datePattern.MatchString(s) }

// ValidTime reports whether s has the HH:MM shape. Ranges are not checked.
func ValidTime(s string) bool { return timePattern.MatchString(s) }

// Ledger records one attendance mark per user per calendar day.
type Ledger struct {
	repo Repository
	now  func() time.Time
}

// NewLedger creates a ledger backed by a repository.
func NewLedger(repo Repository) *Ledger {
	return &Ledger{repo: repo, now: time.Now}
}

// Mark records attendance for the snapshot's user on date at hhmm.
func (l *Ledger) Mark(ctx context.Context, user model.Snapshot, date, hhmm string) (model.AttendanceRecord, error) {
	const op = "attendance.Mark"

	rec, err := l.build(user, date, hhmm)
	if err != nil {
		metrics.AttendanceMarks.WithLabelValues(metrics.Result(err)).Inc()
		return model.AttendanceRecord{}, fmt.Errorf("%s: %w", op, err)
	}
	rec.CreatedAt = l.now().UTC()

	saved, err := l.repo.Insert(ctx, rec)
	metrics.AttendanceMarks.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		return model.AttendanceRecord{}, fmt.Errorf("%s: %w", op, err)
	}
	return saved, nil
}

// MarkedOn reports whether email already has a record for date.
func (l *Ledger) MarkedOn(ctx context.Context, email, date string) (bool, error) {
	const op = "attendance.MarkedOn"

	if !ValidDate(date) {
		return false, fmt.Errorf("%s: %w: date %q must be YYYY-MM-DD", op, apperr.ErrInvalidFormat, date)
	}
	records, err := l.ListForUser(ctx, email)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	for _, r := range records {
		if r.Date == date {
			return true, nil
		}
	}
	return false, nil
}

// ListForUser returns every record whose snapshot email matches.
func (l *Ledger) ListForUser(ctx context.Context, email string) ([]model.AttendanceRecord, error) {
	const op = "attendance.ListForUser"

	email = model.NormalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("%s: %w: email required", op, apperr.ErrInvalidInput)
	}
	records, err := l.repo.ListByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return records, nil
}

// ListAll returns every record.
func (l *Ledger) ListAll(ctx context.Context) ([]model.AttendanceRecord, error) {
	records, err := l.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("attendance.ListAll: %w", err)
	}
	return records, nil
}

// Update overwrites date, time and user snapshot of record id.
func (l *Ledger) Update(ctx context.Context, id string, user model.Snapshot, date, hhmm string) (model.AttendanceRecord, error) {
	const op = "attendance.Update"

	if id == "" {
		return model.AttendanceRecord{}, fmt.Errorf("%s: %w: attendance record", op, apperr.ErrNotFound)
	}
	// An unknown id is reported before anything about the payload.
	if _, err := l.repo.ByID(ctx, id); err != nil {
		return model.AttendanceRecord{}, fmt.Errorf("%s: %w", op, err)
	}
	rec, err := l.build(user, date, hhmm)
	if err != nil {
		return model.AttendanceRecord{}, fmt.Errorf("%s: %w", op, err)
	}
	rec.ID = id

	saved, err := l.repo.Update(ctx, rec)
	if err != nil {
		return model.AttendanceRecord{}, fmt.Errorf("%s: %w", op, err)
	}
	return saved, nil
}

// Delete removes record id.
func (l *Ledger) Delete(ctx context.Context, id string) error {
	if err := l.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("attendance.Delete: %w", err)
	}
	return nil
}

func (l *Ledger) build(user model.Snapshot, date, hhmm string) (model.AttendanceRecord, error) {
	if !user.Complete() {
		return model.AttendanceRecord{}, fmt.Errorf("%w: user name and email required", apperr.ErrInvalidInput)
	}
	if !ValidDate(date) {
		return model.AttendanceRecord{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", apperr.ErrInvalidFormat, date)
	}
	if !ValidTime(hhmm) {
		return model.AttendanceRecord{}, fmt.Errorf("%w: time %q must be HH:MM", apperr.ErrInvalidFormat, hhmm)
	}
	return model.AttendanceRecord{User: user.Normalized(), Date: date, Time: hhmm}, nil
}
