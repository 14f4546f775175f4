package sqlstore

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attendance-portal/internal/apperr"
	"attendance-portal/internal/model"
)

func newSQLiteStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		t.Skipf("sqlite unavailable: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	s := New(db, SQLite)
	require.NoError(t, s.Migrate(context.Background()))
	// Idempotent.
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

var ivy = model.Snapshot{Name: "Ivy", Email: "ivy@example.com"}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	users := newSQLiteStore(t).Users()
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	u, err := users.Create(ctx, model.User{
		Name: "Ivy", Email: "ivy@example.com", PasswordHash: "h", Role: model.RoleAdmin,
		CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	require.NotEmpty(t, u.ID)

	_, err = users.Create(ctx, model.User{Name: "Other", Email: "ivy@example.com", PasswordHash: "h", Role: model.RoleStandard, CreatedAt: now, UpdatedAt: now})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	got, err := users.ByEmail(ctx, "ivy@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, model.RoleAdmin, got.Role)
	assert.True(t, now.Equal(got.CreatedAt))

	_, err = users.ByID(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	other, err := users.Create(ctx, model.User{Name: "Jon", Email: "jon@example.com", PasswordHash: "h", Role: model.RoleStandard, CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)

	other.Email = "ivy@example.com"
	_, err = users.Update(ctx, other)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	other.Email = "jon@example.com"
	other.ProfilePicture = "pics/jon.png"
	updated, err := users.Update(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, "pics/jon.png", updated.ProfilePicture)

	_, err = users.Update(ctx, model.User{ID: "missing", Email: "x@example.com"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	all, err := users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestAttendance(t *testing.T) {
	ctx := context.Background()
	repo := newSQLiteStore(t).Attendance()
	now := time.Now().UTC()

	rec, err := repo.Insert(ctx, model.AttendanceRecord{User: ivy, Date: "2024-03-01", Time: "09:00", CreatedAt: now})
	require.NoError(t, err)

	_, err = repo.Insert(ctx, model.AttendanceRecord{User: ivy, Date: "2024-03-01", Time: "10:00", CreatedAt: now})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	second, err := repo.Insert(ctx, model.AttendanceRecord{User: ivy, Date: "2024-03-02", Time: "09:05", CreatedAt: now.Add(time.Second)})
	require.NoError(t, err)

	mine, err := repo.ListByEmail(ctx, ivy.Email)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, rec.ID, mine[0].ID)

	rec.Time = "08:30"
	updated, err := repo.Update(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, "08:30", updated.Time)

	second.Date = "2024-03-01"
	_, err = repo.Update(ctx, second)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = repo.Update(ctx, model.AttendanceRecord{ID: "missing", User: ivy, Date: "2024-03-09", Time: "09:00"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	got, err := repo.ByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	_, err = repo.ByID(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, rec.ID))
	assert.ErrorIs(t, repo.Delete(ctx, rec.ID), apperr.ErrNotFound)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestLeave(t *testing.T) {
	ctx := context.Background()
	repo := newSQLiteStore(t).Leave()
	now := time.Now().UTC()

	req, err := repo.Insert(ctx, model.LeaveRequest{
		User: ivy, FromDate: "2024-04-01", ToDate: "2024-04-03", Reason: "trip",
		Status: model.LeavePending, CreatedAt: now,
	})
	require.NoError(t, err)

	_, err = repo.Insert(ctx, model.LeaveRequest{
		User: ivy, FromDate: "2024-04-01", ToDate: "2024-04-02", Reason: "again",
		Status: model.LeavePending, CreatedAt: now,
	})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	decided, err := repo.SetStatus(ctx, req.ID, model.LeaveAccepted, now, true)
	require.NoError(t, err)
	assert.Equal(t, model.LeaveAccepted, decided.Status)
	require.NotNil(t, decided.DecidedAt)

	_, err = repo.SetStatus(ctx, req.ID, model.LeaveRejected, now, true)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	decided, err = repo.SetStatus(ctx, req.ID, model.LeaveRejected, now, false)
	require.NoError(t, err)
	assert.Equal(t, model.LeaveRejected, decided.Status)

	_, err = repo.SetStatus(ctx, "missing", model.LeaveAccepted, now, false)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	mine, err := repo.ListByEmail(ctx, ivy.Email)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, model.LeaveRejected, mine[0].Status)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
