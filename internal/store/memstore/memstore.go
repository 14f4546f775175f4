// Package memstore keeps users, attendance and leave in process memory.
// It backs tests and single-node dev runs.
package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"attendance-portal/internal/apperr"
	"attendance-portal/internal/model"
)

// Store is safe for concurrent use. Every check-and-write happens under one
// lock, so uniqueness holds under concurrent callers.
type Store struct {
	mu         sync.RWMutex
	users      []model.User
	attendance []model.AttendanceRecord
	leave      []model.LeaveRequest
}

// New returns an empty store.
func New() *Store {
	return &Store{}
}

// Users exposes the credential store view.
func (s *Store) Users() *Users { return &Users{s} }

// Attendance exposes the attendance repository view.
func (s *Store) Attendance() *Attendance { return &Attendance{s} }

// Leave exposes the leave repository view.
func (s *Store) Leave() *Leave { return &Leave{s} }

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }

// Users implements identity.Store.
type Users struct{ s *Store }

func (u *Users) Create(_ context.Context, user model.User) (model.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	for _, existing := range u.s.users {
		if existing.Email == user.Email {
			return model.User{}, fmt.Errorf("%w: email already registered", apperr.ErrConflict)
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	u.s.users = append(u.s.users, user)
	return user, nil
}

func (u *Users) ByEmail(_ context.Context, email string) (model.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()

	for _, user := range u.s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return model.User{}, fmt.Errorf("%w: user", apperr.ErrNotFound)
}

func (u *Users) ByID(_ context.Context, id string) (model.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()

	for _, user := range u.s.users {
		if user.ID == id {
			return user, nil
		}
	}
	return model.User{}, fmt.Errorf("%w: user", apperr.ErrNotFound)
}

func (u *Users) Update(_ context.Context, user model.User) (model.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	idx := -1
	for i, existing := range u.s.users {
		if existing.ID == user.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return model.User{}, fmt.Errorf("%w: user", apperr.ErrNotFound)
	}
	for i, existing := range u.s.users {
		if i != idx && existing.Email == user.Email {
			return model.User{}, fmt.Errorf("%w: email already registered", apperr.ErrConflict)
		}
	}
	user.CreatedAt = u.s.users[idx].CreatedAt
	u.s.users[idx] = user
	return user, nil
}

func (u *Users) List(context.Context) ([]model.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()

	out := make([]model.User, len(u.s.users))
	copy(out, u.s.users)
	return out, nil
}

// Attendance implements attendance.Repository.
type Attendance struct{ s *Store }

func (a *Attendance) Insert(_ context.Context, rec model.AttendanceRecord) (model.AttendanceRecord, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()

	for _, existing := range a.s.attendance {
		if existing.User.Email == rec.User.Email && existing.Date == rec.Date {
			return model.AttendanceRecord{}, fmt.Errorf("%w: attendance already marked for %s", apperr.ErrConflict, rec.Date)
		}
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	a.s.attendance = append(a.s.attendance, rec)
	return rec, nil
}

func (a *Attendance) ByID(_ context.Context, id string) (model.AttendanceRecord, error) {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()

	idx := a.s.attendanceIndex(id)
	if idx < 0 {
		return model.AttendanceRecord{}, fmt.Errorf("%w: attendance record", apperr.ErrNotFound)
	}
	return a.s.attendance[idx], nil
}

func (a *Attendance) ListByEmail(_ context.Context, email string) ([]model.AttendanceRecord, error) {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()

	out := []model.AttendanceRecord{}
	for _, rec := range a.s.attendance {
		if rec.User.Email == email {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (a *Attendance) ListAll(context.Context) ([]model.AttendanceRecord, error) {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()

	out := make([]model.AttendanceRecord, len(a.s.attendance))
	copy(out, a.s.attendance)
	return out, nil
}

func (a *Attendance) Update(_ context.Context, rec model.AttendanceRecord) (model.AttendanceRecord, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()

	idx := a.s.attendanceIndex(rec.ID)
	if idx < 0 {
		return model.AttendanceRecord{}, fmt.Errorf("%w: attendance record", apperr.ErrNotFound)
	}
	for i, existing := range a.s.attendance {
		if i != idx && existing.User.Email == rec.User.Email && existing.Date == rec.Date {
			return model.AttendanceRecord{}, fmt.Errorf("%w: attendance already marked for %s", apperr.ErrConflict, rec.Date)
		}
	}
	rec.CreatedAt = a.s.attendance[idx].CreatedAt
	a.s.attendance[idx] = rec
	return rec, nil
}

func (a *Attendance) Delete(_ context.Context, id string) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()

	idx := a.s.attendanceIndex(id)
	if idx < 0 {
		return fmt.Errorf("%w: attendance record", apperr.ErrNotFound)
	}
	a.s.attendance = append(a.s.attendance[:idx], a.s.attendance[idx+1:]...)
	return nil
}

// attendanceIndex must be called with mu held.
func (s *Store) attendanceIndex(id string) int {
	for i, rec := range s.attendance {
		if rec.ID == id {
			return i
		}
	}
	return -1
}

// Leave implements leave.Repository.
type Leave struct{ s *Store }

func (l *Leave) Insert(_ context.Context, req model.LeaveRequest) (model.LeaveRequest, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()

	for _, existing := range l.s.leave {
		if existing.User.Email == req.User.Email && existing.FromDate == req.FromDate {
			return model.LeaveRequest{}, fmt.Errorf("%w: leave already requested from %s", apperr.ErrConflict, req.FromDate)
		}
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	l.s.leave = append(l.s.leave, req)
	return req, nil
}

func (l *Leave) ListByEmail(_ context.Context, email string) ([]model.LeaveRequest, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()

	out := []model.LeaveRequest{}
	for _, req := range l.s.leave {
		if req.User.Email == email {
			out = append(out, cloneLeave(req))
		}
	}
	return out, nil
}

func (l *Leave) ListAll(context.Context) ([]model.LeaveRequest, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()

	out := make([]model.LeaveRequest, 0, len(l.s.leave))
	for _, req := range l.s.leave {
		out = append(out, cloneLeave(req))
	}
	return out, nil
}

func (l *Leave) SetStatus(_ context.Context, id string, status model.LeaveStatus, decidedAt time.Time, onlyPending bool) (model.LeaveRequest, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()

	for i := range l.s.leave {
		req := &l.s.leave[i]
		if req.ID != id {
			continue
		}
		if onlyPending && req.Status != model.LeavePending {
			return model.LeaveRequest{}, fmt.Errorf("%w: leave request already %s", apperr.ErrConflict, req.Status)
		}
		req.Status = status
		req.DecidedAt = &decidedAt
		return cloneLeave(*req), nil
	}
	return model.LeaveRequest{}, fmt.Errorf("%w: leave request", apperr.ErrNotFound)
}

func cloneLeave(req model.LeaveRequest) model.LeaveRequest {
	if req.DecidedAt != nil {
		at := *req.DecidedAt
		req.DecidedAt = &at
	}
	return req
}
