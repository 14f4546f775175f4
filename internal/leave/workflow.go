package leave

import (
	"context"
	"fmt"
	"strings"
	"time"

	"attendance-portal/internal/apperr"
	"attendance-portal/internal/attendance"
	"attendance-portal/internal/metrics"
	"attendance-portal/internal/model"
)

// Repository persists leave requests.
//
// Insert must be an atomic conditional insert keyed on (email, fromDate) and
// returns apperr.ErrConflict on a duplicate. SetStatus returns
// apperr.ErrNotFound for an unknown id; when onlyPending is set it updates
// only a Pending request and returns apperr.ErrConflict otherwise.
type Repository interface {
	Insert(ctx context.Context, req model.LeaveRequest) (model.LeaveRequest, error)
	ListByEmail(ctx context.Context, email string) ([]model.LeaveRequest, error)
	ListAll(ctx context.Context) ([]model.LeaveRequest, error)
	SetStatus(ctx context.Context, id string, status model.LeaveStatus, decidedAt time.Time, onlyPending bool) (model.LeaveRequest, error)
}

// Policy tunes the state machine.
type Policy struct {
	// AllowRedecide lets an admin overwrite a decision already taken.
	// When false a terminal request rejects further decisions with Conflict.
	AllowRedecide bool
}

// Workflow manages leave requests from submission to decision.
type Workflow struct {
	repo   Repository
	policy Policy
	now    func() time.Time
}

// NewWorkflow creates a workflow backed by a repository.
func NewWorkflow(repo Repository, policy Policy) *Workflow {
	return &Workflow{repo: repo, policy: policy, now: time.Now}
}

// Submit files a Pending request for the snapshot's user.
func (w *Workflow) Submit(ctx context.Context, user model.Snapshot, fromDate, toDate, reason string) (model.LeaveRequest, error) {
	const op = "leave.Submit"

	req, err := w.build(user, fromDate, toDate, reason)
	if err != nil {
		metrics.LeaveSubmissions.WithLabelValues(metrics.Result(err)).Inc()
		return model.LeaveRequest{}, fmt.Errorf("%s: %w", op, err)
	}

	saved, err := w.repo.Insert(ctx, req)
	metrics.LeaveSubmissions.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		return model.LeaveRequest{}, fmt.Errorf("%s: %w", op, err)
	}
	return saved, nil
}

// ListForUser returns every request whose snapshot email matches.
func (w *Workflow) ListForUser(ctx context.Context, email string) ([]model.LeaveRequest, error) {
	const op = "leave.ListForUser"

	email = model.NormalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("%s: %w: email required", op, apperr.ErrInvalidInput)
	}
	reqs, err := w.repo.ListByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return reqs, nil
}

// ListAll returns every request.
func (w *Workflow) ListAll(ctx context.Context) ([]model.LeaveRequest, error) {
	reqs, err := w.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("leave.ListAll: %w", err)
	}
	return reqs, nil
}

// Decide sets the status of request id to Accepted or Rejected.
func (w *Workflow) Decide(ctx context.Context, id string, status model.LeaveStatus) (model.LeaveRequest, error) {
	const op = "leave.Decide"

	if !status.Terminal() {
		return model.LeaveRequest{}, fmt.Errorf("%s: %w: status must be %s or %s",
			op, apperr.ErrInvalidInput, model.LeaveAccepted, model.LeaveRejected)
	}
	if id == "" {
		return model.LeaveRequest{}, fmt.Errorf("%s: %w: leave request", op, apperr.ErrNotFound)
	}

	req, err := w.repo.SetStatus(ctx, id, status, w.now().UTC(), !w.policy.AllowRedecide)
	if err != nil {
		return model.LeaveRequest{}, fmt.Errorf("%s: %w", op, err)
	}
	metrics.LeaveDecisions.WithLabelValues(string(status)).Inc()
	return req, nil
}

func (w *Workflow) build(user model.Snapshot, fromDate, toDate, reason string) (model.LeaveRequest, error) {
	if !user.Complete() {
		return model.LeaveRequest{}, fmt.Errorf("%w: user name and email required", apperr.ErrInvalidInput)
	}
	if !attendance.ValidDate(fromDate) {
		return model.LeaveRequest{}, fmt.Errorf("%w: fromDate %q must be YYYY-MM-DD", apperr.ErrInvalidFormat, fromDate)
	}
	if !attendance.ValidDate(toDate) {
		return model.LeaveRequest{}, fmt.Errorf("%w: toDate %q must be YYYY-MM-DD", apperr.ErrInvalidFormat, toDate)
	}
	// Same-width YYYY-MM-DD strings order chronologically.
	if toDate < fromDate {
		return model.LeaveRequest{}, fmt.Errorf("%w: toDate before fromDate", apperr.ErrInvalidInput)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return model.LeaveRequest{}, fmt.Errorf("%w: reason required", apperr.ErrInvalidInput)
	}
	return model.LeaveRequest{
		User:      user.Normalized(),
		FromDate:  fromDate,
		ToDate:    toDate,
		Reason:    reason,
		Status:    model.LeavePending,
		CreatedAt: w.now().UTC(),
	}, nil
}
