package leave

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attendance-portal/internal/apperr"
	"attendance-portal/internal/model"
	"attendance-portal/internal/store/memstore"
)

var bob = model.Snapshot{Name: "Bob", Email: "bob@example.com"}

func newTestWorkflow(p Policy) *Workflow {
	return NewWorkflow(memstore.New().Leave(), p)
}

func TestSubmitStartsPending(t *testing.T) {
	ctx := context.Background()
	w := newTestWorkflow(Policy{AllowRedecide: true})

	req, err := w.Submit(ctx, bob, "2024-06-10", "2024-06-12", " family trip ")
	require.NoError(t, err)
	assert.NotEmpty(t, req.ID)
	assert.Equal(t, model.LeavePending, req.Status)
	assert.Equal(t, "family trip", req.Reason)
	assert.Nil(t, req.DecidedAt)

	mine, err := w.ListForUser(ctx, "BOB@example.com")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, req.ID, mine[0].ID)
}

func TestSubmitSameStartConflicts(t *testing.T) {
	ctx := context.Background()
	w := newTestWorkflow(Policy{AllowRedecide: true})

	_, err := w.Submit(ctx, bob, "2024-06-10", "2024-06-12", "trip")
	require.NoError(t, err)

	_, err = w.Submit(ctx, bob, "2024-06-10", "2024-06-11", "another")
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = w.Submit(ctx, bob, "2024-06-11", "2024-06-11", "another")
	assert.NoError(t, err)

	other := model.Snapshot{Name: "Carol", Email: "carol@example.com"}
	_, err = w.Submit(ctx, other, "2024-06-10", "2024-06-12", "trip")
	assert.NoError(t, err)

	all, err := w.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSubmitValidation(t *testing.T) {
	cases := []struct {
		name     string
		user     model.Snapshot
		from, to string
		reason   string
		want     error
	}{
		{"bad from", bob, "10-06-2024", "2024-06-12", "r", apperr.ErrInvalidFormat},
		{"bad to", bob, "2024-06-10", "June 12", "r", apperr.ErrInvalidFormat},
		{"to before from", bob, "2024-06-10", "2024-06-09", "r", apperr.ErrInvalidInput},
		{"blank reason", bob, "2024-06-10", "2024-06-10", "  ", apperr.ErrInvalidInput},
		{"incomplete user", model.Snapshot{Email: "bob@example.com"}, "2024-06-10", "2024-06-10", "r", apperr.ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := newTestWorkflow(Policy{}).Submit(context.Background(), tc.user, tc.from, tc.to, tc.reason)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestDecideLastDecisionWins(t *testing.T) {
	ctx := context.Background()
	w := newTestWorkflow(Policy{AllowRedecide: true})

	req, err := w.Submit(ctx, bob, "2024-06-10", "2024-06-12", "trip")
	require.NoError(t, err)

	accepted, err := w.Decide(ctx, req.ID, model.LeaveAccepted)
	require.NoError(t, err)
	assert.Equal(t, model.LeaveAccepted, accepted.Status)
	require.NotNil(t, accepted.DecidedAt)

	rejected, err := w.Decide(ctx, req.ID, model.LeaveRejected)
	require.NoError(t, err)
	assert.Equal(t, model.LeaveRejected, rejected.Status)

	mine, err := w.ListForUser(ctx, bob.Email)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, model.LeaveRejected, mine[0].Status)
}

func TestDecideStrictPolicy(t *testing.T) {
	ctx := context.Background()
	w := newTestWorkflow(Policy{AllowRedecide: false})

	req, err := w.Submit(ctx, bob, "2024-06-10", "2024-06-12", "trip")
	require.NoError(t, err)

	_, err = w.Decide(ctx, req.ID, model.LeaveAccepted)
	require.NoError(t, err)

	_, err = w.Decide(ctx, req.ID, model.LeaveRejected)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	mine, err := w.ListForUser(ctx, bob.Email)
	require.NoError(t, err)
	assert.Equal(t, model.LeaveAccepted, mine[0].Status)
}

func TestDecideErrors(t *testing.T) {
	ctx := context.Background()
	w := newTestWorkflow(Policy{AllowRedecide: true})

	req, err := w.Submit(ctx, bob, "2024-06-10", "2024-06-12", "trip")
	require.NoError(t, err)

	_, err = w.Decide(ctx, req.ID, model.LeavePending)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = w.Decide(ctx, req.ID, model.LeaveStatus("Maybe"))
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = w.Decide(ctx, "nope", model.LeaveAccepted)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = w.Decide(ctx, "", model.LeaveAccepted)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
