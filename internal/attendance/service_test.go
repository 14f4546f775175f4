package attendance

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attendance-portal/internal/apperr"
	"attendance-portal/internal/model"
	"attendance-portal/internal/store/memstore"
)

var alice = model.Snapshot{Name: "Alice", Email: "alice@example.com"}

func newTestLedger() *Ledger {
	return NewLedger(memstore.New().Attendance())
}

func TestMarkThenList(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger()

	rec, err := l.Mark(ctx, alice, "2024-05-01", "09:00")
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.False(t, rec.CreatedAt.IsZero())

	got, err := l.ListForUser(ctx, "Alice@Example.com ")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2024-05-01", got[0].Date)
	assert.Equal(t, "09:00", got[0].Time)
	assert.Equal(t, alice, got[0].User)
}

func TestMarkTwiceSameDayConflicts(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger()

	_, err := l.Mark(ctx, alice, "2024-05-01", "09:00")
	require.NoError(t, err)

	_, err = l.Mark(ctx, model.Snapshot{Name: "Alice", Email: "ALICE@example.com"}, "2024-05-01", "17:30")
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = l.Mark(ctx, alice, "2024-05-02", "09:00")
	assert.NoError(t, err)

	all, err := l.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestConcurrentMarksKeepOnePerDay(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger()

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.Mark(ctx, alice, "2024-05-01", "09:00"); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	got, err := l.ListForUser(ctx, alice.Email)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestMarkValidation(t *testing.T) {
	cases := []struct {
		name string
		user model.Snapshot
		date string
		time string
		want error
	}{
		{"slashed date", alice, "2024/05/01", "09:00", apperr.ErrInvalidFormat},
		{"short date", alice, "24-05-01", "09:00", apperr.ErrInvalidFormat},
		{"date with suffix", alice, "2024-05-01x", "09:00", apperr.ErrInvalidFormat},
		{"seconds in time", alice, "2024-05-01", "09:00:00", apperr.ErrInvalidFormat},
		{"single digit hour", alice, "2024-05-01", "9:00", apperr.ErrInvalidFormat},
		{"no email", model.Snapshot{Name: "Alice"}, "2024-05-01", "09:00", apperr.ErrInvalidInput},
		{"no name", model.Snapshot{Email: "alice@example.com"}, "2024-05-01", "09:00", apperr.ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l := newTestLedger()
			_, err := l.Mark(context.Background(), tc.user, tc.date, tc.time)
			assert.ErrorIs(t, err, tc.want)

			all, err := l.ListAll(context.Background())
			require.NoError(t, err)
			assert.Empty(t, all)
		})
	}
}

func TestMarkedOn(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger()

	marked, err := l.MarkedOn(ctx, alice.Email, "2024-05-01")
	require.NoError(t, err)
	assert.False(t, marked)

	_, err = l.Mark(ctx, alice, "2024-05-01", "09:00")
	require.NoError(t, err)

	marked, err = l.MarkedOn(ctx, alice.Email, "2024-05-01")
	require.NoError(t, err)
	assert.True(t, marked)

	_, err = l.MarkedOn(ctx, alice.Email, "today")
	assert.ErrorIs(t, err, apperr.ErrInvalidFormat)
}

func TestListForUserRequiresEmail(t *testing.T) {
	_, err := newTestLedger().ListForUser(context.Background(), "  ")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger()

	first, err := l.Mark(ctx, alice, "2024-05-01", "09:00")
	require.NoError(t, err)
	second, err := l.Mark(ctx, alice, "2024-05-02", "09:00")
	require.NoError(t, err)

	updated, err := l.Update(ctx, first.ID, alice, "2024-05-01", "08:45")
	require.NoError(t, err)
	assert.Equal(t, "08:45", updated.Time)
	assert.Equal(t, first.CreatedAt, updated.CreatedAt)

	_, err = l.Update(ctx, second.ID, alice, "2024-05-01", "10:00")
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = l.Update(ctx, "missing", alice, "2024-05-03", "10:00")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = l.Update(ctx, "", alice, "2024-05-03", "10:00")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	// The id is resolved before the payload is checked.
	_, err = l.Update(ctx, "missing", alice, "2024-05-01", "10:00")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = l.Update(ctx, "missing", model.Snapshot{Name: "Alice"}, "05/01/2024", "10:00")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = l.Update(ctx, first.ID, model.Snapshot{Name: "Alice"}, "2024-05-01", "10:00")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	require.NoError(t, l.Delete(ctx, first.ID))
	assert.ErrorIs(t, l.Delete(ctx, first.ID), apperr.ErrNotFound)

	got, err := l.ListForUser(ctx, alice.Email)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, second.ID, got[0].ID)
}
