package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: missing header", ErrUnauthenticated), http.StatusUnauthorized},
		{fmt.Errorf("%w: admin only", ErrForbidden), http.StatusForbidden},
		{fmt.Errorf("%w: record 1", ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: date", ErrInvalidFormat), http.StatusBadRequest},
		{fmt.Errorf("%w: user", ErrInvalidInput), http.StatusBadRequest},
		{fmt.Errorf("%w: duplicate", ErrConflict), http.StatusBadRequest},
		{Store("sqlstore.Insert", errors.New("connection refused")), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(tc.err), tc.err.Error())
	}
}

func TestStoreKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Store("sqlstore.ListAll", cause)

	assert.ErrorIs(t, err, ErrStoreFailure)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "sqlstore.ListAll: connection refused", err.Error())
	assert.Equal(t, "internal error", PublicMessage(err))
	assert.Nil(t, Store("op", nil))
}

func TestPublicMessageDropsOps(t *testing.T) {
	err := fmt.Errorf("identity.Login: %w", fmt.Errorf("%w: invalid credentials", ErrUnauthenticated))
	assert.Equal(t, "unauthenticated: invalid credentials", PublicMessage(err))

	err = fmt.Errorf("attendance.Mark: %w", fmt.Errorf("%w: date \"2024.05\" must be YYYY-MM-DD", ErrInvalidFormat))
	assert.Equal(t, `invalid format: date "2024.05" must be YYYY-MM-DD`, PublicMessage(err))
}
