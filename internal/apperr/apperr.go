package apperr

import (
	"errors"
	"net/http"
	"strings"
)

// Error kinds shared by every component. Callers wrap them with detail using
// fmt.Errorf("%w: ...") and match with errors.Is.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidFormat   = errors.New("invalid format")
	ErrInvalidInput    = errors.New("invalid input")
	ErrConflict        = errors.New("conflict")
	ErrNotFound        = errors.New("not found")
	ErrStoreFailure    = errors.New("store failure")
)

type storeError struct {
	op  string
	err error
}

func (e *storeError) Error() string { return e.op + ": " + e.err.Error() }

func (e *storeError) Unwrap() []error { return []error{ErrStoreFailure, e.err} }

// Store marks err as a persistence failure raised in op. The cause stays
// reachable through errors.Is/As for operator logs.
func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	return &storeError{op: op, err: err}
}

// HTTPStatus maps an error to the response code the API reports for it.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidFormat), errors.Is(err, ErrInvalidInput), errors.Is(err, ErrConflict):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the text safe to return to a caller. Store failures and
// unclassified errors collapse to a generic message; otherwise the leading
// "pkg.Func: " prefixes are dropped.
func PublicMessage(err error) string {
	if HTTPStatus(err) == http.StatusInternalServerError {
		return "internal error"
	}
	msg := err.Error()
	for {
		head, rest, ok := strings.Cut(msg, ": ")
		if !ok || !isOp(head) {
			return msg
		}
		msg = rest
	}
}

func isOp(s string) bool {
	return strings.Contains(s, ".") && !strings.ContainsAny(s, " \t\"'")
}
