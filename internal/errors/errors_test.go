package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCode_HTTPStatus(t *testing.T) {
	tests := map[Code]int{
		CodeNotFound:            http.StatusNotFound,
		CodeAlreadyExists:       http.StatusConflict,
		CodeConflict:            http.StatusConflict,
		CodeUnauthorized:        http.StatusUnauthorized,
		CodeTokenExpired:        http.StatusUnauthorized,
		CodeForbidden:           http.StatusForbidden,
		CodeValidation:          http.StatusBadRequest,
		CodeLocationUnavailable: http.StatusUnprocessableEntity,
		CodeRateLimited:         http.StatusTooManyRequests,
		CodeWriteFailed:         http.StatusServiceUnavailable,
		CodeInternal:            http.StatusInternalServerError,
		Code("SOMETHING_ELSE"):  http.StatusInternalServerError,
	}
	for code, want := range tests {
		t.Run(string(code), func(t *testing.T) {
			assert.Equal(t, want, code.HTTPStatus())
		})
	}
}

func TestError_IsMatchesByCode(t *testing.T) {
	err := NotFoundf("post %s not found", "post-1")

	assert.True(t, Is(err, ErrNotFound))
	assert.False(t, Is(err, ErrValidation))
	assert.True(t, Is(fmt.Errorf("get post: %w", err), ErrNotFound))
}

func TestError_MessageAndCause(t *testing.T) {
	cause := fmt.Errorf("gps timeout")
	err := LocationUnavailable(cause)

	assert.Equal(t, "location unavailable: gps timeout", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusUnprocessableEntity, err.GetStatus())

	assert.Equal(t, "title required", Validation("title required").Error())
}

func TestError_WithDetailsCopies(t *testing.T) {
	base := Validation("invalid input")
	detailed := base.WithDetails(map[string]string{"body": "max"})

	assert.Nil(t, base.Details)
	assert.Equal(t, map[string]string{"body": "max"}, detailed.Details)
	assert.Equal(t, base.Code, detailed.Code)
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("txn conflict")
	err := Wrapf(cause, CodeWriteFailed, "commit %d ops", 3)

	assert.Equal(t, CodeWriteFailed, err.Code)
	assert.Equal(t, "commit 3 ops: txn conflict", err.Error())
	assert.Equal(t, cause, Unwrap(err))
	assert.True(t, Is(err, ErrWriteFailed))
}
