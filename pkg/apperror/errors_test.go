package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	e := New("VAL_001", "bad input", http.StatusBadRequest)
	assert.Equal(t, "[VAL_001] bad input", e.Error())

	wrapped := Wrap("CHN_001", "ethereum balance failed", http.StatusBadGateway, errors.New("connection refused"))
	assert.Contains(t, wrapped.Error(), "CHN_001")
	assert.Contains(t, wrapped.Error(), "connection refused")
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("rpc timeout")
	e := ErrUpstream("solana", "balance", cause)

	assert.ErrorIs(t, e, cause)

	var appErr *AppError
	require.True(t, errors.As(fmt.Errorf("outer: %w", e), &appErr))
	assert.Equal(t, "CHN_001", appErr.Code)
}

func TestErrorConstructors(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, ErrUnsupportedNetwork("dogecoin").HTTPStatus)
	assert.Contains(t, ErrUnsupportedNetwork("dogecoin").Message, "dogecoin")

	assert.Equal(t, http.StatusNotFound, ErrNotFound("payment request").HTTPStatus)
	assert.Equal(t, http.StatusConflict, ErrConflict("already completed").HTTPStatus)
	assert.Equal(t, http.StatusNotImplemented, ErrSendNotSupported("bitcoin").HTTPStatus)
	assert.Equal(t, http.StatusTooManyRequests, ErrRateLimitExceeded().HTTPStatus)
	assert.Equal(t, http.StatusUnauthorized, ErrInvalidToken().HTTPStatus)
}
