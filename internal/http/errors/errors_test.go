package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/somahq/soma/internal/domain/repository"
	"github.com/somahq/soma/internal/payout"
	"github.com/somahq/soma/internal/tenant"
)

func TestFromError_Taxonomy(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{tenant.ErrMissingEmail, http.StatusBadRequest, "BAD_REQUEST"},
		{fmt.Errorf("x: %w", tenant.ErrInvalidHost), http.StatusBadRequest, "BAD_REQUEST"},
		{fmt.Errorf("%w: amount", payout.ErrInvalidRequest), http.StatusBadRequest, "BAD_REQUEST"},
		{fmt.Errorf("store s1: %w", repository.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{repository.ErrTokenExpired, http.StatusUnauthorized, "TOKEN_EXPIRED"},
		{repository.ErrUnauthorized, http.StatusUnauthorized, "TOKEN_INVALID"},
		{fmt.Errorf("w is paid: %w", repository.ErrConflict), http.StatusConflict, "CONFLICT"},
		{fmt.Errorf("boom"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
		{ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
	}
	for _, tc := range cases {
		got := FromError(tc.err)
		assert.Equal(t, tc.status, got.HTTPStatus, tc.err.Error())
		assert.Equal(t, tc.code, got.Code, tc.err.Error())
	}
}

func TestWithDetailDoesNotMutateBase(t *testing.T) {
	e := ErrBadRequest.WithDetail("x")
	assert.Equal(t, "x", e.Detail)
	assert.Empty(t, ErrBadRequest.Detail)
}

func TestWriteError_HidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, ErrInternalServerError.WithDetail("pq: password authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "INTERNAL_SERVER_ERROR", body["code"])
	assert.NotContains(t, body, "detail")
}
