package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/idgateway/internal/model"
)

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{model.ErrEmailRequired, http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", model.ErrProviderNotFound), http.StatusNotFound},
		{model.ErrUserNotFound, http.StatusNotFound},
		{NewInvalidRequestError("bad"), http.StatusBadRequest},
		{NewNotFoundError(), http.StatusNotFound},
		{errors.New("connection refused"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.status, Status(tc.err), tc.err.Error())
	}
}

func TestWriteErrorBody(t *testing.T) {
	rr := httptest.NewRecorder()

	WriteError(rr, model.ErrEmailRequired)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var body APIError
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, CodeEmailRequired, body.Code)
	assert.Equal(t, "Email is required", body.Message)
}

func TestWriteErrorHidesInternalDetail(t *testing.T) {
	rr := httptest.NewRecorder()

	WriteError(rr, errors.New("mongo: server selection timeout at 10.0.0.3"))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "10.0.0.3")
	assert.Contains(t, rr.Body.String(), "Internal server error")
}
