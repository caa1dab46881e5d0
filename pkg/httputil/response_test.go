package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/depcollect/pkg/observability"
)

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()

	err := WriteSuccess(w, map[string]string{"message": "success"})

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "success")
}

func TestWriteErrorMessage(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(observability.WithRequestID(r.Context(), "req-1"))
	w := httptest.NewRecorder()

	WriteErrorMessage(w, r, http.StatusNotFound, "descriptor not found", "g:a:1")

	assert.Equal(t, http.StatusNotFound, w.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, ErrorResponse{Error: "descriptor not found", RequestID: "req-1", Details: []string{"g:a:1"}}, body)
}

func TestWriteError(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	w := httptest.NewRecorder()
	WriteError(w, r, http.StatusConflict, errors.New("busy"))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "busy")

	w = httptest.NewRecorder()
	WriteBadRequest(w, r, "invalid input")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	WriteNotFound(w, r, "missing")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWriteInternalError(t *testing.T) {
	log, hook := test.NewNullLogger()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(observability.WithLogger(r.Context(), log))
	w := httptest.NewRecorder()

	WriteInternalError(w, r, errors.New("database password is hunter2"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "hunter2")
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "Request failed", hook.LastEntry().Message)
}
