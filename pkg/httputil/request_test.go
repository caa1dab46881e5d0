package httputil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "valid", body: `{"name":"app"}`},
		{name: "malformed", body: `{"name":`, wantErr: true},
		{name: "unknown field", body: `{"name":"app","extra":1}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			var p payload

			ok := ParseJSONOrError(w, r, &p)
			assert.Equal(t, !tt.wantErr, ok)
			if tt.wantErr {
				assert.Equal(t, http.StatusBadRequest, w.Code)
				assert.Contains(t, w.Body.String(), "invalid JSON")
			} else {
				assert.Equal(t, "app", p.Name)
			}
		})
	}
}

func TestParsePathStringOrError(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	_, ok := ParsePathStringOrError(w, r, "coords")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	r = mux.SetURLVars(r, map[string]string{"coords": "g:a:1"})
	w = httptest.NewRecorder()
	got, ok := ParsePathStringOrError(w, r, "coords")
	require.True(t, ok)
	assert.Equal(t, "g:a:1", got)
}

func TestParseQuery(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?format=tree&verbose=true&depth=3&bad=maybe", nil)

	assert.Equal(t, "tree", ParseQueryString(r, "format", "json"))
	assert.Equal(t, "json", ParseQueryString(r, "missing", "json"))

	b, err := ParseQueryBool(r, "verbose", false)
	require.NoError(t, err)
	assert.True(t, b)
	_, err = ParseQueryBool(r, "bad", false)
	assert.Error(t, err)

	n, err := ParseQueryInt(r, "depth", 0)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	_, err = ParseQueryInt(r, "bad", 0)
	assert.Error(t, err)
}

func TestValidateAll(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", nil)

	w := httptest.NewRecorder()
	assert.True(t, ValidateAll(w, r, RequireNonEmpty("x", "root")))

	w = httptest.NewRecorder()
	assert.False(t, ValidateAll(w, r, RequireNonEmpty("x", "root"), RequireNonEmpty("", "format")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "format is required")
}
