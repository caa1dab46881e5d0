// Package httputil provides HTTP handler utilities for consistent error handling,
// JSON encoding/decoding, and request parsing.
package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/platinummonkey/depcollect/pkg/observability"
)

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error     string   `json:"error"`
	RequestID string   `json:"request_id,omitempty"`
	Details   []string `json:"details,omitempty"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful response (200 OK) with JSON data
func WriteSuccess(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusOK, data)
}

// WriteErrorMessage writes a JSON error response tagged with the request id
func WriteErrorMessage(w http.ResponseWriter, r *http.Request, status int, message string, details ...string) {
	_ = WriteJSON(w, status, ErrorResponse{
		Error:     message,
		RequestID: observability.GetRequestID(r.Context()),
		Details:   details,
	})
}

// WriteError writes err as a JSON error response
func WriteError(w http.ResponseWriter, r *http.Request, status int, err error) {
	WriteErrorMessage(w, r, status, err.Error())
}

// WriteBadRequest writes a bad request error (400)
func WriteBadRequest(w http.ResponseWriter, r *http.Request, message string) {
	WriteErrorMessage(w, r, http.StatusBadRequest, message)
}

// WriteNotFound writes a not found error (404)
func WriteNotFound(w http.ResponseWriter, r *http.Request, message string) {
	WriteErrorMessage(w, r, http.StatusNotFound, message)
}

// WriteInternalError logs err and writes a 500 without leaking its text
func WriteInternalError(w http.ResponseWriter, r *http.Request, err error) {
	observability.FromContext(r.Context()).WithError(err).Error("Request failed")
	WriteErrorMessage(w, r, http.StatusInternalServerError, "internal server error")
}
