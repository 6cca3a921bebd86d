// Package handlers maps HTTP requests to the content, account and scheduler services.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/pysugar/post-scheduler/internal/accounts"
	"github.com/pysugar/post-scheduler/internal/auth/oauth"
	"github.com/pysugar/post-scheduler/internal/logging"
	"github.com/pysugar/post-scheduler/internal/validation"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors to status codes: field errors are the
// client's fault, exchange failures are upstream, the rest is ours.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if fe, ok := validation.AsFieldError(err); ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fe.Error(), Field: fe.Field})
		return
	}
	switch {
	case errors.Is(err, oauth.ErrInvalidState):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Field: "state"})
	case errors.Is(err, accounts.ErrExchangeFailed):
		logging.Printf(r.Context(), "⚠️ %s %s: %v", r.Method, r.URL.Path, err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
	default:
		logging.Printf(r.Context(), "❌ %s %s: %v", r.Method, r.URL.Path, err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

// decodeJSON reads a JSON body into v and turns decoding problems into
// field errors naming the offending field where possible.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	err := dec.Decode(v)
	if err == nil {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, io.EOF):
		return validation.Errorf("body", "request body is required")
	case errors.As(err, &typeErr) && typeErr.Field != "":
		return validation.Errorf(typeErr.Field, "expected %s, got %s", typeErr.Type, typeErr.Value)
	case errors.As(err, &maxErr):
		return validation.Errorf("body", "request body exceeds %d bytes", maxErr.Limit)
	default:
		return validation.Errorf("body", "malformed JSON: %v", err)
	}
}
