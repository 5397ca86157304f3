package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"media-resolver/internal/assets"
)

// writeJSON encodes v as JSON and writes it to the response writer.
// Encoding or write errors are logged since the status is already sent.
func writeJSON(w http.ResponseWriter, v any) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to encode JSON response: %v", err)
	}
}

func writeJSONStatus(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeJSON(w, v)
}

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Error  string             `json:"error"`
	Reason assets.FetchReason `json:"reason,omitempty"`
}

func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	writeJSONStatus(w, statusCode, ErrorResponse{Error: message})
}

// writeProcessError maps a pipeline error onto an HTTP status.
func writeProcessError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	resp := ErrorResponse{Error: err.Error()}
	var fe *assets.FetchError
	if errors.As(err, &fe) {
		resp.Reason = fe.Reason
	}
	if status >= http.StatusInternalServerError {
		log.Error("request failed: %v", err)
	} else {
		log.Debug("request failed: %v", err)
	}
	writeJSONStatus(w, status, resp)
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, assets.ErrNotFound), assets.IsFetchReason(err, assets.FetchNotFound):
		return http.StatusNotFound
	case errors.Is(err, assets.ErrPermission), assets.IsFetchReason(err, assets.FetchPermission):
		return http.StatusForbidden
	case assets.IsFetchReason(err, assets.FetchCancelled), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	case assets.IsFetchReason(err, assets.FetchNetwork):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
