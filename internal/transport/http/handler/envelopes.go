package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/capstone-api/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// DeadlineScanEnvelope is the combined scan response.
type DeadlineScanEnvelope struct {
	Message          string `json:"message"`
	Success          bool   `json:"success"`
	ApproachingCount int    `json:"approaching_count"`
	PassedCount      int    `json:"passed_count"`
	TotalChecked     int    `json:"total_checked"`
}

// PassedScanEnvelope is the passed-only scan response.
type PassedScanEnvelope struct {
	Message       string `json:"message"`
	Success       bool   `json:"success"`
	NotifiedCount int    `json:"notified_count"`
	TotalChecked  int    `json:"total_checked"`
}

// ScanFailureEnvelope is returned with 500 when a scan could not load its candidates.
type ScanFailureEnvelope struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// NotificationListEnvelope wraps inbox listings.
type NotificationListEnvelope struct {
	Data  []domain.Notification `json:"data"`
	Count int                   `json:"count"`
}

// CountEnvelope wraps counters such as unread or affected items.
type CountEnvelope struct {
	Message string `json:"message,omitempty"`
	Count   int    `json:"count"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// httpError maps domain sentinel errors onto HTTP status codes. Anything
// unrecognised is a 500 with a generic message.
func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
