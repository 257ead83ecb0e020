package handler

import (
	"net/http"

	"github.com/capstone-api/internal/application/deadline"
)

// DeadlineHandler exposes manual triggers for the deadline scans.
type DeadlineHandler struct {
	svc deadline.Service
}

func NewDeadlineHandler(svc deadline.Service) *DeadlineHandler {
	return &DeadlineHandler{svc: svc}
}

func (h *DeadlineHandler) Check(w http.ResponseWriter, r *http.Request) {
	res := h.svc.ScanApproachingAndPassed(r.Context())
	if !res.Success {
		writeJSON(w, http.StatusInternalServerError, ScanFailureEnvelope{
			Message: "deadline check failed",
			Error:   errString(res.Err),
		})
		return
	}
	writeJSON(w, http.StatusOK, DeadlineScanEnvelope{
		Message:          "deadline check completed",
		Success:          true,
		ApproachingCount: res.ApproachingCount,
		PassedCount:      res.PassedCount,
		TotalChecked:     res.TotalChecked,
	})
}

func (h *DeadlineHandler) CheckPassed(w http.ResponseWriter, r *http.Request) {
	res := h.svc.ScanPassedOnly(r.Context())
	if !res.Success {
		writeJSON(w, http.StatusInternalServerError, ScanFailureEnvelope{
			Message: "passed deadline check failed",
			Error:   errString(res.Err),
		})
		return
	}
	writeJSON(w, http.StatusOK, PassedScanEnvelope{
		Message:       "passed deadline check completed",
		Success:       true,
		NotifiedCount: res.NotifiedCount,
		TotalChecked:  res.TotalChecked,
	})
}

func errString(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
