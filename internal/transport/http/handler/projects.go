package handler

import (
	"encoding/json"
	"net/http"

	"github.com/capstone-api/internal/application/project"
	"github.com/capstone-api/internal/domain"
	"github.com/capstone-api/internal/pkg/validate"
	"github.com/capstone-api/internal/transport/http/middleware"
)

// ProjectHandler serves project routes. Every route sits behind a
// ProjectGuard, which has already loaded the project.
type ProjectHandler struct {
	svc project.Service
}

func NewProjectHandler(svc project.Service) *ProjectHandler { return &ProjectHandler{svc: svc} }

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.ProjectFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "project not resolved")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.ProjectFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "project not resolved")
		return
	}
	var req domain.UpdateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	updated, err := h.svc.Update(r.Context(), p.ProjectID, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.ProjectFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "project not resolved")
		return
	}
	if err := h.svc.Delete(r.Context(), p.ProjectID); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "project deleted"})
}

func (h *ProjectHandler) Team(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.ProjectFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "project not resolved")
		return
	}
	team, err := h.svc.Team(r.Context(), p.ProjectID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, team)
}

func (h *ProjectHandler) Feedback(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.ProjectFromContext(r.Context())
	claims, hasClaims := middleware.ClaimsFromContext(r.Context())
	if !ok || !hasClaims {
		writeError(w, http.StatusInternalServerError, "project not resolved")
		return
	}
	var req domain.FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	n, err := h.svc.SendFeedback(r.Context(), p, claims.UserID, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, CountEnvelope{Message: "feedback sent", Count: n})
}
