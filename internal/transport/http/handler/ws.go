package handler

import (
	"net/http"

	"github.com/capstone-api/internal/application/notification"
	"github.com/capstone-api/internal/transport/http/middleware"
	"go.uber.org/zap"
)

type socketServer interface {
	Serve(w http.ResponseWriter, r *http.Request, rooms []string) error
}

// WSHandler upgrades authenticated clients onto the realtime hub.
type WSHandler struct {
	hub socketServer
	log *zap.Logger
}

func NewWSHandler(hub socketServer, log *zap.Logger) *WSHandler {
	return &WSHandler{hub: hub, log: log}
}

func (h *WSHandler) Connect(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	// The upgrader has already written an HTTP error when Serve fails.
	if err := h.hub.Serve(w, r, notification.Rooms(claims.UserID)); err != nil {
		h.log.Debug("websocket rejected", zap.String("user_id", claims.UserID), zap.Error(err))
	}
}
