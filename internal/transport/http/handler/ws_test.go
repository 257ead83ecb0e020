package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/capstone-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeSocketServer struct {
	rooms []string
	err   error
}

func (f *fakeSocketServer) Serve(w http.ResponseWriter, _ *http.Request, rooms []string) error {
	f.rooms = rooms
	return f.err
}

func TestWSConnect_JoinsUserRooms(t *testing.T) {
	hub := &fakeSocketServer{}
	rr := httptest.NewRecorder()
	NewWSHandler(hub, zap.NewNop()).Connect(rr, withUser(httptest.NewRequest(http.MethodGet, "/v1/ws", nil), "u1", domain.RoleStudent))

	assert.Equal(t, []string{"u1", "user:u1"}, hub.rooms)
}

func TestWSConnect_Unauthenticated(t *testing.T) {
	hub := &fakeSocketServer{}
	rr := httptest.NewRecorder()
	NewWSHandler(hub, zap.NewNop()).Connect(rr, httptest.NewRequest(http.MethodGet, "/v1/ws", nil))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Nil(t, hub.rooms)
}

func TestWSConnect_UpgradeFailureIsNotRewritten(t *testing.T) {
	hub := &fakeSocketServer{err: errors.New("bad handshake")}
	rr := httptest.NewRecorder()
	NewWSHandler(hub, zap.NewNop()).Connect(rr, withUser(httptest.NewRequest(http.MethodGet, "/v1/ws", nil), "u1", domain.RoleStudent))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Body.String())
}
