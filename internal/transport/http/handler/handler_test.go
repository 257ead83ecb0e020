package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/capstone-api/internal/domain"
	jwtinfra "github.com/capstone-api/internal/infrastructure/jwt"
	"github.com/capstone-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

// withUser attaches claims the way the Auth middleware does.
func withUser(r *http.Request, userID string, role domain.Role) *http.Request {
	return r.WithContext(middleware.WithClaims(r.Context(), &jwtinfra.Claims{UserID: userID, Role: string(role)}))
}

// withProject attaches a project the way ProjectGuard does.
func withProject(r *http.Request, p *domain.Project) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), middleware.ProjectKey, p))
}

// withURLParam sets a chi URL param without routing.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestHTTPError_Mapping(t *testing.T) {
	cases := map[error]int{
		fmt.Errorf("x: %w", domain.ErrBadRequest):   http.StatusBadRequest,
		fmt.Errorf("x: %w", domain.ErrUnauthorized): http.StatusUnauthorized,
		fmt.Errorf("x: %w", domain.ErrForbidden):    http.StatusForbidden,
		fmt.Errorf("x: %w", domain.ErrNotFound):     http.StatusNotFound,
		fmt.Errorf("x: %w", domain.ErrConflict):     http.StatusConflict,
		errors.New("dynamo exploded"):               http.StatusInternalServerError,
	}
	for err, want := range cases {
		rr := httptest.NewRecorder()
		httpError(rr, err)
		assert.Equal(t, want, rr.Code, err.Error())
	}
}

func TestHTTPError_HidesInternalDetail(t *testing.T) {
	rr := httptest.NewRecorder()
	httpError(rr, errors.New("secret table name"))
	assert.JSONEq(t, `{"error":"internal server error"}`, rr.Body.String())
}

func TestHealth_Ping(t *testing.T) {
	rr := httptest.NewRecorder()
	NewHealthHandler().Ping(rr, withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "action", "ping"))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"message":"pong"}`, rr.Body.String())

	rr = httptest.NewRecorder()
	NewHealthHandler().Ping(rr, withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "action", "nope"))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHealth_Ready(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	h := NewHealthHandler().WithCheck("dynamodb", ok).WithCheck("redis", ok)
	rr := httptest.NewRecorder()
	h.Ping(rr, withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "action", "ready"))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"message":"ready"}`, rr.Body.String())

	h = NewHealthHandler().WithCheck("redis", down).WithCheck("dynamodb", down)
	rr = httptest.NewRecorder()
	h.Ping(rr, withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "action", "ready"))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.JSONEq(t, `{"message":"not ready","failed":["dynamodb","redis"]}`, rr.Body.String())
}
