package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/capstone-api/internal/domain"
	jwtinfra "github.com/capstone-api/internal/infrastructure/jwt"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// maxPeekBody bounds how much of a JSON body is buffered to find the project id.
const maxPeekBody = 1 << 20

var (
	pathProjectKeys  = []string{"projectId", "id"}
	fieldProjectKeys = []string{"projectId", "project_id"}
)

type projectStore interface {
	Get(ctx context.Context, projectID string) (*domain.Project, error)
}

type teamStore interface {
	GetByProject(ctx context.Context, projectID string) (*domain.Team, error)
}

// ProjectGuard authorises requests against a single project.
type ProjectGuard struct {
	projects projectStore
	teams    teamStore
	log      *zap.Logger
}

func NewProjectGuard(projects projectStore, teams teamStore, log *zap.Logger) *ProjectGuard {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProjectGuard{projects: projects, teams: teams, log: log}
}

// ResolveProjectID finds the target project id: path params first, then body
// fields, then query params. Returns "" when none is present.
func ResolveProjectID(r *http.Request) string {
	for _, k := range pathProjectKeys {
		if v := chi.URLParam(r, k); v != "" {
			return v
		}
	}
	if v := projectIDFromBody(r); v != "" {
		return v
	}
	q := r.URL.Query()
	for _, k := range fieldProjectKeys {
		if v := q.Get(k); v != "" {
			return v
		}
	}
	return ""
}

// projectIDFromBody reads JSON bodies and restores them for the handler. Form
// bodies are only consulted once something upstream has parsed them.
func projectIDFromBody(r *http.Request) string {
	if r.PostForm != nil {
		for _, k := range fieldProjectKeys {
			if v := r.PostForm.Get(k); v != "" {
				return v
			}
		}
	}
	if r.Body == nil || r.Body == http.NoBody {
		return ""
	}
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt != "application/json" {
		return ""
	}

	// The handler still sees the whole body: the peeked prefix is replayed
	// ahead of whatever was left unread. Bodies past the limit are not parsed.
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxPeekBody+1))
	r.Body = readCloser{Reader: io.MultiReader(bytes.NewReader(raw), r.Body), Closer: r.Body}
	if err != nil || len(raw) == 0 || len(raw) > maxPeekBody {
		return ""
	}

	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return ""
	}
	for _, k := range fieldProjectKeys {
		switch v := fields[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return fmt.Sprintf("%.0f", v)
		}
	}
	return ""
}

type readCloser struct {
	io.Reader
	io.Closer
}

// IsMember reports whether userID is on the project's team and whether they
// lead it. A missing team or a failed lookup yields (false, false).
func (g *ProjectGuard) IsMember(ctx context.Context, userID, projectID string) (isMember, isLeader bool) {
	team, err := g.teams.GetByProject(ctx, projectID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			g.log.Warn("team lookup failed", zap.String("project_id", projectID), zap.Error(err))
		}
		return false, false
	}
	m, ok := team.Member(userID)
	if !ok {
		return false, false
	}
	return true, m.IsLeader == domain.LeaderFlag
}

// CheckPermission allows admins, then evaluates action: read needs the
// lecturer role, creatorship or membership; write, update and delete need
// creatorship or team leadership.
func (g *ProjectGuard) CheckPermission(action domain.ProjectAction) func(http.Handler) http.Handler {
	return g.guard(func(ctx context.Context, claims *jwtinfra.Claims, p *domain.Project) (bool, string) {
		userID := claims.UserID
		switch action {
		case domain.ActionRead:
			if claims.PlatformRole() == domain.RoleLecturer || p.IsCreator(userID) {
				return true, ""
			}
			member, _ := g.IsMember(ctx, userID, p.ProjectID)
			return member, "you are not a member of this project"
		case domain.ActionWrite, domain.ActionUpdate, domain.ActionDelete:
			if p.IsCreator(userID) {
				return true, ""
			}
			_, leader := g.IsMember(ctx, userID, p.ProjectID)
			return leader, "only the project creator or team leader can " + string(action) + " this project"
		default:
			return false, "unsupported project action"
		}
	})
}

// RequireMembership allows the creator, the supervisor of record and team members.
func (g *ProjectGuard) RequireMembership() func(http.Handler) http.Handler {
	return g.guard(func(ctx context.Context, claims *jwtinfra.Claims, p *domain.Project) (bool, string) {
		if p.IsCreator(claims.UserID) || p.IsSupervisor(claims.UserID) {
			return true, ""
		}
		member, _ := g.IsMember(ctx, claims.UserID, p.ProjectID)
		return member, "you are not a member of this project"
	})
}

// RequireMentorRole allows lecturers and admins who supervise the project.
func (g *ProjectGuard) RequireMentorRole() func(http.Handler) http.Handler {
	return g.guardWith(false, func(_ context.Context, claims *jwtinfra.Claims, p *domain.Project) (bool, string) {
		role := claims.PlatformRole()
		if role != domain.RoleLecturer && role != domain.RoleAdmin {
			return false, "mentor role required"
		}
		return p.IsSupervisor(claims.UserID), "you are not the supervisor of this project"
	})
}

type projectCheck func(ctx context.Context, claims *jwtinfra.Claims, p *domain.Project) (bool, string)

func (g *ProjectGuard) guard(check projectCheck) func(http.Handler) http.Handler {
	return g.guardWith(true, check)
}

// guardWith runs the shared 401/400/404 prelude, then check. When adminBypass
// is set, admins skip check entirely.
func (g *ProjectGuard) guardWith(adminBypass bool, check projectCheck) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			projectID := ResolveProjectID(r)
			if projectID == "" {
				writeJSONError(w, http.StatusBadRequest, "project id is required")
				return
			}
			p, err := g.projects.Get(r.Context(), projectID)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					writeJSONError(w, http.StatusNotFound, "project not found")
					return
				}
				g.log.Error("project lookup failed", zap.String("project_id", projectID), zap.Error(err))
				writeJSONError(w, http.StatusInternalServerError, "internal server error")
				return
			}

			if !(adminBypass && claims.PlatformRole() == domain.RoleAdmin) {
				if allowed, reason := check(r.Context(), claims, p); !allowed {
					writeJSONError(w, http.StatusForbidden, reason)
					return
				}
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ProjectKey, p)))
		})
	}
}

// ProjectFromContext returns the project a guard resolved for this request.
func ProjectFromContext(ctx context.Context) (*domain.Project, bool) {
	p, ok := ctx.Value(ProjectKey).(*domain.Project)
	return p, ok && p != nil
}
