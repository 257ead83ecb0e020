package http

import (
	"net/http"

	"github.com/capstone-api/internal/application/deadline"
	"github.com/capstone-api/internal/application/notification"
	"github.com/capstone-api/internal/application/project"
	"github.com/capstone-api/internal/config"
	"github.com/capstone-api/internal/domain"
	jwtinfra "github.com/capstone-api/internal/infrastructure/jwt"
	"github.com/capstone-api/internal/infrastructure/realtime"
	"github.com/capstone-api/internal/transport/http/handler"
	appmiddleware "github.com/capstone-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	NotificationRepo NotificationRepository
	TaskRepo         TaskRepository
	ProjectRepo      ProjectRepository
	TeamRepo         TeamRepository
	JWTProvider      *jwtinfra.Provider
	Hub              *realtime.Hub
	Relay            notification.Relay // nil disables the out-of-band relay
	ReadinessChecks  map[string]handler.Check
	Logger           *zap.Logger
}

// Services are the application services shared by the router and the scheduler.
type Services struct {
	Notification notification.Service
	Deadline     deadline.Service
	Project      project.Service
}

// NewServices wires the application layer on top of deps.
func NewServices(cfg *config.Config, deps *Deps) *Services {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	var notifier notification.Notifier
	if deps.Hub != nil {
		notifier = deps.Hub
	}
	notifSvc := notification.NewService(notification.ServiceDeps{
		Repo:             deps.NotificationRepo,
		ProjectRepo:      deps.ProjectRepo,
		TaskRepo:         deps.TaskRepo,
		Notifier:         notifier,
		Relay:            deps.Relay,
		RelayMinPriority: domain.Priority(cfg.RelayMinPriority),
		Logger:           log.Named("notification"),
	})

	deadlineSvc := deadline.NewService(deadline.ServiceDeps{
		TaskRepo:          deps.TaskRepo,
		NotificationRepo:  deps.NotificationRepo,
		Dispatcher:        notifSvc,
		Location:          cfg.Deadline.Location(),
		Window:            cfg.Deadline.Window,
		SuppressionWindow: cfg.Deadline.SuppressionWindow,
		Logger:            log.Named("deadline"),
	})

	projectSvc := project.NewService(project.ServiceDeps{
		ProjectRepo: deps.ProjectRepo,
		TeamRepo:    deps.TeamRepo,
		Dispatcher:  notifSvc,
	})

	return &Services{Notification: notifSvc, Deadline: deadlineSvc, Project: projectSvc}
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps, svcs *Services) http.Handler {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(appmiddleware.RequestLogger(log.Named("http")))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw, wsAuthMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
		wsAuthMw = appmiddleware.AuthWS(deps.JWTProvider)
	} else {
		deny := func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"error":"authentication unavailable"}`, http.StatusServiceUnavailable)
			})
		}
		authMw, wsAuthMw = deny, deny
	}

	// Manual scan triggers: 1 request/second, burst of 3.
	scanRL := appmiddleware.NewRateLimiter(rate.Limit(1), 3)
	guard := appmiddleware.NewProjectGuard(deps.ProjectRepo, deps.TeamRepo, log.Named("guard"))

	healthH := handler.NewHealthHandler()
	for name, check := range deps.ReadinessChecks {
		healthH.WithCheck(name, check)
	}
	deadlineH := handler.NewDeadlineHandler(svcs.Deadline)
	notifH := handler.NewNotificationHandler(svcs.Notification)
	projectH := handler.NewProjectHandler(svcs.Project)

	mountScanTriggers := func(r chi.Router) {
		r.With(scanRL.Limit).Post("/tasks/deadline-check", deadlineH.Check)
		r.With(scanRL.Limit).Post("/tasks/deadline-check-passed", deadlineH.CheckPassed)
	}

	// Clients of the original API call the scan triggers under /api.
	r.Route("/api", func(r chi.Router) {
		r.Use(authMw)
		mountScanTriggers(r)
	})

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)

		if deps.Hub != nil {
			wsH := handler.NewWSHandler(deps.Hub, log.Named("ws"))
			r.With(wsAuthMw).Get("/ws", wsH.Connect)
		}

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			mountScanTriggers(r)

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", notifH.List)
				r.Get("/unread-count", notifH.UnreadCount)
				r.Put("/read-all", notifH.MarkAllAsRead)
				r.Delete("/read", notifH.DeleteAllRead)
				r.Put("/{id}/read", notifH.MarkAsRead)
				r.Delete("/{id}", notifH.Delete)
				r.With(appmiddleware.RequireRole(domain.RoleAdmin)).Post("/", notifH.Send)
			})

			r.Route("/projects/{projectId}", func(r chi.Router) {
				r.With(guard.CheckPermission(domain.ActionRead)).Get("/", projectH.Get)
				r.With(guard.CheckPermission(domain.ActionUpdate)).Put("/", projectH.Update)
				r.With(guard.CheckPermission(domain.ActionDelete)).Delete("/", projectH.Delete)
				r.With(guard.RequireMembership()).Get("/team", projectH.Team)
				r.With(guard.RequireMentorRole()).Post("/feedback", projectH.Feedback)
			})
		})
	})

	return r
}
