package api

import (
	"net/http"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/riverqueue/river"
	"github.com/rs/zerolog"

	"github.com/web3events/server/internal/api/handlers"
	"github.com/web3events/server/internal/api/middleware"
	"github.com/web3events/server/internal/auth"
	"github.com/web3events/server/internal/config"
	"github.com/web3events/server/internal/domain/bookmarks"
	"github.com/web3events/server/internal/domain/events"
	"github.com/web3events/server/internal/domain/sessions"
	"github.com/web3events/server/internal/domain/users"
	"github.com/web3events/server/internal/metrics"
)

// Deps carries everything the router needs. The caller owns construction and
// lifecycle of each dependency.
type Deps struct {
	Config      config.Config
	Logger      zerolog.Logger
	Pool        *pgxpool.Pool
	RiverClient *river.Client[pgx.Tx]

	Users       *users.Service
	Sessions    *sessions.Service
	Events      *events.Service
	AdminEvents *events.AdminService
	Bookmarks   *bookmarks.Service

	JWT      *auth.JWTManager
	Verifier auth.CredentialVerifier

	Version   string
	GitCommit string
}

// NewRouter assembles the HTTP surface: auth, events, bookmarks, admin, and
// operational endpoints, wrapped in the shared middleware stack.
func NewRouter(deps Deps) http.Handler {
	env := deps.Config.Environment

	authHandler := handlers.NewAuthHandler(deps.Users, deps.Sessions, deps.JWT, deps.Verifier, env)
	eventsHandler := handlers.NewEventsHandler(deps.Events, deps.Bookmarks, env)
	bookmarksHandler := handlers.NewBookmarksHandler(deps.Bookmarks, env)
	adminHandler := handlers.NewAdminHandler(deps.AdminEvents, deps.Users, env)
	healthChecker := handlers.NewHealthChecker(deps.Pool, deps.RiverClient, deps.Version, deps.GitCommit)

	requireAuth := middleware.AuthCookie(deps.JWT, deps.Sessions, env)
	rateLimit := middleware.RateLimit(deps.Config.RateLimit)
	tierLogin := middleware.WithRateLimitTierHandler(middleware.TierLogin)
	tierAdmin := middleware.WithRateLimitTierHandler(middleware.TierAdmin)

	// The tier wrapper must run before the limiter so the limiter sees the
	// tier in context.
	public := func(handler http.Handler) http.Handler {
		return rateLimit(handler)
	}
	loginRoute := func(handler http.Handler) http.Handler {
		return tierLogin(rateLimit(handler))
	}

	mux := http.NewServeMux()

	mux.Handle("/healthz", healthChecker.Health())
	mux.Handle("/readyz", handlers.Readyz())
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	mux.Handle("/api/v1/auth/nonce", methodMux(map[string]http.Handler{
		http.MethodGet: public(http.HandlerFunc(authHandler.Nonce)),
	}))
	mux.Handle("/api/v1/auth/login", methodMux(map[string]http.Handler{
		http.MethodPost: loginRoute(http.HandlerFunc(authHandler.Login)),
	}))
	mux.Handle("/api/v1/auth/logout", methodMux(map[string]http.Handler{
		http.MethodPost: public(http.HandlerFunc(authHandler.Logout)),
	}))
	mux.Handle("/api/v1/auth/me", methodMux(map[string]http.Handler{
		http.MethodGet: requireAuth(public(http.HandlerFunc(authHandler.Me))),
	}))
	mux.Handle("/api/v1/auth/profile", methodMux(map[string]http.Handler{
		http.MethodPatch: requireAuth(public(http.HandlerFunc(authHandler.UpdateProfile))),
	}))
	mux.Handle("/api/v1/auth/bootstrap-admin", methodMux(map[string]http.Handler{
		http.MethodPost: requireAuth(public(http.HandlerFunc(authHandler.BootstrapAdmin))),
	}))

	mux.Handle("/api/v1/events", methodMux(map[string]http.Handler{
		http.MethodGet: public(http.HandlerFunc(eventsHandler.List)),
	}))
	mux.Handle("/api/v1/events/featured", methodMux(map[string]http.Handler{
		http.MethodGet: public(http.HandlerFunc(eventsHandler.Featured)),
	}))
	mux.Handle("/api/v1/events/{id}", methodMux(map[string]http.Handler{
		http.MethodGet: public(http.HandlerFunc(eventsHandler.Get)),
	}))
	mux.Handle("/api/v1/events/{id}/bookmarks", methodMux(map[string]http.Handler{
		http.MethodGet: public(http.HandlerFunc(bookmarksHandler.Count)),
	}))

	mux.Handle("/api/v1/bookmarks", methodMux(map[string]http.Handler{
		http.MethodGet: requireAuth(public(http.HandlerFunc(bookmarksHandler.List))),
	}))
	mux.Handle("/api/v1/bookmarks/toggle", methodMux(map[string]http.Handler{
		http.MethodPost: requireAuth(public(http.HandlerFunc(bookmarksHandler.Toggle))),
	}))
	mux.Handle("/api/v1/bookmarks/counts", methodMux(map[string]http.Handler{
		http.MethodPost: public(http.HandlerFunc(bookmarksHandler.Counts)),
	}))
	mux.Handle("/api/v1/bookmarks/status", methodMux(map[string]http.Handler{
		http.MethodPost: requireAuth(public(http.HandlerFunc(bookmarksHandler.Status))),
	}))

	adminRoute := func(handler http.HandlerFunc) http.Handler {
		return requireAuth(tierAdmin(rateLimit(handler)))
	}

	mux.Handle("/api/v1/admin/events", methodMux(map[string]http.Handler{
		http.MethodGet:  adminRoute(adminHandler.ListEvents),
		http.MethodPost: adminRoute(adminHandler.CreateEvent),
	}))
	mux.Handle("/api/v1/admin/events/bulk-status", methodMux(map[string]http.Handler{
		http.MethodPost: adminRoute(adminHandler.BulkSetStatus),
	}))
	mux.Handle("/api/v1/admin/events/bulk-delete", methodMux(map[string]http.Handler{
		http.MethodPost: adminRoute(adminHandler.BulkDelete),
	}))
	mux.Handle("/api/v1/admin/events/{id}", methodMux(map[string]http.Handler{
		http.MethodPatch:  adminRoute(adminHandler.UpdateEvent),
		http.MethodDelete: adminRoute(adminHandler.DeleteEvent),
	}))
	mux.Handle("/api/v1/admin/events/{id}/toggle-featured", methodMux(map[string]http.Handler{
		http.MethodPost: adminRoute(adminHandler.ToggleFeatured),
	}))
	mux.Handle("/api/v1/admin/events/{id}/toggle-approved", methodMux(map[string]http.Handler{
		http.MethodPost: adminRoute(adminHandler.ToggleApproved),
	}))
	mux.Handle("/api/v1/admin/users", methodMux(map[string]http.Handler{
		http.MethodGet: adminRoute(adminHandler.ListUsers),
	}))
	mux.Handle("/api/v1/admin/users/{id}/set-admin", methodMux(map[string]http.Handler{
		http.MethodPost: adminRoute(adminHandler.SetAdmin),
	}))
	mux.Handle("/api/v1/admin/users/{id}/events", methodMux(map[string]http.Handler{
		http.MethodGet: adminRoute(adminHandler.EventsByCreator),
	}))
	mux.Handle("/api/v1/admin/stats", methodMux(map[string]http.Handler{
		http.MethodGet: adminRoute(adminHandler.Stats),
	}))
	mux.Handle("/api/v1/admin/seed", methodMux(map[string]http.Handler{
		http.MethodPost: adminRoute(adminHandler.Seed),
	}))

	var handler http.Handler = mux
	handler = metrics.HTTPMiddleware(handler)
	handler = middleware.RequestLogging(deps.Logger)(handler)
	if deps.Config.Tracing.Enabled {
		handler = middleware.Tracing(handler)
	}
	handler = middleware.CorrelationID(deps.Logger)(handler)
	handler = middleware.SecurityHeaders(env == "production")(handler)
	return handler
}

func methodMux(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := handlers[r.Method]; ok {
			handler.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Allow", allowedMethods(handlers))
		w.WriteHeader(http.StatusMethodNotAllowed)
	})
}

func allowedMethods(handlers map[string]http.Handler) string {
	methods := make([]string, 0, len(handlers))
	for method := range handlers {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}
