package http

import (
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"meetingscheduler/internal/delivery/http/controllers"
	"meetingscheduler/internal/delivery/http/middleware"
	"meetingscheduler/internal/domain"

	httpSwagger "github.com/swaggo/http-swagger"
)

// Controllers groups the handlers mounted by NewRouter.
type Controllers struct {
	Event      *controllers.EventController
	Auth       *controllers.AuthController
	User       *controllers.UserController
	Statistics *controllers.StatisticsController
	Health     *controllers.HealthController
}

// RouterConfig holds the cross-cutting settings of the HTTP stack.
type RouterConfig struct {
	Logger         *slog.Logger
	Verifier       domain.TokenVerifier
	AllowedOrigins []string
	// RequestCounter enables per-client rate limiting when set.
	RequestCounter domain.RequestCounter
	RateLimit      int64
	RateWindow     time.Duration
	TrustedProxies []netip.Prefix
}

// NewRouter initializes the HTTP router with all application routes and wraps it in the
// middleware chain: logging, rate limit (optional), CORS.
func NewRouter(cfg RouterConfig, c Controllers) http.Handler {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(cfg.Verifier, cfg.Logger)

	mux.HandleFunc("GET /health", c.Health.Health)

	// Auth
	mux.HandleFunc("POST /auth/signup", c.Auth.SignUp)
	mux.HandleFunc("POST /auth/login", c.Auth.Login)
	mux.HandleFunc("GET /users/me", auth(c.Auth.Me))

	// Users
	mux.HandleFunc("GET /users", auth(c.User.ListUsers))
	mux.HandleFunc("GET /users/{userID}", auth(c.User.GetUser))
	mux.HandleFunc("PATCH /users/me", auth(c.User.UpdateMe))

	// Events
	mux.HandleFunc("POST /events", auth(c.Event.CreateEvent))
	mux.HandleFunc("GET /events", auth(c.Event.ListEvents))
	mux.HandleFunc("GET /events/me", auth(c.Event.ListMyEvents))
	mux.HandleFunc("GET /events/{eventID}", auth(c.Event.GetEvent))
	mux.HandleFunc("POST /events/{eventID}/options", auth(c.Event.AddOption))
	mux.HandleFunc("DELETE /events/{eventID}/options/{date}/{time}", auth(c.Event.RemoveOption))
	mux.HandleFunc("POST /events/{eventID}/guests", auth(c.Event.AddGuest))
	mux.HandleFunc("POST /events/{eventID}/votes", auth(c.Event.Vote))
	mux.HandleFunc("POST /events/{eventID}/close", auth(c.Event.CloseEvent))
	mux.HandleFunc("POST /events/{eventID}/open", auth(c.Event.OpenEvent))

	mux.HandleFunc("GET /statistics", auth(c.Statistics.GetStatistics))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	var handler http.Handler = middleware.CORS(cfg.AllowedOrigins, mux)
	if cfg.RequestCounter != nil {
		handler = middleware.RateLimit(cfg.RequestCounter, cfg.RateLimit, cfg.RateWindow, cfg.TrustedProxies, cfg.Logger, handler)
	}
	return middleware.LoggingMiddleware(cfg.Logger, handler)
}
