package api

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/authcore-io/authcore/internal/auth"
	"github.com/authcore-io/authcore/internal/config"
	"github.com/authcore-io/authcore/internal/mail"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Deps are the external collaborators of the auth core. The composition
// root builds SQL-backed implementations; tests inject fakes.
type Deps struct {
	Users    auth.UserStore
	Attempts auth.AttemptStore
	Resets   auth.ResetStore
	Mailer   mail.Dispatcher
}

// Api owns the router and the wired auth components.
type Api struct {
	Config *config.Config
	Router *chi.Mux

	users  auth.UserStore
	hasher *auth.Hasher
	tokens *auth.TokenManager
	guard  *auth.LoginGuard
	reset  *auth.ResetService

	authLimiter    *RateLimiter
	generalLimiter *RateLimiter
	secureCookies  bool
}

// NewApi wires the auth core from configuration and collaborators.
func NewApi(cfg *config.Config, deps Deps) (*Api, error) {
	if cfg.APIPort == 0 {
		return nil, errors.New("Must have at least a port to start API")
	}
	if deps.Users == nil || deps.Attempts == nil || deps.Resets == nil || deps.Mailer == nil {
		return nil, errors.New("missing store or mail dependency")
	}

	hasher := auth.NewHasher(auth.DefaultHashParams())

	api := &Api{
		Config: cfg,
		Router: chi.NewRouter(),
		users:  deps.Users,
		hasher: hasher,
		tokens: auth.NewTokenManager(cfg.JWT.Secret, cfg.TokenTTL()),
		guard:  auth.NewLoginGuard(deps.Attempts, cfg.Login.MaxAttempts, cfg.LockoutWindow()),
		reset: auth.NewResetService(deps.Users, deps.Resets, deps.Attempts, hasher, deps.Mailer, auth.ResetConfig{
			LimitPerHour: cfg.OTP.LimitPerHour,
			MinInterval:  cfg.OTPMinInterval(),
			Expiry:       cfg.OTPExpiry(),
		}),
		authLimiter:    NewRateLimiter(cfg.RateLimit.AuthRequests, cfg.AuthRateWindow()),
		generalLimiter: NewRateLimiter(cfg.RateLimit.GeneralRequests, cfg.GeneralRateWindow()),
		secureCookies:  cfg.IsProduction(),
	}

	api.setupRoutes()
	return api, nil
}

func (api *Api) setupRoutes() {
	r := api.Router

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   api.Config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if api.Config.SecurityHeaders {
		r.Use(SecurityHeaders)
	}
	if api.Config.RateLimit.Enabled {
		r.Use(api.generalLimiter.Middleware)
	}
	r.Use(api.AuthGate)

	r.Get("/health", api.HealthHandler)

	r.Route("/auth", func(r chi.Router) {
		// The stricter limiter throttles credential traffic on top of the
		// general one; both run on the same request without interfering.
		if api.Config.RateLimit.Enabled {
			r.Use(api.authLimiter.Middleware)
		}
		r.Post("/register", api.RegisterHandler)
		r.Post("/login", api.LoginHandler)
		r.Post("/logout", api.LogoutHandler)
		r.Post("/reset/request", api.ResetRequestHandler)
		r.Post("/reset/verify", api.ResetVerifyHandler)
	})

	r.Get("/api/v1/me", api.MeHandler)
}

// Serve starts the HTTP server and blocks.
func (api *Api) Serve() {
	addr := fmt.Sprintf("0.0.0.0:%d", api.Config.APIPort)
	log.Printf("Starting authcore API server on %s", addr)
	log.Fatal(http.ListenAndServe(addr, api.Router))
}
