// Package httpapi exposes the dev backend over HTTP: token endpoints under
// /auth/v1 and single-row record access under /rest/v1, in the wire format
// the client's remote package consumes.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/artstore/artstore/internal/logging"
	"github.com/artstore/artstore/internal/server/models"
	"github.com/artstore/artstore/internal/server/services"
)

// AuthService is the authentication surface the handlers need. Implemented
// by services.AuthService; tests substitute a fake.
type AuthService interface {
	SignUp(ctx context.Context, email, password string, metadata json.RawMessage) (*models.AuthUser, *services.Session, error)
	SignIn(ctx context.Context, email, password string) (*models.AuthUser, *services.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*models.AuthUser, *services.Session, error)
	SignOut(ctx context.Context, userID string) error
	ConfirmEmail(ctx context.Context, userID string) error
	GetUser(ctx context.Context, userID string) (*models.AuthUser, error)
	VerifyAccessToken(tokenString string) (string, error)
}

// RecordService is the row-access surface the REST handlers need.
type RecordService interface {
	SelectByID(ctx context.Context, table, id string) (map[string]any, error)
	Insert(ctx context.Context, table string, record map[string]any) error
	Update(ctx context.Context, table, id string, record map[string]any) error
}

// Options configure the HTTP server surface.
type Options struct {
	AnonKey        string
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
	Logger         logging.Logger
}

// Server holds the handler dependencies.
type Server struct {
	auth    AuthService
	records RecordService
	anonKey string
	logger  logging.Logger
	limiter *ipRateLimiter
	origins []string
}

func NewServer(auth AuthService, records RecordService, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}
	return &Server{
		auth:    auth,
		records: records,
		anonKey: opts.AnonKey,
		logger:  opts.Logger,
		limiter: newIPRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst),
		origins: opts.AllowedOrigins,
	}
}

// Router assembles the chi router with the middleware stack.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(s.rateLimit)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "Accept", "Prefer", "apikey"},
	}).Handler)

	r.Route("/auth/v1", func(r chi.Router) {
		r.Post("/signup", s.handleSignUp)
		r.Post("/token", s.handleToken)
		r.Post("/logout", s.handleLogout)
		r.Post("/verify", s.handleVerify)
		r.Get("/user", s.handleGetUser)
	})

	r.Route("/rest/v1", func(r chi.Router) {
		r.Use(s.requireAPIKey)
		r.Get("/{table}", s.handleSelect)
		r.Post("/{table}", s.handleInsert)
		r.Patch("/{table}", s.handleUpdate)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return r
}
