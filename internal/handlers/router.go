package handlers

//go:generate mockgen -destination=mocks/mocks.go -package=mocks github.com/nkiryanov/aquanexus/internal/handlers AuthService,UserService,ProviderService,Limiter,HealthChecker

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/nkiryanov/aquanexus/internal/handlers/middleware"
	"github.com/nkiryanov/aquanexus/internal/logger"
	"github.com/nkiryanov/aquanexus/internal/metrics"
	"github.com/nkiryanov/aquanexus/internal/models"
	"github.com/nkiryanov/aquanexus/internal/service/auth"
)

type AuthService interface {
	// Register user and open session
	// Has to return apperrors.ErrUserAlreadyExists if email is taken
	Register(ctx context.Context, params auth.RegisterParams) (models.Session, error)

	// Login user with email and password
	// Has to return apperrors.ErrInvalidCredentials for unknown email or wrong password
	Login(ctx context.Context, email string, password string) (models.Session, error)

	// Issue new access token for refresh token
	// Has to return apperrors.ErrInvalidRefreshToken if token not valid, expired or revoked
	Refresh(ctx context.Context, refresh string) (models.IssuedToken, error)

	// Revoke user refresh token
	Logout(ctx context.Context, userID uuid.UUID, refresh string) error

	// Check access token and return identity it asserts
	VerifyAccess(ctx context.Context, access string) (models.Identity, error)
}

type UserService interface {
	GetUser(ctx context.Context, userID uuid.UUID) (models.User, error)
}

type ProviderService interface {
	ListProviders(ctx context.Context) ([]models.Provider, error)
}

type Limiter interface {
	// Register attempt
	// Has to return apperrors.ErrTooManyAttempts and time to wait if attempt is not allowed
	Allow(ctx context.Context, action string, subject string) (time.Duration, error)
}

type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Services struct {
	Auth     AuthService
	User     UserService
	Provider ProviderService
	Limiter  Limiter
	Health   HealthChecker
}

func NewRouter(services Services, m *metrics.Metrics, logger logger.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.LoggerMiddleware(logger),
		middleware.MetricsMiddleware(m),
		chimiddleware.Recoverer,
	)

	r.Get("/healthz", handleHealth(services.Health, logger))
	r.Handle("/metrics", m.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", handleRegister(services.Auth, services.Limiter, m, logger))
		r.Post("/login", handleLogin(services.Auth, services.Limiter, m, logger))
		r.Post("/refresh", handleRefresh(services.Auth, m, logger))

		r.With(middleware.AuthMiddleware(services.Auth)).
			Post("/logout", handleLogout(services.Auth, m, logger))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(services.Auth))

		r.Get("/api/user", handleUserMe(services.User, logger))
		r.Get("/providers", handleListProviders(services.Provider, logger))
	})

	return r
}
