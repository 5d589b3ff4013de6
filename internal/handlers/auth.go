package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/nkiryanov/aquanexus/internal/apperrors"
	"github.com/nkiryanov/aquanexus/internal/handlers/render"
	"github.com/nkiryanov/aquanexus/internal/handlers/userctx"
	"github.com/nkiryanov/aquanexus/internal/logger"
	"github.com/nkiryanov/aquanexus/internal/metrics"
	"github.com/nkiryanov/aquanexus/internal/models"
	"github.com/nkiryanov/aquanexus/internal/service/auth"
)

const (
	opRegister = "register"
	opLogin    = "login"
	opRefresh  = "refresh"
	opLogout   = "logout"
)

type sessionResponse struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	UserID       uuid.UUID `json:"userId"`
	Role         string    `json:"role"`
}

func newSessionResponse(session models.Session) sessionResponse {
	return sessionResponse{
		AccessToken:  session.Access.Value,
		RefreshToken: session.Refresh.Value,
		UserID:       session.User.ID,
		Role:         session.User.Role,
	}
}

// Check attempts limit for the email. Write 429 and return false if limit exceeded
// Limiter failures do not block users
func allowAttempt(w http.ResponseWriter, r *http.Request, limiter Limiter, op string, email string, m *metrics.Metrics, logger logger.Logger) bool {
	retryAfter, err := limiter.Allow(r.Context(), op, auth.NormalizeEmail(email))
	switch {
	case err == nil:
		return true
	case errors.Is(err, apperrors.ErrTooManyAttempts):
		m.AuthEvent(op, metrics.OutcomeThrottled)
		w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
		render.ServiceError(w, "Too many attempts, try again later", http.StatusTooManyRequests)
		return false
	default:
		logger.Warn("rate limiter failed, attempt allowed", "op", op, "error", err)
		return true
	}
}

func handleRegister(authService AuthService, limiter Limiter, m *metrics.Metrics, logger logger.Logger) http.HandlerFunc {
	type request struct {
		Email       string  `json:"email" validate:"required,email"`
		Password    string  `json:"password" validate:"required"`
		Role        string  `json:"role" validate:"omitempty,oneof=user provider"`
		Name        string  `json:"name" validate:"required_if=Role provider"`
		Phone       *string `json:"phone"`
		ServiceType *string `json:"serviceType" validate:"omitempty,oneof=rwh borehole"`
		Description *string `json:"description"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		if !allowAttempt(w, r, limiter, opRegister, data.Email, m, logger) {
			return
		}

		session, err := authService.Register(r.Context(), auth.RegisterParams{
			Email:       data.Email,
			Password:    data.Password,
			Role:        data.Role,
			Name:        data.Name,
			ServiceType: data.ServiceType,
			Description: data.Description,
			Phone:       data.Phone,
		})
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrUserAlreadyExists):
				m.AuthEvent(opRegister, metrics.OutcomeRejected)
				render.ServiceError(w, "User already exists", http.StatusConflict)
			case errors.Is(err, apperrors.ErrMissingCredentials),
				errors.Is(err, apperrors.ErrInvalidRole),
				errors.Is(err, apperrors.ErrProviderNameRequired),
				errors.Is(err, apperrors.ErrInvalidServiceType):
				m.AuthEvent(opRegister, metrics.OutcomeRejected)
				render.ServiceError(w, err.Error(), http.StatusBadRequest)
			default:
				m.AuthEvent(opRegister, metrics.OutcomeError)
				logger.Error("registration failed", "error", err)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		m.AuthEvent(opRegister, metrics.OutcomeSuccess)
		render.Created(w, newSessionResponse(session))
	}
}

func handleLogin(authService AuthService, limiter Limiter, m *metrics.Metrics, logger logger.Logger) http.HandlerFunc {
	type request struct {
		Email    string `json:"email" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		if !allowAttempt(w, r, limiter, opLogin, data.Email, m, logger) {
			return
		}

		session, err := authService.Login(r.Context(), data.Email, data.Password)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrInvalidCredentials):
				m.AuthEvent(opLogin, metrics.OutcomeRejected)
				render.ServiceError(w, "Invalid email or password", http.StatusUnauthorized)
			case errors.Is(err, apperrors.ErrMissingCredentials):
				m.AuthEvent(opLogin, metrics.OutcomeRejected)
				render.ServiceError(w, err.Error(), http.StatusBadRequest)
			default:
				m.AuthEvent(opLogin, metrics.OutcomeError)
				logger.Error("login failed", "error", err)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		m.AuthEvent(opLogin, metrics.OutcomeSuccess)
		render.JSON(w, newSessionResponse(session))
	}
}

func handleRefresh(authService AuthService, m *metrics.Metrics, logger logger.Logger) http.HandlerFunc {
	type request struct {
		RefreshToken string `json:"refreshToken"`
	}
	type response struct {
		AccessToken string `json:"accessToken"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		// Missing token is 401 and not a validation error, so decode by hand
		var data request
		err := json.NewDecoder(r.Body).Decode(&data)
		if err != nil && !errors.Is(err, io.EOF) {
			render.DecodeError(w, err)
			return
		}

		if data.RefreshToken == "" {
			m.AuthEvent(opRefresh, metrics.OutcomeRejected)
			render.ServiceError(w, "Refresh token is required", http.StatusUnauthorized)
			return
		}

		access, err := authService.Refresh(r.Context(), data.RefreshToken)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrInvalidRefreshToken):
				m.AuthEvent(opRefresh, metrics.OutcomeRejected)
				render.ServiceError(w, "Invalid or expired refresh token", http.StatusForbidden)
			default:
				m.AuthEvent(opRefresh, metrics.OutcomeError)
				logger.Error("refresh failed", "error", err)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		m.AuthEvent(opRefresh, metrics.OutcomeSuccess)
		render.JSON(w, response{AccessToken: access.Value})
	}
}

func handleLogout(authService AuthService, m *metrics.Metrics, logger logger.Logger) http.HandlerFunc {
	type request struct {
		RefreshToken string `json:"refreshToken" validate:"required"`
	}
	type response struct {
		Message string `json:"message"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		identity, _ := userctx.FromContext(r.Context())

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		err = authService.Logout(r.Context(), identity.UserID, data.RefreshToken)
		if err != nil {
			m.AuthEvent(opLogout, metrics.OutcomeError)
			logger.Error("logout failed", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		m.AuthEvent(opLogout, metrics.OutcomeSuccess)
		render.JSON(w, response{Message: "Logged out successfully"})
	}
}
