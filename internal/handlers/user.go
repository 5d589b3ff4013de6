package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/aquanexus/internal/apperrors"
	"github.com/nkiryanov/aquanexus/internal/handlers/render"
	"github.com/nkiryanov/aquanexus/internal/handlers/userctx"
	"github.com/nkiryanov/aquanexus/internal/logger"
)

func handleUserMe(userService UserService, logger logger.Logger) http.HandlerFunc {
	type response struct {
		ID        uuid.UUID `json:"id"`
		Email     string    `json:"email"`
		Role      string    `json:"role"`
		Phone     *string   `json:"phone"`
		CreatedAt time.Time `json:"createdAt"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		identity, _ := userctx.FromContext(r.Context())

		user, err := userService.GetUser(r.Context(), identity.UserID)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrUserNotFound):
				render.ServiceError(w, "User not found", http.StatusNotFound)
			default:
				logger.Error("user lookup failed", "error", err)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, response{
			ID:        user.ID,
			Email:     user.Email,
			Role:      user.Role,
			Phone:     user.Phone,
			CreatedAt: user.CreatedAt,
		})
	}
}
