package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/aquanexus/internal/handlers/render"
	"github.com/nkiryanov/aquanexus/internal/logger"
)

func handleListProviders(providerService ProviderService, logger logger.Logger) http.HandlerFunc {
	type provider struct {
		ID          uuid.UUID       `json:"id"`
		UserID      uuid.UUID       `json:"userId"`
		Name        string          `json:"name"`
		ServiceType *string         `json:"serviceType"`
		Rating      decimal.Decimal `json:"rating"`
		Description *string         `json:"description"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		providers, err := providerService.ListProviders(r.Context())
		if err != nil {
			logger.Error("providers listing failed", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		response := make([]provider, 0, len(providers))
		for _, p := range providers {
			response = append(response, provider{
				ID:          p.ID,
				UserID:      p.UserID,
				Name:        p.Name,
				ServiceType: p.ServiceType,
				Rating:      p.Rating,
				Description: p.Description,
			})
		}

		render.JSON(w, response)
	}
}
