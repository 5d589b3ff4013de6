package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/nkiryanov/aquanexus/internal/handlers/render"
	"github.com/nkiryanov/aquanexus/internal/handlers/userctx"
	"github.com/nkiryanov/aquanexus/internal/models"
)

type accessVerifier interface {
	VerifyAccess(ctx context.Context, access string) (models.Identity, error)
}

// Require valid access token in 'Authorization: Bearer <token>' header
// No token: 401, token not valid or not a bearer one: 403
func AuthMiddleware(v accessVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			access, err := bearerToken(r)
			switch {
			case errors.Is(err, errNoToken):
				render.ServiceError(w, "Access token is required", http.StatusUnauthorized)
				return
			case err != nil:
				render.ServiceError(w, "Invalid or expired access token", http.StatusForbidden)
				return
			}

			identity, err := v.VerifyAccess(r.Context(), access)
			if err != nil {
				render.ServiceError(w, "Invalid or expired access token", http.StatusForbidden)
				return
			}

			ctx := userctx.New(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

var (
	errNoToken   = errors.New("no access token")
	errNotBearer = errors.New("authorization scheme is not bearer")
)

func bearerToken(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", errNoToken
	}

	scheme, token, _ := strings.Cut(header, " ")
	if !strings.EqualFold(scheme, "Bearer") {
		return "", errNotBearer
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", errNoToken
	}
	return token, nil
}
