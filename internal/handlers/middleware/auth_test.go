package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/aquanexus/internal/apperrors"
	"github.com/nkiryanov/aquanexus/internal/handlers/userctx"
	"github.com/nkiryanov/aquanexus/internal/models"
)

// Allow to use a function as access verifier
type verifyFunc func(ctx context.Context, access string) (models.Identity, error)

func (f verifyFunc) VerifyAccess(ctx context.Context, access string) (models.Identity, error) {
	return f(ctx, access)
}

func TestAuthMiddleware(t *testing.T) {
	userID := uuid.New()

	// Simple handler that try to get identity from context
	// If ok write user id to response
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Must always be true cause middleware has to set identity or write error to response
		identity, ok := userctx.FromContext(r.Context())
		require.True(t, ok)

		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte(identity.UserID.String() + ":" + identity.Role))
		require.NoError(t, err, "should write user id to response")
	})

	// Accept only "good-token"
	verifier := verifyFunc(func(ctx context.Context, access string) (models.Identity, error) {
		if access != "good-token" {
			return models.Identity{}, apperrors.ErrInvalidAccessToken
		}
		return models.Identity{UserID: userID, Role: models.RoleUser}, nil
	})

	srv := httptest.NewServer(AuthMiddleware(verifier)(handler))
	defer srv.Close()

	tests := []struct {
		name           string
		header         string
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "auth ok",
			header:         "Bearer good-token",
			expectedStatus: http.StatusOK,
			expectedBody:   userID.String() + ":user",
		},
		{
			name:           "scheme case insensitive",
			header:         "bearer good-token",
			expectedStatus: http.StatusOK,
			expectedBody:   userID.String() + ":user",
		},
		{
			name:           "no header",
			header:         "",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"error": "service_error", "message": "Access token is required"}`,
		},
		{
			name:           "no token after scheme",
			header:         "Bearer ",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"error": "service_error", "message": "Access token is required"}`,
		},
		{
			name:           "scheme without token",
			header:         "Bearer",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"error": "service_error", "message": "Access token is required"}`,
		},
		{
			name:           "other scheme",
			header:         "Basic dXNlcjpwd2Q=",
			expectedStatus: http.StatusForbidden,
			expectedBody:   `{"error": "service_error", "message": "Invalid or expired access token"}`,
		},
		{
			name:           "token without scheme",
			header:         "good-token",
			expectedStatus: http.StatusForbidden,
			expectedBody:   `{"error": "service_error", "message": "Invalid or expired access token"}`,
		},
		{
			name:           "invalid token",
			header:         "Bearer bad-token",
			expectedStatus: http.StatusForbidden,
			expectedBody:   `{"error": "service_error", "message": "Invalid or expired access token"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, srv.URL+"/test", nil)
			require.NoError(t, err)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err, "should make request to test server")
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err, "should read response body")
			defer resp.Body.Close() // nolint:errcheck

			require.Equalf(t, tt.expectedStatus, resp.StatusCode, "unexpected status. Resp: %s", string(body))
			if tt.expectedStatus == http.StatusOK {
				require.Equal(t, tt.expectedBody, string(body))
			} else {
				require.JSONEq(t, tt.expectedBody, string(body))
			}
		})
	}

	t.Run("verifier not called without bearer token", func(t *testing.T) {
		called := false
		mw := AuthMiddleware(verifyFunc(func(ctx context.Context, access string) (models.Identity, error) {
			called = true
			return models.Identity{}, errors.New("must not be called")
		}))

		rec := httptest.NewRecorder()
		mw(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.False(t, called)

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", "Basic good-token")
		rec = httptest.NewRecorder()
		mw(handler).ServeHTTP(rec, req)

		require.Equal(t, http.StatusForbidden, rec.Code)
		require.False(t, called, "token of other scheme must not be verified")
	})
}
