package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/aquanexus/internal/apperrors"
	"github.com/nkiryanov/aquanexus/internal/models"
	"github.com/nkiryanov/aquanexus/internal/repository"
	"github.com/nkiryanov/aquanexus/internal/testutil"
)

func Test_ProviderRepo(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	createUser := func(t *testing.T, tx pgx.Tx, email string) models.User {
		r := UserRepo{DB: tx}
		user, err := r.CreateUser(t.Context(), repository.CreateUserParams{
			Email:          email,
			HashedPassword: "hash",
			Role:           models.RoleProvider,
		})
		require.NoError(t, err)
		return user
	}

	t.Run("create provider ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			user := createUser(t, tx, "providerA@example.com")
			serviceType := models.ServiceTypeBorehole
			r := ProviderRepo{DB: tx}

			provider, err := r.CreateProvider(t.Context(), repository.CreateProviderParams{
				UserID:      user.ID,
				Name:        "Provider A",
				ServiceType: &serviceType,
			})

			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, provider.ID)
			assert.Equal(t, user.ID, provider.UserID)
			assert.Equal(t, "Provider A", provider.Name)
			require.NotNil(t, provider.ServiceType)
			assert.Equal(t, "borehole", *provider.ServiceType)
			assert.True(t, provider.Rating.IsZero(), "new provider has zero rating")
			assert.Nil(t, provider.Description)
			assert.WithinDuration(t, time.Now(), provider.CreatedAt, time.Second)
		})
	})

	t.Run("second profile for user fail", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			user := createUser(t, tx, "providerA@example.com")
			r := ProviderRepo{DB: tx}
			_, err := r.CreateProvider(t.Context(), repository.CreateProviderParams{UserID: user.ID, Name: "A"})
			require.NoError(t, err)

			_, err = r.CreateProvider(t.Context(), repository.CreateProviderParams{UserID: user.ID, Name: "B"})

			require.ErrorIs(t, err, apperrors.ErrProviderExists)
		})
	})

	t.Run("profile for not existed user fail", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := ProviderRepo{DB: tx}

			_, err := r.CreateProvider(t.Context(), repository.CreateProviderParams{UserID: uuid.New(), Name: "Ghost"})

			require.ErrorIs(t, err, apperrors.ErrUserNotFound)
		})
	})

	t.Run("list providers best rated first", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := ProviderRepo{DB: tx}
			for _, p := range []struct {
				email  string
				name   string
				rating string
			}{
				{"providerA@example.com", "Provider A", "4.5"},
				{"providerB@example.com", "Provider B", "4.0"},
				{"providerC@example.com", "Provider C", "4.8"},
			} {
				user := createUser(t, tx, p.email)
				created, err := r.CreateProvider(t.Context(), repository.CreateProviderParams{UserID: user.ID, Name: p.name})
				require.NoError(t, err)
				_, err = tx.Exec(t.Context(), "UPDATE providers SET rating = $1 WHERE id = $2", p.rating, created.ID)
				require.NoError(t, err)
			}

			providers, err := r.ListProviders(t.Context())

			require.NoError(t, err)
			require.Len(t, providers, 3)
			assert.Equal(t, "Provider C", providers[0].Name)
			assert.Equal(t, "Provider A", providers[1].Name)
			assert.Equal(t, "Provider B", providers[2].Name)
			assert.True(t, providers[0].Rating.Equal(decimal.RequireFromString("4.8")), "rating should be read as decimal")
		})
	})

	t.Run("list empty", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := ProviderRepo{DB: tx}

			providers, err := r.ListProviders(t.Context())

			require.NoError(t, err)
			require.Empty(t, providers)
		})
	})
}
