package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/aquanexus/internal/apperrors"
	"github.com/nkiryanov/aquanexus/internal/models"
	"github.com/nkiryanov/aquanexus/internal/repository"
	"github.com/nkiryanov/aquanexus/internal/repository/postgres"
	"github.com/nkiryanov/aquanexus/internal/testutil"
)

type brokenRepo struct {
	repository.ProviderRepo
}

func (brokenRepo) ListProviders(context.Context) ([]models.Provider, error) {
	return nil, errors.New("db error: connection refused")
}

func TestProvider(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	t.Run("list providers", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := postgres.NewStorage(tx)
			for _, email := range []string{"first@x.com", "second@x.com"} {
				user, err := storage.User().CreateUser(t.Context(), repository.CreateUserParams{
					Email:          email,
					HashedPassword: "hash",
					Role:           models.RoleProvider,
				})
				require.NoError(t, err)
				_, err = storage.Provider().CreateProvider(t.Context(), repository.CreateProviderParams{UserID: user.ID, Name: email})
				require.NoError(t, err)
			}
			s := NewService(storage.Provider())

			providers, err := s.ListProviders(t.Context())

			require.NoError(t, err)
			require.Len(t, providers, 2)
		})
	})

	t.Run("storage failure", func(t *testing.T) {
		s := NewService(brokenRepo{})

		_, err := s.ListProviders(t.Context())

		require.ErrorIs(t, err, apperrors.ErrStorageUnavailable)
	})
}
