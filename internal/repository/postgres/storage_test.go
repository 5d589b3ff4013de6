package postgres

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/aquanexus/internal/apperrors"
	"github.com/nkiryanov/aquanexus/internal/models"
	"github.com/nkiryanov/aquanexus/internal/repository"
	"github.com/nkiryanov/aquanexus/internal/testutil"
)

func Test_Storage(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	params := repository.CreateUserParams{Email: "tx@x.com", HashedPassword: "hash", Role: models.RoleUser}

	t.Run("ping ok", func(t *testing.T) {
		err := NewStorage(pg.Pool).Ping(t.Context())

		require.NoError(t, err)
	})

	t.Run("in tx commit", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			s := NewStorage(tx)

			err := s.InTx(t.Context(), func(s repository.Storage) error {
				_, err := s.User().CreateUser(t.Context(), params)
				return err
			})
			require.NoError(t, err)

			_, err = s.User().GetUserByEmail(t.Context(), params.Email)
			require.NoError(t, err, "user should be committed")
		})
	})

	t.Run("in tx rollback on error", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			s := NewStorage(tx)
			errBoom := errors.New("boom")

			err := s.InTx(t.Context(), func(s repository.Storage) error {
				_, err := s.User().CreateUser(t.Context(), params)
				require.NoError(t, err)
				return errBoom
			})
			require.ErrorIs(t, err, errBoom, "fn error should be returned as is")

			_, err = s.User().GetUserByEmail(t.Context(), params.Email)
			require.ErrorIs(t, err, apperrors.ErrUserNotFound, "user must be rolled back")
		})
	})

	t.Run("in tx rollback on panic", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			s := NewStorage(tx)

			require.PanicsWithValue(t, "boom", func() {
				_ = s.InTx(t.Context(), func(s repository.Storage) error {
					_, err := s.User().CreateUser(t.Context(), params)
					require.NoError(t, err)
					panic("boom")
				})
			}, "panic has to reach the caller")

			_, err := s.User().GetUserByEmail(t.Context(), params.Email)
			require.ErrorIs(t, err, apperrors.ErrUserNotFound, "user must be rolled back")
		})
	})
}
