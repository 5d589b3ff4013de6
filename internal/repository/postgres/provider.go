package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/aquanexus/internal/apperrors"
	"github.com/nkiryanov/aquanexus/internal/models"
	"github.com/nkiryanov/aquanexus/internal/repository"
)

type ProviderRepo struct {
	DB DBTX
}

func (r *ProviderRepo) CreateProvider(ctx context.Context, params repository.CreateProviderParams) (models.Provider, error) {
	const createProvider = `
	INSERT INTO providers (id, user_id, name, service_type, description)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id, user_id, created_at, name, service_type, rating, description
	`

	rows, _ := r.DB.Query(ctx, createProvider, uuid.New(), params.UserID, params.Name, params.ServiceType, params.Description)
	provider, err := pgx.CollectOneRow(rows, rowToProvider)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return provider, apperrors.ErrProviderExists
		}
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return provider, apperrors.ErrUserNotFound
		}

		return provider, fmt.Errorf("db error: %w", err)
	}

	return provider, nil
}

func (r *ProviderRepo) ListProviders(ctx context.Context) ([]models.Provider, error) {
	const listProviders = `
	SELECT id, user_id, created_at, name, service_type, rating, description
	FROM providers
	ORDER BY rating DESC, created_at ASC
	`

	rows, _ := r.DB.Query(ctx, listProviders)
	providers, err := pgx.CollectRows(rows, rowToProvider)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return providers, nil
}

func rowToProvider(row pgx.CollectableRow) (models.Provider, error) {
	var p models.Provider
	err := row.Scan(&p.ID, &p.UserID, &p.CreatedAt, &p.Name, &p.ServiceType, &p.Rating, &p.Description)
	return p, err
}
