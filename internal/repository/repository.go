package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/aquanexus/internal/models"
)

type CreateUserParams struct {
	Email          string
	HashedPassword string
	Role           string
	Phone          *string
}

// User repository interface
type UserRepo interface {
	// Create user
	// If user with email exists already has to return error apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, params CreateUserParams) (models.User, error)

	// Get user by it's id or email
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
}

type CreateProviderParams struct {
	UserID      uuid.UUID
	Name        string
	ServiceType *string
	Description *string
}

// Provider profiles repository interface
type ProviderRepo interface {
	// Create provider profile for user
	// If user has profile already has to return apperrors.ErrProviderExists
	CreateProvider(ctx context.Context, params CreateProviderParams) (models.Provider, error)

	// List providers, the best rated first
	ListProviders(ctx context.Context) ([]models.Provider, error)
}

// RefreshToken repository interface
type RefreshTokenRepo interface {
	// Save token in repository
	Save(ctx context.Context, token models.RefreshToken) (models.RefreshToken, error)

	// Return the token owned by user and not expired at the moment 'now'
	// If there is no such token must return apperrors.ErrRefreshTokenNotFound
	GetValid(ctx context.Context, userID uuid.UUID, tokenString string, now time.Time) (models.RefreshToken, error)

	// Delete user token. Must not fail if token not exists
	Delete(ctx context.Context, userID uuid.UUID, tokenString string) error

	// Delete tokens expired before 'now' and return how many were deleted
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type Storage interface {
	User() UserRepo
	Provider() ProviderRepo
	Refresh() RefreshTokenRepo

	// Run fn in transaction
	// Commit if fn returns nil, rollback otherwise
	InTx(ctx context.Context, fn func(Storage) error) error

	// Check storage is reachable
	Ping(ctx context.Context) error
}
