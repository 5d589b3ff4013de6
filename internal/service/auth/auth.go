package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/aquanexus/internal/apperrors"
	"github.com/nkiryanov/aquanexus/internal/models"
	"github.com/nkiryanov/aquanexus/internal/repository"
)

// Interface to create or compare user password hashes
type PasswordHasher interface {
	// Generate Hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Must be protected against timing attacks
	Compare(hashedPassword string, password string) error
}

// Issue and parse signed tokens
type TokenManager interface {
	IssueAccess(user models.User) (models.IssuedToken, error)
	IssueRefresh(user models.User) (models.RefreshToken, error)
	ParseAccess(access string) (models.Identity, error)
	ParseRefresh(refresh string) (uuid.UUID, error)

	// Current time as token manager sees it
	Now() time.Time
}

type Config struct {
	// Hasher to use during user registration or login process
	// BcryptHasher if not set
	Hasher PasswordHasher
}

type AuthService struct {
	// Manager to issue tokens (access and refresh)
	tokens TokenManager

	// hasher to hash or compare user passwords
	hasher PasswordHasher

	// Hash to compare with when user not found, so login takes the same time
	dummyHash string

	// Storage to access long term data
	storage repository.Storage
}

func NewService(cfg Config, tokens TokenManager, storage repository.Storage) (*AuthService, error) {
	if tokens == nil || storage == nil {
		return nil, errors.New("token manager and storage must not be nil")
	}

	// Set default bcrypt hasher if not provided by user
	hasher := cfg.Hasher
	if hasher == nil {
		hasher = BcryptHasher{}
	}

	dummyHash, err := newDummyHash(hasher)
	if err != nil {
		return nil, err
	}

	return &AuthService{
		tokens:    tokens,
		hasher:    hasher,
		dummyHash: dummyHash,
		storage:   storage,
	}, nil
}

type RegisterParams struct {
	Email    string
	Password string

	// 'user' or 'provider', 'user' if empty
	Role string

	// Provider profile fields. Name is required for providers
	Name        string
	ServiceType *string
	Description *string

	Phone *string
}

// Register new user and open session for it
// User, provider profile and refresh token are created in one transaction
func (s *AuthService) Register(ctx context.Context, params RegisterParams) (models.Session, error) {
	var session models.Session

	email := NormalizeEmail(params.Email)
	if email == "" || params.Password == "" {
		return session, apperrors.ErrMissingCredentials
	}

	role := params.Role
	if role == "" {
		role = models.RoleUser
	}
	// Admins can't register themselves
	if role != models.RoleUser && role != models.RoleProvider {
		return session, fmt.Errorf("%w: %q", apperrors.ErrInvalidRole, params.Role)
	}

	name := strings.TrimSpace(params.Name)
	if role == models.RoleProvider {
		if name == "" {
			return session, apperrors.ErrProviderNameRequired
		}
		if params.ServiceType != nil && !models.IsKnownServiceType(*params.ServiceType) {
			return session, fmt.Errorf("%w: %q", apperrors.ErrInvalidServiceType, *params.ServiceType)
		}
	}

	hash, err := s.hasher.Hash(params.Password)
	if err != nil {
		return session, fmt.Errorf("can't use this as password, error=%w", err)
	}

	err = s.storage.InTx(ctx, func(storage repository.Storage) error {
		user, err := storage.User().CreateUser(ctx, repository.CreateUserParams{
			Email:          email,
			HashedPassword: hash,
			Role:           role,
			Phone:          params.Phone,
		})
		if err != nil {
			return err
		}

		if role == models.RoleProvider {
			_, err = storage.Provider().CreateProvider(ctx, repository.CreateProviderParams{
				UserID:      user.ID,
				Name:        name,
				ServiceType: params.ServiceType,
				Description: params.Description,
			})
			if err != nil {
				return err
			}
		}

		session, err = s.openSession(ctx, storage, user)
		return err
	})

	switch {
	case err == nil:
		return session, nil
	case errors.Is(err, apperrors.ErrUserAlreadyExists):
		return models.Session{}, apperrors.ErrUserAlreadyExists
	default:
		return models.Session{}, apperrors.WrapStorage(err)
	}
}

// Login user by email and password and open new session
// Sessions opened before stay valid
func (s *AuthService) Login(ctx context.Context, email string, password string) (models.Session, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return models.Session{}, apperrors.ErrMissingCredentials
	}

	user, err := s.storage.User().GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		// Compare anyway so unknown email is not distinguishable by response time
		_ = s.hasher.Compare(s.dummyHash, password)
		return models.Session{}, apperrors.ErrInvalidCredentials
	case err != nil:
		return models.Session{}, apperrors.WrapStorage(err)
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return models.Session{}, apperrors.ErrInvalidCredentials
	}

	session, err := s.openSession(ctx, s.storage, user)
	if err != nil {
		return models.Session{}, apperrors.WrapStorage(err)
	}

	return session, nil
}

// Exchange refresh token for new access token
// Token has to be correctly signed, not expired and still stored
// Refresh token itself is not rotated
func (s *AuthService) Refresh(ctx context.Context, refresh string) (models.IssuedToken, error) {
	userID, err := s.tokens.ParseRefresh(refresh)
	if err != nil {
		return models.IssuedToken{}, err
	}

	_, err = s.storage.Refresh().GetValid(ctx, userID, refresh, s.tokens.Now())
	switch {
	case errors.Is(err, apperrors.ErrRefreshTokenNotFound):
		return models.IssuedToken{}, fmt.Errorf("%w: %w", apperrors.ErrInvalidRefreshToken, err)
	case err != nil:
		return models.IssuedToken{}, apperrors.WrapStorage(err)
	}

	user, err := s.storage.User().GetUserByID(ctx, userID)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		return models.IssuedToken{}, fmt.Errorf("%w: %w", apperrors.ErrInvalidRefreshToken, err)
	case err != nil:
		return models.IssuedToken{}, apperrors.WrapStorage(err)
	}

	access, err := s.tokens.IssueAccess(user)
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("token could not generated, sorry. %w", err)
	}

	return access, nil
}

// Revoke user refresh token
// It's ok if token does not exist or belongs to other user: nothing is deleted then
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID, refresh string) error {
	if refresh == "" {
		return apperrors.ErrInvalidRefreshToken
	}

	if err := s.storage.Refresh().Delete(ctx, userID, refresh); err != nil {
		return apperrors.WrapStorage(err)
	}
	return nil
}

// Verify access token. Storage is not touched
func (s *AuthService) VerifyAccess(ctx context.Context, access string) (models.Identity, error) {
	return s.tokens.ParseAccess(access)
}

// Delete expired refresh tokens, return how many were deleted
func (s *AuthService) PurgeExpired(ctx context.Context) (int64, error) {
	deleted, err := s.storage.Refresh().DeleteExpired(ctx, s.tokens.Now())
	if err != nil {
		return 0, apperrors.WrapStorage(err)
	}
	return deleted, nil
}

// Issue token pair and persist refresh token
func (s *AuthService) openSession(ctx context.Context, storage repository.Storage, user models.User) (models.Session, error) {
	access, err := s.tokens.IssueAccess(user)
	if err != nil {
		return models.Session{}, fmt.Errorf("token could not generated, sorry. %w", err)
	}

	refresh, err := s.tokens.IssueRefresh(user)
	if err != nil {
		return models.Session{}, fmt.Errorf("token could not generated, sorry. %w", err)
	}

	refresh, err = storage.Refresh().Save(ctx, refresh)
	if err != nil {
		return models.Session{}, err
	}

	return models.Session{
		Access:  access,
		Refresh: models.IssuedToken{Value: refresh.Token, ExpiresAt: refresh.ExpiresAt},
		User:    user,
	}, nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
