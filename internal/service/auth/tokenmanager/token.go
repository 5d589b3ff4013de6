package tokenmanager

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nkiryanov/aquanexus/internal/apperrors"
	"github.com/nkiryanov/aquanexus/internal/models"
)

const (
	defaultAccessTokenTTL  = time.Hour
	defaultSigningMethod   = "HS256"
	defaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Value of 'typ' claim. Prevents to use refresh token as access one and vice versa
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

type AccessTokenClaims struct {
	jwt.RegisteredClaims
	UserID uuid.UUID `json:"uid"`
	Role   string    `json:"role"`
	Type   string    `json:"typ"`
}

type RefreshTokenClaims struct {
	jwt.RegisteredClaims
	UserID uuid.UUID `json:"uid"`
	Type   string    `json:"typ"`
}

// Token manager with sensible default
type Config struct {
	// Secret key to sign access token
	// Required to be set
	SecretKey string

	// Secret key to sign refresh token
	// SecretKey is used if not set
	RefreshSecretKey string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set than default is used
	Alg string

	// Access and refresh token lifetimes
	// If not set than default is used
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Clock, time.Now if not set
	Now func() time.Time
}

type TokenManager struct {
	// Secret keys to sign access and refresh tokens
	key        []byte
	refreshKey []byte

	// JWT MAC (Message Authentication Code) algorithm
	alg jwt.SigningMethod

	// Access and refresh token lifetimes
	accessTTL  time.Duration
	refreshTTL time.Duration

	now func() time.Time
}

func New(cfg Config) (*TokenManager, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("secret key must not be empty")
	}

	if cfg.RefreshSecretKey == "" {
		cfg.RefreshSecretKey = cfg.SecretKey
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}
	alg := jwt.GetSigningMethod(cfg.Alg)
	if _, ok := alg.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unsupported signing method %q, only HMAC methods allowed", cfg.Alg)
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field <= 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.AccessTTL, defaultAccessTokenTTL)
	setDefaultDuration(&cfg.RefreshTTL, defaultRefreshTokenTTL)

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &TokenManager{
		key:        []byte(cfg.SecretKey),
		refreshKey: []byte(cfg.RefreshSecretKey),
		alg:        alg,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        cfg.Now,
	}, nil
}

// Current time truncated to seconds, the precision of JWT NumericDate
func (m *TokenManager) Now() time.Time {
	return m.now().Truncate(time.Second)
}

// Issue signed access token for the user
func (m *TokenManager) IssueAccess(user models.User) (models.IssuedToken, error) {
	now := m.Now()
	expiresAt := now.Add(m.accessTTL)

	token := jwt.NewWithClaims(
		m.alg,
		AccessTokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(expiresAt),
			},
			UserID: user.ID,
			Role:   user.Role,
			Type:   TypeAccess,
		},
	)
	access, err := token.SignedString(m.key)
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("error while signing access token. Err: %w", err)
	}

	return models.IssuedToken{Value: access, ExpiresAt: expiresAt}, nil
}

// Issue signed refresh token for the user
// Returned token is not saved anywhere, caller has to persist it
func (m *TokenManager) IssueRefresh(user models.User) (models.RefreshToken, error) {
	now := m.Now()
	expiresAt := now.Add(m.refreshTTL)
	jti := uuid.New()

	token := jwt.NewWithClaims(
		m.alg,
		RefreshTokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        jti.String(),
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(expiresAt),
			},
			UserID: user.ID,
			Type:   TypeRefresh,
		},
	)
	refresh, err := token.SignedString(m.refreshKey)
	if err != nil {
		return models.RefreshToken{}, fmt.Errorf("error while signing refresh token. Err: %w", err)
	}

	return models.RefreshToken{
		ID:        jti,
		UserID:    user.ID,
		Token:     refresh,
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}, nil
}

// Parse and validate access token
// Any failure is reported as apperrors.ErrInvalidAccessToken
func (m *TokenManager) ParseAccess(access string) (models.Identity, error) {
	claims := &AccessTokenClaims{}

	err := m.parse(access, claims, m.key)
	switch {
	case err != nil:
		return models.Identity{}, fmt.Errorf("%w: %w", apperrors.ErrInvalidAccessToken, err)
	case claims.Type != TypeAccess:
		return models.Identity{}, fmt.Errorf("%w: unexpected token type %q", apperrors.ErrInvalidAccessToken, claims.Type)
	case claims.UserID == uuid.Nil:
		return models.Identity{}, fmt.Errorf("%w: token without user", apperrors.ErrInvalidAccessToken)
	}

	return models.Identity{UserID: claims.UserID, Role: claims.Role}, nil
}

// Parse and validate refresh token, return its owner
// Token existence in storage is not checked here
func (m *TokenManager) ParseRefresh(refresh string) (uuid.UUID, error) {
	claims := &RefreshTokenClaims{}

	err := m.parse(refresh, claims, m.refreshKey)
	switch {
	case err != nil:
		return uuid.Nil, fmt.Errorf("%w: %w", apperrors.ErrInvalidRefreshToken, err)
	case claims.Type != TypeRefresh:
		return uuid.Nil, fmt.Errorf("%w: unexpected token type %q", apperrors.ErrInvalidRefreshToken, claims.Type)
	case claims.UserID == uuid.Nil:
		return uuid.Nil, fmt.Errorf("%w: token without user", apperrors.ErrInvalidRefreshToken)
	}

	return claims.UserID, nil
}

func (m *TokenManager) parse(value string, claims jwt.Claims, key []byte) error {
	_, err := jwt.ParseWithClaims(
		value,
		claims,
		func(t *jwt.Token) (any, error) {
			return key, nil
		},
		jwt.WithValidMethods([]string{m.alg.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return fmt.Errorf("error while parsing or validating token. Err: %w", err)
	}
	return nil
}
