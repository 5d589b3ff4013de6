package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrMissingCredentials = errors.New("email and password are required")

	// Same error for unknown email and wrong password
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrInvalidRole          = errors.New("invalid role")
	ErrInvalidServiceType   = errors.New("invalid service type")
	ErrProviderNameRequired = errors.New("provider name is required")
	ErrProviderExists       = errors.New("provider profile already exists")

	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrInvalidRefreshToken  = errors.New("invalid refresh token")
	ErrInvalidAccessToken   = errors.New("invalid access token")

	ErrTooManyAttempts = errors.New("too many attempts")

	// Storage failed for reasons not related to the request itself (connection lost, etc.)
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// Mark err as storage failure unless it is already marked
func WrapStorage(err error) error {
	if err == nil || errors.Is(err, ErrStorageUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
}
