package auth

import (
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Never accepted as password: hashes of it stand in for accounts that do not exist
const dummyPassword = "aquanexus-no-such-account"

// Bcrypt over SHA-256 digest of the password, so bytes after bcrypt's 72 byte limit still count
// Default hasher of AuthService
type BcryptHasher struct {
	// bcrypt.DefaultCost if zero
	Cost int
}

func (h BcryptHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	digest := prehash(password)
	hash, err := bcrypt.GenerateFromPassword(digest[:], cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt error: %w", err)
	}
	return string(hash), nil
}

func (h BcryptHasher) Compare(hashedPassword string, password string) error {
	digest := prehash(password)
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), digest[:])
}

func prehash(password string) [sha256.Size]byte {
	return sha256.Sum256([]byte(password))
}

// Hash to compare passwords with when the account is unknown
// Made by the same hasher, so comparison costs the same as for real accounts
func newDummyHash(hasher PasswordHasher) (string, error) {
	hash, err := hasher.Hash(dummyPassword)
	if err != nil {
		return "", fmt.Errorf("could not prepare dummy hash: %w", err)
	}
	return hash, nil
}
