package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func Test_BcryptHasher(t *testing.T) {
	t.Parallel()

	h := BcryptHasher{}

	t.Run("hash password", func(t *testing.T) {
		got, err := h.Hash("password")
		require.NoError(t, err)

		require.Len(t, got, 60, "bcrypt length is 60 letters as far as i know")
		require.Equal(t, "$2a$", got[:4], "bcrypt has should have prefix '$2a$'")
	})

	t.Run("same password different hashes", func(t *testing.T) {
		first, err := h.Hash("pw123")
		require.NoError(t, err)
		second, err := h.Hash("pw123")
		require.NoError(t, err)

		require.NotEqual(t, first, second, "bcrypt salts every hash")
	})

	t.Run("compare password ok", func(t *testing.T) {
		hash, err := h.Hash("password")
		require.NoError(t, err)

		err = h.Compare(hash, "password")

		require.NoError(t, err)
	})

	t.Run("compare long password ok", func(t *testing.T) {
		// bcrypt accepts 72 bytes at most, passwords are prehashed
		long := strings.Repeat("a", 100)
		hash, err := h.Hash(long)
		require.NoError(t, err)

		require.NoError(t, h.Compare(hash, long))
		require.Error(t, h.Compare(hash, strings.Repeat("a", 99)+"b"), "tail of long password matters")
	})

	t.Run("custom cost", func(t *testing.T) {
		hash, err := BcryptHasher{Cost: bcrypt.MinCost}.Hash("password")
		require.NoError(t, err)

		cost, err := bcrypt.Cost([]byte(hash))
		require.NoError(t, err)
		require.Equal(t, bcrypt.MinCost, cost)
		require.NoError(t, h.Compare(hash, "password"), "cost is read from hash on compare")
	})

	t.Run("invalid cost fail", func(t *testing.T) {
		_, err := BcryptHasher{Cost: bcrypt.MaxCost + 1}.Hash("password")

		require.Error(t, err)
	})

	t.Run("dummy hash matches no password", func(t *testing.T) {
		dummy, err := newDummyHash(h)
		require.NoError(t, err)

		cost, err := bcrypt.Cost([]byte(dummy))
		require.NoError(t, err)
		require.Equal(t, bcrypt.DefaultCost, cost, "dummy compare has to cost the same as a real one")
		require.Error(t, h.Compare(dummy, ""))
		require.Error(t, h.Compare(dummy, "password"))
	})

	t.Run("fail compare if wrong password", func(t *testing.T) {
		hash, err := h.Hash("password")
		require.NoError(t, err)

		err = h.Compare(hash, "wrong")

		require.Error(t, err)
	})
}
