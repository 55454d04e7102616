package backupcrypt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keydepot/pkg/errors"
)

func TestSealOpen(t *testing.T) {
	plaintext := []byte(`{"devices":[{"id":"laptop"}],"keys":"..."}`)

	env, err := Seal("correct horse battery staple", plaintext)
	require.NoError(t, err)
	require.Len(t, env.IV, IVSize)
	require.Len(t, env.AuthTag, TagSize)
	require.Len(t, env.Salt, SaltSize)
	assert.Equal(t, DefaultIterations, env.Iterations)
	assert.NotContains(t, string(env.Ciphertext), "laptop")

	got, err := Open("correct horse battery staple", env)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestOpenFailsClosed(t *testing.T) {
	env, err := Seal("right password", []byte("secret export"))
	require.NoError(t, err)

	t.Run("wrong password", func(t *testing.T) {
		_, err := Open("wrong password", env)
		assert.Equal(t, errors.ErrRestoreFailed, err)
	})

	t.Run("corrupted ciphertext", func(t *testing.T) {
		bad := *env
		bad.Ciphertext = append([]byte(nil), env.Ciphertext...)
		bad.Ciphertext[0] ^= 0xFF

		_, err := Open("right password", &bad)
		assert.Equal(t, errors.ErrRestoreFailed, err)
	})

	t.Run("tampered auth tag", func(t *testing.T) {
		bad := *env
		bad.AuthTag = append([]byte(nil), env.AuthTag...)
		bad.AuthTag[0] ^= 0xFF

		_, err := Open("right password", &bad)
		assert.Equal(t, errors.ErrRestoreFailed, err)
	})

	t.Run("truncated envelope", func(t *testing.T) {
		bad := *env
		bad.IV = bad.IV[:4]

		_, err := Open("right password", &bad)
		assert.Equal(t, errors.ErrRestoreFailed, err)
	})

	// Wrong password and corruption must be indistinguishable.
	t.Run("identical failure for password vs corruption", func(t *testing.T) {
		_, errPassword := Open("wrong password", env)

		bad := *env
		bad.Ciphertext = append([]byte(nil), env.Ciphertext...)
		bad.Ciphertext[0] ^= 0xFF
		_, errCorrupt := Open("right password", &bad)

		assert.Equal(t, errPassword, errCorrupt)
	})
}

func TestDeriveKeyDeterministic(t *testing.T) {
	salt := make([]byte, SaltSize)

	k1 := DeriveKey("password", salt, 1000)
	k2 := DeriveKey("password", salt, 1000)
	assert.Equal(t, k1, k2)
	assert.Len(t, k1, KeySize)

	assert.NotEqual(t, k1, DeriveKey("Password", salt, 1000))
	assert.NotEqual(t, k1, DeriveKey("password", salt, 1001))
}
