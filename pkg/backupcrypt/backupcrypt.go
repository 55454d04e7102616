// Package backupcrypt implements the password-based encryption of a user's
// key export. It runs client-side: the server only ever stores the sealed
// envelope and the derivation parameters needed to open it again.
package backupcrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/pbkdf2"

	"keydepot/pkg/errors"
)

const (
	KeySize  = 32
	SaltSize = 16
	IVSize   = 12
	TagSize  = 16

	// DefaultIterations is the PBKDF2 work factor for new backups. Old
	// envelopes carry their own iteration count, so raising this never
	// breaks restores.
	DefaultIterations = 600_000
)

// Envelope mirrors the KeyBackup storage columns: ciphertext, IV and auth
// tag are kept apart so the server schema stays agnostic of the AEAD.
type Envelope struct {
	Ciphertext []byte
	IV         []byte
	AuthTag    []byte
	Salt       []byte
	Iterations int
}

// DeriveKey is the pure (password, salt, iterations) → key function.
func DeriveKey(password string, salt []byte, iterations int) []byte {
	return pbkdf2.Key([]byte(password), salt, iterations, KeySize, sha256.New)
}

// Seal encrypts plaintext under a key derived from password with a fresh
// salt and IV.
func Seal(password string, plaintext []byte) (*Envelope, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, err
	}
	iv := make([]byte, IVSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, err
	}

	gcm, err := newGCM(DeriveKey(password, salt, DefaultIterations))
	if err != nil {
		return nil, err
	}

	sealed := gcm.Seal(nil, iv, plaintext, nil)
	tagStart := len(sealed) - TagSize

	return &Envelope{
		Ciphertext: sealed[:tagStart],
		AuthTag:    sealed[tagStart:],
		IV:         iv,
		Salt:       salt,
		Iterations: DefaultIterations,
	}, nil
}

// Open decrypts an envelope. Every failure mode — wrong password, corrupted
// ciphertext, truncated fields — collapses into the one generic
// ErrRestoreFailed so nothing upstream can tell them apart.
func Open(password string, env *Envelope) ([]byte, error) {
	if env == nil || len(env.IV) != IVSize || len(env.AuthTag) != TagSize || env.Iterations <= 0 {
		return nil, errors.ErrRestoreFailed
	}

	gcm, err := newGCM(DeriveKey(password, env.Salt, env.Iterations))
	if err != nil {
		return nil, errors.ErrRestoreFailed
	}

	sealed := make([]byte, 0, len(env.Ciphertext)+TagSize)
	sealed = append(sealed, env.Ciphertext...)
	sealed = append(sealed, env.AuthTag...)

	plaintext, err := gcm.Open(nil, env.IV, sealed, nil)
	if err != nil {
		return nil, errors.ErrRestoreFailed
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
