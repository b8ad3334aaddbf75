// Package crypto provides the key derivation and authenticated encryption
// primitives for thornpad vaults.
//
// This package implements AES-256-GCM authenticated encryption and Argon2id
// key derivation with persisted, reproducible cost parameters.
//
// # Security Features
//
//   - AES-256-GCM authenticated encryption (96-bit nonce, 128-bit tag)
//   - Argon2id key derivation with caller-supplied cost parameters
//   - Cryptographically secure random nonce generation
//   - A key-check ceremony that distinguishes a wrong password from
//     corrupted ciphertext without ever trusting an unverified key
//   - Secure memory wiping for derived keys
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/crypto/argon2"

	"github.com/thornpad/thornpad/pkg/payload"
)

// Default Argon2id parameters following OWASP recommendations. New vaults
// are created with these; existing vaults always derive with the parameters
// persisted in their encryption metadata.
const (
	// DefaultMemoryKiB is the default memory cost in KiB (64MB).
	DefaultMemoryKiB = 64 * 1024

	// DefaultIterations is the default number of passes.
	DefaultIterations = 3

	// DefaultParallelism is the default degree of parallelism.
	DefaultParallelism = 4

	// KeyLength is the length of derived keys in bytes (256 bits).
	KeyLength = 32

	// SaltLength is the length of generated KDF salts in bytes.
	SaltLength = 16
)

// Sentinel errors returned by crypto functions.
var (
	// ErrInvalidKeyLength indicates the key is not 32 bytes.
	ErrInvalidKeyLength = errors.New("crypto: invalid key length, must be 32 bytes")

	// ErrInvalidParams indicates KDF parameters that cannot derive a key.
	ErrInvalidParams = errors.New("crypto: invalid key derivation parameters")

	// ErrDecryptionFailed indicates authentication tag verification failed on
	// data already under a verified key. Callers classify this as corruption.
	ErrDecryptionFailed = errors.New("crypto: decryption failed, authentication tag verification failed")
)

// KdfParams are the Argon2id cost parameters persisted with a vault so key
// derivation stays reproducible across releases.
type KdfParams struct {
	MemoryKiB   uint32 `json:"memory_kib"`
	Iterations  uint32 `json:"iterations"`
	Parallelism uint8  `json:"parallelism"`
}

// DefaultKdfParams returns the parameters used for newly created vaults.
func DefaultKdfParams() KdfParams {
	return KdfParams{
		MemoryKiB:   DefaultMemoryKiB,
		Iterations:  DefaultIterations,
		Parallelism: DefaultParallelism,
	}
}

// Valid reports whether the parameters can drive a derivation.
func (p KdfParams) Valid() bool {
	return p.MemoryKiB > 0 && p.Iterations > 0 && p.Parallelism > 0
}

// GenerateSalt generates a cryptographically secure random KDF salt.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("crypto: failed to generate salt: %w", err)
	}
	return salt, nil
}

// DeriveKey derives a 256-bit encryption key from a password using Argon2id
// with the given persisted parameters. Derivation is fully deterministic:
// the same password, salt and parameters always yield the same key.
//
// This is intentionally slow (hundreds of milliseconds) to resist brute
// force; callers must not treat the latency as a timeout condition.
func DeriveKey(password, salt []byte, params KdfParams) ([]byte, error) {
	if !params.Valid() {
		return nil, ErrInvalidParams
	}
	if len(salt) == 0 {
		return nil, ErrInvalidParams
	}
	key := argon2.IDKey(password, salt, params.Iterations, params.MemoryKiB, params.Parallelism, KeyLength)
	return key, nil
}

// Encrypt encrypts plaintext using AES-256-GCM with a fresh random 96-bit
// nonce and returns the nonce/ciphertext/tag triple. aad is optional
// associated data bound into the authentication tag.
func Encrypt(key, plaintext, aad []byte) (*payload.Payload, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, payload.NonceLength)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("crypto: failed to generate nonce: %w", err)
	}

	// Seal appends the 16-byte tag to the ciphertext; split it back out so
	// the triple always moves through the payload codec.
	sealed := gcm.Seal(nil, nonce, plaintext, aad)
	split := len(sealed) - payload.TagLength

	return &payload.Payload{
		Nonce:      nonce,
		Ciphertext: sealed[:split],
		Tag:        sealed[split:],
	}, nil
}

// Decrypt verifies and decrypts a payload produced by Encrypt. Any
// authentication failure returns ErrDecryptionFailed; altered plaintext is
// never returned.
func Decrypt(key []byte, p *payload.Payload, aad []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(p.Nonce) != payload.NonceLength {
		return nil, payload.ErrInvalidNonceLength
	}
	if len(p.Tag) != payload.TagLength {
		return nil, payload.ErrInvalidTagLength
	}

	sealed := make([]byte, 0, len(p.Ciphertext)+len(p.Tag))
	sealed = append(sealed, p.Ciphertext...)
	sealed = append(sealed, p.Tag...)

	plaintext, err := gcm.Open(nil, p.Nonce, sealed, aad)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeyLength {
		return nil, ErrInvalidKeyLength
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("crypto: failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("crypto: failed to create GCM: %w", err)
	}
	return gcm, nil
}

// SecureWipe overwrites a byte slice with zeros in a way that prevents
// compiler optimization from removing the operation. Used to destroy derived
// keys whenever a vault session leaves the unlocked state.
func SecureWipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
	// runtime.KeepAlive ensures the write operations are not optimized away
	// by the compiler since b is still "in use" after the loop.
	runtime.KeepAlive(b)
}
