package crypto

import (
	"bytes"
	"errors"

	"github.com/thornpad/thornpad/pkg/payload"
)

// keyCheckPlaintext is the fixed well-known constant encrypted under every
// vault key at enable time. Decrypting it successfully proves the candidate
// key before any real data is touched.
const keyCheckPlaintext = "thornpad.keycheck.v1"

// ErrKeyCheckMismatch indicates the candidate key failed the key-check
// ceremony. At the unlock call site a wrong password is the overwhelmingly
// likely cause, so this is deliberately a different error than
// ErrDecryptionFailed: key-check failures mean "still locked", while AEAD
// failures on real data after a successful key check mean "corrupt".
var ErrKeyCheckMismatch = errors.New("crypto: key check failed, wrong key")

// BuildKeyCheck encrypts the key-check constant under key and returns the
// framed Base64 text to persist in the encryption metadata.
func BuildKeyCheck(key []byte) (string, error) {
	p, err := Encrypt(key, []byte(keyCheckPlaintext), nil)
	if err != nil {
		return "", err
	}
	return payload.Encode(p)
}

// VerifyKeyCheck decrypts a persisted key check under the candidate key.
// Any failure to recover the exact key-check constant - bad framing, AEAD
// failure, or altered plaintext - returns ErrKeyCheckMismatch. It never
// surfaces ErrDecryptionFailed, so callers cannot confuse a wrong password
// with data corruption.
func VerifyKeyCheck(key []byte, keyCheckText string) error {
	p, err := payload.Decode(keyCheckText)
	if err != nil {
		return ErrKeyCheckMismatch
	}
	plaintext, err := Decrypt(key, p, nil)
	if err != nil {
		return ErrKeyCheckMismatch
	}
	if !bytes.Equal(plaintext, []byte(keyCheckPlaintext)) {
		return ErrKeyCheckMismatch
	}
	return nil
}
