package vault

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/thornpad/thornpad/pkg/crypto"
	"github.com/thornpad/thornpad/pkg/payload"
)

// CryptoState is the tri-state every record and blob operation consults
// before touching disk.
type CryptoState int

const (
	// Unencrypted means the vault declares no encryption. Terminal: a
	// plaintext vault never transitions at runtime.
	Unencrypted CryptoState = iota

	// EncryptedLocked means encryption is declared but no verified key is
	// held.
	EncryptedLocked

	// EncryptedUnlocked means a key has been derived and has passed the
	// key-check ceremony.
	EncryptedUnlocked
)

// String returns a human-readable state name.
func (s CryptoState) String() string {
	switch s {
	case Unencrypted:
		return "unencrypted"
	case EncryptedLocked:
		return "locked"
	case EncryptedUnlocked:
		return "unlocked"
	default:
		return "unknown"
	}
}

// CryptoContext holds the unlock state of one opened vault session. The
// derived key exists only in memory, only while the state is
// EncryptedUnlocked, and is wiped on every transition out of that state.
// The context is private to the session that opened the vault; nothing
// guards two processes unlocking the same vault concurrently.
type CryptoContext struct {
	state CryptoState
	info  *EncryptionInfo
	key   []byte
}

// NewCryptoContext builds the context matching a vault's encryption
// declaration: Unencrypted when none is declared, EncryptedLocked otherwise.
func NewCryptoContext(info *EncryptionInfo) *CryptoContext {
	if info == nil || !info.Enabled() {
		return &CryptoContext{state: Unencrypted}
	}
	return &CryptoContext{state: EncryptedLocked, info: info}
}

// State returns the current state.
func (c *CryptoContext) State() CryptoState {
	return c.state
}

// Sealed reports whether on-disk content is ciphertext.
func (c *CryptoContext) Sealed() bool {
	return c.state != Unencrypted
}

// Unlock derives a key from password with the vault's persisted KDF
// parameters and runs the key-check ceremony. On success the context moves
// to EncryptedUnlocked. An empty password is ErrAuthRequired; a failed key
// check is ErrInvalidCredentials and the context stays locked. Unlocking an
// unencrypted vault is a no-op.
func (c *CryptoContext) Unlock(password string) error {
	if c.state == Unencrypted {
		return nil
	}
	if c.state == EncryptedUnlocked {
		return nil
	}
	if password == "" {
		return ErrAuthRequired
	}

	salt, err := base64.StdEncoding.DecodeString(c.info.SaltB64)
	if err != nil {
		return fmt.Errorf("%w: encryption salt is not valid base64", ErrCorrupt)
	}

	key, err := crypto.DeriveKey([]byte(password), salt, *c.info.KdfParams)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	// The key check is the only place an AEAD failure means "wrong
	// password" rather than "corrupt data". VerifyKeyCheck is structurally
	// incapable of returning the generic decryption failure, so no
	// reclassification happens here.
	if err := crypto.VerifyKeyCheck(key, c.info.KeyCheckB64); err != nil {
		crypto.SecureWipe(key)
		if errors.Is(err, crypto.ErrKeyCheckMismatch) {
			return ErrInvalidCredentials
		}
		return err
	}

	c.key = key
	c.state = EncryptedUnlocked
	return nil
}

// Lock drops back to EncryptedLocked and wipes the in-memory key. Locking
// an unencrypted context is a no-op.
func (c *CryptoContext) Lock() {
	if c.key != nil {
		crypto.SecureWipe(c.key)
		c.key = nil
	}
	if c.state == EncryptedUnlocked {
		c.state = EncryptedLocked
	}
}

// RequireUnlocked asserts the context permits data access: either the vault
// is unencrypted, or it is unlocked. A locked context is ErrLocked - never
// a silent degrade to plaintext.
func (c *CryptoContext) RequireUnlocked() error {
	if c.state == EncryptedLocked {
		return ErrLocked
	}
	return nil
}

// SealToText encrypts plaintext under the session key and returns the
// framed Base64 text that becomes the full file content on disk.
func (c *CryptoContext) SealToText(plaintext []byte) (string, error) {
	if c.state != EncryptedUnlocked {
		return "", ErrLocked
	}
	p, err := crypto.Encrypt(c.key, plaintext, nil)
	if err != nil {
		return "", err
	}
	return payload.Encode(p)
}

// OpenFromText decodes and decrypts framed Base64 text produced by
// SealToText. Framing and AEAD failures are both ErrCorrupt: the key was
// already verified by the key check, so a failure here is damaged data, not
// wrong credentials.
func (c *CryptoContext) OpenFromText(text string) ([]byte, error) {
	if c.state != EncryptedUnlocked {
		return nil, ErrLocked
	}
	p, err := payload.Decode(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	plaintext, err := crypto.Decrypt(c.key, p, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return plaintext, nil
}
