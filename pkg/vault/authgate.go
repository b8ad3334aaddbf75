package vault

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/pbkdf2"

	"github.com/thornpad/thornpad/pkg/crypto"
)

// The password gate is an access verifier, orthogonal to encryption at rest:
// a vault can be gated without being encrypted, encrypted without being
// gated, or both. The gate stores no data-encryption material, only an HMAC
// over the vault id under a PBKDF2-derived verifier key. A cheaper KDF than
// Argon2id is acceptable here because compromise of the verifier reveals no
// vault content.
const (
	// AuthModePassword is the only supported gate mode.
	AuthModePassword = "password"

	// GateIterations is the PBKDF2-SHA256 iteration count for new gates.
	GateIterations = 600000

	gateSaltLength = 16
	gateKeyLength  = 32
)

// AuthRecord is the persisted form of the password gate (auth.json). An
// absent file means the vault is unauthenticated.
type AuthRecord struct {
	Mode       string `json:"mode"`
	SaltB64    string `json:"salt_b64"`
	MacB64     string `json:"mac_b64"`
	Iterations int    `json:"iterations"`
}

// AuthGate verifies an optional vault password against auth.json.
type AuthGate struct {
	root    string
	vaultID string
}

// NewAuthGate returns a gate for the vault identified by vaultID at root.
func NewAuthGate(root, vaultID string) *AuthGate {
	return &AuthGate{root: root, vaultID: vaultID}
}

// Enabled reports whether a gate file is present.
func (g *AuthGate) Enabled() bool {
	_, err := os.Stat(filepath.Join(g.root, AuthFileName))
	return err == nil
}

// Enable creates the gate with a fresh random salt. An empty password is
// ErrInvalid; enabling an already gated vault is ErrAlreadyExists.
func (g *AuthGate) Enable(password string) error {
	if password == "" {
		return fmt.Errorf("%w: password must not be empty", ErrInvalid)
	}
	if g.Enabled() {
		return ErrAlreadyExists
	}

	salt := make([]byte, gateSaltLength)
	if err := fillRandom(salt); err != nil {
		return err
	}

	mac := g.computeMAC(password, salt, GateIterations)
	record := AuthRecord{
		Mode:       AuthModePassword,
		SaltB64:    base64.StdEncoding.EncodeToString(salt),
		MacB64:     base64.StdEncoding.EncodeToString(mac),
		Iterations: GateIterations,
	}
	return writeJSONAtomic(filepath.Join(g.root, AuthFileName), &record)
}

// RequireAuth checks password against the gate. An absent gate passes any
// caller. A present gate with no password is ErrAuthRequired; a present
// gate with a password that fails verification is ErrInvalidCredentials.
func (g *AuthGate) RequireAuth(password string) error {
	data, err := os.ReadFile(filepath.Join(g.root, AuthFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("vault: failed to read auth file: %w", err)
	}

	var record AuthRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return fmt.Errorf("%w: auth file is not valid JSON: %v", ErrCorrupt, err)
	}
	if record.Mode != AuthModePassword || record.SaltB64 == "" || record.MacB64 == "" || record.Iterations <= 0 {
		return fmt.Errorf("%w: auth file is malformed", ErrCorrupt)
	}

	if password == "" {
		return ErrAuthRequired
	}

	salt, err := base64.StdEncoding.DecodeString(record.SaltB64)
	if err != nil {
		return fmt.Errorf("%w: auth salt is not valid base64", ErrCorrupt)
	}
	expected, err := base64.StdEncoding.DecodeString(record.MacB64)
	if err != nil {
		return fmt.Errorf("%w: auth mac is not valid base64", ErrCorrupt)
	}

	actual := g.computeMAC(password, salt, record.Iterations)
	if !hmac.Equal(actual, expected) {
		return ErrInvalidCredentials
	}
	return nil
}

// computeMAC derives the verifier key and computes HMAC(key, vaultID). The
// HMAC input is the vault id so a copied auth.json cannot gate a different
// vault.
func (g *AuthGate) computeMAC(password string, salt []byte, iterations int) []byte {
	key := pbkdf2.Key([]byte(password), salt, iterations, gateKeyLength, sha256.New)
	defer crypto.SecureWipe(key)

	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(g.vaultID))
	return mac.Sum(nil)
}
