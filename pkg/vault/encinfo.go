package vault

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/thornpad/thornpad/pkg/crypto"
)

// Encryption metadata constants.
const (
	// EncSchema names the encryption metadata document format.
	EncSchema = "thornpad.encryption"

	// EncVersion is the only encryption declaration version this build
	// knows how to unlock.
	EncVersion = 1

	// EncStateNone declares a plaintext vault.
	EncStateNone = "none"

	// EncStateEnabled declares an encrypted vault.
	EncStateEnabled = "enabled"

	// CipherAESGCM is the only supported cipher identifier.
	CipherAESGCM = "aes-256-gcm"

	// KdfArgon2id is the only supported KDF identifier.
	KdfArgon2id = "argon2id"
)

// EncryptionInfo is the versioned declaration of whether and how a vault is
// encrypted. When State is "enabled", Version, Salt, KdfParams and KeyCheck
// are all mandatory; when "none", Version must be absent.
type EncryptionInfo struct {
	Schema      string            `json:"schema"`
	State       string            `json:"state"`
	Version     int               `json:"version,omitempty"`
	Cipher      string            `json:"cipher,omitempty"`
	Kdf         string            `json:"kdf,omitempty"`
	SaltB64     string            `json:"salt_b64,omitempty"`
	KdfParams   *crypto.KdfParams `json:"kdf_params,omitempty"`
	KeyCheckB64 string            `json:"key_check_b64,omitempty"`
}

// NoneEncryptionInfo returns the declaration for a plaintext vault.
func NoneEncryptionInfo() *EncryptionInfo {
	return &EncryptionInfo{Schema: EncSchema, State: EncStateNone}
}

// Enabled reports whether the vault declares encryption.
func (e *EncryptionInfo) Enabled() bool {
	return e.State == EncStateEnabled
}

// Validate checks the declaration against the exact required shape. Anything
// not matching is rejected rather than coerced.
func (e *EncryptionInfo) Validate() error {
	if e.Schema != EncSchema {
		return fmt.Errorf("%w: encryption schema %q", ErrInvalid, e.Schema)
	}
	switch e.State {
	case EncStateNone:
		if e.Version != 0 {
			return fmt.Errorf("%w: state none must not carry a version", ErrInvalid)
		}
	case EncStateEnabled:
		if e.Version != EncVersion {
			return fmt.Errorf("%w: encryption version %d", ErrVersionUnsupported, e.Version)
		}
		if e.Cipher == "" || e.Kdf == "" {
			return fmt.Errorf("%w: cipher and kdf are required", ErrInvalid)
		}
		if e.SaltB64 == "" {
			return fmt.Errorf("%w: salt is required", ErrInvalid)
		}
		if e.KdfParams == nil || !e.KdfParams.Valid() {
			return fmt.Errorf("%w: kdf parameters are required", ErrInvalid)
		}
		if e.KeyCheckB64 == "" {
			return fmt.Errorf("%w: key check is required", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: encryption state %q", ErrInvalid, e.State)
	}
	return nil
}

// EncInfoStore persists the encryption declaration redundantly as a primary
// file plus a backup copy, and reconciles them at load time. This is the
// vault's only built-in repair mechanism.
type EncInfoStore struct {
	root string
}

// NewEncInfoStore returns a store rooted at the vault directory.
func NewEncInfoStore(root string) *EncInfoStore {
	return &EncInfoStore{root: root}
}

func (s *EncInfoStore) primaryPath() string { return filepath.Join(s.root, EncFileName) }
func (s *EncInfoStore) backupPath() string  { return filepath.Join(s.root, EncBackupFileName) }

// Save validates info and writes the primary file then the backup, each
// atomically. A crash between the two writes leaves them divergent, which
// LoadOrDefault repairs on the next open.
func (s *EncInfoStore) Save(info *EncryptionInfo) error {
	if err := info.Validate(); err != nil {
		return err
	}
	if err := writeJSONAtomic(s.primaryPath(), info); err != nil {
		return err
	}
	return writeJSONAtomic(s.backupPath(), info)
}

// LoadOrDefault loads the encryption declaration.
//
// A missing primary means "no encryption declared", unconditionally: a
// backup alone is never authoritative. A present-but-corrupt primary falls
// back to the backup; if the backup parses and validates, the primary is
// best-effort restored from it. If both fail, the vault cannot be opened
// safely and ErrCorrupt is surfaced.
func (s *EncInfoStore) LoadOrDefault() (*EncryptionInfo, error) {
	info, primaryErr := s.loadFile(s.primaryPath())
	if primaryErr == nil {
		return info, nil
	}
	if os.IsNotExist(primaryErr) {
		return NoneEncryptionInfo(), nil
	}

	info, backupErr := s.loadFile(s.backupPath())
	if backupErr != nil {
		return nil, fmt.Errorf("%w: encryption metadata unreadable (primary: %v; backup: %v)",
			ErrCorrupt, primaryErr, backupErr)
	}

	// Re-heal the primary from the healthy backup. Best effort: a failed
	// restore does not fail the open.
	if err := writeJSONAtomic(s.primaryPath(), info); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to restore %s: %v\n", EncFileName, err)
	}
	return info, nil
}

// loadFile reads and validates one copy of the declaration. Missing files
// are returned as the raw os error so the caller can tell absence from
// corruption.
func (s *EncInfoStore) loadFile(path string) (*EncryptionInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var info EncryptionInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("not valid JSON: %w", err)
	}
	if err := info.Validate(); err != nil {
		return nil, err
	}
	return &info, nil
}
