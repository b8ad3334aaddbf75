// Package vault implements a local file-based vault of markdown records and
// content-addressed blobs, optionally encrypted at rest with Argon2id and
// AES-256-GCM. The vault directory is the only shared mutable resource;
// safety comes from atomic temp+rename writes, not from locks. Nothing
// guards two processes opening the same vault concurrently.
package vault

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/thornpad/thornpad/pkg/audit"
	"github.com/thornpad/thornpad/pkg/crypto"
)

// Vault is one opened session against a vault directory. The derived key,
// when present, lives only inside the session's crypto context.
type Vault struct {
	root    string
	info    *VaultInfo
	gate    *AuthGate
	encs    *EncInfoStore
	ctx     *CryptoContext
	records *RecordStore
	blobs   *BlobStore
	log     *audit.Logger
}

// Init creates a new vault at root and returns an open session on it. The
// new vault is unencrypted and ungated; see EnableEncryption and
// EnablePasswordGate.
func Init(root string) (*Vault, error) {
	info, err := InitVault(root)
	if err != nil {
		return nil, err
	}
	v := assemble(root, info, NewCryptoContext(nil))
	v.log.Record("vault.init", info.VaultID.String(), nil)
	return v, nil
}

// Open validates the vault identity, checks the password gate, loads the
// encryption declaration and attempts an unlock.
//
// When the vault is encrypted and password is empty, Open returns the
// session in its locked state together with ErrAuthRequired; when the
// password fails the key check it returns the locked session with
// ErrInvalidCredentials. In both cases the caller may prompt and call
// Unlock on the returned session. Every other error returns a nil session.
func Open(root, password string) (*Vault, error) {
	info, err := ValidateVault(root)
	if err != nil {
		return nil, err
	}

	gate := NewAuthGate(root, info.VaultID.String())
	if err := gate.RequireAuth(password); err != nil {
		return nil, err
	}

	encInfo, err := NewEncInfoStore(root).LoadOrDefault()
	if err != nil {
		return nil, err
	}

	v := assemble(root, info, NewCryptoContext(encInfo))
	unlockErr := v.ctx.Unlock(password)
	v.log.Record("vault.open", info.VaultID.String(), unlockErr)
	if unlockErr != nil {
		return v, unlockErr
	}
	return v, nil
}

func assemble(root string, info *VaultInfo, ctx *CryptoContext) *Vault {
	v := &Vault{
		root: root,
		info: info,
		gate: NewAuthGate(root, info.VaultID.String()),
		encs: NewEncInfoStore(root),
		ctx:  ctx,
		log:  audit.New(root),
	}
	v.records = NewRecordStore(root, ctx)
	v.blobs = NewBlobStore(root, ctx)
	return v
}

// Info returns the vault identity.
func (v *Vault) Info() *VaultInfo {
	return v.info
}

// State returns the session's crypto state.
func (v *Vault) State() CryptoState {
	return v.ctx.State()
}

// Encrypted reports whether the vault declares encryption at rest.
func (v *Vault) Encrypted() bool {
	return v.ctx.Sealed()
}

// Gated reports whether a password gate is configured.
func (v *Vault) Gated() bool {
	return v.gate.Enabled()
}

// Unlock derives a key from password and verifies it against the key check.
func (v *Vault) Unlock(password string) error {
	err := v.ctx.Unlock(password)
	v.log.Record("vault.unlock", v.info.VaultID.String(), err)
	return err
}

// Lock discards the in-memory key and returns the session to its locked
// state. Locking an unencrypted vault is a no-op.
func (v *Vault) Lock() {
	v.ctx.Lock()
	v.log.Record("vault.lock", v.info.VaultID.String(), nil)
}

// Close locks the session. Sessions hold no other resources.
func (v *Vault) Close() {
	v.ctx.Lock()
}

// EnableEncryption turns on encryption at rest. It is only permitted while
// the vault holds no records, trashed records or blobs: existing plaintext
// content is never rewritten in place. The session ends up unlocked under
// the new key.
func (v *Vault) EnableEncryption(password string) error {
	err := v.enableEncryption(password)
	v.log.Record("vault.encrypt", v.info.VaultID.String(), err)
	return err
}

func (v *Vault) enableEncryption(password string) error {
	if password == "" {
		return fmt.Errorf("%w: password must not be empty", ErrInvalid)
	}
	if v.ctx.Sealed() {
		return fmt.Errorf("%w: encryption is already enabled", ErrAlreadyExists)
	}

	empty, err := v.isEmpty()
	if err != nil {
		return err
	}
	if !empty {
		return fmt.Errorf("%w: encryption can only be enabled on an empty vault", ErrInvalid)
	}

	salt, err := crypto.GenerateSalt()
	if err != nil {
		return err
	}
	params := crypto.DefaultKdfParams()

	key, err := crypto.DeriveKey([]byte(password), salt, params)
	if err != nil {
		return err
	}
	defer crypto.SecureWipe(key)

	keyCheck, err := crypto.BuildKeyCheck(key)
	if err != nil {
		return err
	}

	encInfo := &EncryptionInfo{
		Schema:      EncSchema,
		State:       EncStateEnabled,
		Version:     EncVersion,
		Cipher:      CipherAESGCM,
		Kdf:         KdfArgon2id,
		SaltB64:     base64.StdEncoding.EncodeToString(salt),
		KdfParams:   &params,
		KeyCheckB64: keyCheck,
	}
	if err := v.encs.Save(encInfo); err != nil {
		return err
	}

	// Rebuild the context from the persisted declaration and unlock through
	// the normal ceremony, so the session key provably matches what future
	// opens will derive.
	ctx := NewCryptoContext(encInfo)
	if err := ctx.Unlock(password); err != nil {
		return err
	}
	v.ctx = ctx
	v.records = NewRecordStore(v.root, ctx)
	v.blobs = NewBlobStore(v.root, ctx)
	return nil
}

// EnablePasswordGate configures the optional password gate. The gate is
// orthogonal to encryption: it verifies access but protects no content.
func (v *Vault) EnablePasswordGate(password string) error {
	err := v.gate.Enable(password)
	v.log.Record("vault.gate", v.info.VaultID.String(), err)
	return err
}

// isEmpty reports whether the vault holds no records, trash or blobs.
func (v *Vault) isEmpty() (bool, error) {
	for _, dir := range []string{RecordsDirName, TrashDirName} {
		entries, err := os.ReadDir(filepath.Join(v.root, dir))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return false, fmt.Errorf("vault: failed to read %s: %w", dir, err)
		}
		if len(entries) > 0 {
			return false, nil
		}
	}

	found := false
	blobRoot := filepath.Join(v.root, BlobsDirName)
	err := filepath.WalkDir(blobRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			found = true
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("vault: failed to scan blobs: %w", err)
	}
	return !found, nil
}

// CreateRecord persists a new record and returns it.
func (v *Vault) CreateRecord(recordType string, tags []string, body string) (*Record, error) {
	r, err := v.records.Create(recordType, tags, body)
	v.log.Record("record.create", recordID(r), err)
	return r, err
}

// ReadRecord loads a live record by id.
func (v *Vault) ReadRecord(id uuid.UUID) (*Record, error) {
	return v.records.Get(id)
}

// UpdateRecord replaces a record's type, tags and body.
func (v *Vault) UpdateRecord(id uuid.UUID, recordType string, tags []string, body string) (*Record, error) {
	r, err := v.records.Update(id, recordType, tags, body)
	v.log.Record("record.update", id.String(), err)
	return r, err
}

// DeleteRecord soft-deletes a record by moving it into trash.
func (v *Vault) DeleteRecord(id uuid.UUID) error {
	err := v.records.Delete(id)
	v.log.Record("record.delete", id.String(), err)
	return err
}

// RestoreRecord moves a trashed record back into the live set.
func (v *Vault) RestoreRecord(id uuid.UUID) error {
	err := v.records.Restore(id)
	v.log.Record("record.restore", id.String(), err)
	return err
}

// ListRecords derives headers for all live records, newest first.
func (v *Vault) ListRecords() ([]RecordHeader, error) {
	return v.records.List()
}

// PutBlob stores content-addressed binary content.
func (v *Vault) PutBlob(content []byte, mimeType string) (*BlobRef, error) {
	ref, err := v.blobs.Put(content, mimeType)
	v.log.Record("blob.put", blobDigest(ref), err)
	return ref, err
}

// GetBlob loads blob content by its SHA-256 digest.
func (v *Vault) GetBlob(digest string) ([]byte, error) {
	return v.blobs.Get(digest)
}

// HasBlob reports whether a blob with the given digest exists.
func (v *Vault) HasBlob(digest string) (bool, error) {
	return v.blobs.Exists(digest)
}

// DiskSpaceInfo describes the filesystem hosting a vault.
type DiskSpaceInfo struct {
	Total     uint64
	Free      uint64
	Available uint64
	UsedPct   int
}

func recordID(r *Record) string {
	if r == nil {
		return ""
	}
	return r.ID.String()
}

func blobDigest(ref *BlobRef) string {
	if ref == nil {
		return ""
	}
	return ref.SHA256
}
