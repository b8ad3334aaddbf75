package vault

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/thornpad/thornpad/pkg/atomicfile"
)

// SchemaVersion is the vault identity schema this build reads and writes.
const SchemaVersion = 1

// On-disk layout inside a vault root.
const (
	InfoFileName      = "vault.json"
	EncFileName       = "encryption.json"
	EncBackupFileName = "encryption.json.bak"
	AuthFileName      = "auth.json"
	RecordsDirName    = "records"
	TrashDirName      = "trash"
	BlobsDirName      = "blobs"

	// DirMode is the permission applied to vault directories.
	DirMode = 0700
)

// VaultInfo identifies a vault independent of its path. It is written once
// at vault init and immutable thereafter.
type VaultInfo struct {
	Schema       int       `json:"schema"`
	VaultID      uuid.UUID `json:"vault_id"`
	CreatedAtUTC time.Time `json:"created_at_utc"`
}

// InitVault creates the vault directory tree and writes a fresh identity
// file. It fails with ErrAlreadyExists if an identity file is already
// present at root.
func InitVault(root string) (*VaultInfo, error) {
	for _, dir := range []string{root, filepath.Join(root, RecordsDirName), filepath.Join(root, TrashDirName), filepath.Join(root, BlobsDirName)} {
		if err := os.MkdirAll(dir, DirMode); err != nil {
			return nil, fmt.Errorf("vault: failed to create directory: %w", err)
		}
	}

	infoPath := filepath.Join(root, InfoFileName)
	if _, err := os.Stat(infoPath); err == nil {
		return nil, ErrAlreadyExists
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("vault: failed to stat identity file: %w", err)
	}

	info := &VaultInfo{
		Schema:       SchemaVersion,
		VaultID:      uuid.New(),
		CreatedAtUTC: time.Now().UTC().Truncate(time.Second),
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("vault: failed to marshal identity: %w", err)
	}
	if err := atomicfile.WriteAtomic(infoPath, data); err != nil {
		return nil, err
	}
	return info, nil
}

// ReadVaultInfo loads the identity file at root. It fails with ErrNotFound
// if the file is absent and ErrCorrupt if it cannot be parsed.
func ReadVaultInfo(root string) (*VaultInfo, error) {
	data, err := os.ReadFile(filepath.Join(root, InfoFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: no vault at %s", ErrNotFound, root)
		}
		return nil, fmt.Errorf("vault: failed to read identity file: %w", err)
	}

	var info VaultInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("%w: identity file is not valid JSON: %v", ErrCorrupt, err)
	}
	return &info, nil
}

// ValidateVault reads and validates the identity at root: the schema version
// must match, the id must be a real UUID, and the creation timestamp must be
// UTC.
func ValidateVault(root string) (*VaultInfo, error) {
	info, err := ReadVaultInfo(root)
	if err != nil {
		return nil, err
	}

	if info.Schema != SchemaVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrVersionUnsupported, info.Schema, SchemaVersion)
	}
	if info.VaultID == uuid.Nil {
		return nil, fmt.Errorf("%w: vault id is missing", ErrInvalid)
	}
	if info.CreatedAtUTC.IsZero() {
		return nil, fmt.Errorf("%w: creation timestamp is missing", ErrInvalid)
	}
	if _, offset := info.CreatedAtUTC.Zone(); offset != 0 {
		return nil, fmt.Errorf("%w: creation timestamp is not UTC", ErrInvalid)
	}
	return info, nil
}
