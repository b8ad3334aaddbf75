package vault

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/thornpad/thornpad/pkg/crypto"
)

func enabledInfo() *EncryptionInfo {
	params := crypto.DefaultKdfParams()
	return &EncryptionInfo{
		Schema:      EncSchema,
		State:       EncStateEnabled,
		Version:     EncVersion,
		Cipher:      CipherAESGCM,
		Kdf:         KdfArgon2id,
		SaltB64:     "c2FsdHNhbHRzYWx0c2FsdA==",
		KdfParams:   &params,
		KeyCheckB64: "a2V5Y2hlY2s=",
	}
}

func TestEncryptionInfoValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*EncryptionInfo)
		wantErr error
	}{
		{"enabled valid", func(e *EncryptionInfo) {}, nil},
		{"none valid", func(e *EncryptionInfo) { *e = *NoneEncryptionInfo() }, nil},
		{"wrong schema", func(e *EncryptionInfo) { e.Schema = "other" }, ErrInvalid},
		{"unknown state", func(e *EncryptionInfo) { e.State = "maybe" }, ErrInvalid},
		{"none with version", func(e *EncryptionInfo) { *e = *NoneEncryptionInfo(); e.Version = 1 }, ErrInvalid},
		{"enabled wrong version", func(e *EncryptionInfo) { e.Version = 2 }, ErrVersionUnsupported},
		{"enabled no cipher", func(e *EncryptionInfo) { e.Cipher = "" }, ErrInvalid},
		{"enabled no salt", func(e *EncryptionInfo) { e.SaltB64 = "" }, ErrInvalid},
		{"enabled no kdf params", func(e *EncryptionInfo) { e.KdfParams = nil }, ErrInvalid},
		{"enabled bad kdf params", func(e *EncryptionInfo) { e.KdfParams = &crypto.KdfParams{} }, ErrInvalid},
		{"enabled no key check", func(e *EncryptionInfo) { e.KeyCheckB64 = "" }, ErrInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := enabledInfo()
			tt.mutate(info)
			err := info.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("got %v, want nil", err)
				}
			} else if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestEncInfoStoreSaveWritesBothCopies(t *testing.T) {
	root := t.TempDir()
	s := NewEncInfoStore(root)

	if err := s.Save(enabledInfo()); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	primary, err := os.ReadFile(filepath.Join(root, EncFileName))
	if err != nil {
		t.Fatalf("primary missing: %v", err)
	}
	backup, err := os.ReadFile(filepath.Join(root, EncBackupFileName))
	if err != nil {
		t.Fatalf("backup missing: %v", err)
	}
	if !bytes.Equal(primary, backup) {
		t.Error("primary and backup should be byte-identical")
	}
}

func TestEncInfoStoreLoadMissingPrimaryIsNone(t *testing.T) {
	root := t.TempDir()
	s := NewEncInfoStore(root)

	info, err := s.LoadOrDefault()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if info.Enabled() {
		t.Error("missing primary should mean no encryption")
	}
}

func TestEncInfoStoreBackupAloneIsNotAuthoritative(t *testing.T) {
	root := t.TempDir()
	s := NewEncInfoStore(root)

	if err := s.Save(enabledInfo()); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(filepath.Join(root, EncFileName)); err != nil {
		t.Fatal(err)
	}

	info, err := s.LoadOrDefault()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if info.Enabled() {
		t.Error("a backup without the primary must not declare encryption")
	}
}

func TestEncInfoStoreSelfHealFromBackup(t *testing.T) {
	root := t.TempDir()
	s := NewEncInfoStore(root)

	if err := s.Save(enabledInfo()); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, EncFileName), []byte("corrupted"), 0600); err != nil {
		t.Fatal(err)
	}

	info, err := s.LoadOrDefault()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !info.Enabled() {
		t.Fatal("backup should have been used")
	}

	// The primary must have been restored to match the backup.
	primary, err := os.ReadFile(filepath.Join(root, EncFileName))
	if err != nil {
		t.Fatalf("primary not restored: %v", err)
	}
	backup, err := os.ReadFile(filepath.Join(root, EncBackupFileName))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(primary, backup) {
		t.Error("restored primary should match backup")
	}
}

func TestEncInfoStoreBothCorrupt(t *testing.T) {
	root := t.TempDir()
	s := NewEncInfoStore(root)

	if err := os.WriteFile(filepath.Join(root, EncFileName), []byte("bad"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, EncBackupFileName), []byte("also bad"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := s.LoadOrDefault(); !errors.Is(err, ErrCorrupt) {
		t.Errorf("got %v, want ErrCorrupt", err)
	}
}

func TestEncInfoStoreSaveRejectsInvalid(t *testing.T) {
	s := NewEncInfoStore(t.TempDir())
	info := enabledInfo()
	info.KeyCheckB64 = ""
	if err := s.Save(info); !errors.Is(err, ErrInvalid) {
		t.Errorf("got %v, want ErrInvalid", err)
	}
}
