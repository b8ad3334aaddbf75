package vault

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

func newTestGate(t *testing.T) *AuthGate {
	t.Helper()
	return NewAuthGate(t.TempDir(), uuid.NewString())
}

func TestAuthGateAbsentPassesAnyCaller(t *testing.T) {
	g := newTestGate(t)
	if g.Enabled() {
		t.Error("gate should not be enabled")
	}
	if err := g.RequireAuth(""); err != nil {
		t.Errorf("no gate, no password: got %v, want nil", err)
	}
	if err := g.RequireAuth("anything"); err != nil {
		t.Errorf("no gate, some password: got %v, want nil", err)
	}
}

func TestAuthGateEnableAndVerify(t *testing.T) {
	g := newTestGate(t)
	if err := g.Enable("correct horse"); err != nil {
		t.Fatalf("enable failed: %v", err)
	}
	if !g.Enabled() {
		t.Fatal("gate should be enabled")
	}

	if err := g.RequireAuth("correct horse"); err != nil {
		t.Errorf("correct password: got %v, want nil", err)
	}
	if err := g.RequireAuth(""); !errors.Is(err, ErrAuthRequired) {
		t.Errorf("empty password: got %v, want ErrAuthRequired", err)
	}
	if err := g.RequireAuth("battery staple"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: got %v, want ErrInvalidCredentials", err)
	}
}

func TestAuthGateEnableRejectsEmptyPassword(t *testing.T) {
	g := newTestGate(t)
	if err := g.Enable(""); !errors.Is(err, ErrInvalid) {
		t.Errorf("got %v, want ErrInvalid", err)
	}
}

func TestAuthGateEnableTwice(t *testing.T) {
	g := newTestGate(t)
	if err := g.Enable("pw"); err != nil {
		t.Fatal(err)
	}
	if err := g.Enable("pw"); !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("got %v, want ErrAlreadyExists", err)
	}
}

func TestAuthGateMalformedFile(t *testing.T) {
	root := t.TempDir()
	g := NewAuthGate(root, uuid.NewString())

	tests := []struct {
		name string
		data string
	}{
		{"not json", "garbage"},
		{"wrong mode", `{"mode":"pin","salt_b64":"aa","mac_b64":"bb","iterations":1}`},
		{"missing fields", `{"mode":"password"}`},
		{"zero iterations", `{"mode":"password","salt_b64":"aa","mac_b64":"bb","iterations":0}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := os.WriteFile(filepath.Join(root, AuthFileName), []byte(tt.data), 0600); err != nil {
				t.Fatal(err)
			}
			if err := g.RequireAuth("pw"); !errors.Is(err, ErrCorrupt) {
				t.Errorf("got %v, want ErrCorrupt", err)
			}
		})
	}
}

func TestAuthGateBoundToVaultID(t *testing.T) {
	root := t.TempDir()
	g := NewAuthGate(root, uuid.NewString())
	if err := g.Enable("pw"); err != nil {
		t.Fatal(err)
	}

	// The same auth.json gating a vault with a different id must not verify:
	// the MAC covers the vault id.
	other := NewAuthGate(root, uuid.NewString())
	if err := other.RequireAuth("pw"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("got %v, want ErrInvalidCredentials", err)
	}
}
