package crypto

import (
	"bytes"
	"crypto/rand"
	"errors"
	"testing"

	"github.com/thornpad/thornpad/pkg/payload"
)

// fastParams keeps test runs quick; production defaults are exercised by
// TestDefaultKdfParams only.
var fastParams = KdfParams{MemoryKiB: 8 * 1024, Iterations: 1, Parallelism: 1}

func randomKey(t testing.TB) []byte {
	t.Helper()
	key := make([]byte, KeyLength)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	return key
}

// TestDeriveKey tests the Argon2id key derivation function.
func TestDeriveKey(t *testing.T) {
	password := []byte("test-password-123")
	salt, err := GenerateSalt()
	if err != nil {
		t.Fatalf("GenerateSalt() error = %v", err)
	}

	key, err := DeriveKey(password, salt, fastParams)
	if err != nil {
		t.Fatalf("DeriveKey() error = %v", err)
	}
	if len(key) != KeyLength {
		t.Errorf("DeriveKey() returned key of length %d, want %d", len(key), KeyLength)
	}

	// Same password + salt + params produces same key (deterministic)
	key2, err := DeriveKey(password, salt, fastParams)
	if err != nil {
		t.Fatalf("DeriveKey() error = %v", err)
	}
	if !bytes.Equal(key, key2) {
		t.Error("DeriveKey() with same inputs should produce identical keys")
	}

	// Different password produces different key
	other, err := DeriveKey([]byte("different-password"), salt, fastParams)
	if err != nil {
		t.Fatalf("DeriveKey() error = %v", err)
	}
	if bytes.Equal(key, other) {
		t.Error("DeriveKey() with different password should produce different key")
	}

	// Different salt produces different key
	salt2, err := GenerateSalt()
	if err != nil {
		t.Fatalf("GenerateSalt() error = %v", err)
	}
	other, err = DeriveKey(password, salt2, fastParams)
	if err != nil {
		t.Fatalf("DeriveKey() error = %v", err)
	}
	if bytes.Equal(key, other) {
		t.Error("DeriveKey() with different salt should produce different key")
	}

	// Different cost parameters produce a different key
	slower := KdfParams{MemoryKiB: 8 * 1024, Iterations: 2, Parallelism: 1}
	other, err = DeriveKey(password, salt, slower)
	if err != nil {
		t.Fatalf("DeriveKey() error = %v", err)
	}
	if bytes.Equal(key, other) {
		t.Error("DeriveKey() with different params should produce different key")
	}
}

// TestDeriveKeyInvalidParams tests parameter validation.
func TestDeriveKeyInvalidParams(t *testing.T) {
	salt, _ := GenerateSalt()

	tests := []struct {
		name   string
		salt   []byte
		params KdfParams
	}{
		{"zero memory", salt, KdfParams{MemoryKiB: 0, Iterations: 1, Parallelism: 1}},
		{"zero iterations", salt, KdfParams{MemoryKiB: 8, Iterations: 0, Parallelism: 1}},
		{"zero parallelism", salt, KdfParams{MemoryKiB: 8, Iterations: 1, Parallelism: 0}},
		{"empty salt", nil, fastParams},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DeriveKey([]byte("pw"), tt.salt, tt.params); !errors.Is(err, ErrInvalidParams) {
				t.Errorf("DeriveKey() error = %v, want %v", err, ErrInvalidParams)
			}
		})
	}
}

// TestDefaultKdfParams verifies defaults match OWASP recommendations.
func TestDefaultKdfParams(t *testing.T) {
	p := DefaultKdfParams()
	if p.MemoryKiB != 64*1024 {
		t.Errorf("MemoryKiB = %d, want %d (64MB)", p.MemoryKiB, 64*1024)
	}
	if p.Iterations != 3 {
		t.Errorf("Iterations = %d, want 3", p.Iterations)
	}
	if p.Parallelism != 4 {
		t.Errorf("Parallelism = %d, want 4", p.Parallelism)
	}
	if !p.Valid() {
		t.Error("DefaultKdfParams() should be valid")
	}
}

// TestEncryptDecryptRoundTrip tests encrypt/decrypt across payload shapes.
func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := randomKey(t)

	large := make([]byte, 10000)
	if _, err := rand.Read(large); err != nil {
		t.Fatalf("failed to generate random data: %v", err)
	}

	tests := []struct {
		name      string
		plaintext []byte
		aad       []byte
	}{
		{"empty", []byte{}, nil},
		{"small", []byte("x"), nil},
		{"medium", []byte("This is a medium-length test string for encryption."), nil},
		{"large", large, nil},
		{"binary", []byte{0x00, 0xFF, 0x01, 0xFE, 0x02, 0xFD}, nil},
		{"with aad", []byte("bound to context"), []byte("record-id")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Encrypt(key, tt.plaintext, tt.aad)
			if err != nil {
				t.Fatalf("Encrypt() error = %v", err)
			}

			if len(p.Nonce) != payload.NonceLength {
				t.Errorf("nonce length = %d, want %d", len(p.Nonce), payload.NonceLength)
			}
			if len(p.Tag) != payload.TagLength {
				t.Errorf("tag length = %d, want %d", len(p.Tag), payload.TagLength)
			}
			if len(p.Ciphertext) != len(tt.plaintext) {
				t.Errorf("ciphertext length = %d, want %d", len(p.Ciphertext), len(tt.plaintext))
			}

			got, err := Decrypt(key, p, tt.aad)
			if err != nil {
				t.Fatalf("Decrypt() error = %v", err)
			}
			if !bytes.Equal(got, tt.plaintext) {
				t.Errorf("round trip failed: got length %d, want length %d", len(got), len(tt.plaintext))
			}
		})
	}
}

// TestEncryptInvalidKeyLength tests that Encrypt rejects bad key lengths.
func TestEncryptInvalidKeyLength(t *testing.T) {
	for _, keyLen := range []int{0, 16, 24, 48} {
		if _, err := Encrypt(make([]byte, keyLen), []byte("data"), nil); !errors.Is(err, ErrInvalidKeyLength) {
			t.Errorf("Encrypt() with %d-byte key error = %v, want %v", keyLen, err, ErrInvalidKeyLength)
		}
	}
}

// TestDecryptWrongKey tests that decryption fails closed with a wrong key.
func TestDecryptWrongKey(t *testing.T) {
	key := randomKey(t)
	wrongKey := randomKey(t)

	p, err := Encrypt(key, []byte("secret data"), nil)
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	if _, err := Decrypt(wrongKey, p, nil); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("Decrypt() with wrong key error = %v, want %v", err, ErrDecryptionFailed)
	}
}

// TestDecryptWrongAAD tests that associated data is bound into the tag.
func TestDecryptWrongAAD(t *testing.T) {
	key := randomKey(t)

	p, err := Encrypt(key, []byte("secret data"), []byte("context-a"))
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	if _, err := Decrypt(key, p, []byte("context-b")); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("Decrypt() with wrong aad error = %v, want %v", err, ErrDecryptionFailed)
	}
}

// TestTamperDetection tests that flipping any single bit of the payload
// causes decryption to fail, never to return altered plaintext.
func TestTamperDetection(t *testing.T) {
	key := randomKey(t)
	plaintext := []byte("secret data that should be protected")

	p, err := Encrypt(key, plaintext, nil)
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	fields := []struct {
		name string
		data func(p *payload.Payload) []byte
	}{
		{"nonce", func(p *payload.Payload) []byte { return p.Nonce }},
		{"ciphertext", func(p *payload.Payload) []byte { return p.Ciphertext }},
		{"tag", func(p *payload.Payload) []byte { return p.Tag }},
	}

	for _, f := range fields {
		t.Run(f.name, func(t *testing.T) {
			target := f.data(p)
			for i := range target {
				for bit := 0; bit < 8; bit++ {
					target[i] ^= 1 << bit
					if _, err := Decrypt(key, p, nil); !errors.Is(err, ErrDecryptionFailed) {
						t.Fatalf("Decrypt() after flipping %s byte %d bit %d error = %v, want %v",
							f.name, i, bit, err, ErrDecryptionFailed)
					}
					target[i] ^= 1 << bit
				}
			}

			// The untampered payload still decrypts.
			got, err := Decrypt(key, p, nil)
			if err != nil {
				t.Fatalf("Decrypt() after restoring error = %v", err)
			}
			if !bytes.Equal(got, plaintext) {
				t.Error("restored payload did not decrypt to original plaintext")
			}
		})
	}
}

// TestEncryptProducesUniqueNonce tests that each call gets a fresh nonce.
func TestEncryptProducesUniqueNonce(t *testing.T) {
	key := randomKey(t)
	nonces := make(map[string]bool)

	for i := 0; i < 100; i++ {
		p, err := Encrypt(key, []byte("test data"), nil)
		if err != nil {
			t.Fatalf("Encrypt() error = %v", err)
		}
		s := string(p.Nonce)
		if nonces[s] {
			t.Errorf("Encrypt() produced duplicate nonce on iteration %d", i)
		}
		nonces[s] = true
	}
}

// TestSecureWipe tests that SecureWipe zeros out memory.
func TestSecureWipe(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	SecureWipe(data)
	for i, b := range data {
		if b != 0 {
			t.Errorf("SecureWipe() byte[%d] = %d, want 0", i, b)
		}
	}

	// Must not panic on empty or nil slices.
	SecureWipe([]byte{})
	SecureWipe(nil)
}

// BenchmarkDeriveKey benchmarks derivation with production parameters.
func BenchmarkDeriveKey(b *testing.B) {
	password := []byte("benchmark-password-123")
	salt, err := GenerateSalt()
	if err != nil {
		b.Fatalf("GenerateSalt() error = %v", err)
	}
	params := DefaultKdfParams()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = DeriveKey(password, salt, params)
	}
}

// BenchmarkEncrypt benchmarks encryption of 1KB payloads.
func BenchmarkEncrypt(b *testing.B) {
	key := randomKey(b)
	plaintext := make([]byte, 1024)
	if _, err := rand.Read(plaintext); err != nil {
		b.Fatalf("failed to generate plaintext: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Encrypt(key, plaintext, nil)
	}
}

// BenchmarkDecrypt benchmarks decryption of 1KB payloads.
func BenchmarkDecrypt(b *testing.B) {
	key := randomKey(b)
	plaintext := make([]byte, 1024)
	if _, err := rand.Read(plaintext); err != nil {
		b.Fatalf("failed to generate plaintext: %v", err)
	}
	p, err := Encrypt(key, plaintext, nil)
	if err != nil {
		b.Fatalf("Encrypt() error = %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Decrypt(key, p, nil)
	}
}
