package vault

import (
	"crypto/rand"
	"encoding/json"
	"fmt"

	"github.com/thornpad/thornpad/pkg/atomicfile"
)

// fillRandom fills b with cryptographically secure random bytes.
func fillRandom(b []byte) error {
	if _, err := rand.Read(b); err != nil {
		return fmt.Errorf("vault: failed to generate random bytes: %w", err)
	}
	return nil
}

// writeJSONAtomic marshals v as pretty-printed JSON and writes it atomically.
func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("vault: failed to marshal %s: %w", path, err)
	}
	return atomicfile.WriteAtomic(path, data)
}
