package vault

import "errors"

// Error kinds surfaced by vault operations. Callers distinguish them with
// errors.Is; the split between ErrAuthRequired / ErrInvalidCredentials and
// ErrCorrupt matters one layer up, because the former are recoverable by
// re-prompting and the latter are not.
var (
	// ErrAlreadyExists indicates a vault identity already exists at the path.
	ErrAlreadyExists = errors.New("vault: vault already exists at this path")

	// ErrNotFound indicates an identity file, record, or trashed record is
	// absent where one was expected.
	ErrNotFound = errors.New("vault: not found")

	// ErrCorrupt indicates structurally invalid on-disk state, or an AEAD
	// authentication failure on data already under a verified key.
	ErrCorrupt = errors.New("vault: data is corrupt")

	// ErrVersionUnsupported indicates a schema or format version this build
	// does not know how to interpret.
	ErrVersionUnsupported = errors.New("vault: unsupported schema version")

	// ErrAuthRequired indicates a password gate or encryption gate needs
	// credentials that were not supplied.
	ErrAuthRequired = errors.New("vault: password required")

	// ErrInvalidCredentials indicates supplied credentials failed
	// verification.
	ErrInvalidCredentials = errors.New("vault: invalid credentials")

	// ErrLocked indicates a read or write was attempted while the vault is
	// encrypted and no verified key is held.
	ErrLocked = errors.New("vault: vault is locked")

	// ErrInvalid indicates a logically inconsistent request (duplicate id,
	// empty password, malformed metadata), distinct from on-disk corruption.
	ErrInvalid = errors.New("vault: invalid request")
)
