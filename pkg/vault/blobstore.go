package vault

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/thornpad/thornpad/pkg/atomicfile"
)

// blobHashDirName is the algorithm directory under blobs/. Only sha256 is
// supported; the extra level leaves room for a future algorithm migration
// without renaming existing content.
const blobHashDirName = "sha256"

var blobDigestPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// BlobRef identifies stored binary content by the SHA-256 of its plaintext.
// The digest is computed before any encryption, so the same bytes always
// yield the same ref whether or not the vault is encrypted.
type BlobRef struct {
	SHA256    string `json:"sha256"`
	SizeBytes int64  `json:"size_bytes"`
	MimeType  string `json:"mime_type,omitempty"`
}

// BlobStore manages content-addressed binary blobs under blobs/sha256/.
// Blobs are immutable: a digest either exists with exactly its content or
// does not exist at all.
type BlobStore struct {
	root string
	ctx  *CryptoContext
}

// NewBlobStore returns a store rooted at the vault directory.
func NewBlobStore(root string, ctx *CryptoContext) *BlobStore {
	return &BlobStore{root: root, ctx: ctx}
}

// path fans the digest out two levels deep (aa/bb/<digest>) to keep
// directory sizes bounded.
func (s *BlobStore) path(digest string) string {
	return filepath.Join(s.root, BlobsDirName, blobHashDirName, digest[:2], digest[2:4], digest)
}

// Put stores content and returns its ref. Storing bytes whose digest already
// exists is a no-op that returns the same ref; the first writer wins and
// later identical puts never rewrite the file.
func (s *BlobStore) Put(content []byte, mimeType string) (*BlobRef, error) {
	if err := s.ctx.RequireUnlocked(); err != nil {
		return nil, err
	}

	sum := sha256.Sum256(content)
	digest := hex.EncodeToString(sum[:])

	stored := content
	if s.ctx.Sealed() {
		text, err := s.ctx.SealToText(content)
		if err != nil {
			return nil, err
		}
		stored = []byte(text)
	}

	path := s.path(digest)
	if err := os.MkdirAll(filepath.Dir(path), DirMode); err != nil {
		return nil, fmt.Errorf("vault: failed to create blob directory: %w", err)
	}
	if _, err := atomicfile.WriteIfAbsent(path, stored); err != nil {
		return nil, fmt.Errorf("vault: failed to write blob: %w", err)
	}

	return &BlobRef{
		SHA256:    digest,
		SizeBytes: int64(len(content)),
		MimeType:  mimeType,
	}, nil
}

// Get loads the plaintext content for a digest. The digest is re-verified
// against the loaded bytes; a mismatch is ErrCorrupt.
func (s *BlobStore) Get(digest string) ([]byte, error) {
	if err := s.ctx.RequireUnlocked(); err != nil {
		return nil, err
	}
	if !blobDigestPattern.MatchString(digest) {
		return nil, fmt.Errorf("%w: blob digest must be 64 lowercase hex characters", ErrInvalid)
	}

	data, err := os.ReadFile(s.path(digest))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("vault: failed to read blob: %w", err)
	}

	if s.ctx.Sealed() {
		data, err = s.ctx.OpenFromText(string(data))
		if err != nil {
			return nil, err
		}
	}

	sum := sha256.Sum256(data)
	if hex.EncodeToString(sum[:]) != digest {
		return nil, fmt.Errorf("%w: blob content does not match its digest", ErrCorrupt)
	}
	return data, nil
}

// Exists reports whether a blob with the given digest is stored. It does
// not require an unlocked vault; presence is not content.
func (s *BlobStore) Exists(digest string) (bool, error) {
	if !blobDigestPattern.MatchString(digest) {
		return false, fmt.Errorf("%w: blob digest must be 64 lowercase hex characters", ErrInvalid)
	}
	if _, err := os.Lstat(s.path(digest)); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("vault: failed to stat blob: %w", err)
	}
	return true, nil
}
