package vault

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/thornpad/thornpad/pkg/atomicfile"
)

// recordFileExt is the on-disk extension for record files in both the live
// and trash directories.
const recordFileExt = ".md"

// RecordStore manages the records/ and trash/ directories of one vault.
// Every operation consults the crypto context first: a locked encrypted
// vault refuses reads and writes instead of degrading to plaintext.
type RecordStore struct {
	root string
	ctx  *CryptoContext
}

// NewRecordStore returns a store rooted at the vault directory.
func NewRecordStore(root string, ctx *CryptoContext) *RecordStore {
	return &RecordStore{root: root, ctx: ctx}
}

func (s *RecordStore) livePath(id uuid.UUID) string {
	return filepath.Join(s.root, RecordsDirName, id.String()+recordFileExt)
}

func (s *RecordStore) trashPath(id uuid.UUID) string {
	return filepath.Join(s.root, TrashDirName, id.String()+recordFileExt)
}

// Create persists a new record with a fresh id. CreatedAtUTC and
// UpdatedAtUTC are both set to now; the caller supplies type, tags and body.
func (s *RecordStore) Create(recordType string, tags []string, body string) (*Record, error) {
	if err := s.ctx.RequireUnlocked(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	r := &Record{
		ID:           uuid.New(),
		CreatedAtUTC: now,
		UpdatedAtUTC: now,
		Type:         recordType,
		Tags:         tags,
		BodyMarkdown: body,
	}
	if err := s.writeRecord(r); err != nil {
		return nil, err
	}
	return r, nil
}

// Get loads a live record by id.
func (s *RecordStore) Get(id uuid.UUID) (*Record, error) {
	if err := s.ctx.RequireUnlocked(); err != nil {
		return nil, err
	}
	return s.readRecord(s.livePath(id))
}

// Update replaces the type, tags and body of an existing record and bumps
// UpdatedAtUTC. The id and CreatedAtUTC are immutable.
func (s *RecordStore) Update(id uuid.UUID, recordType string, tags []string, body string) (*Record, error) {
	if err := s.ctx.RequireUnlocked(); err != nil {
		return nil, err
	}

	r, err := s.readRecord(s.livePath(id))
	if err != nil {
		return nil, err
	}

	r.Type = recordType
	r.Tags = tags
	r.BodyMarkdown = body
	r.UpdatedAtUTC = time.Now().UTC()
	if err := s.writeRecord(r); err != nil {
		return nil, err
	}
	return r, nil
}

// Delete moves a live record into the trash directory. The file content is
// untouched; deletion is a rename. A record already occupying the trash slot
// is ErrInvalid rather than silently overwritten.
func (s *RecordStore) Delete(id uuid.UUID) error {
	if err := s.ctx.RequireUnlocked(); err != nil {
		return err
	}
	return s.move(s.livePath(id), s.trashPath(id))
}

// Restore moves a trashed record back into the live directory. It fails
// with ErrInvalid if a live record with the same id already exists.
func (s *RecordStore) Restore(id uuid.UUID) error {
	if err := s.ctx.RequireUnlocked(); err != nil {
		return err
	}
	return s.move(s.trashPath(id), s.livePath(id))
}

// move renames src to dst, refusing to overwrite an existing destination.
func (s *RecordStore) move(src, dst string) error {
	if _, err := os.Lstat(dst); err == nil {
		return fmt.Errorf("%w: %s already exists", ErrInvalid, filepath.Base(dst))
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("vault: failed to stat %s: %w", dst, err)
	}

	if err := os.Rename(src, dst); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("vault: failed to move record: %w", err)
	}
	return nil
}

// List derives headers for every live record, newest first by UpdatedAtUTC.
// Ties break on id so the order is stable. Non-record files in the directory
// are skipped; unreadable record files fail the whole listing.
func (s *RecordStore) List() ([]RecordHeader, error) {
	if err := s.ctx.RequireUnlocked(); err != nil {
		return nil, err
	}

	dir := filepath.Join(s.root, RecordsDirName)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("vault: failed to read records directory: %w", err)
	}

	headers := make([]RecordHeader, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), recordFileExt) {
			continue
		}
		r, err := s.readRecord(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", entry.Name(), err)
		}
		headers = append(headers, r.Header())
	}

	sort.Slice(headers, func(i, j int) bool {
		if !headers[i].UpdatedAtUTC.Equal(headers[j].UpdatedAtUTC) {
			return headers[i].UpdatedAtUTC.After(headers[j].UpdatedAtUTC)
		}
		return headers[i].ID.String() < headers[j].ID.String()
	})
	return headers, nil
}

// writeRecord encodes r, seals it when the vault is encrypted, and writes
// the file atomically.
func (s *RecordStore) writeRecord(r *Record) error {
	doc, err := EncodeRecord(r)
	if err != nil {
		return err
	}

	content := doc
	if s.ctx.Sealed() {
		text, err := s.ctx.SealToText(doc)
		if err != nil {
			return err
		}
		content = []byte(text)
	}
	return atomicfile.WriteAtomic(s.livePath(r.ID), content)
}

// readRecord loads and decodes one record file. In an encrypted vault the
// file content is the sealed text; after unsealing, a document that fails to
// decode is ErrCorrupt - the codec's shape errors never leak out as
// ErrInvalid from a read path.
func (s *RecordStore) readRecord(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("vault: failed to read record: %w", err)
	}

	if s.ctx.Sealed() {
		data, err = s.ctx.OpenFromText(string(data))
		if err != nil {
			return nil, err
		}
	}

	r, err := DecodeRecord(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return r, nil
}
