package vault

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// frontmatterDelim separates YAML frontmatter from the markdown body.
const frontmatterDelim = "---"

// untitledTitle is the derived title for records with an empty body.
const untitledTitle = "(untitled)"

// Record is a markdown document with metadata. The id is immutable;
// UpdatedAtUTC changes on every mutation. Tag order is insertion order and
// the codec does not dedupe; callers that care should.
type Record struct {
	ID           uuid.UUID
	CreatedAtUTC time.Time
	UpdatedAtUTC time.Time
	Type         string
	Tags         []string
	BodyMarkdown string
}

// RecordHeader is the read-model projection of a record used by listings.
// It is always derived, never persisted.
type RecordHeader struct {
	ID           uuid.UUID
	UpdatedAtUTC time.Time
	Type         string
	Tags         []string
	Title        string
}

// Header derives the listing projection for r.
func (r *Record) Header() RecordHeader {
	return RecordHeader{
		ID:           r.ID,
		UpdatedAtUTC: r.UpdatedAtUTC,
		Type:         r.Type,
		Tags:         r.Tags,
		Title:        deriveTitle(r.BodyMarkdown),
	}
}

// deriveTitle extracts a display title from a markdown body: the first
// non-empty line, stripped of leading heading markers, NFC-normalized.
func deriveTitle(body string) string {
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = strings.TrimLeft(line, "#")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		return norm.NFC.String(line)
	}
	return untitledTitle
}

// recordFrontmatter is the exact persisted shape of the YAML frontmatter.
// The record id travels as its canonical string form; anything that does
// not parse back is rejected rather than coerced.
type recordFrontmatter struct {
	ID           string    `yaml:"id"`
	CreatedAtUTC time.Time `yaml:"created_at_utc"`
	UpdatedAtUTC time.Time `yaml:"updated_at_utc"`
	Type         string    `yaml:"type"`
	Tags         []string  `yaml:"tags,omitempty"`
}

// EncodeRecord serializes a record to its frontmatter+body document form.
func EncodeRecord(r *Record) ([]byte, error) {
	if err := validateRecord(r); err != nil {
		return nil, err
	}

	fm := recordFrontmatter{
		ID:           r.ID.String(),
		CreatedAtUTC: r.CreatedAtUTC,
		UpdatedAtUTC: r.UpdatedAtUTC,
		Type:         r.Type,
		Tags:         r.Tags,
	}
	meta, err := yaml.Marshal(&fm)
	if err != nil {
		return nil, fmt.Errorf("vault: failed to marshal frontmatter: %w", err)
	}

	var b strings.Builder
	b.WriteString(frontmatterDelim)
	b.WriteByte('\n')
	b.Write(meta)
	b.WriteString(frontmatterDelim)
	b.WriteByte('\n')
	b.WriteString(r.BodyMarkdown)
	return []byte(b.String()), nil
}

// DecodeRecord parses a frontmatter+body document. It fails with ErrInvalid
// if either delimiter is missing, a required scalar is absent or empty, or
// tags is present but not a list.
func DecodeRecord(doc []byte) (*Record, error) {
	text := string(doc)

	rest, ok := strings.CutPrefix(text, frontmatterDelim+"\n")
	if !ok {
		return nil, fmt.Errorf("%w: missing leading frontmatter delimiter", ErrInvalid)
	}

	meta, body, ok := strings.Cut(rest, "\n"+frontmatterDelim+"\n")
	if !ok {
		// A document may end exactly at the terminating delimiter with an
		// empty body and no trailing newline.
		if trimmed, found := strings.CutSuffix(rest, "\n"+frontmatterDelim); found {
			meta, body = trimmed, ""
		} else {
			return nil, fmt.Errorf("%w: missing terminating frontmatter delimiter", ErrInvalid)
		}
	}

	var fm recordFrontmatter
	if err := yaml.Unmarshal([]byte(meta+"\n"), &fm); err != nil {
		return nil, fmt.Errorf("%w: malformed frontmatter: %v", ErrInvalid, err)
	}

	if fm.ID == "" {
		return nil, fmt.Errorf("%w: record id is missing", ErrInvalid)
	}
	id, err := uuid.Parse(fm.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: record id is not a UUID: %v", ErrInvalid, err)
	}

	r := &Record{
		ID:           id,
		CreatedAtUTC: fm.CreatedAtUTC,
		UpdatedAtUTC: fm.UpdatedAtUTC,
		Type:         fm.Type,
		Tags:         fm.Tags,
		BodyMarkdown: body,
	}
	if err := validateRecord(r); err != nil {
		return nil, err
	}
	return r, nil
}

// validateRecord checks the scalars every persisted record must carry.
func validateRecord(r *Record) error {
	if r.ID == uuid.Nil {
		return fmt.Errorf("%w: record id is missing", ErrInvalid)
	}
	if r.CreatedAtUTC.IsZero() {
		return fmt.Errorf("%w: record created_at_utc is missing", ErrInvalid)
	}
	if r.UpdatedAtUTC.IsZero() {
		return fmt.Errorf("%w: record updated_at_utc is missing", ErrInvalid)
	}
	if strings.TrimSpace(r.Type) == "" {
		return fmt.Errorf("%w: record type is missing", ErrInvalid)
	}
	return nil
}
