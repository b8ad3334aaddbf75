// Package payload implements the binary framing for encrypted vault content.
//
// The wire layout is:
//
//	MAGIC(4) | VERSION(1) | NONCE(12) | CIPHERTEXT(N) | TAG(16)
//
// and the whole frame is Base64-encoded for storage as text, so an encrypted
// record or blob file is always printable ASCII on disk.
package payload

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
)

// Magic identifies a thornpad payload frame.
var Magic = [4]byte{'T', 'H', 'P', 'Z'}

const (
	// Version is the current frame format version.
	Version = 1

	// NonceLength is the AES-GCM nonce length in bytes (96 bits).
	NonceLength = 12

	// TagLength is the AES-GCM authentication tag length in bytes.
	TagLength = 16

	// headerLength is magic plus version.
	headerLength = len(Magic) + 1

	// minFrameLength is the smallest well-formed frame: empty ciphertext.
	minFrameLength = headerLength + NonceLength + TagLength
)

// Framing errors. Each malformation is distinct so callers can report
// precisely what is wrong with a file.
var (
	// ErrInvalidNonceLength indicates the nonce is not 12 bytes.
	ErrInvalidNonceLength = errors.New("payload: invalid nonce length, must be 12 bytes")

	// ErrInvalidTagLength indicates the tag is not 16 bytes.
	ErrInvalidTagLength = errors.New("payload: invalid tag length, must be 16 bytes")

	// ErrTooShort indicates the frame is shorter than the fixed envelope.
	ErrTooShort = errors.New("payload: frame too short")

	// ErrBadMagic indicates the frame does not start with the THPZ magic.
	ErrBadMagic = errors.New("payload: magic number mismatch")

	// ErrUnsupportedVersion indicates a frame version this build cannot read.
	ErrUnsupportedVersion = errors.New("payload: unsupported frame version")

	// ErrNotBase64 indicates the stored text is not valid Base64.
	ErrNotBase64 = errors.New("payload: stored text is not valid base64")
)

// Payload is the AEAD output triple. It is always moved through this codec,
// never concatenated ad hoc.
type Payload struct {
	Nonce      []byte
	Ciphertext []byte
	Tag        []byte
}

// Encode frames p and returns its Base64 text form.
func Encode(p *Payload) (string, error) {
	if len(p.Nonce) != NonceLength {
		return "", ErrInvalidNonceLength
	}
	if len(p.Tag) != TagLength {
		return "", ErrInvalidTagLength
	}

	frame := make([]byte, 0, headerLength+NonceLength+len(p.Ciphertext)+TagLength)
	frame = append(frame, Magic[:]...)
	frame = append(frame, Version)
	frame = append(frame, p.Nonce...)
	frame = append(frame, p.Ciphertext...)
	frame = append(frame, p.Tag...)

	return base64.StdEncoding.EncodeToString(frame), nil
}

// Decode parses the Base64 text form back into a Payload.
func Decode(text string) (*Payload, error) {
	frame, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotBase64, err)
	}
	return DecodeFrame(frame)
}

// DecodeFrame parses a raw binary frame into a Payload.
func DecodeFrame(frame []byte) (*Payload, error) {
	if len(frame) < minFrameLength {
		return nil, ErrTooShort
	}
	if !bytes.Equal(frame[:len(Magic)], Magic[:]) {
		return nil, ErrBadMagic
	}
	if v := frame[len(Magic)]; v != Version {
		return nil, fmt.Errorf("%w: got %d, max supported %d", ErrUnsupportedVersion, v, Version)
	}

	body := frame[headerLength:]
	nonce := body[:NonceLength]
	rest := body[NonceLength:]
	ct := rest[:len(rest)-TagLength]
	tag := rest[len(rest)-TagLength:]

	p := &Payload{
		Nonce:      append([]byte(nil), nonce...),
		Ciphertext: append([]byte(nil), ct...),
		Tag:        append([]byte(nil), tag...),
	}
	return p, nil
}
