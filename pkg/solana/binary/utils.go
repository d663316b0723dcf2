// Package binary provides little-endian helpers for Borsh-style account and
// instruction layouts. Every helper reads or writes at buf[*offset] and
// advances the offset. Getters never read past the end of the buffer.
package binary

import (
	"crypto/ed25519"
	"encoding/binary"
	"unicode/utf8"

	"github.com/pkg/errors"
)

const (
	// StringLenPrefixSize is the size of the u32 length prefix preceding
	// every encoded string.
	StringLenPrefixSize = 4
)

var (
	ErrUnexpectedEnd = errors.New("unexpected end of buffer")
	ErrInvalidBool   = errors.New("invalid bool encoding")
	ErrInvalidUTF8   = errors.New("string is not valid utf-8")
)

// StringSize returns the encoded size of v.
func StringSize(v string) int {
	return StringLenPrefixSize + len(v)
}

func PutKey32(dst []byte, src ed25519.PublicKey, offset *int) {
	copy(dst[*offset:*offset+ed25519.PublicKeySize], src)
	*offset += ed25519.PublicKeySize
}

func PutUint32(dst []byte, v uint32, offset *int) {
	binary.LittleEndian.PutUint32(dst[*offset:], v)
	*offset += 4
}

func PutUint64(dst []byte, v uint64, offset *int) {
	binary.LittleEndian.PutUint64(dst[*offset:], v)
	*offset += 8
}

func PutUint8(dst []byte, v uint8, offset *int) {
	dst[*offset] = v
	*offset += 1
}

func PutBool(dst []byte, v bool, offset *int) {
	var b uint8
	if v {
		b = 1
	}
	PutUint8(dst, b, offset)
}

func PutString(dst []byte, v string, offset *int) {
	PutUint32(dst, uint32(len(v)), offset)
	copy(dst[*offset:], v)
	*offset += len(v)
}

func GetKey32(src []byte, dst *ed25519.PublicKey, offset *int) error {
	if err := checkRemaining(src, *offset, ed25519.PublicKeySize); err != nil {
		return err
	}

	*dst = make([]byte, ed25519.PublicKeySize)
	copy(*dst, src[*offset:])
	*offset += ed25519.PublicKeySize
	return nil
}

func GetUint32(src []byte, dst *uint32, offset *int) error {
	if err := checkRemaining(src, *offset, 4); err != nil {
		return err
	}

	*dst = binary.LittleEndian.Uint32(src[*offset:])
	*offset += 4
	return nil
}

func GetUint64(src []byte, dst *uint64, offset *int) error {
	if err := checkRemaining(src, *offset, 8); err != nil {
		return err
	}

	*dst = binary.LittleEndian.Uint64(src[*offset:])
	*offset += 8
	return nil
}

func GetUint8(src []byte, dst *uint8, offset *int) error {
	if err := checkRemaining(src, *offset, 1); err != nil {
		return err
	}

	*dst = src[*offset]
	*offset += 1
	return nil
}

// GetBool only accepts the canonical 0 and 1 encodings.
func GetBool(src []byte, dst *bool, offset *int) error {
	var b uint8
	if err := GetUint8(src, &b, offset); err != nil {
		return err
	}

	switch b {
	case 0:
		*dst = false
	case 1:
		*dst = true
	default:
		*offset -= 1
		return errors.Wrapf(ErrInvalidBool, "value %d", b)
	}
	return nil
}

// GetString reads a u32 length prefixed utf-8 string.
func GetString(src []byte, dst *string, offset *int) error {
	start := *offset

	var length uint32
	if err := GetUint32(src, &length, offset); err != nil {
		return err
	}

	if err := checkRemaining(src, *offset, int(length)); err != nil {
		*offset = start
		return err
	}

	raw := src[*offset : *offset+int(length)]
	if !utf8.Valid(raw) {
		*offset = start
		return ErrInvalidUTF8
	}

	*dst = string(raw)
	*offset += int(length)
	return nil
}

func checkRemaining(src []byte, offset, n int) error {
	if offset < 0 || n < 0 || offset > len(src) || len(src)-offset < n {
		return errors.Wrapf(ErrUnexpectedEnd, "need %d bytes at offset %d of %d", n, offset, len(src))
	}
	return nil
}
