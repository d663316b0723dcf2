// Package shortvec implements the compact-u16 length prefix used by the
// Solana wire format.
package shortvec

import (
	"io"
	"math"

	"github.com/pkg/errors"
)

const maxEncodedLen = 3

var (
	ErrLenOutOfRange = errors.New("shortvec len out of range")
	ErrInvalidLen    = errors.New("invalid shortvec encoding")
)

// EncodeLen encodes the specified len into the writer.
//
// If len is negative or exceeds math.MaxUint16, ErrLenOutOfRange is returned.
func EncodeLen(w io.Writer, len int) (int, error) {
	if len < 0 || len > math.MaxUint16 {
		return 0, errors.Wrapf(ErrLenOutOfRange, "len %d", len)
	}

	encoded := make([]byte, 0, maxEncodedLen)
	for {
		b := byte(len & 0x7f)
		len >>= 7
		if len == 0 {
			encoded = append(encoded, b)
			break
		}
		encoded = append(encoded, b|0x80)
	}

	return w.Write(encoded)
}

// DecodeLen decodes a shortvec encoded len from the reader.
//
// Encodings longer than three bytes, values above math.MaxUint16, and
// non-canonical encodings with a trailing zero continuation are rejected.
func DecodeLen(r io.ByteReader) (int, error) {
	var val int
	for i := 0; i < maxEncodedLen; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}

		val |= int(b&0x7f) << (i * 7)

		if b&0x80 == 0 {
			if i > 0 && b == 0 {
				return 0, errors.Wrap(ErrInvalidLen, "non-canonical encoding")
			}
			if val > math.MaxUint16 {
				return 0, errors.Wrapf(ErrLenOutOfRange, "len %d", val)
			}
			return val, nil
		}
	}

	return 0, errors.Wrapf(ErrInvalidLen, "encoding exceeds %d bytes", maxEncodedLen)
}
