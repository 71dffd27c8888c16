// Package shortvec implements the compact-u16 length prefix used throughout
// the Solana wire format.
package shortvec

import (
	"io"
	"math"

	"github.com/pkg/errors"
)

const maxEncodedLen = 3

var ErrValueTooLarge = errors.Errorf("len exceeds %d", math.MaxUint16)

// EncodedLen returns the number of bytes EncodeLen writes for v.
func EncodedLen(v int) int {
	n := 1
	for v >>= 7; v > 0; v >>= 7 {
		n++
	}
	return n
}

// EncodeLen writes v as a compact-u16 into w.
func EncodeLen(w io.Writer, v int) (int, error) {
	if v < 0 || v > math.MaxUint16 {
		return 0, ErrValueTooLarge
	}

	encoded := make([]byte, 0, maxEncodedLen)
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			encoded = append(encoded, b)
			break
		}
		encoded = append(encoded, b|0x80)
	}

	return w.Write(encoded)
}

// DecodeLen reads a compact-u16 from r.
func DecodeLen(r io.Reader) (int, error) {
	var v int
	b := make([]byte, 1)

	for i := 0; ; i++ {
		if i == maxEncodedLen {
			return 0, errors.Errorf("invalid size: more than %d bytes", maxEncodedLen)
		}

		if _, err := io.ReadFull(r, b); err != nil {
			return 0, err
		}

		v |= int(b[0]&0x7f) << (i * 7)
		if b[0]&0x80 == 0 {
			return v, nil
		}
	}
}
