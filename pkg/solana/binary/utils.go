// Package binary holds fixed width little endian helpers for packed account
// layouts. Every helper advances offset by the number of bytes it covers.
package binary

import (
	"crypto/ed25519"
	"encoding/binary"
)

func PutKey32(dst []byte, src []byte, offset *int) {
	copy(dst[:ed25519.PublicKeySize], src)
	*offset += ed25519.PublicKeySize
}

func GetKey32(src []byte, dst *ed25519.PublicKey, offset *int) {
	*dst = append(ed25519.PublicKey(nil), src[:ed25519.PublicKeySize]...)
	*offset += ed25519.PublicKeySize
}

// PutOptionalKey32 writes a COption<Pubkey>, whose tag is optionSize bytes wide.
func PutOptionalKey32(dst []byte, src []byte, offset *int, optionSize int) {
	if len(src) > 0 {
		dst[0] = 1
		copy(dst[optionSize:optionSize+ed25519.PublicKeySize], src)
	}
	*offset += optionSize + ed25519.PublicKeySize
}

func GetOptionalKey32(src []byte, dst *ed25519.PublicKey, offset *int, optionSize int) {
	*dst = nil
	if src[0] == 1 {
		*dst = append(ed25519.PublicKey(nil), src[optionSize:optionSize+ed25519.PublicKeySize]...)
	}
	*offset += optionSize + ed25519.PublicKeySize
}

func PutUint64(dst []byte, v uint64, offset *int) {
	binary.LittleEndian.PutUint64(dst, v)
	*offset += 8
}

func GetUint64(src []byte, dst *uint64, offset *int) {
	*dst = binary.LittleEndian.Uint64(src)
	*offset += 8
}

func PutOptionalUint64(dst []byte, v *uint64, offset *int, optionSize int) {
	if v != nil {
		dst[0] = 1
		binary.LittleEndian.PutUint64(dst[optionSize:], *v)
	}
	*offset += optionSize + 8
}

func GetOptionalUint64(src []byte, dst **uint64, offset *int, optionSize int) {
	*dst = nil
	if src[0] == 1 {
		val := binary.LittleEndian.Uint64(src[optionSize:])
		*dst = &val
	}
	*offset += optionSize + 8
}

func PutUint8(dst []byte, v uint8, offset *int) {
	dst[0] = v
	*offset++
}

func GetUint8(src []byte, dst *uint8, offset *int) {
	*dst = src[0]
	*offset++
}

func PutBool(dst []byte, v bool, offset *int) {
	dst[0] = 0
	if v {
		dst[0] = 1
	}
	*offset++
}

func GetBool(src []byte, dst *bool, offset *int) {
	*dst = src[0] == 1
	*offset++
}
