package solana

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"math"

	"github.com/jdgcs/ed25519/edwards25519"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

const (
	maxSeeds      = 16
	maxSeedLength = 32
)

var (
	ErrTooManySeeds          = errors.New("too many seeds")
	ErrMaxSeedLengthExceeded = errors.New("max seed length exceeded")
	ErrInvalidPublicKey      = errors.New("invalid public key")
	ErrNoViableBumpSeed      = errors.New("unable to find a viable program address bump seed")
	ErrAddressMismatch       = errors.New("address does not match derivation")
)

// Derivation is a program derived address together with the bump seed that
// moves it off the ed25519 curve.
type Derivation struct {
	Address ed25519.PublicKey
	Bump    uint8
}

// String returns the base58 address.
func (d Derivation) String() string {
	return base58.Encode(d.Address)
}

// CreateProgramAddress mirrors the implementation of the Solana SDK's CreateProgramAddress.
//
// Program addresses are public keys that _do not_ lie on the ed25519 curve, so that
// there is no associated private key. In the event that the program and seed parameters
// result in a valid public key, ErrInvalidPublicKey is returned.
//
// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L158
func CreateProgramAddress(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, error) {
	if len(seeds) > maxSeeds {
		return nil, ErrTooManySeeds
	}

	h := sha256.New()
	for _, s := range seeds {
		if len(s) > maxSeedLength {
			return nil, ErrMaxSeedLengthExceeded
		}

		if _, err := h.Write(s); err != nil {
			return nil, errors.Wrap(err, "failed to hash seed")
		}
	}

	for _, v := range [][]byte{program, []byte("ProgramDerivedAddress")} {
		if _, err := h.Write(v); err != nil {
			return nil, errors.Wrap(err, "failed to hash seed")
		}
	}

	var pub [32]byte
	copy(pub[:], h.Sum(nil))

	// The x/crypto edwards25519 point type is internal, so the curve check
	// relies on the decompression routine of the jdgcs fork.
	//
	// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L182-L187
	if IsOnCurve(pub[:]) {
		return nil, ErrInvalidPublicKey
	}

	return pub[:], nil
}

// IsOnCurve reports whether the key is a valid compressed edwards point, and
// therefore may have a private key.
func IsOnCurve(key ed25519.PublicKey) bool {
	if len(key) != ed25519.PublicKeySize {
		return false
	}

	var pub [32]byte
	copy(pub[:], key)

	var A edwards25519.ExtendedGroupElement
	return A.FromBytes(&pub)
}

// FindProgramAddressAndBump mirrors the implementation of the Solana SDK's
// FindProgramAddress. It returns the address and bump seed.
//
// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L234
func FindProgramAddressAndBump(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, uint8, error) {
	bumpSeed := []byte{math.MaxUint8}
	for i := 0; i < math.MaxUint8; i++ {
		pub, err := CreateProgramAddress(program, append(seeds, bumpSeed)...)
		if err == nil {
			return pub, bumpSeed[0], nil
		}
		if err != ErrInvalidPublicKey {
			return nil, 0, err
		}

		bumpSeed[0]--
	}

	return nil, 0, ErrNoViableBumpSeed
}

// FindProgramAddress returns only the address of FindProgramAddressAndBump.
func FindProgramAddress(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, error) {
	pub, _, err := FindProgramAddressAndBump(program, seeds...)
	return pub, err
}

// Derive is FindProgramAddressAndBump packaged as a Derivation.
func Derive(program ed25519.PublicKey, seeds ...[]byte) (Derivation, error) {
	pub, bump, err := FindProgramAddressAndBump(program, seeds...)
	if err != nil {
		return Derivation{}, err
	}

	return Derivation{Address: pub, Bump: bump}, nil
}

// VerifyProgramAddress re-derives the canonical address for the seeds and
// returns ErrAddressMismatch if it differs from expected.
func VerifyProgramAddress(expected, program ed25519.PublicKey, seeds ...[]byte) (Derivation, error) {
	d, err := Derive(program, seeds...)
	if err != nil {
		return Derivation{}, err
	}

	if !bytes.Equal(d.Address, expected) {
		return d, ErrAddressMismatch
	}

	return d, nil
}
