package main

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/code-nft-issuer/pkg/app"
)

// loadKeypair loads a keypair file, as written by solana-keygen or as a base58
// encoded private key.
func loadKeypair(fileURL string) (ed25519.PrivateKey, error) {
	data, err := app.LoadFile(fileURL)
	if err != nil {
		return nil, errors.Wrapf(err, "error loading keypair %s", fileURL)
	}

	key, err := parseKeypair(data)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid keypair %s", fileURL)
	}
	return key, nil
}

func parseKeypair(data []byte) (ed25519.PrivateKey, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("keypair is empty")
	}

	var raw []byte
	if data[0] == '[' {
		var values []int
		if err := json.Unmarshal(data, &values); err != nil {
			return nil, errors.Wrap(err, "invalid json byte array")
		}

		raw = make([]byte, len(values))
		for i, v := range values {
			if v < 0 || v > 255 {
				return nil, errors.Errorf("invalid byte at index %d", i)
			}
			raw[i] = byte(v)
		}
	} else {
		decoded, err := base58.Decode(string(data))
		if err != nil {
			return nil, errors.Wrap(err, "invalid base58")
		}
		raw = decoded
	}

	switch len(raw) {
	case ed25519.PrivateKeySize:
		key := ed25519.PrivateKey(raw)
		derived := ed25519.NewKeyFromSeed(key.Seed())
		if !bytes.Equal(derived.Public().(ed25519.PublicKey), key.Public().(ed25519.PublicKey)) {
			return nil, errors.New("public key does not match private key")
		}
		return key, nil
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(raw), nil
	default:
		return nil, errors.Errorf("invalid keypair length %d", len(raw))
	}
}

func generateKeypair() (ed25519.PrivateKey, error) {
	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, errors.Wrap(err, "error generating keypair")
	}
	return key, nil
}

func parsePublicKey(value string) (ed25519.PublicKey, error) {
	decoded, err := base58.Decode(value)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid public key %s", value)
	}
	if len(decoded) != ed25519.PublicKeySize {
		return nil, errors.Errorf("invalid public key length %d", len(decoded))
	}
	return decoded, nil
}
