package tokenmetadata

import (
	"bytes"
	"crypto/ed25519"
	"strings"

	bin "github.com/gagliardetto/binary"
	"github.com/pkg/errors"
)

// Metadata is the account created by CreateMetadataAccountV3.
//
// Reference: https://github.com/metaplex-foundation/mpl-token-metadata/blob/v1.13.2/programs/token-metadata/program/src/state/metadata.rs
type Metadata struct {
	Key                 Key
	UpdateAuthority     ed25519.PublicKey
	Mint                ed25519.PublicKey
	Data                DataV2
	PrimarySaleHappened bool
	IsMutable           bool
	EditionNonce        *uint8
	TokenStandard       *TokenStandard
	CollectionDetails   *CollectionDetails

	// ProgrammableConfig is only set for programmable NFTs, which are never
	// produced here. The raw rule set is kept so a decode/encode cycle is
	// lossless.
	ProgrammableConfig []byte
}

// Marshal encodes metadata into a MaxMetadataLength buffer. Name, symbol and
// uri are padded with zero bytes to their maximum lengths, as the program
// does on creation.
func (m *Metadata) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	e := bin.NewBorshEncoder(&buf)

	if err := e.WriteUint8(uint8(KeyMetadataV1)); err != nil {
		return nil, err
	}
	if err := writeKey(e, m.UpdateAuthority); err != nil {
		return nil, err
	}
	if err := writeKey(e, m.Mint); err != nil {
		return nil, err
	}

	padded := []struct {
		value string
		max   int
	}{
		{m.Data.Name, MaxNameLength},
		{m.Data.Symbol, MaxSymbolLength},
		{m.Data.URI, MaxURILength},
	}
	for _, p := range padded {
		if len(p.value) > p.max {
			return nil, errors.Errorf("value exceeds %d bytes", p.max)
		}
		if err := writeString(e, puff(p.value, p.max)); err != nil {
			return nil, err
		}
	}

	if err := e.WriteUint16(m.Data.SellerFeeBasisPoints, bin.LE); err != nil {
		return nil, err
	}
	if err := writeCreators(e, m.Data.Creators); err != nil {
		return nil, err
	}
	if err := e.WriteBool(m.PrimarySaleHappened); err != nil {
		return nil, err
	}
	if err := e.WriteBool(m.IsMutable); err != nil {
		return nil, err
	}
	if err := writeOptionalUint8(e, m.EditionNonce); err != nil {
		return nil, err
	}

	var tokenStandard *uint8
	if m.TokenStandard != nil {
		v := uint8(*m.TokenStandard)
		tokenStandard = &v
	}
	if err := writeOptionalUint8(e, tokenStandard); err != nil {
		return nil, err
	}

	if err := writeOption(e, m.Data.Collection); err != nil {
		return nil, err
	}
	if err := writeOption(e, m.Data.Uses); err != nil {
		return nil, err
	}
	if err := writeOption(e, m.CollectionDetails); err != nil {
		return nil, err
	}
	if err := e.WriteBytes(m.ProgrammableConfig, false); err != nil {
		return nil, err
	}

	if buf.Len() > MaxMetadataLength {
		return nil, errors.Errorf("metadata exceeds %d bytes", MaxMetadataLength)
	}

	b := make([]byte, MaxMetadataLength)
	copy(b, buf.Bytes())
	return b, nil
}

// Unmarshal decodes a metadata account. Padding is stripped from name,
// symbol and uri. Accounts written by older program versions may end before
// the optional trailing fields, which are then left unset.
func (m *Metadata) Unmarshal(b []byte) error {
	d := bin.NewBorshDecoder(b)

	key, err := d.ReadUint8()
	if err != nil {
		return err
	}
	if Key(key) != KeyMetadataV1 {
		return errors.Errorf("invalid metadata key: %d", key)
	}
	m.Key = KeyMetadataV1

	if m.UpdateAuthority, err = readKey(d); err != nil {
		return err
	}
	if m.Mint, err = readKey(d); err != nil {
		return err
	}

	for _, s := range []*string{&m.Data.Name, &m.Data.Symbol, &m.Data.URI} {
		v, err := readString(d)
		if err != nil {
			return err
		}
		*s = strings.TrimRight(v, "\x00")
	}

	if m.Data.SellerFeeBasisPoints, err = d.ReadUint16(bin.LE); err != nil {
		return err
	}
	if m.Data.Creators, err = readCreators(d); err != nil {
		return err
	}
	if m.PrimarySaleHappened, err = d.ReadBool(); err != nil {
		return err
	}
	if m.IsMutable, err = d.ReadBool(); err != nil {
		return err
	}

	// Everything past this point was added in later program versions.
	if d.Remaining() == 0 {
		return nil
	}
	if m.EditionNonce, err = readOptionalUint8(d); err != nil {
		return err
	}

	if d.Remaining() == 0 {
		return nil
	}
	tokenStandard, err := readOptionalUint8(d)
	if err != nil {
		return err
	}
	if tokenStandard != nil {
		v := TokenStandard(*tokenStandard)
		m.TokenStandard = &v
	}

	if d.Remaining() == 0 {
		return nil
	}
	var collection Collection
	if ok, err := readOption(d, &collection); err != nil {
		return err
	} else if ok {
		m.Data.Collection = &collection
	}

	if d.Remaining() == 0 {
		return nil
	}
	var uses Uses
	if ok, err := readOption(d, &uses); err != nil {
		return err
	} else if ok {
		m.Data.Uses = &uses
	}

	if d.Remaining() == 0 {
		return nil
	}
	var details CollectionDetails
	if ok, err := readOption(d, &details); err != nil {
		return err
	} else if ok {
		m.CollectionDetails = &details
	}

	rest, err := d.ReadNBytes(d.Remaining())
	if err != nil {
		return err
	}
	rest = bytes.TrimRight(rest, "\x00")
	if len(rest) > 0 {
		m.ProgrammableConfig = append([]byte(nil), rest...)
	}

	return nil
}

// MasterEdition is the V2 master edition account.
//
// Reference: https://github.com/metaplex-foundation/mpl-token-metadata/blob/v1.13.2/programs/token-metadata/program/src/state/master_edition.rs
type MasterEdition struct {
	Supply uint64
	// MaxSupply of prints. Nil means unlimited.
	MaxSupply *uint64
}

// Marshal encodes the master edition into a MaxMasterEditionSize buffer.
func (m *MasterEdition) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	e := bin.NewBorshEncoder(&buf)

	if err := e.WriteUint8(uint8(KeyMasterEditionV2)); err != nil {
		return nil, err
	}
	if err := e.WriteUint64(m.Supply, bin.LE); err != nil {
		return nil, err
	}
	if err := writeOptionalUint64(e, m.MaxSupply); err != nil {
		return nil, err
	}

	b := make([]byte, MaxMasterEditionSize)
	copy(b, buf.Bytes())
	return b, nil
}

func (m *MasterEdition) Unmarshal(b []byte) error {
	d := bin.NewBorshDecoder(b)

	key, err := d.ReadUint8()
	if err != nil {
		return err
	}
	if Key(key) != KeyMasterEditionV2 {
		return errors.Errorf("invalid master edition key: %d", key)
	}

	if m.Supply, err = d.ReadUint64(bin.LE); err != nil {
		return err
	}
	m.MaxSupply, err = readOptionalUint64(d)
	return err
}

func puff(s string, size int) string {
	if len(s) >= size {
		return s
	}
	return s + strings.Repeat("\x00", size-len(s))
}
