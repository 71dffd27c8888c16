package tokenmetadata

import (
	"crypto/ed25519"

	bin "github.com/gagliardetto/binary"
	"github.com/pkg/errors"
)

// Creator is an entry of the creators list stored in metadata.
type Creator struct {
	Address  ed25519.PublicKey
	Verified bool
	// Share of royalties, in percent. Shares of all creators sum to 100.
	Share uint8
}

// Collection links metadata to a collection NFT.
type Collection struct {
	Verified bool
	Key      ed25519.PublicKey
}

type UseMethod uint8

const (
	UseMethodBurn UseMethod = iota
	UseMethodMultiple
	UseMethodSingle
)

type Uses struct {
	UseMethod UseMethod
	Remaining uint64
	Total     uint64
}

// CollectionDetails marks metadata as the parent of a sized collection.
type CollectionDetails struct {
	Size uint64
}

type TokenStandard uint8

const (
	TokenStandardNonFungible TokenStandard = iota
	TokenStandardFungibleAsset
	TokenStandardFungible
	TokenStandardNonFungibleEdition
	TokenStandardProgrammableNonFungible
)

// DataV2 is the user supplied portion of metadata.
type DataV2 struct {
	Name                 string
	Symbol               string
	URI                  string
	SellerFeeBasisPoints uint16
	Creators             []Creator
	Collection           *Collection
	Uses                 *Uses
}

func (c Creator) MarshalWithEncoder(e *bin.Encoder) error {
	if err := writeKey(e, c.Address); err != nil {
		return err
	}
	if err := e.WriteBool(c.Verified); err != nil {
		return err
	}
	return e.WriteUint8(c.Share)
}

func (c *Creator) UnmarshalWithDecoder(d *bin.Decoder) (err error) {
	if c.Address, err = readKey(d); err != nil {
		return err
	}
	if c.Verified, err = d.ReadBool(); err != nil {
		return err
	}
	c.Share, err = d.ReadUint8()
	return err
}

func (c Collection) MarshalWithEncoder(e *bin.Encoder) error {
	if err := e.WriteBool(c.Verified); err != nil {
		return err
	}
	return writeKey(e, c.Key)
}

func (c *Collection) UnmarshalWithDecoder(d *bin.Decoder) (err error) {
	if c.Verified, err = d.ReadBool(); err != nil {
		return err
	}
	c.Key, err = readKey(d)
	return err
}

func (u Uses) MarshalWithEncoder(e *bin.Encoder) error {
	if err := e.WriteUint8(uint8(u.UseMethod)); err != nil {
		return err
	}
	if err := e.WriteUint64(u.Remaining, bin.LE); err != nil {
		return err
	}
	return e.WriteUint64(u.Total, bin.LE)
}

func (u *Uses) UnmarshalWithDecoder(d *bin.Decoder) error {
	method, err := d.ReadUint8()
	if err != nil {
		return err
	}
	u.UseMethod = UseMethod(method)

	if u.Remaining, err = d.ReadUint64(bin.LE); err != nil {
		return err
	}
	u.Total, err = d.ReadUint64(bin.LE)
	return err
}

// CollectionDetails is a rust enum; only the V1 variant (tag 0) exists.
func (c CollectionDetails) MarshalWithEncoder(e *bin.Encoder) error {
	if err := e.WriteUint8(0); err != nil {
		return err
	}
	return e.WriteUint64(c.Size, bin.LE)
}

func (c *CollectionDetails) UnmarshalWithDecoder(d *bin.Decoder) error {
	variant, err := d.ReadUint8()
	if err != nil {
		return err
	}
	if variant != 0 {
		return errors.Errorf("unsupported collection details variant: %d", variant)
	}

	c.Size, err = d.ReadUint64(bin.LE)
	return err
}

func (data DataV2) MarshalWithEncoder(e *bin.Encoder) error {
	for _, s := range []string{data.Name, data.Symbol, data.URI} {
		if err := writeString(e, s); err != nil {
			return err
		}
	}
	if err := e.WriteUint16(data.SellerFeeBasisPoints, bin.LE); err != nil {
		return err
	}
	if err := writeCreators(e, data.Creators); err != nil {
		return err
	}
	if err := writeOption(e, data.Collection); err != nil {
		return err
	}
	return writeOption(e, data.Uses)
}

func (data *DataV2) UnmarshalWithDecoder(d *bin.Decoder) (err error) {
	for _, s := range []*string{&data.Name, &data.Symbol, &data.URI} {
		if *s, err = readString(d); err != nil {
			return err
		}
	}
	if data.SellerFeeBasisPoints, err = d.ReadUint16(bin.LE); err != nil {
		return err
	}
	if data.Creators, err = readCreators(d); err != nil {
		return err
	}

	var collection Collection
	if ok, err := readOption(d, &collection); err != nil {
		return err
	} else if ok {
		data.Collection = &collection
	}

	var uses Uses
	if ok, err := readOption(d, &uses); err != nil {
		return err
	} else if ok {
		data.Uses = &uses
	}

	return nil
}

func writeKey(e *bin.Encoder, key ed25519.PublicKey) error {
	if len(key) != ed25519.PublicKeySize {
		return errors.Errorf("invalid key length: %d", len(key))
	}
	return e.WriteBytes(key, false)
}

func readKey(d *bin.Decoder) (ed25519.PublicKey, error) {
	b, err := d.ReadNBytes(ed25519.PublicKeySize)
	if err != nil {
		return nil, err
	}
	return append(ed25519.PublicKey(nil), b...), nil
}

// Borsh strings carry a u32 length prefix.
func writeString(e *bin.Encoder, s string) error {
	if err := e.WriteUint32(uint32(len(s)), bin.LE); err != nil {
		return err
	}
	return e.WriteBytes([]byte(s), false)
}

func readString(d *bin.Decoder) (string, error) {
	n, err := d.ReadUint32(bin.LE)
	if err != nil {
		return "", err
	}
	if int(n) > d.Remaining() {
		return "", errors.Errorf("string length %d exceeds remaining data", n)
	}

	b, err := d.ReadNBytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// A nil creator slice encodes as None. A non nil empty slice is Some([]).
func writeCreators(e *bin.Encoder, creators []Creator) error {
	if creators == nil {
		return e.WriteBool(false)
	}
	if err := e.WriteBool(true); err != nil {
		return err
	}
	if err := e.WriteUint32(uint32(len(creators)), bin.LE); err != nil {
		return err
	}
	for _, c := range creators {
		if err := c.MarshalWithEncoder(e); err != nil {
			return err
		}
	}
	return nil
}

func readCreators(d *bin.Decoder) ([]Creator, error) {
	present, err := d.ReadBool()
	if err != nil || !present {
		return nil, err
	}

	n, err := d.ReadUint32(bin.LE)
	if err != nil {
		return nil, err
	}
	if int(n) > d.Remaining()/(ed25519.PublicKeySize+2) {
		return nil, errors.Errorf("creator count %d exceeds remaining data", n)
	}

	creators := make([]Creator, n)
	for i := range creators {
		if err := creators[i].UnmarshalWithDecoder(d); err != nil {
			return nil, err
		}
	}
	return creators, nil
}

type optional interface {
	MarshalWithEncoder(e *bin.Encoder) error
}

func writeOption[T any, P interface {
	*T
	optional
}](e *bin.Encoder, v P) error {
	if v == nil {
		return e.WriteBool(false)
	}
	if err := e.WriteBool(true); err != nil {
		return err
	}
	return v.MarshalWithEncoder(e)
}

func readOption(d *bin.Decoder, v bin.BinaryUnmarshaler) (bool, error) {
	present, err := d.ReadBool()
	if err != nil || !present {
		return false, err
	}
	return true, v.UnmarshalWithDecoder(d)
}

func writeOptionalUint64(e *bin.Encoder, v *uint64) error {
	if v == nil {
		return e.WriteBool(false)
	}
	if err := e.WriteBool(true); err != nil {
		return err
	}
	return e.WriteUint64(*v, bin.LE)
}

func readOptionalUint64(d *bin.Decoder) (*uint64, error) {
	present, err := d.ReadBool()
	if err != nil || !present {
		return nil, err
	}

	v, err := d.ReadUint64(bin.LE)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func writeOptionalUint8(e *bin.Encoder, v *uint8) error {
	if v == nil {
		return e.WriteBool(false)
	}
	if err := e.WriteBool(true); err != nil {
		return err
	}
	return e.WriteUint8(*v)
}

func readOptionalUint8(d *bin.Decoder) (*uint8, error) {
	present, err := d.ReadBool()
	if err != nil || !present {
		return nil, err
	}

	v, err := d.ReadUint8()
	if err != nil {
		return nil, err
	}
	return &v, nil
}
