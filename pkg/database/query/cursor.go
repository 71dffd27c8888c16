package query

import (
	"encoding/binary"

	"github.com/mr-tron/base58"
)

// Cursor is an opaque paging position. It encodes the record id of the last
// returned item.
type Cursor []byte

var EmptyCursor = Cursor{}

func ToCursor(id uint64) Cursor {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, id)
	return b
}

func (c Cursor) ToUint64() uint64 {
	if len(c) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(c)
}

func (c Cursor) ToBase58() string {
	return base58.Encode(c)
}
