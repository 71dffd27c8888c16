package solana

import (
	"bytes"
	"crypto/ed25519"
	"io"

	"github.com/pkg/errors"

	"github.com/code-payments/code-nft-issuer/pkg/solana/shortvec"
)

// Marshal encodes the transaction in the wire format: a compact array of
// signatures followed by the message.
func (t Transaction) Marshal() []byte {
	var b bytes.Buffer
	_, _ = shortvec.EncodeLen(&b, len(t.Signatures))
	for _, s := range t.Signatures {
		b.Write(s[:])
	}
	b.Write(t.Message.Marshal())
	return b.Bytes()
}

func (t *Transaction) Unmarshal(b []byte) error {
	r := &wireReader{buf: bytes.NewBuffer(b)}

	t.Signatures = make([]Signature, r.length("signatures"))
	for i := range t.Signatures {
		r.read(t.Signatures[i][:], "signature")
	}
	if r.err != nil {
		return r.err
	}

	return t.Message.Unmarshal(r.buf.Bytes())
}

// Marshal encodes the legacy message, which is the payload signers sign.
func (m Message) Marshal() []byte {
	var b bytes.Buffer
	b.Write([]byte{m.Header.NumSignatures, m.Header.NumReadonlySigned, m.Header.NumReadOnly})

	_, _ = shortvec.EncodeLen(&b, len(m.Accounts))
	for _, a := range m.Accounts {
		b.Write(a)
	}

	b.Write(m.RecentBlockhash[:])

	_, _ = shortvec.EncodeLen(&b, len(m.Instructions))
	for _, ix := range m.Instructions {
		b.WriteByte(ix.ProgramIndex)
		_, _ = shortvec.EncodeLen(&b, len(ix.Accounts))
		b.Write(ix.Accounts)
		_, _ = shortvec.EncodeLen(&b, len(ix.Data))
		b.Write(ix.Data)
	}
	return b.Bytes()
}

func (m *Message) Unmarshal(b []byte) error {
	if len(b) == 0 {
		return errors.New("empty message")
	}
	if b[0]&0x80 != 0 {
		return errors.New("versioned messages not supported")
	}

	r := &wireReader{buf: bytes.NewBuffer(b)}

	var header [3]byte
	r.read(header[:], "header")
	m.Header = Header{
		NumSignatures:     header[0],
		NumReadonlySigned: header[1],
		NumReadOnly:       header[2],
	}

	m.Accounts = make([]ed25519.PublicKey, r.length("accounts"))
	for i := range m.Accounts {
		m.Accounts[i] = r.bytes(ed25519.PublicKeySize, "account")
	}

	r.read(m.RecentBlockhash[:], "recent blockhash")

	m.Instructions = make([]CompiledInstruction, r.length("instructions"))
	for i := range m.Instructions {
		ix := &m.Instructions[i]
		ix.ProgramIndex = r.bytes(1, "program index")[0]
		ix.Accounts = r.bytes(r.length("instruction accounts"), "instruction accounts")
		ix.Data = r.bytes(r.length("instruction data"), "instruction data")
		if r.err != nil {
			return errors.Wrapf(r.err, "instruction %d", i)
		}

		if int(ix.ProgramIndex) >= len(m.Accounts) {
			return errors.Errorf("instruction %d: program index out of range: %d", i, ix.ProgramIndex)
		}
		for _, index := range ix.Accounts {
			if int(index) >= len(m.Accounts) {
				return errors.Errorf("instruction %d: account index out of range: %d", i, index)
			}
		}
	}

	return r.err
}

// wireReader decodes sequential wire fields, remembering the first failure.
// Once failed every read returns zero values.
type wireReader struct {
	buf *bytes.Buffer
	err error
}

func (r *wireReader) length(field string) int {
	if r.err != nil {
		return 0
	}
	n, err := shortvec.DecodeLen(r.buf)
	if err != nil {
		r.err = errors.Wrapf(err, "failed to read %s length", field)
		return 0
	}
	return n
}

func (r *wireReader) read(dst []byte, field string) {
	if r.err != nil {
		return
	}
	if _, err := io.ReadFull(r.buf, dst); err != nil {
		r.err = errors.Wrapf(err, "failed to read %s", field)
	}
}

func (r *wireReader) bytes(n int, field string) []byte {
	b := make([]byte, n)
	r.read(b, field)
	return b
}
