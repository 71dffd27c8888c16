package computebudget

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"
	"math"
	"math/bits"

	"github.com/pkg/errors"

	"github.com/code-payments/code-nft-issuer/pkg/solana"
)

// ProgramKey is ComputeBudget111111111111111111111111111111.
var ProgramKey = ed25519.PublicKey{3, 6, 70, 111, 229, 33, 23, 50, 255, 236, 173, 186, 114, 195, 155, 231, 188, 140, 229, 187, 197, 247, 18, 107, 44, 67, 155, 58, 64, 0, 0, 0}

// Command is the u8 discriminator of a compute budget instruction.
type Command uint8

// Instruction discriminators, in declaration order of the program.
const (
	commandRequestUnitsDeprecated Command = iota
	CommandRequestHeapFrame
	CommandSetComputeUnitLimit
	CommandSetComputeUnitPrice
)

const (
	// DefaultInstructionComputeUnitLimit is granted per instruction when a
	// transaction sets no limit.
	DefaultInstructionComputeUnitLimit = 200_000

	// MaxComputeUnitLimit caps the compute units of a transaction.
	MaxComputeUnitLimit = 1_400_000

	microLamportsPerLamport = 1_000_000
)

// SetComputeUnitLimit caps the compute units the transaction may consume.
func SetComputeUnitLimit(units uint32) solana.Instruction {
	data := make([]byte, 1+4)
	data[0] = byte(CommandSetComputeUnitLimit)
	binary.LittleEndian.PutUint32(data[1:], units)

	return solana.NewInstruction(ProgramKey, data)
}

// SetComputeUnitPrice sets the prioritization fee paid per compute unit, in
// micro-lamports.
func SetComputeUnitPrice(microLamports uint64) solana.Instruction {
	data := make([]byte, 1+8)
	data[0] = byte(CommandSetComputeUnitPrice)
	binary.LittleEndian.PutUint64(data[1:], microLamports)

	return solana.NewInstruction(ProgramKey, data)
}

// DecompiledComputeBudget is a SetComputeUnitLimit or SetComputeUnitPrice
// instruction. Only the field matching Command is set.
type DecompiledComputeBudget struct {
	Command Command

	Units         uint32
	MicroLamports uint64
}

func DecompileComputeBudget(m solana.Message, index int) (*DecompiledComputeBudget, error) {
	if index >= len(m.Instructions) {
		return nil, errors.Errorf("instruction doesn't exist at %d", index)
	}

	i := m.Instructions[index]
	if !bytes.Equal(m.Accounts[i.ProgramIndex], ProgramKey) {
		return nil, solana.ErrIncorrectProgram
	}
	if len(i.Data) == 0 {
		return nil, solana.ErrIncorrectInstruction
	}

	res := &DecompiledComputeBudget{Command: Command(i.Data[0])}
	switch res.Command {
	case CommandSetComputeUnitLimit:
		if len(i.Data) != 1+4 {
			return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
		}
		res.Units = binary.LittleEndian.Uint32(i.Data[1:])
	case CommandSetComputeUnitPrice:
		if len(i.Data) != 1+8 {
			return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
		}
		res.MicroLamports = binary.LittleEndian.Uint64(i.Data[1:])
	default:
		return nil, solana.ErrIncorrectInstruction
	}
	return res, nil
}

// PrioritizationFee is the fee in lamports for units at the given price,
// rounded up.
func PrioritizationFee(microLamports uint64, units uint32) uint64 {
	if microLamports == 0 || units == 0 {
		return 0
	}

	hi, lo := bits.Mul64(microLamports, uint64(units))
	if hi > 0 {
		return math.MaxUint64
	}

	fee := lo / microLamportsPerLamport
	if lo%microLamportsPerLamport != 0 {
		fee++
	}
	return fee
}
