package localnet

import (
	"bytes"

	"github.com/code-payments/code-nft-issuer/pkg/solana"
	"github.com/code-payments/code-nft-issuer/pkg/solana/computebudget"
)

// Compute budget instructions only configure the transaction, which happens
// before execution in transactionFee.
func processComputeBudget(e *execution, index int) error {
	if _, err := computebudget.DecompileComputeBudget(e.message, index); err != nil {
		return errInvalidInstructionData
	}
	return nil
}

// TransactionFee is the fee charged to the payer of m: the signature fee plus
// the prioritization fee requested through compute budget instructions.
func TransactionFee(m solana.Message) uint64 {
	fee := uint64(m.Header.NumSignatures) * LamportsPerSignature

	var price uint64
	var limit *uint32
	var invocations uint32
	for i, instruction := range m.Instructions {
		if int(instruction.ProgramIndex) >= len(m.Accounts) || !bytes.Equal(m.Accounts[instruction.ProgramIndex], computebudget.ProgramKey) {
			invocations++
			continue
		}

		ix, err := computebudget.DecompileComputeBudget(m, i)
		if err != nil {
			continue
		}
		switch ix.Command {
		case computebudget.CommandSetComputeUnitLimit:
			units := ix.Units
			limit = &units
		case computebudget.CommandSetComputeUnitPrice:
			price = ix.MicroLamports
		}
	}

	units := invocations * computebudget.DefaultInstructionComputeUnitLimit
	if limit != nil {
		units = *limit
	}
	units = min(units, computebudget.MaxComputeUnitLimit)

	return fee + computebudget.PrioritizationFee(price, units)
}
