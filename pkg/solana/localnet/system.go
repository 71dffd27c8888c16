package localnet

import (
	"bytes"

	"github.com/code-payments/code-nft-issuer/pkg/solana"
	"github.com/code-payments/code-nft-issuer/pkg/solana/system"
)

func processSystem(e *execution, index int) error {
	command, err := system.GetCommand(e.message, index)
	if err != nil {
		return errInvalidInstructionData
	}

	switch command {
	case system.CommandCreateAccount:
		return createAccount(e, index)
	default:
		return errInvalidInstructionData
	}
}

func createAccount(e *execution, index int) error {
	ix, err := system.DecompileCreateAccount(e.message, index)
	if err != nil {
		return errInvalidInstructionData
	}

	if !e.isSigner(ix.Funder) || !e.isSigner(ix.Address) {
		return errMissingRequiredSignature
	}
	if ix.Size > system.MaxPermittedDataLength {
		return system.ErrorInvalidAccountDataLength
	}

	existing, ok := e.account(ix.Address)
	if ok && (existing.Lamports > 0 || len(existing.Data) > 0 || !bytes.Equal(existing.Owner, system.ProgramKey[:])) {
		return system.ErrorAccountAlreadyInUse
	}

	funder, ok := e.account(ix.Funder)
	if !ok || funder.Lamports < ix.Lamports {
		return system.ErrorResultWithNegativeLamports
	}
	funder.Lamports -= ix.Lamports
	if err := e.write(ix.Funder, funder); err != nil {
		return err
	}

	return e.write(ix.Address, solana.AccountInfo{
		Data:     make([]byte, ix.Size),
		Owner:    ix.Owner,
		Lamports: ix.Lamports,
	})
}
