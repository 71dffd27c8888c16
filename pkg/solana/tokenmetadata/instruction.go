package tokenmetadata

import (
	"bytes"
	"crypto/ed25519"

	bin "github.com/gagliardetto/binary"
	"github.com/pkg/errors"

	"github.com/code-payments/code-nft-issuer/pkg/solana"
	"github.com/code-payments/code-nft-issuer/pkg/solana/system"
	"github.com/code-payments/code-nft-issuer/pkg/solana/token"
)

func GetCommand(m solana.Message, index int) (Command, error) {
	if index >= len(m.Instructions) {
		return CommandUnknown, errors.Errorf("instruction doesn't exist at %d", index)
	}

	i := m.Instructions[index]

	if !bytes.Equal(m.Accounts[i.ProgramIndex], ProgramKey) {
		return CommandUnknown, solana.ErrIncorrectProgram
	}
	if len(i.Data) == 0 {
		return CommandUnknown, errors.New("token metadata instruction missing data")
	}

	return Command(i.Data[0]), nil
}

type CreateMetadataAccountV3Args struct {
	Data              DataV2
	IsMutable         bool
	CollectionDetails *CollectionDetails
}

func (a CreateMetadataAccountV3Args) MarshalWithEncoder(e *bin.Encoder) error {
	if err := a.Data.MarshalWithEncoder(e); err != nil {
		return err
	}
	if err := e.WriteBool(a.IsMutable); err != nil {
		return err
	}
	return writeOption(e, a.CollectionDetails)
}

func (a *CreateMetadataAccountV3Args) UnmarshalWithDecoder(d *bin.Decoder) error {
	if err := a.Data.UnmarshalWithDecoder(d); err != nil {
		return err
	}

	isMutable, err := d.ReadBool()
	if err != nil {
		return err
	}
	a.IsMutable = isMutable

	var details CollectionDetails
	if ok, err := readOption(d, &details); err != nil {
		return err
	} else if ok {
		a.CollectionDetails = &details
	}

	return nil
}

type CreateMetadataAccountV3Accounts struct {
	Metadata                ed25519.PublicKey
	Mint                    ed25519.PublicKey
	MintAuthority           ed25519.PublicKey
	Payer                   ed25519.PublicKey
	UpdateAuthority         ed25519.PublicKey
	UpdateAuthorityIsSigner bool
}

// NewCreateMetadataAccountV3Instruction creates the metadata account of a
// mint.
//
// Reference: https://github.com/metaplex-foundation/mpl-token-metadata/blob/v1.13.2/programs/token-metadata/program/src/instruction/metadata.rs
func NewCreateMetadataAccountV3Instruction(accounts *CreateMetadataAccountV3Accounts, args *CreateMetadataAccountV3Args) (solana.Instruction, error) {
	// Accounts expected by this instruction:
	//
	//   0. `[writable]` Metadata key (pda of ['metadata', program id, mint id])
	//   1. `[]` Mint of token asset
	//   2. `[signer]` Mint authority
	//   3. `[signer, writable]` Payer
	//   4. `[signer?]` Update authority info
	//   5. `[]` System program
	//   6. `[]` Rent info (optional)
	data, err := encodeInstructionData(CommandCreateMetadataAccountV3, args)
	if err != nil {
		return solana.Instruction{}, err
	}

	return solana.NewInstruction(
		ProgramKey,
		data,
		solana.NewAccountMeta(accounts.Metadata, false),
		solana.NewReadonlyAccountMeta(accounts.Mint, false),
		solana.NewReadonlyAccountMeta(accounts.MintAuthority, true),
		solana.NewAccountMeta(accounts.Payer, true),
		solana.NewReadonlyAccountMeta(accounts.UpdateAuthority, accounts.UpdateAuthorityIsSigner),
		solana.NewReadonlyAccountMeta(system.ProgramKey[:], false),
		solana.NewReadonlyAccountMeta(system.RentSysVar, false),
	), nil
}

type DecompiledCreateMetadataAccountV3 struct {
	Accounts CreateMetadataAccountV3Accounts
	Args     CreateMetadataAccountV3Args
}

func DecompileCreateMetadataAccountV3(m solana.Message, index int) (*DecompiledCreateMetadataAccountV3, error) {
	i, err := getInstruction(m, index, CommandCreateMetadataAccountV3)
	if err != nil {
		return nil, err
	}

	if len(i.Accounts) != 6 && len(i.Accounts) != 7 {
		return nil, errors.Errorf("invalid number of accounts: %d (expected 6 or 7)", len(i.Accounts))
	}
	if !bytes.Equal(m.Accounts[i.Accounts[5]], system.ProgramKey[:]) {
		return nil, errors.New("system program key mismatch")
	}
	if len(i.Accounts) == 7 && !bytes.Equal(m.Accounts[i.Accounts[6]], system.RentSysVar) {
		return nil, errors.New("rent sysvar mismatch")
	}

	v := &DecompiledCreateMetadataAccountV3{
		Accounts: CreateMetadataAccountV3Accounts{
			Metadata:                m.Accounts[i.Accounts[0]],
			Mint:                    m.Accounts[i.Accounts[1]],
			MintAuthority:           m.Accounts[i.Accounts[2]],
			Payer:                   m.Accounts[i.Accounts[3]],
			UpdateAuthority:         m.Accounts[i.Accounts[4]],
			UpdateAuthorityIsSigner: m.IsSigner(int(i.Accounts[4])),
		},
	}
	if err := decodeInstructionData(i.Data, &v.Args); err != nil {
		return nil, errors.Wrap(err, "invalid create metadata args")
	}

	return v, nil
}

type CreateMasterEditionV3Args struct {
	// MaxSupply of prints. Nil allows unlimited prints.
	MaxSupply *uint64
}

func (a CreateMasterEditionV3Args) MarshalWithEncoder(e *bin.Encoder) error {
	return writeOptionalUint64(e, a.MaxSupply)
}

func (a *CreateMasterEditionV3Args) UnmarshalWithDecoder(d *bin.Decoder) (err error) {
	a.MaxSupply, err = readOptionalUint64(d)
	return err
}

type CreateMasterEditionV3Accounts struct {
	Edition         ed25519.PublicKey
	Mint            ed25519.PublicKey
	UpdateAuthority ed25519.PublicKey
	MintAuthority   ed25519.PublicKey
	Payer           ed25519.PublicKey
	Metadata        ed25519.PublicKey
}

// NewCreateMasterEditionV3Instruction turns a minted token into a master
// edition. The mint and freeze authorities move to the edition account.
//
// Reference: https://github.com/metaplex-foundation/mpl-token-metadata/blob/v1.13.2/programs/token-metadata/program/src/instruction/edition.rs
func NewCreateMasterEditionV3Instruction(accounts *CreateMasterEditionV3Accounts, args *CreateMasterEditionV3Args) (solana.Instruction, error) {
	// Accounts expected by this instruction:
	//
	//   0. `[writable]` Unallocated edition V2 account (pda of ['metadata', program id, mint, 'edition'])
	//   1. `[writable]` Metadata mint
	//   2. `[signer]` Update authority
	//   3. `[signer]` Mint authority on the metadata's mint
	//   4. `[signer, writable]` Payer
	//   5. `[writable]` Metadata account
	//   6. `[]` Token program
	//   7. `[]` System program
	//   8. `[]` Rent info (optional)
	data, err := encodeInstructionData(CommandCreateMasterEditionV3, args)
	if err != nil {
		return solana.Instruction{}, err
	}

	return solana.NewInstruction(
		ProgramKey,
		data,
		solana.NewAccountMeta(accounts.Edition, false),
		solana.NewAccountMeta(accounts.Mint, false),
		solana.NewReadonlyAccountMeta(accounts.UpdateAuthority, true),
		solana.NewReadonlyAccountMeta(accounts.MintAuthority, true),
		solana.NewAccountMeta(accounts.Payer, true),
		solana.NewAccountMeta(accounts.Metadata, false),
		solana.NewReadonlyAccountMeta(token.ProgramKey, false),
		solana.NewReadonlyAccountMeta(system.ProgramKey[:], false),
		solana.NewReadonlyAccountMeta(system.RentSysVar, false),
	), nil
}

type DecompiledCreateMasterEditionV3 struct {
	Accounts CreateMasterEditionV3Accounts
	Args     CreateMasterEditionV3Args
}

func DecompileCreateMasterEditionV3(m solana.Message, index int) (*DecompiledCreateMasterEditionV3, error) {
	i, err := getInstruction(m, index, CommandCreateMasterEditionV3)
	if err != nil {
		return nil, err
	}

	if len(i.Accounts) != 8 && len(i.Accounts) != 9 {
		return nil, errors.Errorf("invalid number of accounts: %d (expected 8 or 9)", len(i.Accounts))
	}
	if !bytes.Equal(m.Accounts[i.Accounts[6]], token.ProgramKey) {
		return nil, errors.New("token program key mismatch")
	}
	if !bytes.Equal(m.Accounts[i.Accounts[7]], system.ProgramKey[:]) {
		return nil, errors.New("system program key mismatch")
	}
	if len(i.Accounts) == 9 && !bytes.Equal(m.Accounts[i.Accounts[8]], system.RentSysVar) {
		return nil, errors.New("rent sysvar mismatch")
	}

	v := &DecompiledCreateMasterEditionV3{
		Accounts: CreateMasterEditionV3Accounts{
			Edition:         m.Accounts[i.Accounts[0]],
			Mint:            m.Accounts[i.Accounts[1]],
			UpdateAuthority: m.Accounts[i.Accounts[2]],
			MintAuthority:   m.Accounts[i.Accounts[3]],
			Payer:           m.Accounts[i.Accounts[4]],
			Metadata:        m.Accounts[i.Accounts[5]],
		},
	}
	if err := decodeInstructionData(i.Data, &v.Args); err != nil {
		return nil, errors.Wrap(err, "invalid create master edition args")
	}

	return v, nil
}

func encodeInstructionData(command Command, args bin.BinaryMarshaler) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(byte(command))

	if err := args.MarshalWithEncoder(bin.NewBorshEncoder(&buf)); err != nil {
		return nil, errors.Wrapf(err, "failed to encode instruction %d", command)
	}
	return buf.Bytes(), nil
}

// decodeInstructionData rejects trailing bytes after the args.
func decodeInstructionData(data []byte, args bin.BinaryUnmarshaler) error {
	d := bin.NewBorshDecoder(data[1:])
	if err := args.UnmarshalWithDecoder(d); err != nil {
		return err
	}
	if d.Remaining() != 0 {
		return errors.Errorf("%d trailing bytes", d.Remaining())
	}
	return nil
}

func getInstruction(m solana.Message, index int, command Command) (solana.CompiledInstruction, error) {
	actual, err := GetCommand(m, index)
	if err != nil {
		return solana.CompiledInstruction{}, err
	}
	if actual != command {
		return solana.CompiledInstruction{}, solana.ErrIncorrectInstruction
	}

	return m.Instructions[index], nil
}
