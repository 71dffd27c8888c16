package solana

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	"github.com/ybbus/jsonrpc"
)

// TransactionErrorKey is the string key returned in a transaction error.
//
// Source: https://github.com/solana-labs/solana/blob/fc2bf2d3b669d1c6655ae48b0a05f470938f3676/sdk/src/transaction/mod.rs#L37
type TransactionErrorKey string

const (
	TransactionErrorAccountInUse            TransactionErrorKey = "AccountInUse"
	TransactionErrorAlreadyProcessed        TransactionErrorKey = "AlreadyProcessed"
	TransactionErrorAccountNotFound         TransactionErrorKey = "AccountNotFound"
	TransactionErrorProgramAccountNotFound  TransactionErrorKey = "ProgramAccountNotFound"
	TransactionErrorInsufficientFundsForFee TransactionErrorKey = "InsufficientFundsForFee"
	TransactionErrorDuplicateSignature      TransactionErrorKey = "DuplicateSignature"
	TransactionErrorBlockhashNotFound       TransactionErrorKey = "BlockhashNotFound"
	TransactionErrorInstructionError        TransactionErrorKey = "InstructionError"
	TransactionErrorInvalidAccountIndex     TransactionErrorKey = "InvalidAccountIndex"
	TransactionErrorSignatureFailure        TransactionErrorKey = "SignatureFailure"
	TransactionErrorSanitizeFailure         TransactionErrorKey = "SanitizeFailure"
)

// InstructionErrorKey is the string keys returned in an instruction error.
//
// Source: https://github.com/solana-labs/solana/blob/4e2754341514cd181ae3f373cc2548bd22e918b8/sdk/program/src/instruction.rs#L23
type InstructionErrorKey string

const (
	InstructionErrorGenericError              InstructionErrorKey = "GenericError"
	InstructionErrorInvalidArgument           InstructionErrorKey = "InvalidArgument"
	InstructionErrorInvalidInstructionData    InstructionErrorKey = "InvalidInstructionData"
	InstructionErrorInvalidAccountData        InstructionErrorKey = "InvalidAccountData"
	InstructionErrorAccountDataTooSmall       InstructionErrorKey = "AccountDataTooSmall"
	InstructionErrorInsufficientFunds         InstructionErrorKey = "InsufficientFunds"
	InstructionErrorIncorrectProgramID        InstructionErrorKey = "IncorrectProgramId"
	InstructionErrorMissingRequiredSignature  InstructionErrorKey = "MissingRequiredSignature"
	InstructionErrorAccountAlreadyInitialized InstructionErrorKey = "AccountAlreadyInitialized"
	InstructionErrorUninitializedAccount      InstructionErrorKey = "UninitializedAccount"
	InstructionErrorReadonlyDataModified      InstructionErrorKey = "ReadonlyDataModified"
	InstructionErrorNotEnoughAccountKeys      InstructionErrorKey = "NotEnoughAccountKeys"
	InstructionErrorCustom                    InstructionErrorKey = "Custom"
	InstructionErrorUnsupportedProgramID      InstructionErrorKey = "UnsupportedProgramId"
	InstructionErrorInvalidSeeds              InstructionErrorKey = "InvalidSeeds"
)

// CustomError is the numerical error returned by a non-builtin program.
type CustomError int

func (c CustomError) Error() string {
	return fmt.Sprintf("custom program error: %#x", int(c))
}

// InstructionError is the failure of the instruction at Index. Err is either
// a CustomError or an error whose message is an InstructionErrorKey.
type InstructionError struct {
	Index int
	Err   error
}

func NewInstructionError(index int, key InstructionErrorKey) *InstructionError {
	return &InstructionError{Index: index, Err: errors.New(string(key))}
}

func NewCustomInstructionError(index int, code CustomError) *InstructionError {
	return &InstructionError{Index: index, Err: code}
}

func (i InstructionError) Error() string {
	return fmt.Sprintf("Error processing Instruction %d: %v", i.Index, i.Err)
}

func (i InstructionError) Unwrap() error {
	return i.Err
}

func (i InstructionError) ErrorKey() InstructionErrorKey {
	switch {
	case i.Err == nil:
		return ""
	case i.CustomError() != nil:
		return InstructionErrorCustom
	}
	return InstructionErrorKey(i.Err.Error())
}

func (i InstructionError) CustomError() *CustomError {
	if code, ok := i.Err.(CustomError); ok {
		return &code
	}
	return nil
}

// raw returns the JSON shape of the error as found in RPC responses, either
// [index, "Key"] or [index, {"Custom": code}].
func (i InstructionError) raw() []interface{} {
	if code := i.CustomError(); code != nil {
		return []interface{}{i.Index, map[string]interface{}{string(InstructionErrorCustom): int(*code)}}
	}
	return []interface{}{i.Index, i.Err.Error()}
}

// TransactionError is the reason a transaction failed, as reported in the
// "err" field of RPC responses.
type TransactionError struct {
	key              TransactionErrorKey
	instructionError *InstructionError
	raw              interface{}
}

func NewTransactionError(key TransactionErrorKey) *TransactionError {
	return &TransactionError{key: key, raw: string(key)}
}

func TransactionErrorFromInstructionError(err *InstructionError) (*TransactionError, error) {
	if err == nil || err.Err == nil {
		return nil, errors.New("instruction error has no cause")
	}
	return &TransactionError{
		key:              TransactionErrorInstructionError,
		instructionError: err,
		raw:              map[string]interface{}{string(TransactionErrorInstructionError): err.raw()},
	}, nil
}

// ParseRPCError extracts the transaction error carried in the data of a
// preflight failure, if any.
func ParseRPCError(err *jsonrpc.RPCError) (*TransactionError, error) {
	if err == nil {
		return nil, nil
	}

	data, ok := err.Data.(map[string]interface{})
	if !ok {
		return nil, errors.Errorf("unexpected rpc error data: %T", err.Data)
	}
	return ParseTransactionError(data["err"])
}

// ParseTransactionError parses a decoded "err" value. Numbers may be decoded
// as float64, json.Number or strings.
func ParseTransactionError(raw interface{}) (*TransactionError, error) {
	switch t := raw.(type) {
	case nil:
		return nil, nil
	case string:
		return &TransactionError{key: TransactionErrorKey(t), raw: raw}, nil
	case map[string]interface{}:
		key, value, err := singleEntry(t)
		if err != nil {
			return nil, errors.Wrap(err, "invalid transaction error")
		}

		txErr := &TransactionError{key: TransactionErrorKey(key), raw: raw}
		if txErr.key != TransactionErrorInstructionError {
			return txErr, nil
		}

		txErr.instructionError, err = parseInstructionError(value)
		if err != nil {
			return nil, errors.Wrap(err, "invalid instruction error")
		}
		return txErr, nil
	}
	return nil, errors.Errorf("unexpected transaction error type: %T", raw)
}

func parseInstructionError(v interface{}) (*InstructionError, error) {
	tuple, ok := v.([]interface{})
	if !ok || len(tuple) != 2 {
		return nil, errors.Errorf("expected [index, error], got %v", v)
	}

	index, err := parseJSONNumber(tuple[0])
	if err != nil {
		return nil, err
	}

	switch t := tuple[1].(type) {
	case string:
		return &InstructionError{Index: index, Err: errors.New(t)}, nil
	case map[string]interface{}:
		key, value, err := singleEntry(t)
		if err != nil {
			return nil, err
		}
		if key != string(InstructionErrorCustom) {
			return &InstructionError{Index: index, Err: errors.New(key)}, nil
		}

		code, err := parseJSONNumber(value)
		if err != nil {
			return nil, errors.Wrap(err, "invalid custom error code")
		}
		return NewCustomInstructionError(index, CustomError(code)), nil
	}
	return nil, errors.Errorf("unexpected instruction error type: %T", tuple[1])
}

func (t TransactionError) Error() string {
	if t.instructionError != nil {
		return t.instructionError.Error()
	}
	return string(t.key)
}

func (t TransactionError) ErrorKey() TransactionErrorKey {
	return t.key
}

func (t TransactionError) InstructionError() *InstructionError {
	return t.instructionError
}

func (t TransactionError) JSONString() (string, error) {
	b, err := json.Marshal(t.raw)
	return string(b), err
}

func singleEntry(m map[string]interface{}) (string, interface{}, error) {
	if len(m) != 1 {
		return "", nil, errors.Errorf("expected a single entry, got %d", len(m))
	}
	for k, v := range m {
		return k, v, nil
	}
	panic("unreachable")
}

func parseJSONNumber(v interface{}) (int, error) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		return int(i), errors.Wrapf(err, "invalid number: %v", v)
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return int(i), errors.Wrapf(err, "invalid number: %v", v)
	case float64:
		return int(n), nil
	}
	return 0, errors.Errorf("invalid number: %v", v)
}
