package rpc

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/pkg/errors"
)

var (
	// ErrRateLimited and ErrServiceError are transient, and retried by the client.
	ErrRateLimited  = errors.New("rate limited")
	ErrServiceError = errors.New("service error")

	ErrNoAccount         = errors.New("no account info")
	ErrSignatureNotFound = errors.New("signature not found")
)

// Error is a JSON RPC error object returned by the node that is not a
// transient failure.
//
// Reference: https://github.com/solana-labs/solana/blob/14d793b22c1571fb092d5822189d5b64f32605e6/client/src/rpc_custom_error.rs
type Error struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *Error) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// TransactionError returns the transaction error of a failed preflight
// simulation, or nil if the error carries none.
func (e *Error) TransactionError() (*TransactionError, error) {
	data, ok := e.Data.(map[string]interface{})
	if !ok {
		return nil, nil
	}

	if txErr, ok := data["err"]; ok && txErr != nil {
		return ParseTransactionError(txErr)
	}

	return nil, nil
}

// TransactionErrorKey is the string key returned in a transaction error.
//
// Source: https://github.com/solana-labs/solana/blob/fc2bf2d3b669d1c6655ae48b0a05f470938f3676/sdk/src/transaction/mod.rs#L37
type TransactionErrorKey string

const (
	TransactionErrorAccountInUse            TransactionErrorKey = "AccountInUse"
	TransactionErrorAccountNotFound         TransactionErrorKey = "AccountNotFound"
	TransactionErrorInsufficientFundsForFee TransactionErrorKey = "InsufficientFundsForFee"
	TransactionErrorDuplicateSignature      TransactionErrorKey = "DuplicateSignature"
	TransactionErrorBlockhashNotFound       TransactionErrorKey = "BlockhashNotFound"
	TransactionErrorInstructionError        TransactionErrorKey = "InstructionError"
	TransactionErrorSignatureFailure        TransactionErrorKey = "SignatureFailure"
)

// InstructionErrorKey is the string keys returned in an instruction error.
//
// Source: https://github.com/solana-labs/solana/blob/4e2754341514cd181ae3f373cc2548bd22e918b8/sdk/program/src/instruction.rs#L23
type InstructionErrorKey string

const (
	InstructionErrorInvalidArgument          InstructionErrorKey = "InvalidArgument"
	InstructionErrorInvalidInstructionData   InstructionErrorKey = "InvalidInstructionData"
	InstructionErrorInvalidAccountData       InstructionErrorKey = "InvalidAccountData"
	InstructionErrorInsufficientFunds        InstructionErrorKey = "InsufficientFunds"
	InstructionErrorMissingRequiredSignature InstructionErrorKey = "MissingRequiredSignature"
	InstructionErrorCustom                   InstructionErrorKey = "Custom"
)

// CustomError is the numerical error returned by a non-system program.
type CustomError int

func (c CustomError) Error() string {
	return fmt.Sprintf("custom program error: %x", int(c))
}

// InstructionError indicates an instruction returned an error in a transaction.
type InstructionError struct {
	Index int
	Err   error
}

func (i InstructionError) Error() string {
	return fmt.Sprintf("Error processing Instruction %d: %v", i.Index, i.Err)
}

func (i InstructionError) ErrorKey() InstructionErrorKey {
	if i.Err == nil {
		return ""
	}

	if i.CustomError() != nil {
		return InstructionErrorCustom
	}

	return InstructionErrorKey(i.Err.Error())
}

func (i InstructionError) CustomError() *CustomError {
	if ce, ok := i.Err.(CustomError); ok {
		return &ce
	}

	return nil
}

// TransactionError contains the transaction error details.
type TransactionError struct {
	transactionError error
	instructionError *InstructionError
	raw              interface{}
}

// ParseTransactionError parses the JSON error returned from the "err" field in various
// RPC methods and fields.
func ParseTransactionError(raw interface{}) (*TransactionError, error) {
	if raw == nil {
		return nil, nil
	}

	switch t := raw.(type) {
	case string:
		return &TransactionError{
			transactionError: errors.New(t),
			raw:              raw,
		}, nil
	case map[string]interface{}:
		k, v, err := singleEntry(t)
		if err != nil {
			return &TransactionError{
				transactionError: errors.New("unhandled transaction error"),
				raw:              raw,
			}, errors.Wrap(err, "invalid transaction result")
		}

		if k != string(TransactionErrorInstructionError) {
			return &TransactionError{
				transactionError: errors.New(k),
				raw:              raw,
			}, nil
		}

		instructionErr, err := parseInstructionError(v)
		if err != nil {
			return &TransactionError{
				transactionError: errors.New("unhandled transaction error"),
				raw:              raw,
			}, errors.Wrap(err, "failed to parse instruction error")
		}

		return &TransactionError{
			transactionError: errors.New(string(TransactionErrorInstructionError)),
			instructionError: &instructionErr,
			raw:              raw,
		}, nil
	default:
		return nil, errors.Errorf("unhandled error type: %T", raw)
	}
}

func parseInstructionError(v interface{}) (e InstructionError, err error) {
	values, ok := v.([]interface{})
	if !ok {
		return e, errors.New("unexpected instruction error format")
	}
	if len(values) != 2 {
		return e, errors.Errorf("unexpected entries in InstructionError tuple: %d", len(values))
	}

	if e.Index, err = parseJSONNumber(values[0]); err != nil {
		return e, err
	}

	switch t := values[1].(type) {
	case string:
		e.Err = errors.New(t)
	case map[string]interface{}:
		k, v, err := singleEntry(t)
		if err != nil {
			return e, errors.Wrap(err, "invalid instruction result")
		}

		if k != string(InstructionErrorCustom) {
			e.Err = errors.New(k)
			break
		}

		code, err := parseJSONNumber(v)
		if err != nil {
			e.Err = errors.New("unhandled CustomError")
			break
		}

		e.Err = CustomError(code)
	default:
		return e, errors.Errorf("unhandled instruction error type: %T", t)
	}

	return e, nil
}

func (t TransactionError) Error() string {
	if t.instructionError != nil {
		return t.instructionError.Error()
	}

	if t.transactionError != nil {
		return t.transactionError.Error()
	}

	return ""
}

func (t TransactionError) ErrorKey() TransactionErrorKey {
	if t.transactionError == nil {
		return ""
	}

	return TransactionErrorKey(t.transactionError.Error())
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

	return "", nil, nil
}

func parseJSONNumber(v interface{}) (int, error) {
	switch t := v.(type) {
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return 0, errors.Errorf("non int64 value: %v", v)
		}
		return int(n), nil
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return 0, errors.Errorf("non numeric value: %v", v)
		}
		return int(n), nil
	case float64:
		return int(t), nil
	default:
		return 0, errors.Errorf("non numeric value: %v", v)
	}
}
