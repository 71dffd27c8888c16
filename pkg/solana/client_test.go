package solana

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignatureStatus(t *testing.T) {
	zero, one := 0, 1

	for _, tc := range []struct {
		confirmations *int
		status        string
		confirmed     bool
		finalized     bool
	}{
		{confirmations: &zero},
		{confirmations: &zero, status: "random"},
		{confirmations: &zero, status: confirmationStatusProcessed},
		{confirmations: &one, confirmed: true},
		{confirmations: &zero, status: confirmationStatusConfirmed, confirmed: true},
		{confirmations: &zero, status: confirmationStatusFinalized, confirmed: true, finalized: true},
		{confirmations: nil, confirmed: true, finalized: true},
	} {
		s := SignatureStatus{Slot: 10, Confirmations: tc.confirmations, ConfirmationStatus: tc.status}
		assert.Equal(t, tc.confirmed, s.Confirmed(), "%+v", tc)
		assert.Equal(t, tc.finalized, s.Finalized(), "%+v", tc)
	}
}

func TestCommitmentFromString(t *testing.T) {
	for _, c := range []Commitment{CommitmentProcessed, CommitmentConfirmed, CommitmentFinalized} {
		actual, err := CommitmentFromString(c.Commitment)
		assert.NoError(t, err)
		assert.Equal(t, c, actual)
	}

	_, err := CommitmentFromString("max")
	assert.Error(t, err)
}

type rpcRequest struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
	ID     int               `json:"id"`
}

// newTestRPC serves JSON RPC requests from handlers keyed by method. A
// handler returns either a result or an error object.
func newTestRPC(t *testing.T, handlers map[string]func(params []json.RawMessage) (result, rpcErr interface{})) Client {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		handler, ok := handlers[req.Method]
		require.True(t, ok, "unexpected method %s", req.Method)

		result, rpcErr := handler(req.Params)
		resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
		if rpcErr != nil {
			resp["error"] = rpcErr
		} else {
			resp["result"] = result
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(server.Close)

	return New(server.URL)
}

func TestPollSignatureStatus_CoversFinalization(t *testing.T) {
	// Finalization takes at least 32 slots of ~400ms
	finalization := 32 * 400 * time.Millisecond

	window := time.Duration(sigStatusPollLimit) * PollRate
	assert.GreaterOrEqual(t, window, 2*finalization)
}

func TestRPC_GetAccountInfo(t *testing.T) {
	owner := make(ed25519.PublicKey, ed25519.PublicKeySize)
	owner[0] = 6
	existing := make(ed25519.PublicKey, ed25519.PublicKeySize)
	existing[0] = 1

	c := newTestRPC(t, map[string]func([]json.RawMessage) (interface{}, interface{}){
		"getAccountInfo": func(params []json.RawMessage) (interface{}, interface{}) {
			var address string
			require.NoError(t, json.Unmarshal(params[0], &address))
			assert.JSONEq(t, `{"commitment":"finalized","encoding":"base64"}`, string(params[1]))

			if address != base58.Encode(existing) {
				return map[string]interface{}{"context": map[string]interface{}{"slot": 1}, "value": nil}, nil
			}
			return map[string]interface{}{
				"context": map[string]interface{}{"slot": 1},
				"value": map[string]interface{}{
					"lamports":   1461600,
					"owner":      base58.Encode(owner),
					"data":       []string{base64.StdEncoding.EncodeToString([]byte{1, 2, 3}), "base64"},
					"executable": false,
				},
			}, nil
		},
	})

	info, err := c.GetAccountInfo(existing, CommitmentFinalized)
	require.NoError(t, err)
	assert.EqualValues(t, owner, info.Owner)
	assert.EqualValues(t, 1461600, info.Lamports)
	assert.Equal(t, []byte{1, 2, 3}, info.Data)

	_, err = c.GetAccountInfo(owner, CommitmentFinalized)
	assert.Equal(t, ErrNoAccountInfo, err)
}

func TestRPC_Balances(t *testing.T) {
	account := make(ed25519.PublicKey, ed25519.PublicKeySize)

	c := newTestRPC(t, map[string]func([]json.RawMessage) (interface{}, interface{}){
		"getBalance": func([]json.RawMessage) (interface{}, interface{}) {
			return map[string]interface{}{"context": map[string]interface{}{"slot": 3}, "value": 5000}, nil
		},
		"getTokenAccountBalance": func([]json.RawMessage) (interface{}, interface{}) {
			return nil, map[string]interface{}{"code": -32602, "message": "Invalid param: could not find account"}
		},
	})

	balance, err := c.GetBalance(account)
	require.NoError(t, err)
	assert.EqualValues(t, 5000, balance)

	_, _, err = c.GetTokenAccountBalance(account)
	assert.Equal(t, ErrNoBalance, err)
}

func TestRPC_SubmitTransactionPreflightFailure(t *testing.T) {
	keys := generateKeys(t, 2)
	txn := NewTransaction(public(keys[0]), NewInstruction(public(keys[1]), []byte{1}))
	require.NoError(t, txn.Sign(keys[0]))

	var calls int
	c := newTestRPC(t, map[string]func([]json.RawMessage) (interface{}, interface{}){
		"sendTransaction": func(params []json.RawMessage) (interface{}, interface{}) {
			calls++

			var encoded string
			require.NoError(t, json.Unmarshal(params[0], &encoded))
			assert.Equal(t, base64.StdEncoding.EncodeToString(txn.Marshal()), encoded)

			return nil, map[string]interface{}{
				"code":    -32002,
				"message": "Transaction simulation failed",
				"data": map[string]interface{}{
					"err":  map[string]interface{}{"InstructionError": []interface{}{0, map[string]interface{}{"Custom": 1}}},
					"logs": []string{},
				},
			}
		},
	})

	sig, err := c.SubmitTransaction(txn, CommitmentFinalized)
	assert.Equal(t, txn.Signatures[0], sig)

	txErr, ok := err.(*TransactionError)
	require.True(t, ok, "unexpected error: %v", err)
	require.NotNil(t, txErr.InstructionError())
	assert.Equal(t, 0, txErr.InstructionError().Index)
	assert.Equal(t, CustomError(1), *txErr.InstructionError().CustomError())

	// Sends are never retried
	assert.Equal(t, 1, calls)
}

func TestRPC_GetSignatureStatuses(t *testing.T) {
	sigs := []Signature{{1}, {2}}

	c := newTestRPC(t, map[string]func([]json.RawMessage) (interface{}, interface{}){
		"getSignatureStatuses": func([]json.RawMessage) (interface{}, interface{}) {
			return map[string]interface{}{
				"context": map[string]interface{}{"slot": 90},
				"value": []interface{}{
					map[string]interface{}{
						"slot":               88,
						"confirmations":      nil,
						"confirmationStatus": "finalized",
						"err":                map[string]interface{}{"InstructionError": []interface{}{3, "InvalidArgument"}},
					},
					nil,
				},
			}, nil
		},
	})

	statuses, err := c.GetSignatureStatuses(sigs)
	require.NoError(t, err)
	require.Len(t, statuses, 2)

	require.NotNil(t, statuses[0])
	assert.EqualValues(t, 88, statuses[0].Slot)
	assert.True(t, statuses[0].Finalized())
	require.NotNil(t, statuses[0].ErrorResult)
	assert.Equal(t, InstructionErrorInvalidArgument, statuses[0].ErrorResult.InstructionError().ErrorKey())

	assert.Nil(t, statuses[1])
}
