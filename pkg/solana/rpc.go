package solana

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/ybbus/jsonrpc"

	"github.com/code-payments/code-nft-issuer/pkg/retry"
	"github.com/code-payments/code-nft-issuer/pkg/retry/backoff"
)

const (
	// https://github.com/solana-labs/solana/blob/71e9958e061493d7545bd28d4ac7a85aaed6ffbb/client/src/rpc_custom_error.rs#L11
	rpcNodeUnhealthyCode = -32005
	rpcInvalidParamCode  = -32602

	blockhashTTL = 2 * time.Second
)

var (
	errRateLimited  = errors.New("rate limited")
	errServiceError = errors.New("service error")
)

// valueResponse is the envelope of RPC methods that report the slot they were
// evaluated at.
type valueResponse[T any] struct {
	Context struct {
		Slot uint64 `json:"slot"`
	} `json:"context"`
	Value T `json:"value"`
}

type rpcClient struct {
	log     *logrus.Entry
	client  jsonrpc.RPCClient
	retrier retry.Retrier

	blockMu       sync.RWMutex
	blockhash     Blockhash
	blockhashTime time.Time
}

// New returns a Client for the JSON RPC API at endpoint. Rate limited and
// unhealthy node responses are retried with backoff, except for sends.
func New(endpoint string) Client {
	return &rpcClient{
		log:    logrus.StandardLogger().WithField("type", "solana/client"),
		client: jsonrpc.NewClient(endpoint),
		retrier: retry.NewRetrier(
			retry.RetriableErrors(errRateLimited, errServiceError),
			retry.Limit(3),
			retry.BackoffWithJitter(backoff.BinaryExponential(time.Second), 10*time.Second, 0.1),
		),
	}
}

func (c *rpcClient) call(out interface{}, method string, params ...interface{}) error {
	_, err := c.retrier.Retry(func() error {
		return c.classify(method, c.client.CallFor(out, method, params...))
	})
	if err != nil {
		return errors.Wrapf(err, "%s() failed", method)
	}
	return nil
}

func (c *rpcClient) classify(method string, err error) error {
	rpcErr, ok := err.(*jsonrpc.RPCError)
	switch {
	case !ok:
		return err
	case rpcErr.Code == 429:
		c.log.WithField("method", method).Warn("rate limited")
		return errRateLimited
	case rpcErr.Code >= 500, rpcErr.Code == rpcNodeUnhealthyCode:
		return errServiceError
	}
	return err
}

func isInvalidParam(err error) bool {
	var rpcErr *jsonrpc.RPCError
	return errors.As(err, &rpcErr) && rpcErr.Code == rpcInvalidParamCode
}

func (c *rpcClient) GetMinimumBalanceForRentExemption(size uint64) (lamports uint64, err error) {
	err = c.call(&lamports, "getMinimumBalanceForRentExemption", size)
	return lamports, err
}

// GetLatestBlockhash caches the blockhash for a jittered window around
// blockhashTTL, so concurrent issuers don't refresh in lockstep.
func (c *rpcClient) GetLatestBlockhash() (Blockhash, error) {
	ttl := time.Duration(float64(blockhashTTL) * (0.8 + 0.4*rand.Float64()))

	c.blockMu.RLock()
	cached, fresh := c.blockhash, time.Since(c.blockhashTime) < ttl
	c.blockMu.RUnlock()
	if fresh && cached != (Blockhash{}) {
		return cached, nil
	}

	var resp valueResponse[struct {
		Blockhash string `json:"blockhash"`
	}]
	if err := c.call(&resp, "getLatestBlockhash"); err != nil {
		return Blockhash{}, err
	}

	var hash Blockhash
	decoded, err := base58.Decode(resp.Value.Blockhash)
	if err != nil || len(decoded) != len(hash) {
		return Blockhash{}, errors.New("invalid blockhash in response")
	}
	copy(hash[:], decoded)

	c.blockMu.Lock()
	c.blockhash, c.blockhashTime = hash, time.Now()
	c.blockMu.Unlock()

	return hash, nil
}

func (c *rpcClient) GetBalance(account ed25519.PublicKey) (uint64, error) {
	var resp valueResponse[uint64]
	if err := c.call(&resp, "getBalance", base58.Encode(account), CommitmentProcessed); err != nil {
		if isInvalidParam(err) {
			return 0, ErrNoBalance
		}
		return 0, err
	}
	return resp.Value, nil
}

// GetTokenAccountBalance returns the raw token amount held by account and the
// slot it was observed at.
func (c *rpcClient) GetTokenAccountBalance(account ed25519.PublicKey) (uint64, uint64, error) {
	var resp valueResponse[struct {
		Amount string `json:"amount"`
	}]
	if err := c.call(&resp, "getTokenAccountBalance", base58.Encode(account), CommitmentConfirmed); err != nil {
		if isInvalidParam(err) {
			return 0, 0, ErrNoBalance
		}
		return 0, 0, err
	}

	amount, err := strconv.ParseUint(resp.Value.Amount, 10, 64)
	if err != nil {
		return 0, 0, errors.Wrap(err, "invalid token amount in response")
	}
	return amount, resp.Context.Slot, nil
}

func (c *rpcClient) SubmitTransaction(txn Transaction, commitment Commitment) (Signature, error) {
	sig := txn.Signatures[0]

	config := struct {
		PreflightCommitment string `json:"preflightCommitment"`
		Encoding            string `json:"encoding"`
	}{
		PreflightCommitment: commitment.Commitment,
		Encoding:            "base64",
	}

	// A send is never retried, the caller decides whether resubmitting is safe
	var ignored string
	err := c.client.CallFor(&ignored, "sendTransaction", base64.StdEncoding.EncodeToString(txn.Marshal()), config)
	if err == nil {
		return sig, nil
	}

	rpcErr, ok := err.(*jsonrpc.RPCError)
	if !ok {
		return sig, errors.Wrap(err, "sendTransaction() failed")
	}

	txErr, parseErr := ParseRPCError(rpcErr)
	if parseErr != nil || txErr == nil {
		return sig, errors.Wrap(err, "sendTransaction() failed")
	}

	c.log.WithFields(logrus.Fields{
		"method":    "SubmitTransaction",
		"signature": sig.String(),
	}).WithError(txErr).Debug("transaction failed preflight")

	return sig, txErr
}

func (c *rpcClient) SimulateTransaction(txn Transaction) (*SimulationResult, error) {
	config := struct {
		SigVerify bool   `json:"sigVerify"`
		Encoding  string `json:"encoding"`
	}{
		SigVerify: true,
		Encoding:  "base64",
	}

	var resp valueResponse[struct {
		Err  json.RawMessage `json:"err"`
		Logs []string        `json:"logs"`
	}]
	if err := c.call(&resp, "simulateTransaction", base64.StdEncoding.EncodeToString(txn.Marshal()), config); err != nil {
		return nil, err
	}

	txErr, err := decodeTransactionError(resp.Value.Err)
	if err != nil {
		return nil, err
	}
	return &SimulationResult{Err: txErr, Logs: resp.Value.Logs}, nil
}

func (c *rpcClient) GetAccountInfo(account ed25519.PublicKey, commitment Commitment) (AccountInfo, error) {
	config := struct {
		Commitment string `json:"commitment"`
		Encoding   string `json:"encoding"`
	}{
		Commitment: commitment.Commitment,
		Encoding:   "base64",
	}

	var resp valueResponse[*struct {
		Lamports   uint64   `json:"lamports"`
		Owner      string   `json:"owner"`
		Data       []string `json:"data"`
		Executable bool     `json:"executable"`
	}]
	if err := c.call(&resp, "getAccountInfo", base58.Encode(account), config); err != nil {
		return AccountInfo{}, err
	}
	if resp.Value == nil {
		return AccountInfo{}, ErrNoAccountInfo
	}

	owner, err := base58.Decode(resp.Value.Owner)
	if err != nil {
		return AccountInfo{}, errors.Wrap(err, "invalid owner in response")
	}
	if len(resp.Value.Data) == 0 {
		return AccountInfo{}, errors.New("missing account data in response")
	}
	data, err := base64.StdEncoding.DecodeString(resp.Value.Data[0])
	if err != nil {
		return AccountInfo{}, errors.Wrap(err, "invalid account data in response")
	}

	return AccountInfo{
		Data:       data,
		Owner:      owner,
		Lamports:   resp.Value.Lamports,
		Executable: resp.Value.Executable,
	}, nil
}

func (c *rpcClient) RequestAirdrop(account ed25519.PublicKey, lamports uint64, commitment Commitment) (Signature, error) {
	var encoded string
	if err := c.call(&encoded, "requestAirdrop", base58.Encode(account), lamports, commitment); err != nil {
		return Signature{}, err
	}

	var sig Signature
	decoded, err := base58.Decode(encoded)
	if err != nil || len(decoded) != len(sig) {
		return Signature{}, errors.New("invalid signature in response")
	}
	copy(sig[:], decoded)
	return sig, nil
}

func (c *rpcClient) GetSignatureStatus(sig Signature, commitment Commitment) (*SignatureStatus, error) {
	return PollSignatureStatus(c, sig, commitment)
}

func (c *rpcClient) GetSignatureStatuses(sigs []Signature) ([]*SignatureStatus, error) {
	encoded := make([]string, len(sigs))
	for i := range sigs {
		encoded[i] = base58.Encode(sigs[i][:])
	}

	config := struct {
		SearchTransactionHistory bool `json:"searchTransactionHistory"`
	}{
		SearchTransactionHistory: true,
	}

	var resp valueResponse[[]*struct {
		Slot               uint64          `json:"slot"`
		Confirmations      *int            `json:"confirmations"`
		ConfirmationStatus string          `json:"confirmationStatus"`
		Err                json.RawMessage `json:"err"`
	}]
	if err := c.call(&resp, "getSignatureStatuses", encoded, config); err != nil {
		return nil, err
	}

	statuses := make([]*SignatureStatus, len(sigs))
	for i, v := range resp.Value {
		if v == nil || i >= len(statuses) {
			continue
		}

		txErr, err := decodeTransactionError(v.Err)
		if err != nil {
			return nil, err
		}
		statuses[i] = &SignatureStatus{
			Slot:               v.Slot,
			ErrorResult:        txErr,
			Confirmations:      v.Confirmations,
			ConfirmationStatus: v.ConfirmationStatus,
		}
	}
	return statuses, nil
}

// decodeTransactionError parses a JSON encoded transaction error, keeping
// numbers intact for instruction indexes and custom codes.
func decodeTransactionError(raw json.RawMessage) (*TransactionError, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var decoded interface{}
	d := json.NewDecoder(bytes.NewReader(raw))
	d.UseNumber()
	if err := d.Decode(&decoded); err != nil {
		return nil, errors.Wrap(err, "failed to parse transaction error")
	}

	txErr, err := ParseTransactionError(decoded)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse transaction error")
	}
	return txErr, nil
}
