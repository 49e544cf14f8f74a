package rpc

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"math/rand"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/ybbus/jsonrpc"
	xrate "golang.org/x/time/rate"

	"github.com/code-payments/code-solana-sdk/pkg/rate"
	"github.com/code-payments/code-solana-sdk/pkg/retry"
	"github.com/code-payments/code-solana-sdk/pkg/retry/backoff"
	"github.com/code-payments/code-solana-sdk/pkg/solana"
)

const (
	// Reference: https://github.com/solana-labs/solana/blob/71e9958e061493d7545bd28d4ac7a85aaed6ffbb/client/src/rpc_custom_error.rs#L11
	rpcNodeUnhealthyCode = -32005

	maxRetryBackoff = 10 * time.Second

	// Bounds a single request, since jsonrpc calls do not take a context.
	defaultRequestTimeout = 30 * time.Second
)

// Commitment is the level of finality requested from the node.
type Commitment struct {
	Commitment string `json:"commitment"`
}

const (
	confirmationStatusProcessed = "processed"
	confirmationStatusConfirmed = "confirmed"
	confirmationStatusFinalized = "finalized"
)

var (
	CommitmentProcessed = Commitment{Commitment: confirmationStatusProcessed}
	CommitmentConfirmed = Commitment{Commitment: confirmationStatusConfirmed}
	CommitmentFinalized = Commitment{Commitment: confirmationStatusFinalized}
)

// ParseCommitment returns the commitment with the given name.
func ParseCommitment(name string) (Commitment, error) {
	switch name {
	case confirmationStatusProcessed:
		return CommitmentProcessed, nil
	case confirmationStatusConfirmed:
		return CommitmentConfirmed, nil
	case confirmationStatusFinalized:
		return CommitmentFinalized, nil
	default:
		return Commitment{}, errors.Errorf("invalid commitment: %q", name)
	}
}

// AccountInfo contains the Solana account information (not to be confused with a TokenAccount)
type AccountInfo struct {
	Data       []byte
	Owner      solana.PublicKey
	Lamports   uint64
	Executable bool
	RentEpoch  uint64
}

type SignatureStatus struct {
	Slot        uint64
	ErrorResult *TransactionError

	// Confirmations will be nil if the transaction has been rooted.
	Confirmations      *int
	ConfirmationStatus string
}

func (s SignatureStatus) Confirmed() bool {
	if s.Finalized() {
		return true
	}

	if s.ConfirmationStatus == confirmationStatusConfirmed {
		return true
	}

	return *s.Confirmations >= 1
}

func (s SignatureStatus) Finalized() bool {
	return s.Confirmations == nil || s.ConfirmationStatus == confirmationStatusFinalized
}

// IDSource provides the ids of outgoing JSON RPC requests.
type IDSource interface {
	NextID() int
}

type sequentialIDSource struct {
	next int64
}

// NewSequentialIDSource returns an IDSource that counts up from 1. It is safe
// for concurrent use.
func NewSequentialIDSource() IDSource {
	return &sequentialIDSource{}
}

func (s *sequentialIDSource) NextID() int {
	return int(atomic.AddInt64(&s.next, 1))
}

// Client provides an interaction with the Solana JSON RPC API.
//
// Reference: https://docs.solana.com/apps/jsonrpc-api
type Client interface {
	GetAccountInfo(ctx context.Context, account solana.PublicKey) (*AccountInfo, error)
	GetBalance(ctx context.Context, account solana.PublicKey) (uint64, error)
	GetLatestBlockhash(ctx context.Context) (solana.Blockhash, error)
	GetMinimumBalanceForRentExemption(ctx context.Context, dataSize uint64) (uint64, error)
	GetSignatureStatus(ctx context.Context, sig solana.Signature) (*SignatureStatus, error)
	GetSignatureStatuses(ctx context.Context, sigs []solana.Signature) ([]*SignatureStatus, error)

	// SubmitTransaction submits the wire form of a signed transaction.
	SubmitTransaction(ctx context.Context, raw []byte) (solana.Signature, error)

	// SendTransaction signs tx with signers and submits it. A transaction
	// without a blockhash or nonce uses the latest blockhash.
	SendTransaction(ctx context.Context, tx *solana.Transaction, signers ...solana.HasPublicKey) (solana.Signature, error)
}

type client struct {
	log     *logrus.Entry
	conf    *conf
	client  jsonrpc.RPCClient
	ids     IDSource
	limiter rate.Limiter
	retrier retry.Retrier

	blockMu   sync.RWMutex
	blockhash solana.Blockhash
	lastWrite time.Time
}

// New returns a client using the configured endpoint. A nil ids uses a
// sequential id source.
func New(configProvider ConfigProvider, ids IDSource) Client {
	return NewWithRPCOptions(configProvider, ids, nil)
}

// NewWithRPCOptions returns a client configured with the specified RPC options.
func NewWithRPCOptions(configProvider ConfigProvider, ids IDSource, opts *jsonrpc.RPCClientOpts) Client {
	conf := configProvider()
	ctx := context.Background()

	if ids == nil {
		ids = NewSequentialIDSource()
	}
	if opts == nil {
		opts = &jsonrpc.RPCClientOpts{}
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: defaultRequestTimeout}
	}

	retryBackoff := conf.retryBackoff.Get(ctx)

	var limiter rate.Limiter = &rate.NoLimiter{}
	if rps := conf.requestsPerSecond.Get(ctx); rps > 0 {
		limiter = rate.NewLocalRateLimiter(xrate.Limit(rps))
	}

	return &client{
		log:     logrus.StandardLogger().WithField("type", "solana/rpc"),
		conf:    conf,
		client:  jsonrpc.NewClientWithOpts(conf.endpoint.Get(ctx), opts),
		ids:     ids,
		limiter: limiter,
		retrier: retry.NewRetrier(
			retry.RetriableErrors(ErrRateLimited, ErrServiceError),
			retry.Limit(uint(conf.maxRetries.Get(ctx))+1),
			// Rate limits back off exponentially, unhealthy nodes at a steady pace.
			retry.BackoffOn([]error{ErrRateLimited}, backoff.BinaryExponential(retryBackoff), maxRetryBackoff, 0.1),
			retry.BackoffOn([]error{ErrServiceError}, backoff.Constant(retryBackoff), maxRetryBackoff, 0.1),
		),
	}
}

func (c *client) call(ctx context.Context, out interface{}, method string, params ...interface{}) error {
	log := c.log.WithField("method", method)

	attempts, err := c.retrier.Retry(ctx, func() error {
		if err := c.limiter.Wait(ctx, method); err != nil {
			return err
		}

		request := jsonrpc.NewRequest(method, params...)
		request.ID = c.ids.NextID()

		resp, err := c.client.CallRaw(request)
		if err != nil {
			return c.handleRPCError(log, err)
		}
		if resp.Error != nil {
			return c.handleRPCError(log, resp.Error)
		}
		if resp.ID != request.ID {
			return errors.Errorf("response id mismatch: %d (expected %d)", resp.ID, request.ID)
		}

		return resp.GetObject(out)
	})
	if err != nil && (errors.Is(err, ErrRateLimited) || errors.Is(err, ErrServiceError)) {
		log.WithError(err).WithField("attempts", attempts).Error("retries exhausted")
	}

	return err
}

func (c *client) handleRPCError(log *logrus.Entry, err error) error {
	switch t := err.(type) {
	case *jsonrpc.HTTPError:
		if t.Code == http.StatusTooManyRequests {
			log.Warn("rate limited")
			return ErrRateLimited
		}
		if t.Code >= http.StatusInternalServerError {
			log.WithError(err).Warn("service error")
			return errors.Wrap(ErrServiceError, t.Error())
		}
	case *jsonrpc.RPCError:
		if t.Code == http.StatusTooManyRequests {
			log.Warn("rate limited")
			return ErrRateLimited
		}
		if t.Code >= http.StatusInternalServerError || t.Code == rpcNodeUnhealthyCode {
			log.WithError(err).Warn("service error")
			return errors.Wrap(ErrServiceError, t.Message)
		}

		return &Error{Code: t.Code, Message: t.Message, Data: t.Data}
	}

	log.WithError(err).Warn("request failed")
	return err
}

func (c *client) commitment(ctx context.Context) Commitment {
	commitment, err := ParseCommitment(c.conf.commitment.Get(ctx))
	if err != nil {
		return CommitmentConfirmed
	}
	return commitment
}

func (c *client) GetMinimumBalanceForRentExemption(ctx context.Context, dataSize uint64) (lamports uint64, err error) {
	if err := c.call(ctx, &lamports, "getMinimumBalanceForRentExemption", dataSize); err != nil {
		return 0, errors.Wrapf(err, "getMinimumBalanceForRentExemption() failed to send request")
	}

	return lamports, nil
}

func (c *client) GetLatestBlockhash(ctx context.Context) (hash solana.Blockhash, err error) {
	// Refreshes are jittered so that many goroutines sharing a client do not
	// all hit the node on the same interval.
	ttl := c.conf.blockhashCacheTTL.Get(ctx)
	window := time.Duration(float64(ttl) * (0.8 + rand.Float64()))

	var cached bool
	c.blockMu.RLock()
	if !c.lastWrite.IsZero() && time.Since(c.lastWrite) < window {
		hash, cached = c.blockhash, true
	}
	c.blockMu.RUnlock()

	if cached {
		return hash, nil
	}

	type response struct {
		Value struct {
			Blockhash string `json:"blockhash"`
		} `json:"value"`
	}

	// note: we have to wrap the commitment in an []interface{} otherwise the
	//       solana RPC node complains. Technically this is a violation of the
	//       JSON RPC v2.0 spec.
	var resp response
	if err := c.call(ctx, &resp, "getLatestBlockhash", []interface{}{c.commitment(ctx)}); err != nil {
		return hash, errors.Wrapf(err, "getLatestBlockhash() failed to send request")
	}

	hash, err = solana.BlockhashFromBase58(resp.Value.Blockhash)
	if err != nil {
		return hash, errors.Wrap(err, "invalid base58 encoded hash in response")
	}

	c.blockMu.Lock()
	c.blockhash = hash
	c.lastWrite = time.Now()
	c.blockMu.Unlock()

	return hash, nil
}

func (c *client) GetBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	var resp struct {
		Value uint64 `json:"value"`
	}
	if err := c.call(ctx, &resp, "getBalance", account.ToBase58(), c.commitment(ctx)); err != nil {
		return 0, errors.Wrapf(err, "getBalance() failed to send request")
	}

	return resp.Value, nil
}

func (c *client) GetAccountInfo(ctx context.Context, account solana.PublicKey) (*AccountInfo, error) {
	type rpcResponse struct {
		Value *struct {
			Lamports   uint64   `json:"lamports"`
			Owner      string   `json:"owner"`
			Data       []string `json:"data"`
			Executable bool     `json:"executable"`
			RentEpoch  uint64   `json:"rentEpoch"`
		} `json:"value"`
	}

	rpcConfig := struct {
		Commitment string `json:"commitment"`
		Encoding   string `json:"encoding"`
	}{
		Commitment: c.commitment(ctx).Commitment,
		Encoding:   "base64",
	}

	var resp rpcResponse
	if err := c.call(ctx, &resp, "getAccountInfo", account.ToBase58(), rpcConfig); err != nil {
		return nil, errors.Wrap(err, "getAccountInfo() failed to send request")
	}

	if resp.Value == nil {
		return nil, ErrNoAccount
	}

	owner, err := solana.PublicKeyFromBase58(resp.Value.Owner)
	if err != nil {
		return nil, errors.Wrap(err, "invalid base58 encoded owner")
	}

	if len(resp.Value.Data) != 2 || resp.Value.Data[1] != "base64" {
		return nil, errors.Errorf("unexpected account data encoding: %v", resp.Value.Data)
	}

	data, err := base64.StdEncoding.DecodeString(resp.Value.Data[0])
	if err != nil {
		return nil, errors.Wrap(err, "invalid base64 encoded data")
	}

	return &AccountInfo{
		Data:       data,
		Owner:      owner,
		Lamports:   resp.Value.Lamports,
		Executable: resp.Value.Executable,
		RentEpoch:  resp.Value.RentEpoch,
	}, nil
}

func (c *client) SubmitTransaction(ctx context.Context, raw []byte) (solana.Signature, error) {
	log := c.log.WithField("method", "SubmitTransaction")

	config := struct {
		Encoding            string `json:"encoding"`
		PreflightCommitment string `json:"preflightCommitment"`
	}{
		Encoding:            "base64",
		PreflightCommitment: c.commitment(ctx).Commitment,
	}

	var sigStr string
	if err := c.call(ctx, &sigStr, "sendTransaction", base64.StdEncoding.EncodeToString(raw), config); err != nil {
		return solana.Signature{}, errors.Wrap(err, "sendTransaction() failed to send request")
	}

	sigBytes, err := base58.Decode(sigStr)
	if err != nil {
		return solana.Signature{}, errors.Wrap(err, "invalid signature in response")
	}

	sig, err := solana.SignatureFromBytes(sigBytes)
	if err != nil {
		return solana.Signature{}, errors.Wrap(err, "invalid signature in response")
	}

	log.WithField("signature", sig.String()).Debug("transaction submitted")
	return sig, nil
}

func (c *client) SendTransaction(ctx context.Context, tx *solana.Transaction, signers ...solana.HasPublicKey) (solana.Signature, error) {
	if tx.RecentBlockhash == nil && tx.NonceInfo == nil {
		blockhash, err := c.GetLatestBlockhash(ctx)
		if err != nil {
			return solana.Signature{}, err
		}
		tx.SetBlockhash(blockhash)
	}

	if len(signers) > 0 {
		if err := tx.Sign(signers...); err != nil {
			return solana.Signature{}, errors.Wrap(err, "failed to sign transaction")
		}
	}

	raw, err := tx.Serialize(false, true)
	if err != nil {
		return solana.Signature{}, errors.Wrap(err, "failed to serialize transaction")
	}

	return c.SubmitTransaction(ctx, raw)
}

func (c *client) GetSignatureStatus(ctx context.Context, sig solana.Signature) (*SignatureStatus, error) {
	statuses, err := c.GetSignatureStatuses(ctx, []solana.Signature{sig})
	if err != nil {
		return nil, err
	}

	if statuses[0] == nil {
		return nil, ErrSignatureNotFound
	}

	return statuses[0], nil
}

func (c *client) GetSignatureStatuses(ctx context.Context, sigs []solana.Signature) ([]*SignatureStatus, error) {
	b58Sigs := make([]string, len(sigs))
	for i := range sigs {
		b58Sigs[i] = sigs[i].String()
	}

	req := struct {
		SearchTransactionHistory bool `json:"searchTransactionHistory"`
	}{
		SearchTransactionHistory: true,
	}

	type signatureStatus struct {
		Slot               uint64          `json:"slot"`
		Confirmations      *int            `json:"confirmations"`
		ConfirmationStatus string          `json:"confirmationStatus"`
		Err                json.RawMessage `json:"err"`
	}

	type rpcResp struct {
		Value []*signatureStatus `json:"value"`
	}

	var resp rpcResp
	if err := c.call(ctx, &resp, "getSignatureStatuses", b58Sigs, req); err != nil {
		return nil, errors.Wrap(err, "getSignatureStatuses() failed to send request")
	}

	if len(resp.Value) != len(sigs) {
		return nil, errors.Errorf("unexpected number of statuses: %d (expected %d)", len(resp.Value), len(sigs))
	}

	statuses := make([]*SignatureStatus, len(sigs))
	for i, v := range resp.Value {
		if v == nil {
			continue
		}

		statuses[i] = &SignatureStatus{
			Slot:               v.Slot,
			Confirmations:      v.Confirmations,
			ConfirmationStatus: v.ConfirmationStatus,
		}

		if len(v.Err) > 0 && !bytes.Equal(v.Err, []byte("null")) {
			d := json.NewDecoder(bytes.NewBuffer(v.Err))
			d.UseNumber()

			var txError interface{}
			if err := d.Decode(&txError); err != nil {
				return nil, errors.Wrap(err, "failed to parse transaction result")
			}

			var err error
			statuses[i].ErrorResult, err = ParseTransactionError(txError)
			if err != nil {
				return nil, errors.Wrap(err, "failed to parse transaction result")
			}
		}
	}

	return statuses, nil
}
