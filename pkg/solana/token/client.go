package token

import (
	"context"

	"github.com/pkg/errors"

	"github.com/code-payments/code-solana-sdk/pkg/solana"
	"github.com/code-payments/code-solana-sdk/pkg/solana/rpc"
)

var (
	// ErrAccountNotFound indicates there is no account for the given address.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInvalidTokenAccount indicates that a Solana account exists at the
	// given address, but it is either not initialized, or not configured correctly.
	ErrInvalidTokenAccount = errors.New("invalid token account")
)

// AccountInfoGetter is the subset of rpc.Client used to load token accounts.
type AccountInfoGetter interface {
	GetAccountInfo(ctx context.Context, account solana.PublicKey) (*rpc.AccountInfo, error)
}

// Client provides utilities for accessing token accounts for a given token.
type Client struct {
	sc    AccountInfoGetter
	token solana.PublicKey
}

// NewClient creates a new Client.
func NewClient(sc AccountInfoGetter, token solana.PublicKey) *Client {
	return &Client{
		sc:    sc,
		token: token,
	}
}

func (c *Client) Token() solana.PublicKey {
	return c.token
}

// GetAccount returns the token account info for the specified account.
//
// If the account is not initialized, or belongs to a different
// mint, then ErrInvalidTokenAccount is returned.
func (c *Client) GetAccount(ctx context.Context, accountID solana.PublicKey) (*Account, error) {
	accountInfo, err := c.sc.GetAccountInfo(ctx, accountID)
	if errors.Is(err, rpc.ErrNoAccount) {
		return nil, ErrAccountNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "failed to get account info")
	}

	if accountInfo.Owner != ProgramKey {
		return nil, ErrInvalidTokenAccount
	}

	var account Account
	if err := account.Unmarshal(accountInfo.Data); err != nil {
		return nil, ErrInvalidTokenAccount
	}

	if account.Mint != c.token || account.State == AccountStateUninitialized {
		return nil, ErrInvalidTokenAccount
	}

	return &account, nil
}

// GetAssociatedAccount loads the associated token account of wallet.
func (c *Client) GetAssociatedAccount(ctx context.Context, wallet solana.PublicKey) (solana.PublicKey, *Account, error) {
	address, err := GetAssociatedAccount(wallet, c.token)
	if err != nil {
		return solana.PublicKey{}, nil, err
	}

	account, err := c.GetAccount(ctx, address)
	if err != nil {
		return address, nil, err
	}

	return address, account, nil
}
