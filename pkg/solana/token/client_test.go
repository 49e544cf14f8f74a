package token

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-solana-sdk/pkg/solana"
	"github.com/code-payments/code-solana-sdk/pkg/solana/rpc"
	"github.com/code-payments/code-solana-sdk/pkg/testutil"
)

type accountInfoGetter struct {
	accounts map[solana.PublicKey]*rpc.AccountInfo
	err      error
}

func (g *accountInfoGetter) GetAccountInfo(_ context.Context, account solana.PublicKey) (*rpc.AccountInfo, error) {
	if g.err != nil {
		return nil, g.err
	}

	info, ok := g.accounts[account]
	if !ok {
		return nil, rpc.ErrNoAccount
	}
	return info, nil
}

func TestClient_GetAccount(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 8)
	mint, otherMint, owner := keys[0], keys[1], keys[2]
	valid, wrongMint, uninitialized, notToken, short := keys[3], keys[4], keys[5], keys[6], keys[7]

	rawAccount := func(mint solana.PublicKey, state AccountState) []byte {
		a := &Account{
			Mint:   mint,
			Owner:  owner,
			Amount: 10,
			State:  state,
		}
		return a.Marshal()
	}

	getter := &accountInfoGetter{
		accounts: map[solana.PublicKey]*rpc.AccountInfo{
			valid:         {Owner: ProgramKey, Data: rawAccount(mint, AccountStateInitialized)},
			wrongMint:     {Owner: ProgramKey, Data: rawAccount(otherMint, AccountStateInitialized)},
			uninitialized: {Owner: ProgramKey, Data: rawAccount(mint, AccountStateUninitialized)},
			notToken:      {Owner: owner, Data: rawAccount(mint, AccountStateInitialized)},
			short:         {Owner: ProgramKey, Data: make([]byte, AccountSize-1)},
		},
	}

	client := NewClient(getter, mint)
	assert.Equal(t, mint, client.Token())

	account, err := client.GetAccount(context.Background(), valid)
	require.NoError(t, err)
	assert.Equal(t, mint, account.Mint)
	assert.Equal(t, owner, account.Owner)
	assert.EqualValues(t, 10, account.Amount)

	for _, key := range []solana.PublicKey{wrongMint, uninitialized, notToken, short} {
		_, err = client.GetAccount(context.Background(), key)
		assert.Equal(t, ErrInvalidTokenAccount, err)
	}

	_, err = client.GetAccount(context.Background(), owner)
	assert.Equal(t, ErrAccountNotFound, err)

	getter.err = rpc.ErrServiceError
	_, err = client.GetAccount(context.Background(), valid)
	assert.True(t, errors.Is(err, rpc.ErrServiceError))
}

func TestClient_GetAssociatedAccount(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 2)
	mint, wallet := keys[0], keys[1]

	address, err := GetAssociatedAccount(wallet, mint)
	require.NoError(t, err)

	a := &Account{Mint: mint, Owner: wallet, Amount: 42, State: AccountStateInitialized}
	getter := &accountInfoGetter{
		accounts: map[solana.PublicKey]*rpc.AccountInfo{
			address: {Owner: ProgramKey, Data: a.Marshal()},
		},
	}

	client := NewClient(getter, mint)

	actualAddress, account, err := client.GetAssociatedAccount(context.Background(), wallet)
	require.NoError(t, err)
	assert.Equal(t, address, actualAddress)
	assert.EqualValues(t, 42, account.Amount)

	_, _, err = client.GetAssociatedAccount(context.Background(), address)
	assert.True(t, errors.Is(err, ErrOwnerOffCurve))
}
