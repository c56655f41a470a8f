package testutil

import (
	"crypto/ed25519"
	"sync"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/aura0x/aura-server/pkg/solana"
	"github.com/aura0x/aura-server/pkg/solana/token"
)

// FakeSolanaClient is an in-memory solana.Client for testing logic that
// reads token accounts and transaction token balances without a validator.
type FakeSolanaClient struct {
	mu sync.Mutex

	blockhash solana.Blockhash

	accountInfos map[string]solana.AccountInfo

	tokenBalances    map[string]solana.TransactionTokenBalances
	tokenBalanceErrs map[string]error

	submitted []solana.Transaction
}

func NewFakeSolanaClient() *FakeSolanaClient {
	return &FakeSolanaClient{
		blockhash:        solana.Blockhash{1, 2, 3, 4},
		accountInfos:     make(map[string]solana.AccountInfo),
		tokenBalances:    make(map[string]solana.TransactionTokenBalances),
		tokenBalanceErrs: make(map[string]error),
	}
}

// SetTokenAccount registers a token account with the provided state.
func (c *FakeSolanaClient) SetTokenAccount(address, mint, owner ed25519.PublicKey, amount uint64) {
	account := token.Account{
		Mint:   mint,
		Owner:  owner,
		Amount: amount,
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.accountInfos[base58.Encode(address)] = solana.AccountInfo{
		Data:  account.Marshal(),
		Owner: token.ProgramKey,
	}
}

// SetTransactionTokenBalances registers the token-balance view returned for
// a transaction signature.
func (c *FakeSolanaClient) SetTransactionTokenBalances(sig solana.Signature, balances solana.TransactionTokenBalances) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tokenBalances[base58.Encode(sig[:])] = balances
}

// SetTransactionTokenBalancesError forces an error for a transaction signature.
func (c *FakeSolanaClient) SetTransactionTokenBalancesError(sig solana.Signature, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tokenBalanceErrs[base58.Encode(sig[:])] = err
}

// GetSubmitted returns all transactions submitted through the client.
func (c *FakeSolanaClient) GetSubmitted() []solana.Transaction {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]solana.Transaction{}, c.submitted...)
}

func (c *FakeSolanaClient) GetAccountInfo(account ed25519.PublicKey, _ solana.Commitment) (solana.AccountInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	info, ok := c.accountInfos[base58.Encode(account)]
	if !ok {
		return solana.AccountInfo{}, solana.ErrNoAccountInfo
	}
	return info, nil
}

func (c *FakeSolanaClient) GetTokenAccountBalance(account ed25519.PublicKey) (uint64, uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	info, ok := c.accountInfos[base58.Encode(account)]
	if !ok {
		return 0, 0, solana.ErrNoBalance
	}

	var tokenAccount token.Account
	if !tokenAccount.Unmarshal(info.Data) {
		return 0, 0, solana.ErrNoBalance
	}
	return tokenAccount.Amount, 0, nil
}

func (c *FakeSolanaClient) GetLatestBlockhash() (solana.Blockhash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.blockhash, nil
}

func (c *FakeSolanaClient) GetSignatureStatus(solana.Signature, solana.Commitment) (*solana.SignatureStatus, error) {
	return nil, errors.New("not implemented")
}

func (c *FakeSolanaClient) GetSignatureStatuses([]solana.Signature) ([]*solana.SignatureStatus, error) {
	return nil, errors.New("not implemented")
}

func (c *FakeSolanaClient) GetTransaction(solana.Signature, solana.Commitment) (solana.ConfirmedTransaction, error) {
	return solana.ConfirmedTransaction{}, errors.New("not implemented")
}

func (c *FakeSolanaClient) GetTransactionTokenBalances(sig solana.Signature) (solana.TransactionTokenBalances, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := base58.Encode(sig[:])
	if err, ok := c.tokenBalanceErrs[key]; ok {
		return solana.TransactionTokenBalances{}, err
	}

	balances, ok := c.tokenBalances[key]
	if !ok {
		return solana.TransactionTokenBalances{}, solana.ErrSignatureNotFound
	}
	return balances, nil
}

func (c *FakeSolanaClient) RequestAirdrop(ed25519.PublicKey, uint64, solana.Commitment) (solana.Signature, error) {
	return solana.Signature{}, errors.New("not implemented")
}

func (c *FakeSolanaClient) SubmitTransaction(txn solana.Transaction, _ solana.Commitment) (solana.Signature, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.submitted = append(c.submitted, txn)

	var sig solana.Signature
	copy(sig[:], txn.Signature())
	return sig, nil
}
