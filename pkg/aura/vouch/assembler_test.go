package vouch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura0x/aura-server/pkg/aura/common"
	"github.com/aura0x/aura-server/pkg/solana/token"
	"github.com/aura0x/aura-server/pkg/testutil"
)

type assemblerTestEnv struct {
	client    *testutil.FakeSolanaClient
	assembler *Assembler

	mint           *common.Account
	platformWallet *common.Account

	voucher   *common.Account
	recipient *common.Account
}

func setupAssemblerTestEnv(t *testing.T) *assemblerTestEnv {
	env := &assemblerTestEnv{
		client:         testutil.NewFakeSolanaClient(),
		mint:           testutil.NewRandomAccount(t),
		platformWallet: testutil.NewRandomAccount(t),
		voucher:        testutil.NewRandomAccount(t),
		recipient:      testutil.NewRandomAccount(t),
	}
	env.assembler = NewAssembler(env.client, env.mint, env.platformWallet)
	return env
}

func (env *assemblerTestEnv) fundTokenAccount(t *testing.T, owner *common.Account, quarks uint64) *common.Account {
	ata, err := owner.ToAssociatedTokenAccount(env.mint)
	require.NoError(t, err)

	env.client.SetTokenAccount(
		ata.PublicKey().ToBytes(),
		env.mint.PublicKey().ToBytes(),
		owner.PublicKey().ToBytes(),
		quarks,
	)
	return ata
}

func TestAssembler_HappyPath(t *testing.T) {
	env := setupAssemblerTestEnv(t)

	voucherAta := env.fundTokenAccount(t, env.voucher, 10_000_000_000)
	recipientAta := env.fundTokenAccount(t, env.recipient, 0)
	platformAta := env.fundTokenAccount(t, env.platformWallet, 0)

	txn, err := env.assembler.BuildVouchTransaction(
		context.Background(),
		env.recipient.PublicKey().ToBase58(),
		1.0,
		env.voucher,
	)
	require.NoError(t, err)

	// The voucher pays the fee and signs client side
	assert.EqualValues(t, env.voucher.PublicKey().ToBytes(), txn.Message.Accounts[0])
	assert.False(t, txn.IsFullySigned())

	require.Len(t, txn.Message.Instructions, 2)

	toRecipient, err := token.DecompileTransfer(txn.Message, 0)
	require.NoError(t, err)
	assert.EqualValues(t, voucherAta.PublicKey().ToBytes(), toRecipient.Source)
	assert.EqualValues(t, recipientAta.PublicKey().ToBytes(), toRecipient.Destination)
	assert.EqualValues(t, env.voucher.PublicKey().ToBytes(), toRecipient.Owner)
	assert.EqualValues(t, 700_000_000, toRecipient.Amount)

	toPlatform, err := token.DecompileTransfer(txn.Message, 1)
	require.NoError(t, err)
	assert.EqualValues(t, voucherAta.PublicKey().ToBytes(), toPlatform.Source)
	assert.EqualValues(t, platformAta.PublicKey().ToBytes(), toPlatform.Destination)
	assert.EqualValues(t, 300_000_000, toPlatform.Amount)
}

func TestAssembler_CreatesMissingAccounts(t *testing.T) {
	env := setupAssemblerTestEnv(t)

	env.fundTokenAccount(t, env.voucher, 10_000_000_000)

	txn, err := env.assembler.BuildVouchTransaction(
		context.Background(),
		env.recipient.PublicKey().ToBase58(),
		2.5,
		env.voucher,
	)
	require.NoError(t, err)

	require.Len(t, txn.Message.Instructions, 4)

	createRecipient, err := token.DecompileCreateAssociatedAccount(txn.Message, 0)
	require.NoError(t, err)
	assert.EqualValues(t, env.voucher.PublicKey().ToBytes(), createRecipient.Payer)
	assert.EqualValues(t, env.recipient.PublicKey().ToBytes(), createRecipient.Owner)
	assert.EqualValues(t, env.mint.PublicKey().ToBytes(), createRecipient.Mint)

	createPlatform, err := token.DecompileCreateAssociatedAccount(txn.Message, 1)
	require.NoError(t, err)
	assert.EqualValues(t, env.voucher.PublicKey().ToBytes(), createPlatform.Payer)
	assert.EqualValues(t, env.platformWallet.PublicKey().ToBytes(), createPlatform.Owner)

	toRecipient, err := token.DecompileTransfer(txn.Message, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 1_750_000_000, toRecipient.Amount)

	toPlatform, err := token.DecompileTransfer(txn.Message, 3)
	require.NoError(t, err)
	assert.EqualValues(t, 750_000_000, toPlatform.Amount)
}

func TestAssembler_Validation(t *testing.T) {
	env := setupAssemblerTestEnv(t)

	env.fundTokenAccount(t, env.voucher, 10_000_000_000)

	_, err := env.assembler.BuildVouchTransaction(context.Background(), "not-an-address", 1.0, env.voucher)
	assert.Equal(t, ErrInvalidAddress, err)

	recipientAddress := env.recipient.PublicKey().ToBase58()

	_, err = env.assembler.BuildVouchTransaction(context.Background(), recipientAddress, 0, env.voucher)
	assert.Equal(t, ErrInvalidAmount, err)

	_, err = env.assembler.BuildVouchTransaction(context.Background(), recipientAddress, -1.0, env.voucher)
	assert.Equal(t, ErrInvalidAmount, err)

	// Rounds to zero quarks
	_, err = env.assembler.BuildVouchTransaction(context.Background(), recipientAddress, 0.0000000001, env.voucher)
	assert.Equal(t, ErrInvalidAmount, err)
}

func TestAssembler_VoucherAccountMissing(t *testing.T) {
	env := setupAssemblerTestEnv(t)

	_, err := env.assembler.BuildVouchTransaction(
		context.Background(),
		env.recipient.PublicKey().ToBase58(),
		1.0,
		env.voucher,
	)
	assert.Equal(t, ErrVoucherAccountMissing, err)
}

func TestAssembler_InsufficientBalance(t *testing.T) {
	env := setupAssemblerTestEnv(t)

	env.fundTokenAccount(t, env.voucher, 999_999_999)

	_, err := env.assembler.BuildVouchTransaction(
		context.Background(),
		env.recipient.PublicKey().ToBase58(),
		1.0,
		env.voucher,
	)
	assert.Equal(t, ErrInsufficientBalance, err)
}
