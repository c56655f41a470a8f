package balance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura0x/aura-server/pkg/testutil"
)

func TestCalculator_GetBalance(t *testing.T) {
	ctx := context.Background()

	client := testutil.NewFakeSolanaClient()
	mint := testutil.NewRandomAccount(t)
	owner := testutil.NewRandomAccount(t)

	calculator := NewCalculator(client, mint)

	// No token account yet reads as a zero balance
	quarks, err := calculator.GetBalance(ctx, owner)
	require.NoError(t, err)
	assert.EqualValues(t, 0, quarks)

	ata, err := owner.ToAssociatedTokenAccount(mint)
	require.NoError(t, err)
	client.SetTokenAccount(
		ata.PublicKey().ToBytes(),
		mint.PublicKey().ToBytes(),
		owner.PublicKey().ToBytes(),
		2_500_000_000,
	)

	quarks, err = calculator.GetBalance(ctx, owner)
	require.NoError(t, err)
	assert.EqualValues(t, 2_500_000_000, quarks)

	decimal, err := calculator.GetBalanceAsFloat(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 2.5, decimal)
}

func TestCalculator_WrongMint(t *testing.T) {
	ctx := context.Background()

	client := testutil.NewFakeSolanaClient()
	mint := testutil.NewRandomAccount(t)
	otherMint := testutil.NewRandomAccount(t)
	owner := testutil.NewRandomAccount(t)

	// An account exists at the derived address, but for a different mint
	ata, err := owner.ToAssociatedTokenAccount(mint)
	require.NoError(t, err)
	client.SetTokenAccount(
		ata.PublicKey().ToBytes(),
		otherMint.PublicKey().ToBytes(),
		owner.PublicKey().ToBytes(),
		1_000_000_000,
	)

	calculator := NewCalculator(client, mint)

	_, err = calculator.GetBalance(ctx, owner)
	assert.Equal(t, ErrInvalidTokenAccount, err)
}
