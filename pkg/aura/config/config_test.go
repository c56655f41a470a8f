package config

import (
	"context"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToQuarks(t *testing.T) {
	for _, tc := range []struct {
		amount   float64
		expected uint64
	}{
		{0, 0},
		{1, 1_000_000_000},
		{0.25, 250_000_000},
		{2.5, 2_500_000_000},
		{0.000000001, 1},
		{0.0000000001, 0},
		{1.9999999999, 1_999_999_999},
	} {
		assert.Equal(t, tc.expected, ToQuarks(tc.amount), "amount %f", tc.amount)
	}
}

func TestFromQuarks(t *testing.T) {
	assert.Equal(t, 0.0, FromQuarks(0))
	assert.Equal(t, 1.0, FromQuarks(QuarksPerAura))
	assert.Equal(t, 2.5, FromQuarks(2_500_000_000))
	assert.Equal(t, 0.000000001, FromQuarks(1))
}

func TestDefaults(t *testing.T) {
	ctx := context.Background()
	conf := New()

	// The mint is fixed and the defaults are well-formed addresses
	assert.Equal(t, Mint, conf.MintAddress.Get(ctx))

	decoded, err := base58.Decode(Mint)
	require.NoError(t, err)
	assert.Len(t, decoded, 32)
	assert.EqualValues(t, decoded, TokenMint)

	decoded, err = base58.Decode(conf.PlatformWalletAddress.Get(ctx))
	require.NoError(t, err)
	assert.Len(t, decoded, 32)

	assert.Equal(t, 0.007, conf.SellRate.Get(ctx))
	assert.Equal(t, 0.007, conf.BuyRate.Get(ctx))
}
