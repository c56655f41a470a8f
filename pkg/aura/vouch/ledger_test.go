package vouch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vouch_data "github.com/aura0x/aura-server/pkg/aura/data/vouch"
	vouch_memory "github.com/aura0x/aura-server/pkg/aura/data/vouch/memory"
)

// A verified vouch is recorded at most once; replaying the same signature
// must not award points twice.
func TestVerifyAndRecordOnce(t *testing.T) {
	ctx := context.Background()

	env := setupVerifierTestEnv(t)
	store := vouch_memory.New()

	sig, sigString := randomSignature(t)
	env.client.SetTransactionTokenBalances(sig, env.settlementBalances(
		10_000_000_000,
		9_000_000_000,
		700_000_000,
		300_000_000,
	))

	record := func() error {
		verified, err := env.verifier.Verify(ctx, sigString)
		require.NoError(t, err)
		require.True(t, verified.IsValid)

		return store.Save(ctx, &vouch_data.Record{
			Signature:       verified.Signature,
			Voucher:         verified.Voucher,
			Recipient:       verified.Recipient,
			TotalQuarks:     verified.TotalQuarks,
			RecipientQuarks: verified.RecipientQuarks,
			PlatformQuarks:  verified.PlatformQuarks,
			Points:          verified.Points,
			Slot:            verified.Slot,
		})
	}

	require.NoError(t, record())
	assert.Equal(t, vouch_data.ErrAlreadyExists, record())

	points, err := store.GetPointsByVoucher(ctx, env.voucher.PublicKey().ToBase58())
	require.NoError(t, err)
	assert.EqualValues(t, 10, points)
}
