package tests

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura0x/aura-server/pkg/aura/data/vouch"
)

func RunTests(t *testing.T, s vouch.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s vouch.Store){
		testRoundTrip,
		testDuplicateSignature,
		testGetByVoucher,
		testGetPointsByVoucher,
	} {
		tf(t, s)
		teardown()
	}
}

func testRoundTrip(t *testing.T, s vouch.Store) {
	t.Run("testRoundTrip", func(t *testing.T) {
		ctx := context.Background()

		actual, err := s.GetBySignature(ctx, "signature1")
		require.Error(t, err)
		assert.Equal(t, vouch.ErrNotFound, err)
		assert.Nil(t, actual)

		expected := &vouch.Record{
			Signature:       "signature1",
			Voucher:         "voucher",
			Recipient:       "recipient",
			TotalQuarks:     1_000_000_000,
			RecipientQuarks: 700_000_000,
			PlatformQuarks:  300_000_000,
			Points:          10,
			Slot:            12345,
			CreatedAt:       time.Now(),
		}
		cloned := expected.Clone()
		require.NoError(t, s.Save(ctx, expected))
		assert.EqualValues(t, 1, expected.Id)

		actual, err = s.GetBySignature(ctx, "signature1")
		require.NoError(t, err)
		assertEquivalentRecords(t, &cloned, actual)
		assert.EqualValues(t, 1, actual.Id)
	})
}

func testDuplicateSignature(t *testing.T, s vouch.Store) {
	t.Run("testDuplicateSignature", func(t *testing.T) {
		ctx := context.Background()

		record := &vouch.Record{
			Signature:       "signature1",
			Voucher:         "voucher",
			Recipient:       "recipient",
			TotalQuarks:     500_000_000,
			RecipientQuarks: 350_000_000,
			PlatformQuarks:  150_000_000,
			Points:          5,
			Slot:            100,
			CreatedAt:       time.Now(),
		}
		require.NoError(t, s.Save(ctx, record))

		replay := record.Clone()
		replay.Id = 0
		replay.Recipient = "other_recipient"
		assert.Equal(t, vouch.ErrAlreadyExists, s.Save(ctx, &replay))

		actual, err := s.GetBySignature(ctx, "signature1")
		require.NoError(t, err)
		assert.Equal(t, "recipient", actual.Recipient)
	})
}

func testGetByVoucher(t *testing.T, s vouch.Store) {
	t.Run("testGetByVoucher", func(t *testing.T) {
		ctx := context.Background()

		records, err := s.GetByVoucher(ctx, "voucher", 10)
		require.NoError(t, err)
		assert.Empty(t, records)

		for i := 0; i < 5; i++ {
			voucher := "voucher"
			if i%2 == 1 {
				voucher = "other_voucher"
			}

			require.NoError(t, s.Save(ctx, &vouch.Record{
				Signature:       fmt.Sprintf("signature%d", i),
				Voucher:         voucher,
				Recipient:       "recipient",
				TotalQuarks:     uint64(i+1) * 1_000_000_000,
				RecipientQuarks: uint64(i+1) * 700_000_000,
				PlatformQuarks:  uint64(i+1) * 300_000_000,
				Points:          uint64(i + 1),
				Slot:            uint64(i),
				CreatedAt:       time.Now(),
			}))
		}

		records, err = s.GetByVoucher(ctx, "voucher", 10)
		require.NoError(t, err)
		require.Len(t, records, 3)

		// Most recent first
		assert.Equal(t, "signature4", records[0].Signature)
		assert.Equal(t, "signature2", records[1].Signature)
		assert.Equal(t, "signature0", records[2].Signature)

		records, err = s.GetByVoucher(ctx, "voucher", 2)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "signature4", records[0].Signature)
		assert.Equal(t, "signature2", records[1].Signature)
	})
}

func testGetPointsByVoucher(t *testing.T, s vouch.Store) {
	t.Run("testGetPointsByVoucher", func(t *testing.T) {
		ctx := context.Background()

		points, err := s.GetPointsByVoucher(ctx, "voucher")
		require.NoError(t, err)
		assert.EqualValues(t, 0, points)

		for i := 0; i < 3; i++ {
			require.NoError(t, s.Save(ctx, &vouch.Record{
				Signature:       fmt.Sprintf("signature%d", i),
				Voucher:         "voucher",
				Recipient:       "recipient",
				TotalQuarks:     1_000_000_000,
				RecipientQuarks: 700_000_000,
				PlatformQuarks:  300_000_000,
				Points:          uint64(10 * (i + 1)),
				Slot:            uint64(i),
				CreatedAt:       time.Now(),
			}))
		}

		points, err = s.GetPointsByVoucher(ctx, "voucher")
		require.NoError(t, err)
		assert.EqualValues(t, 60, points)

		points, err = s.GetPointsByVoucher(ctx, "other_voucher")
		require.NoError(t, err)
		assert.EqualValues(t, 0, points)
	})
}

func assertEquivalentRecords(t *testing.T, obj1, obj2 *vouch.Record) {
	assert.Equal(t, obj1.Signature, obj2.Signature)
	assert.Equal(t, obj1.Voucher, obj2.Voucher)
	assert.Equal(t, obj1.Recipient, obj2.Recipient)
	assert.Equal(t, obj1.TotalQuarks, obj2.TotalQuarks)
	assert.Equal(t, obj1.RecipientQuarks, obj2.RecipientQuarks)
	assert.Equal(t, obj1.PlatformQuarks, obj2.PlatformQuarks)
	assert.Equal(t, obj1.Points, obj2.Points)
	assert.Equal(t, obj1.Slot, obj2.Slot)
}
