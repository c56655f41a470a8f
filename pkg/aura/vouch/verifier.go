package vouch

import (
	"context"
	"crypto/ed25519"
	"math"
	"strconv"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/aura0x/aura-server/pkg/aura/common"
	auraconf "github.com/aura0x/aura-server/pkg/aura/config"
	"github.com/aura0x/aura-server/pkg/config"
	"github.com/aura0x/aura-server/pkg/metrics"
	"github.com/aura0x/aura-server/pkg/solana"
)

const (
	metricsPackageName = "vouch"

	verificationEventName = "vouch_verification"

	// Verified shares may deviate from the recomputed schedule by up to
	// 0.01 tokens in either direction.
	toleranceQuarks = auraconf.QuarksPerAura / 100
)

var ErrInvalidSignature = errors.New("invalid transaction signature")

var errUnresolvedAccount = errors.New("token balance references an account outside the message")

const (
	ReasonNotFound      = "transaction not found"
	ReasonFailed        = "transaction failed on chain"
	ReasonNoTransfers   = "no settlement token movement"
	ReasonUnresolved    = "balance change references an account outside the message"
	ReasonMultiplePayer = "more than one paying token account"
	ReasonNoPlatformFee = "platform wallet did not receive a share"
	ReasonNoRecipient   = "no recipient token account credited"
	ReasonSplitMismatch = "shares do not match the 70/30 schedule"
)

// VerifiedVouch is the outcome of verifying a finalized transaction against
// the vouch schedule. Amounts are re-derived from the chain's recorded
// balance changes, never from client input.
type VerifiedVouch struct {
	IsValid bool
	Reason  string

	Signature string
	Voucher   string
	Recipient string

	TotalQuarks     uint64
	RecipientQuarks uint64
	PlatformQuarks  uint64
	Points          uint64

	Slot      uint64
	BlockTime *time.Time
}

type Verifier struct {
	log            *logrus.Entry
	sc             solana.Client
	mint           *common.Account
	platformWallet *common.Account
	pointsRate     config.Float64
}

func NewVerifier(sc solana.Client, mint, platformWallet *common.Account, pointsRate config.Float64) *Verifier {
	return &Verifier{
		log:            logrus.StandardLogger().WithField("type", "vouch/verifier"),
		sc:             sc,
		mint:           mint,
		platformWallet: platformWallet,
		pointsRate:     pointsRate,
	}
}

// Verify checks that the finalized transaction with the provided signature is
// a well-formed vouch. The result distinguishes a transaction that cannot be
// verified yet (not found) from one that is definitively not a valid vouch.
// No polling is done; callers decide whether and when to retry.
func (v *Verifier) Verify(ctx context.Context, signature string) (*VerifiedVouch, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsPackageName, "Verify")
	defer tracer.End()

	sigBytes, err := base58.Decode(signature)
	if err != nil || len(sigBytes) != ed25519.SignatureSize {
		return nil, ErrInvalidSignature
	}
	var sig solana.Signature
	copy(sig[:], sigBytes)

	tokenBalances, err := v.sc.GetTransactionTokenBalances(sig)
	switch err {
	case nil:
	case solana.ErrSignatureNotFound:
		return v.invalid(ctx, signature, ReasonNotFound), nil
	case solana.ErrTransactionFailed:
		return v.invalid(ctx, signature, ReasonFailed), nil
	default:
		tracer.OnError(err)
		return nil, errors.Wrap(err, "error getting transaction token balances")
	}

	deltas, err := v.settlementDeltas(tokenBalances)
	if err == errUnresolvedAccount {
		// Versioned transactions can load accounts from lookup tables that
		// the RPC does not list alongside the static keys. Such a
		// transaction cannot be a vouch we assembled.
		return v.invalid(ctx, signature, ReasonUnresolved), nil
	} else if err != nil {
		tracer.OnError(err)
		return nil, err
	}
	if len(deltas) == 0 {
		return v.invalid(ctx, signature, ReasonNoTransfers), nil
	}

	platformAta, err := v.platformWallet.ToAssociatedTokenAccount(v.mint)
	if err != nil {
		return nil, errors.Wrap(err, "error deriving platform token account")
	}

	var payer *accountDelta
	var platform *accountDelta
	var recipient *accountDelta
	for _, delta := range deltas {
		switch {
		case delta.amount < 0:
			if payer != nil {
				return v.invalid(ctx, signature, ReasonMultiplePayer), nil
			}
			payer = delta
		case delta.address == platformAta.PublicKey().ToBase58():
			platform = delta
		case delta.amount > 0:
			recipient = delta
		}
	}

	if payer == nil {
		return v.invalid(ctx, signature, ReasonNoTransfers), nil
	}
	if platform == nil || platform.amount <= 0 {
		return v.invalid(ctx, signature, ReasonNoPlatformFee), nil
	}
	if recipient == nil {
		return v.invalid(ctx, signature, ReasonNoRecipient), nil
	}

	totalQuarks := uint64(-payer.amount)
	expectedRecipient, expectedPlatform := Split(totalQuarks)
	if !withinTolerance(uint64(recipient.amount), expectedRecipient) ||
		!withinTolerance(uint64(platform.amount), expectedPlatform) {
		return v.invalid(ctx, signature, ReasonSplitMismatch), nil
	}

	result := &VerifiedVouch{
		IsValid: true,

		Signature: signature,
		Voucher:   payer.owner,
		Recipient: recipient.owner,

		TotalQuarks:     totalQuarks,
		RecipientQuarks: uint64(recipient.amount),
		PlatformQuarks:  uint64(platform.amount),
		Points:          v.pointsFor(ctx, totalQuarks),

		Slot:      tokenBalances.Slot,
		BlockTime: tokenBalances.BlockTime,
	}

	metrics.RecordEvent(ctx, verificationEventName, map[string]interface{}{
		"valid":     true,
		"signature": signature,
		"quarks":    totalQuarks,
	})

	return result, nil
}

type accountDelta struct {
	address string
	owner   string
	amount  int64
}

// settlementDeltas computes the per-account balance change for every token
// account of the settlement mint the transaction touched.
func (v *Verifier) settlementDeltas(tokenBalances solana.TransactionTokenBalances) ([]*accountDelta, error) {
	mint := v.mint.PublicKey().ToBase58()

	byIndex := make(map[uint64]*accountDelta)
	for _, balance := range tokenBalances.PreTokenBalances {
		if balance.Mint != mint {
			continue
		}
		if balance.AccountIndex >= uint64(len(tokenBalances.Accounts)) {
			return nil, errUnresolvedAccount
		}

		amount, err := strconv.ParseInt(balance.TokenAmount.Amount, 10, 64)
		if err != nil {
			return nil, errors.Wrap(err, "invalid token balance in transaction meta")
		}

		byIndex[balance.AccountIndex] = &accountDelta{
			address: tokenBalances.Accounts[balance.AccountIndex],
			owner:   balance.Owner,
			amount:  -amount,
		}
	}
	for _, balance := range tokenBalances.PostTokenBalances {
		if balance.Mint != mint {
			continue
		}
		if balance.AccountIndex >= uint64(len(tokenBalances.Accounts)) {
			return nil, errUnresolvedAccount
		}

		amount, err := strconv.ParseInt(balance.TokenAmount.Amount, 10, 64)
		if err != nil {
			return nil, errors.Wrap(err, "invalid token balance in transaction meta")
		}

		delta, ok := byIndex[balance.AccountIndex]
		if !ok {
			delta = &accountDelta{
				address: tokenBalances.Accounts[balance.AccountIndex],
				owner:   balance.Owner,
			}
			byIndex[balance.AccountIndex] = delta
		}
		delta.amount += amount
		if len(delta.owner) == 0 {
			delta.owner = balance.Owner
		}
	}

	deltas := make([]*accountDelta, 0, len(byIndex))
	for _, delta := range byIndex {
		if delta.amount == 0 {
			continue
		}
		deltas = append(deltas, delta)
	}
	return deltas, nil
}

func (v *Verifier) invalid(ctx context.Context, signature, reason string) *VerifiedVouch {
	metrics.RecordEvent(ctx, verificationEventName, map[string]interface{}{
		"valid":     false,
		"signature": signature,
		"reason":    reason,
	})

	v.log.WithFields(logrus.Fields{
		"signature": signature,
		"reason":    reason,
	}).Info("vouch failed verification")

	return &VerifiedVouch{
		IsValid:   false,
		Reason:    reason,
		Signature: signature,
	}
}

// pointsFor computes the reputation points awarded for a verified vouch of
// the provided size.
func (v *Verifier) pointsFor(ctx context.Context, totalQuarks uint64) uint64 {
	rate := v.pointsRate.Get(ctx)
	if rate <= 0 {
		return 0
	}
	return uint64(math.Floor(auraconf.FromQuarks(totalQuarks) * rate))
}

func withinTolerance(actual, expected uint64) bool {
	var diff uint64
	if actual > expected {
		diff = actual - expected
	} else {
		diff = expected - actual
	}
	return diff <= toleranceQuarks
}
