// Package sale prepares custodial pool transactions. The pool authority
// co-signs sales server side; the user completes the signature set client
// side, so prepared transactions leave the server partially signed.
package sale

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/aura0x/aura-server/pkg/aura/common"
	auraconf "github.com/aura0x/aura-server/pkg/aura/config"
	"github.com/aura0x/aura-server/pkg/config"
	"github.com/aura0x/aura-server/pkg/metrics"
	"github.com/aura0x/aura-server/pkg/solana"
	"github.com/aura0x/aura-server/pkg/solana/token"
	sync_ "github.com/aura0x/aura-server/pkg/sync"
)

const (
	metricsPackageName = "sale"

	salePreparedEventName = "sale_prepared"
	buyPreparedEventName  = "buy_prepared"
)

var (
	ErrInvalidAddress = errors.New("invalid user address")
	ErrInvalidAmount  = errors.New("amount must be a positive token amount")

	// ErrDustAmount indicates the computed settlement rounds to zero quarks.
	ErrDustAmount = errors.New("settlement amount is below quark precision")

	ErrInsufficientLiquidity = errors.New("insufficient pool liquidity")
	ErrInsufficientBalance   = errors.New("insufficient user balance")

	// ErrUserAccountMissing indicates the user has no token account to sell
	// from.
	ErrUserAccountMissing = errors.New("user token account does not exist")
)

type Preparer struct {
	log         *logrus.Entry
	sc          solana.Client
	tokenClient *token.Client
	mint        *common.Account
	secrets     SecretProvider
	sellRate    config.Float64
	buyRate     config.Float64

	// Serializes the liquidity check against concurrent preparations drawing
	// from the same pool account.
	poolLocks *sync_.StripedLock
}

func NewPreparer(sc solana.Client, mint *common.Account, secrets SecretProvider, sellRate, buyRate config.Float64) *Preparer {
	return &Preparer{
		log:         logrus.StandardLogger().WithField("type", "sale/preparer"),
		sc:          sc,
		tokenClient: token.NewClient(sc, mint.PublicKey().ToBytes()),
		mint:        mint,
		secrets:     secrets,
		sellRate:    sellRate,
		buyRate:     buyRate,
		poolLocks:   sync_.NewStripedLock(64),
	}
}

// PrepareSale builds a pool-to-user transfer paying out the sale of the
// provided token amount, partially signed by the pool authority. The user is
// the fee payer and adds the final signature client side. The settlement
// amount the user receives is always computed here at the fixed sell rate and
// never accepted from the caller.
func (p *Preparer) PrepareSale(ctx context.Context, userAddress string, tokenAmount float64) ([]byte, float64, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsPackageName, "PrepareSale")
	defer tracer.End()

	user, err := p.validateRequest(userAddress, tokenAmount)
	if err != nil {
		return nil, 0, err
	}

	settlement := tokenAmount * p.sellRate.Get(ctx)
	settlementQuarks := auraconf.ToQuarks(settlement)
	if settlementQuarks == 0 {
		return nil, 0, ErrDustAmount
	}

	pool, err := p.secrets.PoolAuthority(ctx)
	if err != nil {
		tracer.OnError(err)
		return nil, 0, err
	}

	poolAta, err := pool.ToAssociatedTokenAccount(p.mint)
	if err != nil {
		return nil, 0, errors.Wrap(err, "error deriving pool token account")
	}
	userAta, err := user.ToAssociatedTokenAccount(p.mint)
	if err != nil {
		return nil, 0, errors.Wrap(err, "error deriving user token account")
	}

	lock := p.poolLocks.Get(poolAta.PublicKey().ToBytes())
	lock.Lock()
	defer lock.Unlock()

	poolAccount, err := p.tokenClient.GetAccount(poolAta.PublicKey().ToBytes(), solana.CommitmentFinalized)
	if err == token.ErrAccountNotFound {
		return nil, 0, ErrInsufficientLiquidity
	} else if err != nil {
		return nil, 0, errors.Wrap(err, "error getting pool token account")
	}
	if poolAccount.Amount < settlementQuarks {
		return nil, 0, ErrInsufficientLiquidity
	}

	var instructions []solana.Instruction

	_, err = p.tokenClient.GetAccount(userAta.PublicKey().ToBytes(), solana.CommitmentFinalized)
	if err == token.ErrAccountNotFound {
		// The user funds their own account creation.
		createInstruction, _, err := token.CreateAssociatedTokenAccount(
			user.PublicKey().ToBytes(),
			user.PublicKey().ToBytes(),
			p.mint.PublicKey().ToBytes(),
		)
		if err != nil {
			return nil, 0, errors.Wrap(err, "error building create instruction")
		}
		instructions = append(instructions, createInstruction)
	} else if err != nil {
		return nil, 0, errors.Wrap(err, "error getting user token account")
	}

	instructions = append(instructions, token.Transfer(
		poolAta.PublicKey().ToBytes(),
		userAta.PublicKey().ToBytes(),
		pool.PublicKey().ToBytes(),
		settlementQuarks,
	))

	blockhash, err := p.sc.GetLatestBlockhash()
	if err != nil {
		return nil, 0, errors.Wrap(err, "error getting latest blockhash")
	}

	txn := solana.NewTransaction(user.PublicKey().ToBytes(), instructions...)
	txn.SetBlockhash(blockhash)

	if err := txn.Sign(pool.PrivateKey().ToBytes()); err != nil {
		return nil, 0, errors.Wrap(err, "error signing with pool authority")
	}

	metrics.RecordEvent(ctx, salePreparedEventName, map[string]interface{}{
		"user":   user.PublicKey().ToBase58(),
		"quarks": settlementQuarks,
	})

	p.log.WithFields(logrus.Fields{
		"user":   user.PublicKey().ToBase58(),
		"quarks": settlementQuarks,
	}).Debug("prepared sale transaction")

	return txn.Marshal(), settlement, nil
}

// PrepareBuy builds a user-to-pool transfer paying for the purchase of the
// provided token amount. The pool adds no signature; the user is the sole
// signer and fee payer. The settlement amount the user pays is always
// computed here at the fixed buy rate and never accepted from the caller.
func (p *Preparer) PrepareBuy(ctx context.Context, userAddress string, tokenAmount float64) ([]byte, float64, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsPackageName, "PrepareBuy")
	defer tracer.End()

	user, err := p.validateRequest(userAddress, tokenAmount)
	if err != nil {
		return nil, 0, err
	}

	settlement := tokenAmount * p.buyRate.Get(ctx)
	settlementQuarks := auraconf.ToQuarks(settlement)
	if settlementQuarks == 0 {
		return nil, 0, ErrDustAmount
	}

	pool, err := p.secrets.PoolAuthority(ctx)
	if err != nil {
		tracer.OnError(err)
		return nil, 0, err
	}

	poolAta, err := pool.ToAssociatedTokenAccount(p.mint)
	if err != nil {
		return nil, 0, errors.Wrap(err, "error deriving pool token account")
	}
	userAta, err := user.ToAssociatedTokenAccount(p.mint)
	if err != nil {
		return nil, 0, errors.Wrap(err, "error deriving user token account")
	}

	userAccount, err := p.tokenClient.GetAccount(userAta.PublicKey().ToBytes(), solana.CommitmentFinalized)
	if err == token.ErrAccountNotFound {
		return nil, 0, ErrUserAccountMissing
	} else if err != nil {
		return nil, 0, errors.Wrap(err, "error getting user token account")
	}
	if userAccount.Amount < settlementQuarks {
		return nil, 0, ErrInsufficientBalance
	}

	var instructions []solana.Instruction

	_, err = p.tokenClient.GetAccount(poolAta.PublicKey().ToBytes(), solana.CommitmentFinalized)
	if err == token.ErrAccountNotFound {
		createInstruction, _, err := token.CreateAssociatedTokenAccount(
			user.PublicKey().ToBytes(),
			pool.PublicKey().ToBytes(),
			p.mint.PublicKey().ToBytes(),
		)
		if err != nil {
			return nil, 0, errors.Wrap(err, "error building create instruction")
		}
		instructions = append(instructions, createInstruction)
	} else if err != nil {
		return nil, 0, errors.Wrap(err, "error getting pool token account")
	}

	instructions = append(instructions, token.Transfer(
		userAta.PublicKey().ToBytes(),
		poolAta.PublicKey().ToBytes(),
		user.PublicKey().ToBytes(),
		settlementQuarks,
	))

	blockhash, err := p.sc.GetLatestBlockhash()
	if err != nil {
		return nil, 0, errors.Wrap(err, "error getting latest blockhash")
	}

	txn := solana.NewTransaction(user.PublicKey().ToBytes(), instructions...)
	txn.SetBlockhash(blockhash)

	metrics.RecordEvent(ctx, buyPreparedEventName, map[string]interface{}{
		"user":   user.PublicKey().ToBase58(),
		"quarks": settlementQuarks,
	})

	return txn.Marshal(), settlement, nil
}

func (p *Preparer) validateRequest(userAddress string, tokenAmount float64) (*common.Account, error) {
	user, err := common.NewAccountFromPublicKeyString(userAddress)
	if err != nil {
		return nil, ErrInvalidAddress
	}

	if tokenAmount <= 0 {
		return nil, ErrInvalidAmount
	}

	return user, nil
}
