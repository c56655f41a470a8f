// Package balance reads settlement token balances directly from the chain.
//
// A missing associated token account is a zero balance, not an error. A
// transport failure is an error, never zero, so callers can distinguish
// "balance unknown" from "no funds".
package balance

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/aura0x/aura-server/pkg/aura/common"
	"github.com/aura0x/aura-server/pkg/aura/config"
	"github.com/aura0x/aura-server/pkg/metrics"
	"github.com/aura0x/aura-server/pkg/solana"
	"github.com/aura0x/aura-server/pkg/solana/token"
)

const metricsPackageName = "balance"

// ErrInvalidTokenAccount indicates an account exists at the derived associated
// token account address, but it isn't a valid token account for the settlement
// mint.
var ErrInvalidTokenAccount = errors.New("invalid token account for mint")

type Calculator struct {
	log         *logrus.Entry
	tokenClient *token.Client
	mint        *common.Account
}

func NewCalculator(sc solana.Client, mint *common.Account) *Calculator {
	return &Calculator{
		log:         logrus.StandardLogger().WithField("type", "balance/calculator"),
		tokenClient: token.NewClient(sc, mint.PublicKey().ToBytes()),
		mint:        mint,
	}
}

// GetBalance returns the owner's settlement token balance, in quarks.
func (c *Calculator) GetBalance(ctx context.Context, owner *common.Account) (uint64, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsPackageName, "GetBalance")
	tracer.AddAttribute("owner", owner.PublicKey().ToBase58())
	defer tracer.End()

	ata, err := owner.ToAssociatedTokenAccount(c.mint)
	if err != nil {
		tracer.OnError(err)
		return 0, errors.Wrap(err, "error deriving associated token account")
	}

	account, err := c.tokenClient.GetAccount(ata.PublicKey().ToBytes(), solana.CommitmentFinalized)
	switch err {
	case nil:
		return account.Amount, nil
	case token.ErrAccountNotFound:
		return 0, nil
	case token.ErrInvalidTokenAccount:
		tracer.OnError(ErrInvalidTokenAccount)
		return 0, ErrInvalidTokenAccount
	default:
		tracer.OnError(err)

		c.log.WithError(err).
			WithField("owner", owner.PublicKey().ToBase58()).
			Warn("failure getting token account")

		return 0, errors.Wrap(err, "error getting token account")
	}
}

// GetBalanceAsFloat returns the owner's settlement token balance in decimal
// units.
func (c *Calculator) GetBalanceAsFloat(ctx context.Context, owner *common.Account) (float64, error) {
	quarks, err := c.GetBalance(ctx, owner)
	if err != nil {
		return 0, err
	}
	return config.FromQuarks(quarks), nil
}
