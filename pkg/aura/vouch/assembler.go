// Package vouch builds and verifies vouch settlement transactions. A vouch
// moves settlement tokens from the voucher to the recipient and the platform
// fee wallet in a single transaction, split 70/30.
package vouch

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/aura0x/aura-server/pkg/aura/common"
	"github.com/aura0x/aura-server/pkg/aura/config"
	"github.com/aura0x/aura-server/pkg/solana"
	"github.com/aura0x/aura-server/pkg/solana/token"
)

var (
	ErrInvalidAddress = errors.New("invalid recipient address")
	ErrInvalidAmount  = errors.New("amount must be a positive token amount")

	// ErrVoucherAccountMissing indicates the voucher has no associated token
	// account for the settlement mint, so there is nothing to transfer from.
	ErrVoucherAccountMissing = errors.New("voucher token account does not exist")

	ErrInsufficientBalance = errors.New("insufficient voucher balance")
)

type Assembler struct {
	log            *logrus.Entry
	sc             solana.Client
	tokenClient    *token.Client
	mint           *common.Account
	platformWallet *common.Account
}

func NewAssembler(sc solana.Client, mint, platformWallet *common.Account) *Assembler {
	return &Assembler{
		log:            logrus.StandardLogger().WithField("type", "vouch/assembler"),
		sc:             sc,
		tokenClient:    token.NewClient(sc, mint.PublicKey().ToBytes()),
		mint:           mint,
		platformWallet: platformWallet,
	}
}

// BuildVouchTransaction assembles the unsigned transaction for a vouch of the
// provided decimal token amount. The voucher is the fee payer and signs
// client side; the transaction creates any missing recipient or platform
// token accounts at the voucher's expense before the two transfers.
func (a *Assembler) BuildVouchTransaction(ctx context.Context, recipientAddress string, amount float64, voucher *common.Account) (*solana.Transaction, error) {
	recipient, err := common.NewAccountFromPublicKeyString(recipientAddress)
	if err != nil {
		return nil, ErrInvalidAddress
	}

	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	totalQuarks := config.ToQuarks(amount)
	if totalQuarks == 0 {
		return nil, ErrInvalidAmount
	}

	recipientQuarks, platformQuarks := Split(totalQuarks)

	voucherAta, err := voucher.ToAssociatedTokenAccount(a.mint)
	if err != nil {
		return nil, errors.Wrap(err, "error deriving voucher token account")
	}
	recipientAta, err := recipient.ToAssociatedTokenAccount(a.mint)
	if err != nil {
		return nil, errors.Wrap(err, "error deriving recipient token account")
	}
	platformAta, err := a.platformWallet.ToAssociatedTokenAccount(a.mint)
	if err != nil {
		return nil, errors.Wrap(err, "error deriving platform token account")
	}

	voucherAccount, err := a.tokenClient.GetAccount(voucherAta.PublicKey().ToBytes(), solana.CommitmentFinalized)
	if err == token.ErrAccountNotFound {
		return nil, ErrVoucherAccountMissing
	} else if err != nil {
		return nil, errors.Wrap(err, "error getting voucher token account")
	}
	if voucherAccount.Amount < totalQuarks {
		return nil, ErrInsufficientBalance
	}

	var instructions []solana.Instruction
	for _, wallet := range []*common.Account{recipient, a.platformWallet} {
		createInstruction, exists, err := a.createIfMissing(wallet, voucher)
		if err != nil {
			return nil, err
		}
		if !exists {
			instructions = append(instructions, createInstruction)
		}
	}

	instructions = append(
		instructions,
		token.Transfer(
			voucherAta.PublicKey().ToBytes(),
			recipientAta.PublicKey().ToBytes(),
			voucher.PublicKey().ToBytes(),
			recipientQuarks,
		),
		token.Transfer(
			voucherAta.PublicKey().ToBytes(),
			platformAta.PublicKey().ToBytes(),
			voucher.PublicKey().ToBytes(),
			platformQuarks,
		),
	)

	blockhash, err := a.sc.GetLatestBlockhash()
	if err != nil {
		return nil, errors.Wrap(err, "error getting latest blockhash")
	}

	txn := solana.NewTransaction(voucher.PublicKey().ToBytes(), instructions...)
	txn.SetBlockhash(blockhash)

	a.log.WithFields(logrus.Fields{
		"voucher":   voucher.PublicKey().ToBase58(),
		"recipient": recipient.PublicKey().ToBase58(),
		"quarks":    totalQuarks,
	}).Debug("assembled vouch transaction")

	return &txn, nil
}

// createIfMissing returns an instruction creating the wallet's associated
// token account with the payer funding the rent, along with whether the
// account already exists.
func (a *Assembler) createIfMissing(wallet, payer *common.Account) (solana.Instruction, bool, error) {
	ata, err := wallet.ToAssociatedTokenAccount(a.mint)
	if err != nil {
		return solana.Instruction{}, false, errors.Wrap(err, "error deriving token account")
	}

	_, err = a.tokenClient.GetAccount(ata.PublicKey().ToBytes(), solana.CommitmentFinalized)
	switch err {
	case nil:
		return solana.Instruction{}, true, nil
	case token.ErrAccountNotFound:
		createInstruction, _, err := token.CreateAssociatedTokenAccount(
			payer.PublicKey().ToBytes(),
			wallet.PublicKey().ToBytes(),
			a.mint.PublicKey().ToBytes(),
		)
		if err != nil {
			return solana.Instruction{}, false, errors.Wrap(err, "error building create instruction")
		}
		return createInstruction, false, nil
	default:
		return solana.Instruction{}, false, errors.Wrap(err, "error getting token account")
	}
}
