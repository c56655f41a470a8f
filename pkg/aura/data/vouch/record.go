package vouch

import (
	"errors"
	"time"
)

// Record is a settled vouch that passed on-chain verification.
type Record struct {
	Id uint64

	Signature string

	Voucher   string
	Recipient string

	TotalQuarks     uint64
	RecipientQuarks uint64
	PlatformQuarks  uint64

	Points uint64

	Slot uint64

	CreatedAt time.Time
}

func (r *Record) Validate() error {
	if len(r.Signature) == 0 {
		return errors.New("signature is required")
	}

	if len(r.Voucher) == 0 {
		return errors.New("voucher is required")
	}

	if len(r.Recipient) == 0 {
		return errors.New("recipient is required")
	}

	if r.TotalQuarks == 0 {
		return errors.New("total quark amount cannot be zero")
	}

	if r.RecipientQuarks+r.PlatformQuarks > r.TotalQuarks {
		return errors.New("split amounts exceed total quark amount")
	}

	return nil
}

func (r *Record) Clone() Record {
	return Record{
		Id: r.Id,

		Signature: r.Signature,

		Voucher:   r.Voucher,
		Recipient: r.Recipient,

		TotalQuarks:     r.TotalQuarks,
		RecipientQuarks: r.RecipientQuarks,
		PlatformQuarks:  r.PlatformQuarks,

		Points: r.Points,

		Slot: r.Slot,

		CreatedAt: r.CreatedAt,
	}
}

func (r *Record) CopyTo(dst *Record) {
	dst.Id = r.Id

	dst.Signature = r.Signature

	dst.Voucher = r.Voucher
	dst.Recipient = r.Recipient

	dst.TotalQuarks = r.TotalQuarks
	dst.RecipientQuarks = r.RecipientQuarks
	dst.PlatformQuarks = r.PlatformQuarks

	dst.Points = r.Points

	dst.Slot = r.Slot

	dst.CreatedAt = r.CreatedAt
}
