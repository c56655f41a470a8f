package vouch

import (
	"context"
	"errors"
)

var (
	ErrNotFound      = errors.New("vouch record not found")
	ErrAlreadyExists = errors.New("vouch record already exists")
)

type Store interface {
	// Save persists a verified vouch. A transaction signature can be recorded
	// at most once; replays return ErrAlreadyExists.
	Save(ctx context.Context, record *Record) error

	// GetBySignature finds the record for a transaction signature.
	//
	// Returns ErrNotFound if no record exists.
	GetBySignature(ctx context.Context, signature string) (*Record, error)

	// GetByVoucher gets the most recent records for a voucher, up to limit.
	GetByVoucher(ctx context.Context, voucher string, limit uint64) ([]*Record, error)

	// GetPointsByVoucher sums the points earned by a voucher across all of
	// their settled vouches.
	GetPointsByVoucher(ctx context.Context, voucher string) (uint64, error)
}
