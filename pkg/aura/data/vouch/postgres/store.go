package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/aura0x/aura-server/pkg/aura/data/vouch"
)

type store struct {
	db *sqlx.DB
}

// New returns a new postgres vouch.Store
func New(db *sql.DB) vouch.Store {
	return &store{
		db: sqlx.NewDb(db, "pgx"),
	}
}

// Save implements vouch.Store.Save
func (s *store) Save(ctx context.Context, record *vouch.Record) error {
	model, err := toModel(record)
	if err != nil {
		return err
	}

	if err := model.dbSave(ctx, s.db); err != nil {
		return err
	}

	res := fromModel(model)
	res.CopyTo(record)

	return nil
}

// GetBySignature implements vouch.Store.GetBySignature
func (s *store) GetBySignature(ctx context.Context, signature string) (*vouch.Record, error) {
	model, err := dbGetBySignature(ctx, s.db, signature)
	if err != nil {
		return nil, err
	}
	return fromModel(model), nil
}

// GetByVoucher implements vouch.Store.GetByVoucher
func (s *store) GetByVoucher(ctx context.Context, voucher string, limit uint64) ([]*vouch.Record, error) {
	models, err := dbGetByVoucher(ctx, s.db, voucher, limit)
	if err != nil {
		return nil, err
	}

	res := make([]*vouch.Record, len(models))
	for i, model := range models {
		res[i] = fromModel(model)
	}
	return res, nil
}

// GetPointsByVoucher implements vouch.Store.GetPointsByVoucher
func (s *store) GetPointsByVoucher(ctx context.Context, voucher string) (uint64, error) {
	return dbGetPointsByVoucher(ctx, s.db, voucher)
}
