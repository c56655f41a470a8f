package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/aura0x/aura-server/pkg/aura/data/vouch"
	pgutil "github.com/aura0x/aura-server/pkg/database/postgres"
)

const (
	tableName = "aura__core_vouch"
)

type model struct {
	Id sql.NullInt64 `db:"id"`

	Signature string `db:"signature"`

	Voucher   string `db:"voucher"`
	Recipient string `db:"recipient"`

	TotalQuarks     uint64 `db:"total_quarks"`
	RecipientQuarks uint64 `db:"recipient_quarks"`
	PlatformQuarks  uint64 `db:"platform_quarks"`

	Points uint64 `db:"points"`

	Slot uint64 `db:"slot"`

	CreatedAt time.Time `db:"created_at"`
}

func toModel(obj *vouch.Record) (*model, error) {
	if err := obj.Validate(); err != nil {
		return nil, err
	}

	if obj.CreatedAt.IsZero() {
		obj.CreatedAt = time.Now().UTC()
	}

	return &model{
		Signature:       obj.Signature,
		Voucher:         obj.Voucher,
		Recipient:       obj.Recipient,
		TotalQuarks:     obj.TotalQuarks,
		RecipientQuarks: obj.RecipientQuarks,
		PlatformQuarks:  obj.PlatformQuarks,
		Points:          obj.Points,
		Slot:            obj.Slot,
		CreatedAt:       obj.CreatedAt,
	}, nil
}

func fromModel(obj *model) *vouch.Record {
	return &vouch.Record{
		Id:              uint64(obj.Id.Int64),
		Signature:       obj.Signature,
		Voucher:         obj.Voucher,
		Recipient:       obj.Recipient,
		TotalQuarks:     obj.TotalQuarks,
		RecipientQuarks: obj.RecipientQuarks,
		PlatformQuarks:  obj.PlatformQuarks,
		Points:          obj.Points,
		Slot:            obj.Slot,
		CreatedAt:       obj.CreatedAt,
	}
}

func (m *model) dbSave(ctx context.Context, db *sqlx.DB) error {
	return pgutil.ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		query := `INSERT INTO ` + tableName + `
			(signature, voucher, recipient, total_quarks, recipient_quarks, platform_quarks, points, slot, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id, signature, voucher, recipient, total_quarks, recipient_quarks, platform_quarks, points, slot, created_at`

		err := tx.QueryRowxContext(
			ctx,
			query,
			m.Signature,
			m.Voucher,
			m.Recipient,
			m.TotalQuarks,
			m.RecipientQuarks,
			m.PlatformQuarks,
			m.Points,
			m.Slot,
			m.CreatedAt,
		).StructScan(m)

		return pgutil.CheckUniqueViolation(err, vouch.ErrAlreadyExists)
	})
}

func dbGetBySignature(ctx context.Context, db *sqlx.DB, signature string) (*model, error) {
	res := &model{}

	query := `SELECT id, signature, voucher, recipient, total_quarks, recipient_quarks, platform_quarks, points, slot, created_at FROM ` + tableName + `
			WHERE signature = $1
			LIMIT 1`

	err := db.GetContext(
		ctx,
		res,
		query,
		signature,
	)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, vouch.ErrNotFound)
	}
	return res, nil
}

func dbGetByVoucher(ctx context.Context, db *sqlx.DB, voucher string, limit uint64) ([]*model, error) {
	res := []*model{}

	query := `SELECT id, signature, voucher, recipient, total_quarks, recipient_quarks, platform_quarks, points, slot, created_at FROM ` + tableName + `
			WHERE voucher = $1
			ORDER BY id DESC
			LIMIT $2`

	err := db.SelectContext(
		ctx,
		&res,
		query,
		voucher,
		limit,
	)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func dbGetPointsByVoucher(ctx context.Context, db *sqlx.DB, voucher string) (uint64, error) {
	var res sql.NullInt64

	query := `SELECT COALESCE(SUM(points), 0) FROM ` + tableName + `
			WHERE voucher = $1`

	err := db.GetContext(
		ctx,
		&res,
		query,
		voucher,
	)
	if err != nil {
		return 0, err
	}
	return uint64(res.Int64), nil
}
