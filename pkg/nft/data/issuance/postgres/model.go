package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	pgutil "github.com/code-payments/code-nft-issuer/pkg/database/postgres"
	q "github.com/code-payments/code-nft-issuer/pkg/database/query"
	"github.com/code-payments/code-nft-issuer/pkg/nft/data/issuance"
	"github.com/code-payments/code-nft-issuer/pkg/pointer"
)

const (
	tableName = "nftissuer__core_issuance"

	allColumns = `id, mint, creator, token_account, metadata, master_edition, name, symbol, uri, signature, state, failed_step, created_at`
)

type model struct {
	Id sql.NullInt64 `db:"id"`

	Mint          string `db:"mint"`
	Creator       string `db:"creator"`
	TokenAccount  string `db:"token_account"`
	Metadata      string `db:"metadata"`
	MasterEdition string `db:"master_edition"`

	Name   string `db:"name"`
	Symbol string `db:"symbol"`
	URI    string `db:"uri"`

	Signature sql.NullString `db:"signature"`

	State      uint `db:"state"`
	FailedStep uint `db:"failed_step"`

	CreatedAt time.Time `db:"created_at"`
}

func toModel(obj *issuance.Record) (*model, error) {
	if err := obj.Validate(); err != nil {
		return nil, err
	}

	var signature sql.NullString
	if obj.Signature != nil {
		signature.Valid = true
		signature.String = *obj.Signature
	}

	return &model{
		Mint:          obj.Mint,
		Creator:       obj.Creator,
		TokenAccount:  obj.TokenAccount,
		Metadata:      obj.Metadata,
		MasterEdition: obj.MasterEdition,

		Name:   obj.Name,
		Symbol: obj.Symbol,
		URI:    obj.URI,

		Signature: signature,

		State:      uint(obj.State),
		FailedStep: uint(obj.FailedStep),

		CreatedAt: obj.CreatedAt,
	}, nil
}

func fromModel(obj *model) *issuance.Record {
	record := &issuance.Record{
		Id: uint64(obj.Id.Int64),

		Mint:          obj.Mint,
		Creator:       obj.Creator,
		TokenAccount:  obj.TokenAccount,
		Metadata:      obj.Metadata,
		MasterEdition: obj.MasterEdition,

		Name:   obj.Name,
		Symbol: obj.Symbol,
		URI:    obj.URI,

		State:      issuance.State(obj.State),
		FailedStep: issuance.Step(obj.FailedStep),

		CreatedAt: obj.CreatedAt,
	}

	record.Signature = pointer.StringIfValid(obj.Signature.Valid, obj.Signature.String)

	return record
}

func (m *model) dbPut(ctx context.Context, db *sqlx.DB) error {
	return pgutil.ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		query := `INSERT INTO ` + tableName + `
			(mint, creator, token_account, metadata, master_edition, name, symbol, uri, signature, state, failed_step, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING ` + allColumns

		if m.CreatedAt.IsZero() {
			m.CreatedAt = time.Now()
		}

		err := tx.QueryRowxContext(
			ctx,
			query,
			m.Mint,
			m.Creator,
			m.TokenAccount,
			m.Metadata,
			m.MasterEdition,
			m.Name,
			m.Symbol,
			m.URI,
			m.Signature,
			m.State,
			m.FailedStep,
			m.CreatedAt.UTC(),
		).StructScan(m)

		return pgutil.CheckUniqueViolation(err, issuance.ErrAlreadyExists)
	})
}

func (m *model) dbUpdate(ctx context.Context, db *sqlx.DB) error {
	return pgutil.ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		var state uint
		err := tx.GetContext(ctx, &state, `SELECT state FROM `+tableName+` WHERE mint = $1 FOR UPDATE`, m.Mint)
		if err != nil {
			return pgutil.CheckNoRows(err, issuance.ErrNotFound)
		}
		if issuance.State(state) == issuance.StateCommitted {
			return issuance.ErrFinalized
		}

		query := `UPDATE ` + tableName + `
			SET signature = $2, state = $3, failed_step = $4
			WHERE mint = $1
			RETURNING ` + allColumns

		return tx.QueryRowxContext(
			ctx,
			query,
			m.Mint,
			m.Signature,
			m.State,
			m.FailedStep,
		).StructScan(m)
	})
}

func dbGet(ctx context.Context, db *sqlx.DB, mint string) (*model, error) {
	res := &model{}

	query := `SELECT ` + allColumns + `
		FROM ` + tableName + `
		WHERE mint = $1
		LIMIT 1`

	err := db.GetContext(ctx, res, query, mint)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, issuance.ErrNotFound)
	}
	return res, nil
}

func dbGetAllByCreator(ctx context.Context, db *sqlx.DB, creator string, cursor q.Cursor, limit uint64, direction q.Ordering) ([]*model, error) {
	res := []*model{}

	query := `SELECT ` + allColumns + `
		FROM ` + tableName + `
		WHERE (creator = $1)
	`

	opts := []interface{}{creator}
	query, opts = q.PaginateQuery(query, opts, cursor, limit, direction)

	err := db.SelectContext(ctx, &res, query, opts...)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, issuance.ErrNotFound)
	}

	if len(res) == 0 {
		return nil, issuance.ErrNotFound
	}
	return res, nil
}

func dbCountByState(ctx context.Context, db *sqlx.DB, state issuance.State) (uint64, error) {
	var res uint64

	query := `SELECT COUNT(*) FROM ` + tableName + `
		WHERE state = $1
	`

	err := db.GetContext(ctx, &res, query, state)
	if err != nil {
		return 0, err
	}

	return res, nil
}
