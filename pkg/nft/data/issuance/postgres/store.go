package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/code-payments/code-nft-issuer/pkg/database/query"
	"github.com/code-payments/code-nft-issuer/pkg/nft/data/issuance"
)

type store struct {
	db *sqlx.DB
}

// New returns a new postgres issuance.Store
func New(db *sql.DB) issuance.Store {
	return &store{
		db: sqlx.NewDb(db, "pgx"),
	}
}

// Put implements issuance.Store.Put
func (s *store) Put(ctx context.Context, record *issuance.Record) error {
	model, err := toModel(record)
	if err != nil {
		return err
	}

	if err := model.dbPut(ctx, s.db); err != nil {
		return err
	}

	fromModel(model).CopyTo(record)

	return nil
}

// Update implements issuance.Store.Update
func (s *store) Update(ctx context.Context, record *issuance.Record) error {
	model, err := toModel(record)
	if err != nil {
		return err
	}

	if err := model.dbUpdate(ctx, s.db); err != nil {
		return err
	}

	fromModel(model).CopyTo(record)

	return nil
}

// Get implements issuance.Store.Get
func (s *store) Get(ctx context.Context, mint string) (*issuance.Record, error) {
	model, err := dbGet(ctx, s.db, mint)
	if err != nil {
		return nil, err
	}

	return fromModel(model), nil
}

// GetAllByCreator implements issuance.Store.GetAllByCreator
func (s *store) GetAllByCreator(ctx context.Context, creator string, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*issuance.Record, error) {
	models, err := dbGetAllByCreator(ctx, s.db, creator, cursor, limit, direction)
	if err != nil {
		return nil, err
	}

	res := make([]*issuance.Record, len(models))
	for i, model := range models {
		res[i] = fromModel(model)
	}
	return res, nil
}

// CountByState implements issuance.Store.CountByState
func (s *store) CountByState(ctx context.Context, state issuance.State) (uint64, error) {
	return dbCountByState(ctx, s.db, state)
}
