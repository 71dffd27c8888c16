package issuance

import (
	"context"
	"errors"

	"github.com/code-payments/code-nft-issuer/pkg/database/query"
)

var (
	ErrNotFound      = errors.New("issuance record not found")
	ErrAlreadyExists = errors.New("issuance record already exists")
	ErrFinalized     = errors.New("issuance record is committed")
)

type Store interface {
	// Put creates a new issuance record. ErrAlreadyExists is returned if the
	// mint already has one.
	Put(ctx context.Context, record *Record) error

	// Update updates the signature, state and failed step of an existing
	// record. Committed records cannot be updated.
	Update(ctx context.Context, record *Record) error

	// Get gets the issuance record for a mint
	Get(ctx context.Context, mint string) (*Record, error)

	// GetAllByCreator gets all issuance records for a creator
	GetAllByCreator(ctx context.Context, creator string, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*Record, error)

	// CountByState counts the number of issuance records in a given state
	CountByState(ctx context.Context, state State) (uint64, error)
}
