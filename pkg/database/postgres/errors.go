package pg

import (
	"database/sql"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/pkg/errors"
)

// CheckNoRows maps sql.ErrNoRows to outErr
func CheckNoRows(inErr, outErr error) error {
	if errors.Is(inErr, sql.ErrNoRows) {
		return outErr
	}
	return inErr
}

// CheckUniqueViolation maps a unique constraint violation to outErr
func CheckUniqueViolation(inErr, outErr error) error {
	if IsUniqueViolation(inErr) {
		return outErr
	}
	return inErr
}

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
