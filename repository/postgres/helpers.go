package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var errMissingTenant = errors.New("tenant id is required")

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// invalid_text_representation: an id that is not a well-formed uuid can
// never match a row.
const pgInvalidTextRepresentation = "22P02"

func isInvalidInput(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgInvalidTextRepresentation
	}
	return false
}
