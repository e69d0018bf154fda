package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func IsUniqueViolation(err error) bool {
	return pgCode(err) == "23505"
}

// IsInvalidText reports a value postgres could not parse, e.g. a non-UUID id.
func IsInvalidText(err error) bool {
	return pgCode(err) == "22P02"
}
