package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE classification. The repositories push their invariants into
// server-side constraints (the live-code unique index, the one-current and
// one-open-copy partial indexes, the category and document foreign keys) and
// translate the violation codes here into the domain taxonomy: 23505 becomes
// Conflict on the offending resource, 23503 becomes NotFound for the row the
// write referenced.

func pgErrCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsPgDuplicateError reports a unique_violation (23505).
func IsPgDuplicateError(err error) bool {
	return pgErrCode(err) == "23505"
}

// IsPgNoRowsError reports that a single-row query matched nothing.
func IsPgNoRowsError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsPgForeignKeyError reports a foreign_key_violation (23503).
func IsPgForeignKeyError(err error) bool {
	return pgErrCode(err) == "23503"
}
