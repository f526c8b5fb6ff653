package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgErrCodeCheckViolation    = "23514"
	pgErrCodeInvalidText       = "22P02"
	pgErrCodeDataException     = "22000"
	pgErrCodeUndefinedTable    = "42P01"
	pgErrCodeUndefinedFunction = "42883"
)

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// describe は運用時に原因が分かるよう PgError に補足を付けます
func describe(err error) error {
	switch pgErrorCode(err) {
	case pgErrCodeUndefinedTable:
		return fmt.Errorf("%w (run `ram-engine db init` to create the schema)", err)
	case pgErrCodeUndefinedFunction:
		return fmt.Errorf("%w (is the pgvector extension installed?)", err)
	case pgErrCodeDataException, pgErrCodeInvalidText:
		return fmt.Errorf("%w (embedding dimension must match the vector column)", err)
	case pgErrCodeCheckViolation:
		return fmt.Errorf("%w (row violates a table constraint)", err)
	default:
		return err
	}
}
