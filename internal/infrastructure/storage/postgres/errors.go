package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"kontor/internal/core/apperror"
)

// Postgres error codes.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeSerializationFail   = "40001"
)

// MapError converts low-level pgx errors into domain errors. Unique
// constraints are the final backstop behind the engine's own duplicate
// checks, so a violation still surfaces as the matching domain error.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case codeUniqueViolation:
		switch {
		case strings.Contains(pgErr.ConstraintName, "transactions_sequence"):
			return apperror.NewBusinessRule(apperror.CodeDuplicateNumber,
				"Duplicate transaction number").WithCause(err)
		case strings.Contains(pgErr.ConstraintName, "accounts_code"):
			return apperror.NewBusinessRule(apperror.CodeDuplicateCode,
				"Duplicate account code").WithCause(err)
		case strings.Contains(pgErr.ConstraintName, "lots_sequence"):
			return apperror.NewConflict("duplicate lot number").WithCause(err)
		case strings.Contains(pgErr.ConstraintName, "journals_code"):
			return apperror.NewConflict("duplicate journal code").WithCause(err)
		case strings.Contains(pgErr.ConstraintName, "journals_closing"):
			return apperror.NewClosingJournalConflict(2).WithCause(err)
		}
		return apperror.NewConflict("unique constraint violated").WithCause(err)
	case codeForeignKeyViolation:
		// Restrict-on-delete: referenced ledger entities may only be
		// deactivated, never removed.
		return apperror.NewConflict("entity is referenced by the ledger").WithCause(err)
	case codeSerializationFail:
		return apperror.NewConflict("concurrent update, retry the operation").WithCause(err)
	}
	return err
}
