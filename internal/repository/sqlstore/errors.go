package sqlstore

import (
	"errors"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/findsboard/internal/apperror"
)

// Postgres SQLSTATE codes for integrity constraint violations (class 23).
const (
	pqNotNullViolation    = "23502"
	pqForeignKeyViolation = "23503"
	pqUniqueViolation     = "23505"
	pqCheckViolation      = "23514"
)

// classify converts a driver error that reports a broken constraint into an
// apperror.Constraint carrying the kind and the driver's description. Any
// other error is returned unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return classifySQLite(sqliteErr)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return classifyPostgres(pqErr)
	}

	return err
}

func classifySQLite(err *sqlite.Error) error {
	code := err.Code()
	switch code {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return apperror.Constraint(apperror.ConstraintUnique, err.Error())
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return apperror.Constraint(apperror.ConstraintForeignKey, err.Error())
	case sqlite3.SQLITE_CONSTRAINT_NOTNULL:
		return apperror.Constraint(apperror.ConstraintNotNull, err.Error())
	case sqlite3.SQLITE_CONSTRAINT_CHECK:
		return apperror.Constraint(apperror.ConstraintCheck, err.Error())
	}
	// Primary result code in the low byte. Without extended codes the
	// message still names the constraint.
	if code&0xff == sqlite3.SQLITE_CONSTRAINT {
		msg := err.Error()
		for prefix, kind := range sqliteConstraintMessages {
			if strings.Contains(msg, prefix) {
				return apperror.Constraint(kind, msg)
			}
		}
		return apperror.Constraint(apperror.ConstraintOther, msg)
	}
	return err
}

var sqliteConstraintMessages = map[string]apperror.ConstraintKind{
	"UNIQUE constraint failed":      apperror.ConstraintUnique,
	"FOREIGN KEY constraint failed": apperror.ConstraintForeignKey,
	"NOT NULL constraint failed":    apperror.ConstraintNotNull,
	"CHECK constraint failed":       apperror.ConstraintCheck,
}

func classifyPostgres(err *pq.Error) error {
	detail := err.Message
	if err.Constraint != "" {
		detail = err.Table + "." + err.Constraint + ": " + err.Message
	}

	switch err.Code {
	case pqUniqueViolation:
		return apperror.Constraint(apperror.ConstraintUnique, detail)
	case pqForeignKeyViolation:
		return apperror.Constraint(apperror.ConstraintForeignKey, detail)
	case pqNotNullViolation:
		return apperror.Constraint(apperror.ConstraintNotNull, detail)
	case pqCheckViolation:
		return apperror.Constraint(apperror.ConstraintCheck, detail)
	}
	if err.Code.Class() == "23" {
		return apperror.Constraint(apperror.ConstraintOther, detail)
	}
	return err
}
