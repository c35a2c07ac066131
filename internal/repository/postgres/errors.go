package postgres

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/njprem/web-starter-api/internal/domain"
)

// uniqueFields maps constraint names from the migrations to the field they guard.
var uniqueFields = map[string]string{
	"users_email_live_key":    "email",
	"users_username_live_key": "username",
	"sessions_token_key":      "token",
}

func wrapDBError(err error, operation string) error {
	if err == nil {
		return nil
	}
	return oops.Code(domain.CodeDatabaseError).With("operation", operation).Wrap(err)
}

// translateWriteError turns constraint violations raised by a write into
// domain duplicate errors. Anything else is an infrastructure failure.
func translateWriteError(err error, entity, operation string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		field, ok := uniqueFields[pgErr.ConstraintName]
		if !ok {
			field = pgErr.ConstraintName
		}
		return domain.Duplicate(entity, field, nil)
	}
	return wrapDBError(err, operation)
}
