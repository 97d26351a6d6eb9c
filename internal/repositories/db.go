package repositories

import (
	"context"
	"errors"
	"fmt"

	"heartgram/internal/common"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of pgxpool.Pool the repositories need.
// pgxmock.PgxPoolIface satisfies it as well.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const uniqueViolation = "23505"

// ErrCodeTaken marks a conflict on the event code constraint so callers can regenerate
var ErrCodeTaken = errors.New("event code already taken")

var constraintMessages = map[string]string{
	"operators_email_key":          "email already registered",
	"guests_email_key":             "email already registered",
	"events_owner_operator_id_key": "operator already owns an event",
	"events_event_code_key":        "event code already taken",
}

// mapError translates driver errors into the domain taxonomy
func mapError(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s", common.ErrNotFound, what)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		if pgErr.ConstraintName == "events_event_code_key" {
			return fmt.Errorf("%w: %w", common.ErrConflict, ErrCodeTaken)
		}
		msg, ok := constraintMessages[pgErr.ConstraintName]
		if !ok {
			msg = what + " already exists"
		}
		return fmt.Errorf("%w: %s", common.ErrConflict, msg)
	}

	return fmt.Errorf("%w: %s: %v", common.ErrInternal, what, err)
}

// requireAffected turns a zero-row update into NotFound
func requireAffected(tag pgconn.CommandTag, what string) error {
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", common.ErrNotFound, what)
	}
	return nil
}
