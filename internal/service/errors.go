package service

import (
	"errors"
	"fmt"

	"stallpick-be/internal/entity"

	"github.com/jackc/pgx/v5/pgconn"
)

// foreignKeyViolation is the SQLSTATE for a row referencing a missing
// session or stall.
const foreignKeyViolation = "23503"

// persistenceError wraps a store failure as ErrPersistenceFailed, keeping the
// postgres SQLSTATE when the driver reported one. A foreign key violation is
// the caller's fault and becomes ErrInvalidInput.
func persistenceError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == foreignKeyViolation {
			return fmt.Errorf("%s: %w (sqlstate %s): %w", op, entity.ErrInvalidInput, pgErr.Code, err)
		}
		return fmt.Errorf("%s: %w (sqlstate %s): %w", op, entity.ErrPersistenceFailed, pgErr.Code, err)
	}
	return fmt.Errorf("%s: %w: %w", op, entity.ErrPersistenceFailed, err)
}
