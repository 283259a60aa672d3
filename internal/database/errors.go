package database

import (
	"database/sql"
	"errors"
	"fmt"

	"cafe-pos/internal/models"

	"github.com/lib/pq"
)

const (
	pqInsufficientPrivilege = "42501"
	pqUniqueViolation       = "23505"
)

// Classify maps driver errors onto the model sentinels, keeping the original in the chain.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %w", models.ErrNotFound, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pqInsufficientPrivilege:
			return fmt.Errorf("%w: %w", models.ErrPermissionDenied, err)
		case pqUniqueViolation:
			return fmt.Errorf("%w: %w", models.ErrDuplicateName, err)
		}
	}
	return err
}

// IsPermissionDenied reports whether err is an authorization failure from the database.
func IsPermissionDenied(err error) bool {
	return errors.Is(Classify(err), models.ErrPermissionDenied)
}
