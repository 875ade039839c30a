// Package repository provides data access layer implementations for the application.
package repository

import (
	"errors"

	"kizuna/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// isUniqueViolation reports whether err is a unique-constraint violation.
// GORM translates these to ErrDuplicatedKey when TranslateError is enabled;
// the pgconn check covers raw postgres errors that bypass translation.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// translateWriteError maps storage errors from inserts into AppErrors.
// Unique-constraint races surface as CONFLICT so callers can re-fetch the
// surviving row instead of failing the request.
func translateWriteError(err error, conflictMsg string) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return models.NewConflictError(conflictMsg)
	}
	return models.NewInternalError(err)
}
