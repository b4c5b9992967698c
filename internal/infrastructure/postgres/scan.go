// Package postgres implements the lending repository ports on PostgreSQL
// through pgx. Every repository is bound to a pkg/postgres.Querier, so the
// same code runs against the pool or inside a unit-of-work transaction.
package postgres

import (
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/kuwago/lending/internal/domain/apperr"
	pkgpostgres "github.com/kuwago/lending/pkg/postgres"
)

type scannable interface {
	Scan(dest ...any) error
}

// mapFindError turns pgx.ErrNoRows into a NotFound error and wraps the rest.
func mapFindError(err error, what, id string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound("%s %s not found", what, id)
	}
	return fmt.Errorf("scan %s: %w", what, err)
}

// mapInsertError turns unique violations into a Conflict error.
func mapInsertError(err error, what string) error {
	if pkgpostgres.IsUniqueViolation(err, "") {
		return apperr.Wrap(apperr.KindConflict, err, "%s already exists", what)
	}
	return fmt.Errorf("insert %s: %w", what, err)
}

// nullableTime maps a nil pointer to SQL NULL and normalizes to UTC.
func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
