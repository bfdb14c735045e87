package repository

import (
	"errors"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/wishlist-service/internal/problem"
)

// translate maps a gorm failure onto a problem kind. entity names the
// missing record in NOT_FOUND details.
func translate(err error, entity, operation string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return problem.New(problem.KindNotFound, "%s not found", entity)
	case isUniqueViolation(err):
		return problem.Wrap(problem.KindConflict, err, operation)
	default:
		return problem.Wrap(problem.KindStoreUnavailable, err, operation)
	}
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation
	}
	// modernc.org/sqlite errors are not translated by the gorm dialector
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
