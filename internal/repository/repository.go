// Package repository provides data access interfaces and PostgreSQL
// implementations for saved papers, lists, the search cache and search history.
//
// # Thread Safety
//
// All repository implementations are safe for concurrent use by multiple goroutines.
// The underlying pgxpool handles connection pooling and synchronization.
//
// # Error Handling
//
// All methods return domain-specific errors from the domain package:
//
//   - domain.ErrNotFound: resource does not exist or belongs to another user
//   - domain.ErrAlreadyExists: unique constraint violation
//   - domain.ErrInvalidInput: invalid parameters provided
//
// # Transactions
//
// Use the DBTX interface to support both pool and transaction contexts.
// Pass the transaction from database.DB.WithTransaction for atomic operations:
//
//	err := db.WithTransaction(ctx, func(tx pgx.Tx) error {
//	    lists := repository.NewPgListRepository(tx)
//	    papers := repository.NewPgSavedPaperRepository(tx)
//	    ...
//	})
package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Tjibson/medicluster-summaries-sub000/internal/database"
	"github.com/Tjibson/medicluster-summaries-sub000/internal/domain"
)

// DBTX is the database interface supporting both pool and transaction contexts.
type DBTX = database.DBTX

// PostgreSQL error codes mapped to domain errors.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Filter pagination defaults and limits.
const (
	defaultFilterLimit = 100
	maxFilterLimit     = 1000
)

// applyPaginationDefaults normalizes limit and offset values for filter queries.
// It clamps limit to [1, maxFilterLimit] and ensures offset >= 0.
func applyPaginationDefaults(limit, offset *int) {
	if *limit <= 0 {
		*limit = defaultFilterLimit
	}
	if *limit > maxFilterLimit {
		*limit = maxFilterLimit
	}
	if *offset < 0 {
		*offset = 0
	}
}

// pgErrorCode returns the SQLSTATE of err, or "" if it is not a PgError.
func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// mapConstraintError converts unique and foreign key violations into domain
// errors. Other errors are returned unchanged.
func mapConstraintError(err error, entity, id, referenced, referencedID string) error {
	switch pgErrorCode(err) {
	case pgUniqueViolation:
		return domain.NewAlreadyExistsError(entity, id)
	case pgForeignKeyViolation:
		return domain.NewNotFoundError(referenced, referencedID)
	default:
		return err
	}
}
