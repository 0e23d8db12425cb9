package postgres

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// getDB returns tx when the caller runs inside a transaction.
func getDB(db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return db
}

// handleDBError is a package-level helper for handling database errors
func handleDBError(err error, operation string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s failed: %w", operation, err)
}

// applyPaginationAndSorting maps an API sort key through allowed, so only known
// SQL identifiers reach ORDER BY.
func applyPaginationAndSorting(query *gorm.DB, allowed map[string]string, defaultColumn string, limit, offset int, sortBy, sortOrder string) *gorm.DB {
	column, ok := allowed[sortBy]
	if !ok {
		column = defaultColumn
	}

	order := "DESC"
	if strings.EqualFold(sortOrder, "asc") {
		order = "ASC"
	}

	query = query.Order(fmt.Sprintf("%s %s", column, order))

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	return query
}

// likePattern escapes LIKE wildcards in s and wraps it for a substring match.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
