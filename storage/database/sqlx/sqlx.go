// Package sqlxrepos implements the core repositories on PostgreSQL via sqlx.
package sqlxrepos

import (
	"strconv"

	"github.com/lib/pq"
)

// uniqueViolation is the psql error code raised on unique constraint breaches.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == uniqueViolation
	}
	return false
}

func itoa(n int) string { return strconv.Itoa(n) }
