package postgres

import (
	"errors"

	"github.com/lib/pq"
)

const pqUndefinedTable = "42P01"

// IsUndefinedTable checks if an error is a PostgreSQL "relation does not exist" error
func IsUndefinedTable(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return string(pqErr.Code) == pqUndefinedTable
}
