package database

import (
	"github.com/pashagolub/pgxmock/v4"
)

// NewMockPool returns a pgx mock that satisfies DBTX, with query matching
// by regular expression.
func NewMockPool() (pgxmock.PgxPoolIface, error) {
	return pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
}
