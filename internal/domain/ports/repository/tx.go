package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is an infra-defined transaction handle (pgx.Tx for Postgres). Repositories accept
// nil for the non-transactional path.
type Tx interface{}

var NoTX interface{}

// TransactionManager runs fn inside one transaction: every repository call made with the
// tx it receives commits together, or none does when fn returns an error.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
