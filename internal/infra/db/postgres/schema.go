package postgres

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
)

//go:embed schema/init.sql
var schemaSQL string

// Schema returns the DDL the repositories in this package expect.
func Schema() string { return schemaSQL }

// ApplySchema runs the idempotent DDL against pool.
func ApplySchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
