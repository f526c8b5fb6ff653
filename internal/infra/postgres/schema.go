package postgres

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jinford/ram-engine/internal/infra/postgres/sqlc"
)

//go:embed schema.sql
var schemaSQL string

// Schema は messages テーブルの DDL を返します
func Schema() string {
	return schemaSQL
}

// ApplySchema は DDL を実行します（冪等）
func ApplySchema(ctx context.Context, db sqlc.DBTX) error {
	if _, err := db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
