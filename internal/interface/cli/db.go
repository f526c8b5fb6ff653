package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/jinford/ram-engine/internal/infra/postgres"
)

// DBInitAction は messages テーブルを作成するコマンドのアクション
func DBInitAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	appCtx.Logger().Info("スキーマを適用します")
	if err := postgres.ApplySchema(ctx, appCtx.Container.Database().Pool); err != nil {
		return fmt.Errorf("スキーマの適用に失敗: %w", err)
	}
	appCtx.Logger().Info("スキーマを適用しました")

	return nil
}
