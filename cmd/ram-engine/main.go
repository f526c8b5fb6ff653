package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	appcli "github.com/jinford/ram-engine/internal/interface/cli"
	"github.com/jinford/ram-engine/internal/platform/config"
	"github.com/jinford/ram-engine/internal/platform/logger"
)

func envFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "env",
		Usage: "環境変数ファイルパス",
		Value: config.DefaultEnvFile,
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 設定読み込み前のログ出力用。各コマンドで LOG_LEVEL / LOG_FORMAT に従って再設定される
	logger.New(logger.DefaultConfig())

	app := &cli.Command{
		Name:  "ram-engine",
		Usage: "テキストを Embedding 化し部・章番号付きで保存するメッセージ記憶エンジン",
		Commands: []*cli.Command{
			{
				Name:  "server",
				Usage: "HTTPサーバコマンド",
				Commands: []*cli.Command{
					{
						Name:  "start",
						Usage: "HTTP API サーバを起動",
						Flags: []cli.Flag{
							envFlag(),
							&cli.IntFlag{
								Name:  "port",
								Usage: "待ち受けポート（省略時は PORT 環境変数）",
							},
						},
						Action: appcli.ServerStartAction,
					},
				},
			},
			{
				Name:  "db",
				Usage: "データベース管理コマンド",
				Commands: []*cli.Command{
					{
						Name:   "init",
						Usage:  "messages テーブルを作成",
						Flags:  []cli.Flag{envFlag()},
						Action: appcli.DBInitAction,
					},
				},
			},
			{
				Name:  "message",
				Usage: "メッセージ管理コマンド",
				Commands: []*cli.Command{
					{
						Name:  "embed-save",
						Usage: "テキストを Embedding 化して保存",
						Flags: []cli.Flag{
							envFlag(),
							&cli.StringFlag{
								Name:  "text",
								Usage: "保存するテキスト",
							},
							&cli.StringFlag{
								Name:  "file",
								Usage: "保存するテキストファイルのパス",
							},
							&cli.BoolFlag{
								Name:  "new-part",
								Usage: "新しい部を開始する",
							},
						},
						Action: appcli.MessageEmbedSaveAction,
					},
					{
						Name:   "latest",
						Usage:  "最新のメッセージを表示",
						Flags:  []cli.Flag{envFlag()},
						Action: appcli.MessageLatestAction,
					},
					{
						Name:  "list",
						Usage: "メッセージ一覧を表示",
						Flags: []cli.Flag{
							envFlag(),
							&cli.IntFlag{
								Name:  "limit",
								Usage: "表示件数",
								Value: 20,
							},
						},
						Action: appcli.MessageListAction,
					},
					{
						Name:  "show",
						Usage: "メッセージ詳細を表示",
						Flags: []cli.Flag{
							envFlag(),
							&cli.StringFlag{
								Name:     "id",
								Usage:    "メッセージID",
								Required: true,
							},
						},
						Action: appcli.MessageShowAction,
					},
					{
						Name:  "search",
						Usage: "クエリに類似するメッセージを検索",
						Flags: []cli.Flag{
							envFlag(),
							&cli.StringFlag{
								Name:     "query",
								Usage:    "検索クエリ",
								Required: true,
							},
							&cli.IntFlag{
								Name:  "limit",
								Usage: "表示件数",
								Value: 10,
							},
						},
						Action: appcli.MessageSearchAction,
					},
				},
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		slog.Error("コマンドの実行に失敗しました", "error", err)
		os.Exit(1)
	}
}
