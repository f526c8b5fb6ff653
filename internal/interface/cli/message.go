package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"

	"github.com/jinford/ram-engine/internal/core/ingestion"
	"github.com/jinford/ram-engine/internal/core/search"
)

// previewRunes は一覧表示時の本文の最大文字数
const previewRunes = 48

// MessageEmbedSaveAction はテキストを Embedding 化して保存するコマンドのアクション
func MessageEmbedSaveAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")

	text, err := readText(cmd.String("text"), cmd.String("file"))
	if err != nil {
		return err
	}

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	result, err := appCtx.Container.IngestionService.EmbedAndSave(ctx, ingestion.EmbedAndSaveParams{
		Text:    text,
		NewPart: cmd.Bool("new-part"),
	})
	if err != nil {
		return fmt.Errorf("メッセージの保存に失敗: %w", err)
	}

	renderSaveResult(os.Stdout, result)
	return nil
}

// MessageLatestAction は最新のメッセージを表示するコマンドのアクション
func MessageLatestAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	latest, err := appCtx.Container.IngestionService.Latest(ctx)
	if err != nil {
		return fmt.Errorf("最新メッセージの取得に失敗: %w", err)
	}

	msg, ok := latest.Get()
	if !ok {
		fmt.Fprintln(os.Stdout, "メッセージはまだ保存されていません")
		return nil
	}

	renderMessage(os.Stdout, msg)
	return nil
}

// MessageListAction は新しい順にメッセージ一覧を表示するコマンドのアクション
func MessageListAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	messages, err := appCtx.Container.IngestionService.ListRecent(ctx, int(cmd.Int("limit")))
	if err != nil {
		return fmt.Errorf("メッセージ一覧の取得に失敗: %w", err)
	}

	renderMessageTable(os.Stdout, messages)
	return nil
}

// MessageShowAction は ID を指定してメッセージを表示するコマンドのアクション
func MessageShowAction(ctx context.Context, cmd *cli.Command) error {
	id, err := uuid.Parse(cmd.String("id"))
	if err != nil {
		return fmt.Errorf("不正なメッセージIDです: %w", err)
	}

	appCtx, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	msg, err := appCtx.Container.IngestionService.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("メッセージの取得に失敗: %w", err)
	}

	renderMessage(os.Stdout, msg)
	return nil
}

// MessageSearchAction はクエリに類似するメッセージを表示するコマンドのアクション
func MessageSearchAction(ctx context.Context, cmd *cli.Command) error {
	query := cmd.String("query")

	appCtx, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	results, err := appCtx.Container.SearchService.Search(ctx, search.SearchParams{
		Query: query,
		Limit: int(cmd.Int("limit")),
	})
	if err != nil {
		return fmt.Errorf("メッセージの検索に失敗: %w", err)
	}

	renderSearchResults(os.Stdout, results)
	return nil
}

// readText は --text と --file のどちらか一方から本文を取得する
func readText(text, file string) (string, error) {
	switch {
	case text != "" && file != "":
		return "", fmt.Errorf("--text と --file は同時に指定できません")
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("ファイルの読み込みに失敗: %w", err)
		}
		return string(data), nil
	case text != "":
		return text, nil
	default:
		return "", fmt.Errorf("--text または --file を指定してください")
	}
}

func renderSaveResult(w io.Writer, result *ingestion.SaveResult) {
	table := tablewriter.NewWriter(w)
	table.Header("ID", "部", "章")
	table.Append(result.ID.String(), fmt.Sprintf("%d", result.Part), fmt.Sprintf("%d", result.Chapter))
	table.Render()
}

func renderMessage(w io.Writer, msg *ingestion.Message) {
	table := tablewriter.NewWriter(w)
	table.Header("項目", "値")
	table.Append("ID", msg.ID.String())
	table.Append("部", fmt.Sprintf("%d", msg.Part))
	table.Append("章", fmt.Sprintf("%d", msg.Chapter))
	table.Append("作成日時", msg.CreatedAt.Format(time.RFC3339))
	if len(msg.Embedding) > 0 {
		table.Append("Embedding次元", fmt.Sprintf("%d", len(msg.Embedding)))
	}
	table.Render()

	fmt.Fprintf(w, "\n%s\n", msg.Text)
}

func renderMessageTable(w io.Writer, messages []*ingestion.Message) {
	if len(messages) == 0 {
		fmt.Fprintln(w, "メッセージはまだ保存されていません")
		return
	}

	table := tablewriter.NewWriter(w)
	table.Header("ID", "部", "章", "作成日時", "本文")
	for _, msg := range messages {
		table.Append(
			msg.ID.String(),
			fmt.Sprintf("%d", msg.Part),
			fmt.Sprintf("%d", msg.Chapter),
			msg.CreatedAt.Format("2006-01-02 15:04:05"),
			preview(msg.Text),
		)
	}
	table.Render()
}

func renderSearchResults(w io.Writer, results []*search.SearchResult) {
	if len(results) == 0 {
		fmt.Fprintln(w, "該当するメッセージはありません")
		return
	}

	table := tablewriter.NewWriter(w)
	table.Header("スコア", "ID", "部", "章", "本文")
	for _, res := range results {
		table.Append(
			fmt.Sprintf("%.4f", res.Score),
			res.MessageID.String(),
			fmt.Sprintf("%d", res.Part),
			fmt.Sprintf("%d", res.Chapter),
			preview(res.Text),
		)
	}
	table.Render()
}

// preview は本文を1行に畳み、previewRunes 文字で切り詰める
func preview(text string) string {
	flat := strings.Join(strings.Fields(text), " ")
	runes := []rune(flat)
	if len(runes) <= previewRunes {
		return flat
	}
	return string(runes[:previewRunes]) + "…"
}
