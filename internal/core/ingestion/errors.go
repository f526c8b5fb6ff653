package ingestion

import "errors"

var (
	// ErrValidation はリクエストの入力値が不正な場合のエラー
	ErrValidation = errors.New("validation error")

	// ErrStoreRead は直前のメッセージの読み取りに失敗した場合のエラー
	ErrStoreRead = errors.New("store read error")

	// ErrEmbedding は Embedding プロバイダの呼び出しに失敗した場合のエラー
	ErrEmbedding = errors.New("embedding error")

	// ErrStoreWrite はメッセージの挿入に失敗した場合のエラー
	ErrStoreWrite = errors.New("store write error")

	// ErrMessageNotFound は指定IDのメッセージが存在しない場合のエラー
	ErrMessageNotFound = errors.New("message not found")
)

func isTaxonomyError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrStoreRead) ||
		errors.Is(err, ErrEmbedding) ||
		errors.Is(err, ErrStoreWrite) ||
		errors.Is(err, ErrMessageNotFound)
}
