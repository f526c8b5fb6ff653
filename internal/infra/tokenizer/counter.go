package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"github.com/jinford/ram-engine/internal/core/ingestion"
)

// Counter は tiktoken を利用した TokenCounter 実装
type Counter struct {
	encoding *tiktoken.Tiktoken
}

// NewCounter はモデル名に対応するエンコーディングで Counter を作成する。
// 未知のモデルの場合は cl100k_base を使用する。
func NewCounter(model string) (*Counter, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("failed to load tiktoken encoding: %w", err)
		}
	}
	return &Counter{encoding: enc}, nil
}

// CountTokens はテキストのトークン数を返す
func (c *Counter) CountTokens(text string) int {
	if c == nil || c.encoding == nil {
		return 0
	}
	return len(c.encoding.Encode(text, nil, nil))
}

// インターフェース実装の確認
var _ ingestion.TokenCounter = (*Counter)(nil)
