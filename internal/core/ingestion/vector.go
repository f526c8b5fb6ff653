package ingestion

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// vectorLiteralPrecision はベクトルリテラルの小数点以下の桁数
const vectorLiteralPrecision = 6

// Vector は Embedding ベクトル
type Vector []float64

// Literal は pgvector 列に渡すリテラル表現 "[0.123456,-0.500000]" を返す
func (v Vector) Literal() string {
	var b strings.Builder
	b.Grow(len(v)*10 + 2)
	b.WriteByte('[')
	for i, x := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(x, 'f', vectorLiteralPrecision, 64))
	}
	b.WriteByte(']')
	return b.String()
}

// Validate は次元数と各要素が有限値であることを検証する
func (v Vector) Validate(dimension int) error {
	if len(v) != dimension {
		return fmt.Errorf("embedding must have exactly %d values, got %d", dimension, len(v))
	}
	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("embedding[%d] is not a finite number", i)
		}
	}
	return nil
}
