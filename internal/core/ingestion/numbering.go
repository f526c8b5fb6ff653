package ingestion

import (
	"math"

	"github.com/samber/mo"
)

// MaxPositionNumber は部・章番号の上限（messages テーブルの INTEGER 列に収まる範囲）
const MaxPositionNumber = math.MaxInt32

// NextPosition は直前のメッセージ位置と新しい部の開始フラグから次の位置を決定する。
//
// 判定は以下の順で行う:
//  1. 直前の行が存在しない場合は (1, 1)
//  2. forceNewPart が true の場合は (前の部+1, 1)
//  3. 前の部が 0 の場合は「部が未確定」とみなして (1, 1)
//  4. それ以外は (前の部, 前の章+1)
//
// 副作用はなく、すべての入力に対して値を返す。
func NextPosition(previous mo.Option[Position], forceNewPart bool) Position {
	prev, ok := previous.Get()
	if !ok {
		return Position{Part: 1, Chapter: 1}
	}

	if forceNewPart {
		return Position{Part: prev.Part + 1, Chapter: 1}
	}

	// 部番号 0 は行が無い場合と同じ扱い
	if prev.Part == 0 {
		return Position{Part: 1, Chapter: 1}
	}

	return Position{Part: prev.Part, Chapter: prev.Chapter + 1}
}

// InRange は部・章番号が保存可能な範囲に収まっているかを返す
func (p Position) InRange() bool {
	return p.Part >= 0 && p.Part <= MaxPositionNumber &&
		p.Chapter >= 0 && p.Chapter <= MaxPositionNumber
}
