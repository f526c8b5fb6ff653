package ingestion

import (
	"testing"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
)

func TestNextPosition(t *testing.T) {
	tests := []struct {
		name         string
		previous     mo.Option[Position]
		forceNewPart bool
		want         Position
	}{
		{
			name:     "no previous row starts at 1-1",
			previous: mo.None[Position](),
			want:     Position{Part: 1, Chapter: 1},
		},
		{
			name:         "no previous row ignores new part flag",
			previous:     mo.None[Position](),
			forceNewPart: true,
			want:         Position{Part: 1, Chapter: 1},
		},
		{
			name:     "continues chapter within part",
			previous: mo.Some(Position{Part: 3, Chapter: 2}),
			want:     Position{Part: 3, Chapter: 3},
		},
		{
			name:         "new part resets chapter",
			previous:     mo.Some(Position{Part: 3, Chapter: 2}),
			forceNewPart: true,
			want:         Position{Part: 4, Chapter: 1},
		},
		{
			name:     "part zero is treated as no previous row",
			previous: mo.Some(Position{Part: 0, Chapter: 7}),
			want:     Position{Part: 1, Chapter: 1},
		},
		{
			name:         "part zero with new part flag",
			previous:     mo.Some(Position{Part: 0, Chapter: 7}),
			forceNewPart: true,
			want:         Position{Part: 1, Chapter: 1},
		},
		{
			name:     "chapter zero continues to 1",
			previous: mo.Some(Position{Part: 2, Chapter: 0}),
			want:     Position{Part: 2, Chapter: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextPosition(tt.previous, tt.forceNewPart))
		})
	}
}

func TestNextPosition_Properties(t *testing.T) {
	for p := 0; p <= 5; p++ {
		for c := 0; c <= 5; c++ {
			prev := mo.Some(Position{Part: p, Chapter: c})

			for _, force := range []bool{false, true} {
				first := NextPosition(prev, force)
				second := NextPosition(prev, force)
				assert.Equal(t, first, second, "must be deterministic for (%d,%d,%v)", p, c, force)
				assert.GreaterOrEqual(t, first.Part, 1)
				assert.GreaterOrEqual(t, first.Chapter, 1)
			}

			if p >= 1 {
				assert.Equal(t, Position{Part: p + 1, Chapter: 1}, NextPosition(prev, true))
				assert.Equal(t, Position{Part: p, Chapter: c + 1}, NextPosition(prev, false))
			} else {
				assert.Equal(t, Position{Part: 1, Chapter: 1}, NextPosition(prev, false))
			}
		}
	}
}
