package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestAdjustScore(t *testing.T) {
	cases := map[int]int{
		80:  100,
		72:  90,
		62:  78,
		66:  56,
		10:  0,
		100: 120,
		0:   -10,
		75:  95,
		74:  92,
		70:  88,
		69:  59,
		65:  55,
		64:  80,
		60:  76,
		59:  49,
		-3:  -13,
		140: 160,
	}
	for raw, want := range cases {
		assert.Equal(t, want, AdjustScore(raw), "AdjustScore(%d)", raw)
	}
}

func TestProperty_AdjustScore_Bands(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		raw := rapid.IntRange(-50, 200).Draw(rt, "raw")
		delta := AdjustScore(raw) - raw
		switch {
		case raw >= 75:
			assert.Equal(rt, 20, delta)
		case raw >= 70:
			assert.Equal(rt, 18, delta)
		case raw >= 60 && raw < 65:
			assert.Equal(rt, 16, delta)
		default:
			assert.Equal(rt, -10, delta)
		}
		assert.Equal(rt, AdjustScore(raw), AdjustScore(raw))
	})
}
