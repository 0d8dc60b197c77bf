// AngelaMos | 2026
// money_test.go

package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDecimal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  float64
	}{
		{"plain integer", "300", 300},
		{"dot decimal", "40.50", 40.5},
		{"comma decimal", "40,50", 40.5},
		{"surrounding whitespace", "  120.00  ", 120},
		{"internal spaces", "1 250,75", 1250.75},
		{"empty string", "", 0},
		{"garbage", "abc", 0},
		{"mixed garbage", "12x3", 0},
		{"negative", "-15.5", -15.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, ParseDecimal(tt.input), 1e-9)
		})
	}
}

func TestRound2(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 291.67, Round2(291.6666666), 1e-9)
	assert.InDelta(t, 291.66, Round2(291.664), 1e-9)
	assert.InDelta(t, 0, Round2(0), 1e-9)
	assert.InDelta(t, -12.35, Round2(-12.345000001), 1e-9)
}

func TestFromTTC(t *testing.T) {
	t.Parallel()

	a := FromTTC(350, DefaultVATRatio)
	assert.InDelta(t, 350, a.TTC, 0.01)
	assert.InDelta(t, 291.67, a.HT, 0.01)

	zero := FromTTC(0, DefaultVATRatio)
	assert.InDelta(t, 0, zero.TTC, 1e-9)
	assert.InDelta(t, 0, zero.HT, 1e-9)
}

func TestValidRatio(t *testing.T) {
	t.Parallel()

	assert.True(t, ValidRatio(100, 120))
	assert.True(t, ValidRatio(120, 120))
	assert.False(t, ValidRatio(0, 120))
	assert.False(t, ValidRatio(100, 0))
	assert.False(t, ValidRatio(-100, 120))
	assert.False(t, ValidRatio(150, 120))
}

func TestInferVATRatio(t *testing.T) {
	t.Parallel()

	t.Run("first usable pair wins", func(t *testing.T) {
		t.Parallel()
		ratio := InferVATRatio([]Amount{
			{HT: 0, TTC: 0},
			{HT: 100, TTC: 110},
			{HT: 100, TTC: 120},
		})
		assert.InDelta(t, 100.0/110.0, ratio, 1e-9)
	})

	t.Run("falls back to standard rate", func(t *testing.T) {
		t.Parallel()
		ratio := InferVATRatio([]Amount{{HT: 0, TTC: 0}})
		assert.InDelta(t, DefaultVATRatio, ratio, 1e-9)
	})

	t.Run("empty pairs fall back", func(t *testing.T) {
		t.Parallel()
		assert.InDelta(t, DefaultVATRatio, InferVATRatio(nil), 1e-9)
	})
}
