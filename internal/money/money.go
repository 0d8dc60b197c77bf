// AngelaMos | 2026
// money.go

package money

import (
	"math"
	"strconv"
	"strings"
)

// DefaultVATRatio converts TTC to HT at the standard 20% VAT rate.
const DefaultVATRatio = 1.0 / 1.2

// Amount is an HT/TTC pair. The HT side is always derived as
// round2(TTC x ratio) so the pair stays consistent to the cent.
type Amount struct {
	HT  float64 `json:"ht"`
	TTC float64 `json:"ttc"`
}

func FromTTC(ttc, vatRatio float64) Amount {
	return Amount{
		HT:  Round2(ttc * vatRatio),
		TTC: Round2(ttc),
	}
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ParseDecimal parses a monetary input tolerantly: comma or dot decimal
// separator, surrounding whitespace. Unparsable input resolves to 0 so
// pricing stays total; upstream forms are expected to validate.
func ParseDecimal(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ",", ".")

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}

	return v
}

// ValidRatio reports whether ht/ttc forms a usable VAT ratio.
func ValidRatio(ht, ttc float64) bool {
	if ttc == 0 {
		return false
	}
	ratio := ht / ttc
	return ratio > 0 && ratio <= 1
}

// InferVATRatio scans existing HT/TTC pairs for a usable ratio and falls
// back to the standard rate when none is found.
func InferVATRatio(pairs []Amount) float64 {
	for _, p := range pairs {
		if ValidRatio(p.HT, p.TTC) {
			return p.HT / p.TTC
		}
	}
	return DefaultVATRatio
}
