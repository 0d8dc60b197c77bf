// AngelaMos | 2026
// engine_test.go

package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/atelierloc/backoffice/internal/money"
)

func day(d int) time.Time {
	return time.Date(2026, time.June, d, 10, 0, 0, 0, time.UTC)
}

func ptr(v float64) *float64 {
	return &v
}

func TestDurationDays(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  int
	}{
		{"exact two days", day(1), day(3), 2},
		{"partial day rounds up", day(1), day(2).Add(6 * time.Hour), 2},
		{"one hour is one day", day(1), day(1).Add(time.Hour), 1},
		{"zero window", day(1), day(1), 0},
		{"end before start", day(3), day(1), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, DurationDays(tt.start, tt.end))
		})
	}
}

func TestRecompute_PackageMode(t *testing.T) {
	t.Parallel()

	terms := Terms{
		PackagePriceTTC: ptr(300),
		Start:           day(1),
		End:             day(3),
		Items:           []Item{{PricePerDayTTC: 40, PriceTTC: 500}},
		Addons: []Addon{
			{PriceTTC: 50, IncludedInPackage: false},
			{PriceTTC: 25, IncludedInPackage: true},
		},
	}

	s := Recompute(terms, Snapshot{}, money.DefaultVATRatio)

	// included addon is bundled, only the extra one counts
	assert.InDelta(t, 350, s.Total.TTC, 0.01)
	assert.InDelta(t, 291.67, s.Total.HT, 0.01)
	assert.InDelta(t, 350, s.Account.TTC, 0.01)
	assert.InDelta(t, 175, s.AccountPaid.TTC, 0.01)
	assert.InDelta(t, 500, s.Caution.TTC, 0.01)
	assert.InDelta(t, 0, s.CautionPaid.TTC, 0.01)
}

func TestRecompute_PerDayMode(t *testing.T) {
	t.Parallel()

	terms := Terms{
		Start: day(1),
		End:   day(3),
		Items: []Item{
			{PricePerDayTTC: 40, PriceTTC: 500},
			{PricePerDayTTC: 99, PriceTTC: 999},
		},
		Addons: []Addon{
			{PriceTTC: 10, IncludedInPackage: true},
			{PriceTTC: 20, IncludedInPackage: false},
		},
	}

	s := Recompute(terms, Snapshot{}, money.DefaultVATRatio)

	// 40 x 2 days off the primary item; without a package every addon counts
	assert.InDelta(t, 110, s.Total.TTC, 0.01)
	assert.InDelta(t, 500, s.Caution.TTC, 0.01)
}

func TestRecompute_PerDayMode_NoAddons(t *testing.T) {
	t.Parallel()

	terms := Terms{
		Start: time.Date(2026, time.June, 1, 9, 0, 0, 0, time.UTC),
		End:   time.Date(2026, time.June, 3, 9, 0, 0, 0, time.UTC),
		Items: []Item{{PricePerDayTTC: 40, PriceTTC: 500}},
	}

	s := Recompute(terms, Snapshot{}, money.DefaultVATRatio)

	assert.InDelta(t, 80, s.Total.TTC, 0.01)
	assert.InDelta(t, money.Round2(80*money.DefaultVATRatio), s.Total.HT, 0.01)
	// the deposit is the item's full replacement value, not a per-day figure
	assert.InDelta(t, 500, s.Caution.TTC, 0.01)
}

func TestRecompute_PreservesPaidAmounts(t *testing.T) {
	t.Parallel()

	terms := Terms{
		PackagePriceTTC: ptr(200),
		Items:           []Item{{PriceTTC: 400}},
	}
	current := Snapshot{
		AccountPaid: money.FromTTC(80, money.DefaultVATRatio),
		CautionPaid: money.FromTTC(400, money.DefaultVATRatio),
	}

	s := Recompute(terms, current, money.DefaultVATRatio)

	assert.InDelta(t, 80, s.AccountPaid.TTC, 0.01)
	assert.InDelta(t, 400, s.CautionPaid.TTC, 0.01)
}

func TestRecompute_DefaultsAccountPaidToHalf(t *testing.T) {
	t.Parallel()

	terms := Terms{PackagePriceTTC: ptr(200)}

	s := Recompute(terms, Snapshot{}, money.DefaultVATRatio)

	assert.InDelta(t, 100, s.AccountPaid.TTC, 0.01)
}

func TestRecompute_InfersRatioFromCurrent(t *testing.T) {
	t.Parallel()

	terms := Terms{PackagePriceTTC: ptr(110)}
	current := Snapshot{
		Total: money.Amount{HT: 100, TTC: 110},
	}

	s := Recompute(terms, current, 0)

	// ratio 100/110 carried forward from the existing pair
	assert.InDelta(t, 100, s.Total.HT, 0.01)
	assert.InDelta(t, 110, s.Total.TTC, 0.01)
}

func TestRecompute_Idempotent(t *testing.T) {
	t.Parallel()

	terms := Terms{
		PackagePriceTTC: ptr(300),
		Items:           []Item{{PriceTTC: 500}},
		Addons:          []Addon{{PriceTTC: 50}},
	}

	first := Recompute(terms, Snapshot{}, money.DefaultVATRatio)
	second := Recompute(terms, first, money.DefaultVATRatio)

	assert.Equal(t, first, second)
}

func TestRecompute_NonPositiveWindow(t *testing.T) {
	t.Parallel()

	terms := Terms{
		Start: day(3),
		End:   day(1),
		Items: []Item{{PricePerDayTTC: 40, PriceTTC: 500}},
	}

	s := Recompute(terms, Snapshot{}, money.DefaultVATRatio)

	assert.InDelta(t, 0, s.Total.TTC, 0.01)
	assert.InDelta(t, 500, s.Caution.TTC, 0.01)
}

func TestRecompute_NoItems(t *testing.T) {
	t.Parallel()

	s := Recompute(Terms{Start: day(1), End: day(3)}, Snapshot{}, money.DefaultVATRatio)

	assert.InDelta(t, 0, s.Total.TTC, 0.01)
	assert.InDelta(t, 0, s.Caution.TTC, 0.01)
}

func TestMarkAccountPaid(t *testing.T) {
	t.Parallel()

	s := Snapshot{
		Account:     money.FromTTC(350, money.DefaultVATRatio),
		AccountPaid: money.FromTTC(175, money.DefaultVATRatio),
	}

	settled := MarkAccountPaid(s)

	assert.Equal(t, settled.Account, settled.AccountPaid)
	// input untouched
	assert.InDelta(t, 175, s.AccountPaid.TTC, 0.01)
}

func TestMarkCautionPaid(t *testing.T) {
	t.Parallel()

	s := Snapshot{
		Caution: money.FromTTC(500, money.DefaultVATRatio),
	}

	settled := MarkCautionPaid(s)

	assert.Equal(t, settled.Caution, settled.CautionPaid)
}
