// AngelaMos | 2026
// engine.go

package pricing

import (
	"math"
	"time"

	"github.com/atelierloc/backoffice/internal/money"
)

// Item is a rented good. PricePerDayTTC drives per-day totals; PriceTTC is
// the replacement value used as the security deposit basis.
type Item struct {
	PricePerDayTTC float64
	PriceTTC       float64
}

// Addon is an extra service. Included addons are bundled "free" inside a
// package and never add to a package-mode total.
type Addon struct {
	PriceHT           float64
	PriceTTC          float64
	IncludedInPackage bool
}

// Terms are the rental terms a financial snapshot derives from. A non-nil
// PackagePriceTTC selects flat-rate package pricing; nil selects per-day
// pricing off the primary (first) item.
type Terms struct {
	PackagePriceTTC *float64
	Start           time.Time
	End             time.Time
	Items           []Item
	Addons          []Addon
}

func (t Terms) PackageMode() bool {
	return t.PackagePriceTTC != nil
}

// Snapshot is the derived financial state of a contract. Recompute replaces
// the due amounts and preserves what has already been paid.
type Snapshot struct {
	Total       money.Amount `json:"total"`
	Account     money.Amount `json:"account"`
	AccountPaid money.Amount `json:"account_paid"`
	Caution     money.Amount `json:"caution"`
	CautionPaid money.Amount `json:"caution_paid"`
}

func (s Snapshot) pairs() []money.Amount {
	return []money.Amount{
		s.Total,
		s.Account,
		s.AccountPaid,
		s.Caution,
		s.CautionPaid,
	}
}

// DurationDays is ceil((end - start) / 24h). Non-positive windows yield 0;
// rejecting them is the caller's job, pricing stays total.
func DurationDays(start, end time.Time) int {
	delta := end.Sub(start)
	if delta <= 0 {
		return 0
	}
	return int(math.Ceil(delta.Hours() / 24))
}

// Recompute derives a fresh snapshot from the rental terms. Pure and
// idempotent: the same terms and snapshot always produce the same result.
// Pass vatRatio <= 0 to infer it from the current snapshot's pairs.
func Recompute(terms Terms, current Snapshot, vatRatio float64) Snapshot {
	if vatRatio <= 0 || vatRatio > 1 {
		vatRatio = money.InferVATRatio(current.pairs())
	}

	totalTTC := totalTTC(terms)

	accountPaidTTC := current.AccountPaid.TTC
	if accountPaidTTC <= 0 {
		// the deposit collected up front defaults to half the price
		accountPaidTTC = totalTTC / 2
	}

	var cautionTTC float64
	if len(terms.Items) > 0 {
		cautionTTC = terms.Items[0].PriceTTC
	}

	return Snapshot{
		Total:       money.FromTTC(totalTTC, vatRatio),
		Account:     money.FromTTC(totalTTC, vatRatio),
		AccountPaid: money.FromTTC(accountPaidTTC, vatRatio),
		Caution:     money.FromTTC(cautionTTC, vatRatio),
		CautionPaid: money.FromTTC(current.CautionPaid.TTC, vatRatio),
	}
}

func totalTTC(terms Terms) float64 {
	if terms.PackageMode() {
		total := *terms.PackagePriceTTC
		for _, addon := range terms.Addons {
			if !addon.IncludedInPackage {
				total += addon.PriceTTC
			}
		}
		return total
	}

	var perDay float64
	if len(terms.Items) > 0 {
		perDay = terms.Items[0].PricePerDayTTC
	}

	// no package to include them in, so every addon counts
	total := perDay * float64(DurationDays(terms.Start, terms.End))
	for _, addon := range terms.Addons {
		total += addon.PriceTTC
	}
	return total
}

// MarkAccountPaid settles the deposit in full. Partial settlement does not
// exist at this level; paid always becomes exactly the amount due.
func MarkAccountPaid(s Snapshot) Snapshot {
	s.AccountPaid = s.Account
	return s
}

// MarkCautionPaid settles the security deposit in full.
func MarkCautionPaid(s Snapshot) Snapshot {
	s.CautionPaid = s.Caution
	return s
}
