// AngelaMos | 2026
// entity.go

package contract

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/atelierloc/backoffice/internal/money"
	"github.com/atelierloc/backoffice/internal/pricing"
)

// Status is the closed set of contract lifecycle states. The database stores
// the string value; everything in-process compares the typed constant.
type Status string

const (
	StatusDraft                Status = "draft"
	StatusPending              Status = "pending"
	StatusPendingSignature     Status = "pending_signature"
	StatusSigned               Status = "signed"
	StatusSignedElectronically Status = "signed_electronically"
	StatusCompleted            Status = "completed"
	StatusDisabled             Status = "disabled"
	StatusCancelled            Status = "cancelled"
)

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s Status) IsSigned() bool {
	return s == StatusSigned || s == StatusSignedElectronically
}

// Role is the acting staff role. RoleUser exists only as the unprivileged
// default and never matches a grant.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleManager      Role = "manager"
	RoleCollaborator Role = "collaborator"
	RoleUser         Role = "user"
)

func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleManager || r == RoleCollaborator
}

func (r Role) IsManagement() bool {
	return r == RoleAdmin || r == RoleManager
}

// Item is a rented good on a contract. PriceTTC is the replacement value
// that sizes the security deposit.
type Item struct {
	Name           string  `json:"name"`
	PricePerDayTTC float64 `json:"price_per_day_ttc"`
	PriceTTC       float64 `json:"price_ttc"`
}

type Addon struct {
	Name              string  `json:"name"`
	PriceHT           float64 `json:"price_ht"`
	PriceTTC          float64 `json:"price_ttc"`
	IncludedInPackage bool    `json:"included_in_package"`
}

// Items and Addons are stored as JSONB columns.
type Items []Item

type Addons []Addon

func (i Items) Value() (driver.Value, error) {
	return json.Marshal(i)
}

func (i *Items) Scan(src any) error {
	return scanJSON(src, i)
}

func (a Addons) Value() (driver.Value, error) {
	return json.Marshal(a)
}

func (a *Addons) Scan(src any) error {
	return scanJSON(src, a)
}

func scanJSON(src, dest any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dest)
	case string:
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("unsupported scan type %T", src)
	}
}

// Record is a rental contract. The lifecycle engine only ever mutates
// status, the deletion stamp and the sign-link token; financial fields are
// replaced wholesale by pricing snapshots.
type Record struct {
	ID         string `db:"id"`
	CustomerID string `db:"customer_id"`
	Status     Status `db:"status"`

	PackageID       *string  `db:"package_id"`
	PackagePriceTTC *float64 `db:"package_price_ttc"`

	StartAt time.Time `db:"start_at"`
	EndAt   time.Time `db:"end_at"`

	Items  Items  `db:"items"`
	Addons Addons `db:"addons"`

	TotalHT        float64 `db:"total_ht"`
	TotalTTC       float64 `db:"total_ttc"`
	AccountHT      float64 `db:"account_ht"`
	AccountTTC     float64 `db:"account_ttc"`
	AccountPaidHT  float64 `db:"account_paid_ht"`
	AccountPaidTTC float64 `db:"account_paid_ttc"`
	CautionHT      float64 `db:"caution_ht"`
	CautionTTC     float64 `db:"caution_ttc"`
	CautionPaidHT  float64 `db:"caution_paid_ht"`
	CautionPaidTTC float64 `db:"caution_paid_ttc"`

	SignLinkTokenHash *string `db:"sign_link_token_hash"`
	SignedDocumentURL *string `db:"signed_document_url"`

	DeletedAt *time.Time `db:"deleted_at"`
	DeletedBy *string    `db:"deleted_by"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// IsDeleted reports the soft-delete state. A stamped deleted_at makes the
// contract logically disabled no matter what status is stored.
func (r *Record) IsDeleted() bool {
	return r.DeletedAt != nil
}

func (r *Record) PackageMode() bool {
	return r.PackageID != nil
}

func (r *Record) Terms() pricing.Terms {
	items := make([]pricing.Item, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, pricing.Item{
			PricePerDayTTC: it.PricePerDayTTC,
			PriceTTC:       it.PriceTTC,
		})
	}

	addons := make([]pricing.Addon, 0, len(r.Addons))
	for _, ad := range r.Addons {
		addons = append(addons, pricing.Addon{
			PriceHT:           ad.PriceHT,
			PriceTTC:          ad.PriceTTC,
			IncludedInPackage: ad.IncludedInPackage,
		})
	}

	var pkg *float64
	if r.PackageMode() && r.PackagePriceTTC != nil {
		v := *r.PackagePriceTTC
		pkg = &v
	}

	return pricing.Terms{
		PackagePriceTTC: pkg,
		Start:           r.StartAt,
		End:             r.EndAt,
		Items:           items,
		Addons:          addons,
	}
}

func (r *Record) Snapshot() pricing.Snapshot {
	return pricing.Snapshot{
		Total:       amount(r.TotalHT, r.TotalTTC),
		Account:     amount(r.AccountHT, r.AccountTTC),
		AccountPaid: amount(r.AccountPaidHT, r.AccountPaidTTC),
		Caution:     amount(r.CautionHT, r.CautionTTC),
		CautionPaid: amount(r.CautionPaidHT, r.CautionPaidTTC),
	}
}

func amount(ht, ttc float64) money.Amount {
	return money.Amount{HT: ht, TTC: ttc}
}

func (r *Record) ApplySnapshot(s pricing.Snapshot) {
	r.TotalHT, r.TotalTTC = s.Total.HT, s.Total.TTC
	r.AccountHT, r.AccountTTC = s.Account.HT, s.Account.TTC
	r.AccountPaidHT, r.AccountPaidTTC = s.AccountPaid.HT, s.AccountPaid.TTC
	r.CautionHT, r.CautionTTC = s.Caution.HT, s.Caution.TTC
	r.CautionPaidHT, r.CautionPaidTTC = s.CautionPaid.HT, s.CautionPaid.TTC
}
