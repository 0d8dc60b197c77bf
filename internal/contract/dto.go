// AngelaMos | 2026
// dto.go

package contract

import (
	"time"

	"github.com/atelierloc/backoffice/internal/money"
)

// Monetary request fields arrive as strings and are parsed tolerantly
// (comma or dot separator, stray whitespace, junk resolving to 0), because
// they originate in back-office forms the UI is expected to have validated.

type ItemInput struct {
	Name           string `json:"name"            validate:"required,max=200"`
	PricePerDayTTC string `json:"price_per_day_ttc"`
	PriceTTC       string `json:"price_ttc"`
}

type AddonInput struct {
	Name              string `json:"name" validate:"required,max=200"`
	PriceHT           string `json:"price_ht"`
	PriceTTC          string `json:"price_ttc"`
	IncludedInPackage bool   `json:"included_in_package"`
}

type TermsRequest struct {
	PackageID       *string      `json:"package_id,omitempty"`
	PackagePriceTTC string       `json:"package_price_ttc,omitempty"`
	StartAt         time.Time    `json:"start_at" validate:"required"`
	EndAt           time.Time    `json:"end_at"   validate:"required"`
	Items           []ItemInput  `json:"items"    validate:"required,min=1,dive"`
	Addons          []AddonInput `json:"addons"   validate:"dive"`
}

type CreateContractRequest struct {
	CustomerID string       `json:"customer_id" validate:"required,uuid4"`
	Terms      TermsRequest `json:"terms"       validate:"required"`
}

type UpdateTermsRequest struct {
	Terms TermsRequest `json:"terms" validate:"required"`
}

type UploadSignedCopyRequest struct {
	DocumentURL string `json:"document_url" validate:"required,url,max=2048"`
}

type ListContractsParams struct {
	Page     int
	PageSize int
	Status   string
	Deleted  *bool
}

func (p *ListContractsParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListContractsParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

type FinancialResponse struct {
	Total       money.Amount `json:"total"`
	Account     money.Amount `json:"account"`
	AccountPaid money.Amount `json:"account_paid"`
	Caution     money.Amount `json:"caution"`
	CautionPaid money.Amount `json:"caution_paid"`
}

type ContractResponse struct {
	ID                string            `json:"id"`
	CustomerID        string            `json:"customer_id"`
	Status            Status            `json:"status"`
	Deleted           bool              `json:"deleted"`
	DeletedAt         *time.Time        `json:"deleted_at,omitempty"`
	DeletedBy         *string           `json:"deleted_by,omitempty"`
	PackageID         *string           `json:"package_id,omitempty"`
	PackagePriceTTC   *float64          `json:"package_price_ttc,omitempty"`
	StartAt           time.Time         `json:"start_at"`
	EndAt             time.Time         `json:"end_at"`
	Items             []Item            `json:"items"`
	Addons            []Addon           `json:"addons"`
	Financial         FinancialResponse `json:"financial"`
	SignedDocumentURL *string           `json:"signed_document_url,omitempty"`
	Permissions       PermissionSet     `json:"permissions"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// SignLinkResponse is returned once, at signature-request time. The raw
// token is never stored and never shown again.
type SignLinkResponse struct {
	Contract ContractResponse `json:"contract"`
	SignLink string           `json:"sign_link"`
}

// ToContractResponse renders a record for the given viewer, embedding the
// permission set so presentation layers can pre-disable controls.
func ToContractResponse(r *Record, viewer Role) ContractResponse {
	s := r.Snapshot()

	items := r.Items
	if items == nil {
		items = Items{}
	}
	addons := r.Addons
	if addons == nil {
		addons = Addons{}
	}

	return ContractResponse{
		ID:                r.ID,
		CustomerID:        r.CustomerID,
		Status:            r.Status,
		Deleted:           r.IsDeleted(),
		DeletedAt:         r.DeletedAt,
		DeletedBy:         r.DeletedBy,
		PackageID:         r.PackageID,
		PackagePriceTTC:   r.PackagePriceTTC,
		StartAt:           r.StartAt,
		EndAt:             r.EndAt,
		Items:             items,
		Addons:            addons,
		Financial:         FinancialResponse(s),
		SignedDocumentURL: r.SignedDocumentURL,
		Permissions:       Check(viewer, r.Status, r.IsDeleted()),
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

func ToContractResponseList(records []Record, viewer Role) []ContractResponse {
	responses := make([]ContractResponse, 0, len(records))
	for i := range records {
		responses = append(responses, ToContractResponse(&records[i], viewer))
	}
	return responses
}

func (t TermsRequest) items() Items {
	items := make(Items, 0, len(t.Items))
	for _, in := range t.Items {
		items = append(items, Item{
			Name:           in.Name,
			PricePerDayTTC: money.ParseDecimal(in.PricePerDayTTC),
			PriceTTC:       money.ParseDecimal(in.PriceTTC),
		})
	}
	return items
}

func (t TermsRequest) addons() Addons {
	addons := make(Addons, 0, len(t.Addons))
	for _, in := range t.Addons {
		addons = append(addons, Addon{
			Name:              in.Name,
			PriceHT:           money.ParseDecimal(in.PriceHT),
			PriceTTC:          money.ParseDecimal(in.PriceTTC),
			IncludedInPackage: in.IncludedInPackage,
		})
	}
	return addons
}

// applyTo replaces the record's rental terms with the request's.
func (t TermsRequest) applyTo(rec *Record) {
	rec.PackageID = t.PackageID
	rec.PackagePriceTTC = nil
	if t.PackageID != nil {
		price := money.ParseDecimal(t.PackagePriceTTC)
		rec.PackagePriceTTC = &price
	}
	rec.StartAt = t.StartAt
	rec.EndAt = t.EndAt
	rec.Items = t.items()
	rec.Addons = t.addons()
}
