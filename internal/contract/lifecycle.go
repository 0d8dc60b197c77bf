// AngelaMos | 2026
// lifecycle.go

package contract

import (
	"fmt"
	"time"

	"github.com/atelierloc/backoffice/internal/core"
)

// Action names a lifecycle transition for rejection reporting.
type Action string

const (
	ActionGeneratePDF      Action = "generate_pdf"
	ActionRequestSignature Action = "request_signature"
	ActionReturnToDraft    Action = "return_to_draft"
	ActionUploadSigned     Action = "upload_signed"
	ActionClientSign       Action = "client_sign"
	ActionEndRental        Action = "end_rental"
	ActionCancel           Action = "cancel"
	ActionDisable          Action = "disable"
	ActionReactivate       Action = "reactivate"
	ActionMarkAccountPaid  Action = "mark_account_paid"
	ActionMarkCautionPaid  Action = "mark_caution_paid"
)

// RejectionKind distinguishes why a transition was refused.
type RejectionKind string

const (
	RejectionDenied      RejectionKind = "permission_denied"
	RejectionInvalid     RejectionKind = "invalid_transition"
	RejectionTokenReused RejectionKind = "token_reused"
)

// Rejection is the typed refusal a transition returns instead of applying.
// It is a value for the caller to render, not a panic; the record it refers
// to is left untouched.
type Rejection struct {
	Kind   RejectionKind `json:"kind"`
	Action Action        `json:"action"`
	Role   Role          `json:"role,omitempty"`
	Status Status        `json:"status"`
}

func (r *Rejection) Error() string {
	return fmt.Sprintf(
		"%s: action %q refused for role %q in status %q",
		r.Kind, r.Action, r.Role, r.Status,
	)
}

func denied(action Action, role Role, status Status) error {
	return &Rejection{
		Kind:   RejectionDenied,
		Action: action,
		Role:   role,
		Status: status,
	}
}

func invalid(action Action, role Role, status Status) error {
	return &Rejection{
		Kind:   RejectionInvalid,
		Action: action,
		Role:   role,
		Status: status,
	}
}

// GeneratePDF moves a draft into the pending (printed, awaiting manual
// signature) state.
func GeneratePDF(rec Record, role Role) (Record, error) {
	perm := Check(role, rec.Status, rec.IsDeleted())
	if !perm.CanGeneratePDF {
		return rec, denied(ActionGeneratePDF, role, rec.Status)
	}
	if rec.Status != StatusDraft {
		return rec, invalid(ActionGeneratePDF, role, rec.Status)
	}

	rec.Status = StatusPending
	return rec, nil
}

// RequestSignature moves a draft into the electronic-signature flow and
// stamps the hash of a freshly issued sign-link token.
func RequestSignature(rec Record, role Role, tokenHash string) (Record, error) {
	perm := Check(role, rec.Status, rec.IsDeleted())
	if !perm.CanSendSignature {
		return rec, denied(ActionRequestSignature, role, rec.Status)
	}
	if rec.Status != StatusDraft {
		return rec, invalid(ActionRequestSignature, role, rec.Status)
	}

	rec.Status = StatusPendingSignature
	rec.SignLinkTokenHash = &tokenHash
	return rec, nil
}

// ReturnToDraft is the explicit "modify" action on a pending contract: the
// workflow resets so the PDF must be regenerated.
func ReturnToDraft(rec Record, role Role) (Record, error) {
	perm := Check(role, rec.Status, rec.IsDeleted())
	if !perm.CanEdit {
		return rec, denied(ActionReturnToDraft, role, rec.Status)
	}
	if rec.Status != StatusPending {
		return rec, invalid(ActionReturnToDraft, role, rec.Status)
	}

	rec.Status = StatusDraft
	return rec, nil
}

// UploadSignedCopy attaches an externally scanned signed document. From
// pending this signs the contract; on an already signed contract it replaces
// the document (admin only, per the policy table).
func UploadSignedCopy(rec Record, role Role, documentURL string) (Record, error) {
	perm := Check(role, rec.Status, rec.IsDeleted())
	if !perm.CanUploadSigned {
		return rec, denied(ActionUploadSigned, role, rec.Status)
	}
	if rec.Status != StatusPending && !rec.Status.IsSigned() {
		return rec, invalid(ActionUploadSigned, role, rec.Status)
	}

	if rec.Status == StatusPending {
		rec.Status = StatusSigned
	}
	rec.SignedDocumentURL = &documentURL
	return rec, nil
}

// ClientSign is triggered by the external signing party, not by staff, so
// it is gated on token identity instead of the permission policy. The token
// is consumed exactly once: success clears the stored hash, so a replay is
// an invalid transition.
func ClientSign(rec Record, token string) (Record, error) {
	if rec.Status != StatusPendingSignature || rec.IsDeleted() {
		return rec, invalid(ActionClientSign, "", rec.Status)
	}

	if rec.SignLinkTokenHash == nil ||
		!core.CompareTokenHash(token, *rec.SignLinkTokenHash) {
		return rec, &Rejection{
			Kind:   RejectionTokenReused,
			Action: ActionClientSign,
			Status: rec.Status,
		}
	}

	rec.Status = StatusSignedElectronically
	rec.SignLinkTokenHash = nil
	return rec, nil
}

// CompleteRental is the time-driven end-of-rental transition. A signed
// contract completes once the calendar day after its end date has begun.
func CompleteRental(rec Record, now time.Time) (Record, error) {
	if !rec.Status.IsSigned() || rec.IsDeleted() {
		return rec, invalid(ActionEndRental, "", rec.Status)
	}
	if !completionEligible(rec.EndAt, now) {
		return rec, invalid(ActionEndRental, "", rec.Status)
	}

	rec.Status = StatusCompleted
	return rec, nil
}

func completionEligible(end, now time.Time) bool {
	dayAfter := time.Date(
		end.Year(), end.Month(), end.Day()+1,
		0, 0, 0, 0, end.Location(),
	)
	return !now.Before(dayAfter)
}

// Cancel is deliberately coarser than the other transitions: any staff role
// may cancel from any non-terminal status, deleted or not. Cancellation must
// always be available.
func Cancel(rec Record, role Role) (Record, error) {
	if !role.IsStaff() {
		return rec, denied(ActionCancel, role, rec.Status)
	}
	if rec.Status.IsTerminal() {
		return rec, invalid(ActionCancel, role, rec.Status)
	}

	rec.Status = StatusCancelled
	return rec, nil
}

// Disable soft-deletes the contract. Only the deletion stamp changes; the
// stored status survives so reactivation restores the contract exactly
// where it was.
func Disable(rec Record, role Role, actor string, now time.Time) (Record, error) {
	perm := Check(role, rec.Status, rec.IsDeleted())
	if !perm.CanSoftDelete {
		return rec, denied(ActionDisable, role, rec.Status)
	}

	rec.DeletedAt = &now
	rec.DeletedBy = &actor
	return rec, nil
}

// Reactivate clears the deletion stamp.
func Reactivate(rec Record, role Role) (Record, error) {
	perm := Check(role, rec.Status, rec.IsDeleted())
	if !perm.CanReactivate {
		return rec, denied(ActionReactivate, role, rec.Status)
	}

	rec.DeletedAt = nil
	rec.DeletedBy = nil
	return rec, nil
}
