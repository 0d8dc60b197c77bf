// AngelaMos | 2026
// policy.go

package contract

// PermissionSet is the full answer to "what may this role do to a contract
// in this state". Check is total: every (role, status, deleted) triple maps
// to a defined set, never an error.
type PermissionSet struct {
	CanGeneratePDF   bool `json:"can_generate_pdf"`
	CanEdit          bool `json:"can_edit"`
	CanSoftDelete    bool `json:"can_soft_delete"`
	CanSendSignature bool `json:"can_send_signature"`
	CanUploadSigned  bool `json:"can_upload_signed"`
	CanViewSigned    bool `json:"can_view_signed"`
	CanReactivate    bool `json:"can_reactivate"`
}

// grant names the narrowest role set allowed to perform an action.
type grant uint8

const (
	grantNone grant = iota
	grantAdmin
	grantManagement
	grantStaff
)

func (g grant) allows(role Role) bool {
	switch g {
	case grantAdmin:
		return role == RoleAdmin
	case grantManagement:
		return role.IsManagement()
	case grantStaff:
		return role.IsStaff()
	default:
		return false
	}
}

type grantRow struct {
	generatePDF   grant
	edit          grant
	softDelete    grant
	sendSignature grant
	uploadSigned  grant
}

// statusGrants is the whole permission policy in one place. Statuses absent
// from the table (completed, disabled, cancelled, anything unknown) fall
// through to the zero row: deny everything, fail closed.
var statusGrants = map[Status]grantRow{
	StatusDraft: {
		generatePDF:   grantStaff,
		edit:          grantStaff,
		softDelete:    grantStaff,
		sendSignature: grantStaff,
	},
	StatusPending: {
		edit:         grantManagement,
		softDelete:   grantManagement,
		uploadSigned: grantManagement,
	},
	StatusPendingSignature: {
		edit:       grantManagement,
		softDelete: grantManagement,
	},
	StatusSigned: {
		edit:         grantAdmin,
		softDelete:   grantManagement,
		uploadSigned: grantAdmin,
	},
	StatusSignedElectronically: {
		edit:         grantAdmin,
		softDelete:   grantManagement,
		uploadSigned: grantAdmin,
	},
}

// Check resolves the permission set for a role against a contract state.
// A soft-deleted contract admits nothing but reactivation, and only for
// management, regardless of the stored status.
func Check(role Role, status Status, deleted bool) PermissionSet {
	if deleted {
		return PermissionSet{
			CanReactivate: role.IsManagement(),
		}
	}

	row := statusGrants[status]

	return PermissionSet{
		CanGeneratePDF:   row.generatePDF.allows(role),
		CanEdit:          row.edit.allows(role),
		CanSoftDelete:    row.softDelete.allows(role),
		CanSendSignature: row.sendSignature.allows(role),
		CanUploadSigned:  row.uploadSigned.allows(role),
		CanViewSigned:    true,
	}
}
