// AngelaMos | 2026
// policy_test.go

package contract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var allRoles = []Role{RoleAdmin, RoleManager, RoleCollaborator, RoleUser}

var allStatuses = []Status{
	StatusDraft,
	StatusPending,
	StatusPendingSignature,
	StatusSigned,
	StatusSignedElectronically,
	StatusCompleted,
	StatusDisabled,
	StatusCancelled,
}

func TestCheck_CollaboratorOnDraft(t *testing.T) {
	t.Parallel()

	perm := Check(RoleCollaborator, StatusDraft, false)

	assert.True(t, perm.CanGeneratePDF)
	assert.True(t, perm.CanEdit)
	assert.True(t, perm.CanSoftDelete)
	assert.True(t, perm.CanSendSignature)
	assert.False(t, perm.CanUploadSigned)
	assert.True(t, perm.CanViewSigned)
	assert.False(t, perm.CanReactivate)
}

func TestCheck_ManagerOnSigned(t *testing.T) {
	t.Parallel()

	perm := Check(RoleManager, StatusSigned, false)

	assert.False(t, perm.CanEdit)
	assert.False(t, perm.CanUploadSigned)
	assert.True(t, perm.CanSoftDelete)
	assert.True(t, perm.CanViewSigned)
}

func TestCheck_AdminOnSigned(t *testing.T) {
	t.Parallel()

	for _, status := range []Status{StatusSigned, StatusSignedElectronically} {
		perm := Check(RoleAdmin, status, false)

		assert.True(t, perm.CanEdit, "status %s", status)
		assert.True(t, perm.CanUploadSigned, "status %s", status)
		assert.True(t, perm.CanSoftDelete, "status %s", status)
	}
}

func TestCheck_PendingIsManagementOnly(t *testing.T) {
	t.Parallel()

	manager := Check(RoleManager, StatusPending, false)
	assert.True(t, manager.CanEdit)
	assert.True(t, manager.CanSoftDelete)
	assert.True(t, manager.CanUploadSigned)
	assert.False(t, manager.CanGeneratePDF)

	collaborator := Check(RoleCollaborator, StatusPending, false)
	assert.False(t, collaborator.CanEdit)
	assert.False(t, collaborator.CanSoftDelete)
	assert.False(t, collaborator.CanUploadSigned)
}

func TestCheck_PendingSignatureHasNoUpload(t *testing.T) {
	t.Parallel()

	perm := Check(RoleAdmin, StatusPendingSignature, false)

	assert.True(t, perm.CanEdit)
	assert.True(t, perm.CanSoftDelete)
	assert.False(t, perm.CanUploadSigned)
	assert.False(t, perm.CanSendSignature)
}

func TestCheck_DeletedAdmitsOnlyReactivation(t *testing.T) {
	t.Parallel()

	for _, role := range allRoles {
		for _, status := range allStatuses {
			perm := Check(role, status, true)

			assert.False(t, perm.CanGeneratePDF)
			assert.False(t, perm.CanEdit)
			assert.False(t, perm.CanSoftDelete)
			assert.False(t, perm.CanSendSignature)
			assert.False(t, perm.CanUploadSigned)
			assert.False(t, perm.CanViewSigned)
			assert.Equal(t, role.IsManagement(), perm.CanReactivate,
				"role %s status %s", role, status)
		}
	}
}

func TestCheck_TerminalAndUnknownStatusesDeny(t *testing.T) {
	t.Parallel()

	statuses := []Status{
		StatusCompleted,
		StatusDisabled,
		StatusCancelled,
		Status("archived"),
	}

	for _, status := range statuses {
		for _, role := range allRoles {
			perm := Check(role, status, false)

			assert.False(t, perm.CanGeneratePDF, "role %s status %s", role, status)
			assert.False(t, perm.CanEdit, "role %s status %s", role, status)
			assert.False(t, perm.CanSoftDelete, "role %s status %s", role, status)
			assert.False(t, perm.CanSendSignature, "role %s status %s", role, status)
			assert.False(t, perm.CanUploadSigned, "role %s status %s", role, status)
			assert.True(t, perm.CanViewSigned, "role %s status %s", role, status)
			assert.False(t, perm.CanReactivate, "role %s status %s", role, status)
		}
	}
}

func TestCheck_UserRoleNeverGranted(t *testing.T) {
	t.Parallel()

	for _, status := range allStatuses {
		perm := Check(RoleUser, status, false)

		assert.False(t, perm.CanGeneratePDF)
		assert.False(t, perm.CanEdit)
		assert.False(t, perm.CanSoftDelete)
		assert.False(t, perm.CanSendSignature)
		assert.False(t, perm.CanUploadSigned)
	}
}

func TestRolePredicates(t *testing.T) {
	t.Parallel()

	assert.True(t, RoleAdmin.IsStaff())
	assert.True(t, RoleManager.IsStaff())
	assert.True(t, RoleCollaborator.IsStaff())
	assert.False(t, RoleUser.IsStaff())

	assert.True(t, RoleAdmin.IsManagement())
	assert.True(t, RoleManager.IsManagement())
	assert.False(t, RoleCollaborator.IsManagement())
	assert.False(t, Role("ghost").IsStaff())
}
