package crmauth_test

import (
	"testing"

	crmauth "github.com/skycrm/go-crm-auth"
	"github.com/stretchr/testify/assert"
)

func TestIsValidRole(t *testing.T) {
	for _, role := range crmauth.GetAllRoles() {
		assert.True(t, crmauth.IsValidRole(role), role)
	}

	assert.False(t, crmauth.IsValidRole(""))
	assert.False(t, crmauth.IsValidRole("Superuser"))
	assert.False(t, crmauth.IsValidRole("admin"))
}

func TestParseRoleName(t *testing.T) {
	role, ok := crmauth.ParseRoleName("Sales Manager")
	assert.True(t, ok)
	assert.Equal(t, crmauth.RoleSalesManager, role)

	_, ok = crmauth.ParseRoleName("sales manager")
	assert.False(t, ok)

	_, ok = crmauth.ParseRoleName("")
	assert.False(t, ok)
}

func TestRoleIsAtLeast(t *testing.T) {
	ordered := crmauth.GetAllRoles()

	for i, role := range ordered {
		for j, minRole := range ordered {
			got := crmauth.RoleIsAtLeast(role, minRole)
			assert.Equal(t, i >= j, got, "%s vs %s", role, minRole)
		}
	}

	assert.False(t, crmauth.RoleIsAtLeast("unknown", crmauth.RoleSalesRepresentative))
	assert.False(t, crmauth.RoleIsAtLeast(crmauth.RoleAdmin, "unknown"))
}

func TestGetAllRolesOrder(t *testing.T) {
	assert.Equal(t, []crmauth.RoleName{
		crmauth.RoleSalesRepresentative,
		crmauth.RoleSalesTeamLead,
		crmauth.RoleSalesManager,
		crmauth.RoleAdmin,
	}, crmauth.GetAllRoles())
}

func TestRolePermissions(t *testing.T) {
	assert.True(t, crmauth.RoleCanRead(crmauth.RoleSalesRepresentative))
	assert.False(t, crmauth.RoleCanEdit(crmauth.RoleSalesRepresentative))

	assert.True(t, crmauth.RoleCanEdit(crmauth.RoleSalesTeamLead))
	assert.False(t, crmauth.RoleCanCreate(crmauth.RoleSalesTeamLead))

	assert.True(t, crmauth.RoleCanCreate(crmauth.RoleSalesManager))
	assert.False(t, crmauth.RoleCanDelete(crmauth.RoleSalesManager))

	assert.True(t, crmauth.RoleCanDelete(crmauth.RoleAdmin))

	assert.False(t, crmauth.RoleCanRead("unknown"))
}
