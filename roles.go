package crmauth

// RoleName is the user's role
type RoleName = string

const (
	// RoleAdmin has full control and receives orphaned teams
	RoleAdmin RoleName = "Admin"
	// RoleSalesManager owns teams
	RoleSalesManager RoleName = "Sales Manager"
	// RoleSalesTeamLead leads at most one team at a time
	RoleSalesTeamLead RoleName = "Sales Team Lead"
	// RoleSalesRepresentative is the base selling role
	RoleSalesRepresentative RoleName = "Sales Representative"
)

// RoleValidator defines the interface for role-based access control validation
type RoleValidator interface {
	CanRead(resource string) bool
	CanEdit(resource string) bool
	CanCreate(resource string) bool
	CanDelete(resource string) bool
	HasRole(role RoleName) bool
	IsAtLeast(minRole RoleName) bool
}

// IsValidRole checks if the role is one of the predefined valid roles
func IsValidRole(r RoleName) bool {
	switch r {
	case RoleAdmin, RoleSalesManager, RoleSalesTeamLead, RoleSalesRepresentative:
		return true
	default:
		return false
	}
}

// roleLevel places roles in hierarchical order, representative lowest
func roleLevel(r RoleName) (int, bool) {
	switch r {
	case RoleSalesRepresentative:
		return 0, true
	case RoleSalesTeamLead:
		return 1, true
	case RoleSalesManager:
		return 2, true
	case RoleAdmin:
		return 3, true
	default:
		return 0, false
	}
}

// RoleCanRead checks if this role can read resources
func RoleCanRead(r RoleName) bool {
	return IsValidRole(r)
}

// RoleCanEdit checks if this role can edit resources
func RoleCanEdit(r RoleName) bool {
	return RoleIsAtLeast(r, RoleSalesTeamLead)
}

// RoleCanCreate checks if this role can create resources
func RoleCanCreate(r RoleName) bool {
	return RoleIsAtLeast(r, RoleSalesManager)
}

// RoleCanDelete checks if this role can delete resources
func RoleCanDelete(r RoleName) bool {
	return RoleIsAtLeast(r, RoleAdmin)
}

// RoleIsAtLeast checks if a role meets the minimum required level
func RoleIsAtLeast(r, minRole RoleName) bool {
	currentLevel, ok := roleLevel(r)
	if !ok {
		return false
	}

	minLevel, ok := roleLevel(minRole)
	if !ok {
		return false
	}

	return currentLevel >= minLevel
}

// GetAllRoles returns all predefined roles in hierarchical order
func GetAllRoles() []RoleName {
	return []RoleName{
		RoleSalesRepresentative,
		RoleSalesTeamLead,
		RoleSalesManager,
		RoleAdmin,
	}
}

// ParseRoleName safely parses a string into a RoleName
func ParseRoleName(roleStr string) (RoleName, bool) {
	role := RoleName(roleStr)
	return role, IsValidRole(role)
}
