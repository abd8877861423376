package crmauth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserStatus is the user's activity status
type UserStatus = string

const (
	// UserStatusActive marks a user that can authenticate and hold team positions
	UserStatusActive UserStatus = "active"
	// UserStatusInactive marks a user whose team references must be cascaded away
	UserStatusInactive UserStatus = "inactive"
)

// User is the identity model
type User struct {
	bun.BaseModel          `bun:"table:users,alias:usr"`
	ID                     uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name                   string     `bun:"name,notnull" json:"name,omitempty"`
	Email                  string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Phone                  string     `bun:"phone_number" json:"phone_number,omitempty"`
	PasswordHash           string     `bun:"password_hash" json:"password_hash,omitempty"`
	RoleID                 uuid.UUID  `bun:"role_id,notnull,type:uuid" json:"role_id,omitempty"`
	Role                   *Role      `bun:"rel:belongs-to,join:role_id=id" json:"role,omitempty"`
	Status                 UserStatus `bun:"status,notnull,default:'active'" json:"status,omitempty"`
	DefaultPasswordChanged bool       `bun:"default_password_changed" json:"default_password_changed"`
	LastLogin              *time.Time `bun:"last_login,nullzero" json:"last_login,omitempty"`
	LastLogout             *time.Time `bun:"last_logout,nullzero" json:"last_logout,omitempty"`
	LastSeenAt             *time.Time `bun:"last_seen_at,nullzero" json:"last_seen_at,omitempty"`
	LoginAttempts          int        `bun:"login_attempts" json:"login_attempts,omitempty"`
	LoginAttemptAt         *time.Time `bun:"login_attempt_at" json:"login_attempt_at,omitempty"`
	CreatedAt              *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt              *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt              *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// EnsureStatus normalizes an empty status to active
func (u *User) EnsureStatus() {
	if u.Status == "" {
		u.Status = UserStatusActive
	}
}

// RoleName returns the joined role name if the relation was loaded
func (u *User) RoleName() RoleName {
	if u.Role == nil {
		return ""
	}
	return u.Role.Name
}

// IsActive reports whether the user's status allows authentication
func (u *User) IsActive() bool {
	u.EnsureStatus()
	return u.Status == UserStatusActive
}

// Role is immutable reference data, looked up by name
type Role struct {
	bun.BaseModel `bun:"table:roles,alias:rol"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          RoleName   `bun:"name,notnull,unique" json:"name,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// Team groups users under at most one manager and at most one lead
type Team struct {
	bun.BaseModel `bun:"table:teams,alias:tm"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	ManagerID     *uuid.UUID `bun:"manager_id,nullzero,type:uuid" json:"manager_id,omitempty"`
	Manager       *User      `bun:"rel:belongs-to,join:manager_id=id" json:"manager,omitempty"`
	LeadID        *uuid.UUID `bun:"lead_id,nullzero,type:uuid" json:"lead_id,omitempty"`
	Lead          *User      `bun:"rel:belongs-to,join:lead_id=id" json:"lead,omitempty"`
	Members       []*User    `bun:"m2m:team_members,join:Team=User" json:"members,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// HasMember reports whether the loaded members set contains the given user
func (t *Team) HasMember(id uuid.UUID) bool {
	for _, m := range t.Members {
		if m != nil && m.ID == id {
			return true
		}
	}
	return false
}

// MemberIDs returns the ids of the loaded members set
func (t *Team) MemberIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(t.Members))
	for _, m := range t.Members {
		if m != nil {
			ids = append(ids, m.ID)
		}
	}
	return ids
}

// TeamMember is the m2m join row between teams and users
type TeamMember struct {
	bun.BaseModel `bun:"table:team_members,alias:tmm"`
	TeamID        uuid.UUID `bun:"team_id,pk,type:uuid" json:"team_id,omitempty"`
	Team          *Team     `bun:"rel:belongs-to,join:team_id=id" json:"team,omitempty"`
	UserID        uuid.UUID `bun:"user_id,pk,type:uuid" json:"user_id,omitempty"`
	User          *User     `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
}
