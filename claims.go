package crmauth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims represents structured JWT claims with role checking helpers
type AuthClaims interface {
	Subject() string
	UserID() string
	Email() string
	Name() string
	RoleID() string
	Role() RoleName
	CanRead(resource string) bool
	CanEdit(resource string) bool
	CanCreate(resource string) bool
	CanDelete(resource string) bool
	HasRole(role RoleName) bool
	IsAtLeast(minRole RoleName) bool
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the concrete implementation of AuthClaims. The identity and
// role fields are a snapshot taken at issuance; a role change after issuance
// is not reflected until re-authentication.
type JWTClaims struct {
	jwt.RegisteredClaims
	UID          string         `json:"uid,omitempty"`
	UserEmail    string         `json:"email,omitempty"`
	UserName     string         `json:"name,omitempty"`
	UserRoleID   string         `json:"roleId,omitempty"`
	UserRoleName string         `json:"roleName,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"` // extension payload
}

// Verify interface compliance
var _ AuthClaims = (*JWTClaims)(nil)

// Subject returns the subject claim
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the user ID
func (c *JWTClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject()
}

// Email returns the email snapshot
func (c *JWTClaims) Email() string {
	return c.UserEmail
}

// Name returns the display name snapshot
func (c *JWTClaims) Name() string {
	return c.UserName
}

// RoleID returns the role id snapshot
func (c *JWTClaims) RoleID() string {
	return c.UserRoleID
}

// Role returns the role name snapshot
func (c *JWTClaims) Role() RoleName {
	return c.UserRoleName
}

// CanRead checks if the user can read a specific resource
func (c *JWTClaims) CanRead(resource string) bool {
	return RoleCanRead(c.UserRoleName)
}

// CanEdit checks if the user can edit a specific resource
func (c *JWTClaims) CanEdit(resource string) bool {
	return RoleCanEdit(c.UserRoleName)
}

// CanCreate checks if the user can create a specific resource
func (c *JWTClaims) CanCreate(resource string) bool {
	return RoleCanCreate(c.UserRoleName)
}

// CanDelete checks if the user can delete a specific resource
func (c *JWTClaims) CanDelete(resource string) bool {
	return RoleCanDelete(c.UserRoleName)
}

// ClaimsMetadata exposes metadata extensions for optional context enrichment.
func (c *JWTClaims) ClaimsMetadata() map[string]any {
	return c.Metadata
}

// HasRole checks if the user holds a specific role
func (c *JWTClaims) HasRole(role RoleName) bool {
	return c.UserRoleName == role
}

// IsAtLeast checks if the user's role is at least the minimum required role
func (c *JWTClaims) IsAtLeast(minRole RoleName) bool {
	return RoleIsAtLeast(c.UserRoleName, minRole)
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
