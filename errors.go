package crmauth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidCredentials  = "INVALID_CREDENTIALS"
	TextCodeTokenExpired        = "TOKEN_EXPIRED"
	TextCodeTokenMalformed      = "TOKEN_MALFORMED"
	TextCodeForbiddenRole       = "FORBIDDEN_ROLE"
	TextCodeIdentityNotFound    = "IDENTITY_NOT_FOUND"
	TextCodeTeamNotFound        = "TEAM_NOT_FOUND"
	TextCodeRoleNotFound        = "ROLE_NOT_FOUND"
	TextCodeEmailTaken          = "EMAIL_TAKEN"
	TextCodeSamePassword        = "SAME_PASSWORD"
	TextCodePasswordPolicy      = "PASSWORD_POLICY"
	TextCodeEmptyString         = "EMPTY_STRING"
	TextCodeTooManyAttempts     = "TOO_MANY_LOGIN_ATTEMPTS"
	TextCodeUserInactive        = "USER_INACTIVE"
	TextCodeImmutableClaim      = "IMMUTABLE_CLAIM_MUTATION"
	TextCodeUnableToFindSession = "UNABLE_TO_FIND_SESSION"
)

// ErrInvalidCredentials is returned for unknown emails and password mismatches
// alike so responses cannot be used to enumerate accounts.
var ErrInvalidCredentials = errors.New("invalid email or password", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned when a structurally valid token is past its expiry.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned when a token cannot be parsed or verified.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrForbiddenRole is returned when a valid session holds an insufficient role.
var ErrForbiddenRole = errors.New("role not allowed for this operation", errors.CategoryAuthz).
	WithTextCode(TextCodeForbiddenRole).
	WithCode(errors.CodeForbidden)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryNotFound).
	WithTextCode(TextCodeIdentityNotFound).
	WithCode(errors.CodeNotFound)

// ErrTeamNotFound is returned when a team lookup matches no row.
var ErrTeamNotFound = errors.New("team not found", errors.CategoryNotFound).
	WithTextCode(TextCodeTeamNotFound).
	WithCode(errors.CodeNotFound)

// ErrRoleNotFound is returned when a role name matches no reference row.
var ErrRoleNotFound = errors.New("role not found", errors.CategoryNotFound).
	WithTextCode(TextCodeRoleNotFound).
	WithCode(errors.CodeNotFound)

// ErrEmailTaken is returned when a registration email already exists.
var ErrEmailTaken = errors.New("email already registered", errors.CategoryConflict).
	WithTextCode(TextCodeEmailTaken).
	WithCode(errors.CodeBadRequest)

// ErrSamePassword rejects a password change where proposed == current.
var ErrSamePassword = errors.New("new password must differ from current password", errors.CategoryConflict).
	WithTextCode(TextCodeSamePassword).
	WithCode(errors.CodeBadRequest)

// ErrPasswordPolicy is returned when a password fails the strength predicate.
var ErrPasswordPolicy = errors.New(
	"password must be at least 8 characters with 2 uppercase, 3 lowercase, 2 digits, 1 special character and no spaces",
	errors.CategoryValidation).
	WithTextCode(TextCodePasswordPolicy).
	WithCode(errors.CodeBadRequest)

// ErrNoEmptyString is returned when hashing an empty password.
var ErrNoEmptyString = errors.New("value must not be empty", errors.CategoryValidation).
	WithTextCode(TextCodeEmptyString).
	WithCode(errors.CodeBadRequest)

// ErrTooManyLoginAttempts is returned while the cooldown window is active.
var ErrTooManyLoginAttempts = errors.New("too many login attempts", errors.CategoryAuth).
	WithTextCode(TextCodeTooManyAttempts).
	WithCode(errors.CodeUnauthorized)

// ErrUserInactive blocks authentication for inactive users.
var ErrUserInactive = errors.New("user is inactive", errors.CategoryAuth).
	WithTextCode(TextCodeUserInactive).
	WithCode(errors.CodeUnauthorized)

// ErrImmutableClaimMutation is returned when a claims decorator touches
// identity-bearing claims.
var ErrImmutableClaimMutation = errors.New("immutable claim mutated", errors.CategoryInternal).
	WithTextCode(TextCodeImmutableClaim).
	WithCode(errors.CodeInternal)

// ErrUnableToFindSession is the error when a request carries no token
var ErrUnableToFindSession = errors.New("unable to find session", errors.CategoryAuth).
	WithTextCode(TextCodeUnableToFindSession).
	WithCode(errors.CodeUnauthorized)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// HTTPStatus maps an error to the status code its category implies.
func HTTPStatus(err error) int {
	if err == nil {
		return fiber.StatusOK
	}

	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.Code > 0 {
		return richErr.Code
	}

	if errors.IsNotFound(err) {
		return fiber.StatusNotFound
	}

	return fiber.StatusInternalServerError
}
