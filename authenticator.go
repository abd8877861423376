package crmauth

import (
	"context"
	"reflect"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// SessionTracker persists session-liveness timestamps.
type SessionTracker interface {
	TrackLogout(ctx context.Context, userID string) error
	TrackHeartbeat(ctx context.Context, userID string) error
}

// Auther implements SessionManager on top of an IdentityProvider and a
// SessionTracker.
type Auther struct {
	provider        IdentityProvider
	tracker         SessionTracker
	signingKey      []byte
	tokenExpiration int
	issuer          string
	logger          Logger
	tokenService    TokenService
	tokenValidator  TokenValidator
	presence        PresenceNotifier
	claimsDecorator ClaimsDecorator
}

var _ SessionManager = (*Auther)(nil)

// NewAuthenticator returns a new session manager
func NewAuthenticator(provider IdentityProvider, tracker SessionTracker, opts Config) *Auther {
	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetTokenExpiration(),
		opts.GetIssuer(),
		defLogger{},
	)

	return &Auther{
		provider:        provider,
		tracker:         tracker,
		signingKey:      []byte(opts.GetSigningKey()),
		tokenExpiration: opts.GetTokenExpiration(),
		issuer:          opts.GetIssuer(),
		logger:          defLogger{},
		tokenService:    tokenService,
		presence:        noopPresenceNotifier{},
		claimsDecorator: noopClaimsDecorator{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = logger
	s.tokenService = NewTokenService(
		s.signingKey,
		s.tokenExpiration,
		s.issuer,
		logger,
	)
	return s
}

// WithPresenceNotifier configures the channel login/logout events publish to.
func (s *Auther) WithPresenceNotifier(notifier PresenceNotifier) *Auther {
	s.presence = normalizePresenceNotifier(notifier)
	return s
}

// WithClaimsDecorator configures a ClaimsDecorator for enriching JWTs.
func (s *Auther) WithClaimsDecorator(decorator ClaimsDecorator) *Auther {
	s.claimsDecorator = normalizeClaimsDecorator(decorator)
	return s
}

// WithTokenValidator sets a custom token validator for externally issued tokens.
func (s *Auther) WithTokenValidator(validator TokenValidator) *Auther {
	s.tokenValidator = validator
	return s
}

// TokenService returns the TokenService instance used by this session manager
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Login verifies credentials and issues a bearer token carrying the
// identity and role snapshot. The provider stamps last_login and clears
// last_logout on success.
func (s *Auther) Login(ctx context.Context, email, password string) (string, error) {
	identity, err := s.provider.VerifyIdentity(ctx, email, password)
	if err != nil {
		s.logger.Error("Login verify identity error", "error", err)
		return "", err
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() {
		s.logger.Error("Login identity is nil or zero value")
		return "", ErrInvalidCredentials
	}

	token, err := s.generateJWT(ctx, identity)
	if err != nil {
		return "", err
	}

	s.emitPresenceEvent(ctx, PresenceEvent{
		EventType: PresenceEventLogin,
		UserID:    identity.ID(),
		Email:     identity.Email(),
	})

	return token, nil
}

// Logout stamps last_logout for the session's user. The token is not
// revoked; it remains structurally valid until expiry and the caller is
// expected to discard it.
func (s *Auther) Logout(ctx context.Context, session Session) error {
	if session == nil {
		return ErrUnableToFindSession
	}

	if err := s.tracker.TrackLogout(ctx, session.GetUserID()); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to track logout")
	}

	s.emitPresenceEvent(ctx, PresenceEvent{
		EventType: PresenceEventLogout,
		UserID:    session.GetUserID(),
		Email:     session.GetEmail(),
	})

	return nil
}

// LogoutBeacon is the unauthenticated best-effort logout path for tab-close
// beacons. It never fails the caller.
func (s *Auther) LogoutBeacon(ctx context.Context, userID string) {
	if userID == "" {
		return
	}

	if err := s.tracker.TrackLogout(ctx, userID); err != nil {
		s.logger.Warn("logout beacon could not be applied", "user_id", userID, "error", err)
		return
	}

	s.emitPresenceEvent(ctx, PresenceEvent{
		EventType: PresenceEventLogout,
		UserID:    userID,
	})
}

// Heartbeat updates the session's activity timestamp without touching
// last_login.
func (s *Auther) Heartbeat(ctx context.Context, session Session) error {
	if session == nil {
		return ErrUnableToFindSession
	}

	if err := s.tracker.TrackHeartbeat(ctx, session.GetUserID()); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to track heartbeat")
	}

	return nil
}

// ValidateSession returns the decoded session if the token is structurally
// valid and unexpired.
func (s *Auther) ValidateSession(raw string) (Session, error) {
	validator := s.tokenValidator
	if validator == nil {
		validator = s.tokenService
	}

	claims, err := validator.Validate(raw)
	if err != nil {
		s.logger.Error("ValidateSession validation failed", "error", err)
		return nil, err
	}

	session, err := sessionFromAuthClaims(claims)
	if err != nil {
		s.logger.Error("ValidateSession failed to create session from claims", "error", err)
		return nil, err
	}

	return session, nil
}

// Permit allows the request only when the session's role snapshot is in the
// allowed set.
func (s *Auther) Permit(session Session, allowed ...RoleName) error {
	if session == nil {
		return ErrUnableToFindSession
	}

	role := session.GetRoleName()
	for _, want := range allowed {
		if role == want {
			return nil
		}
	}

	return ErrForbiddenRole.Clone().WithMetadata(map[string]any{
		"role":    role,
		"allowed": allowed,
	})
}

// generateJWT generates a JWT token from the identity snapshot
func (s *Auther) generateJWT(ctx context.Context, identity Identity) (string, error) {
	claims := s.newJWTClaims(identity)
	snapshot := captureImmutableClaims(claims)

	decorator := normalizeClaimsDecorator(s.claimsDecorator)
	if err := decorator.Decorate(ctx, identity, claims); err != nil {
		s.logger.Error("claims decorator failed", "error", err)
		return "", err
	}

	if err := snapshot.validate(claims); err != nil {
		s.logger.Error("claims decorator mutated immutable claims", "error", err)
		return "", err
	}

	return s.tokenService.SignClaims(claims)
}

func (s *Auther) newJWTClaims(identity Identity) *JWTClaims {
	now := time.Now()

	expiration := s.tokenExpiration
	if expiration <= 0 {
		expiration = DefaultTokenExpirationHours
	}

	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   identity.ID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expiration) * time.Hour)),
		},
		UID:          identity.ID(),
		UserEmail:    identity.Email(),
		UserName:     identity.Name(),
		UserRoleID:   identity.RoleID(),
		UserRoleName: identity.Role(),
	}

	ensureTokenID(&claims.RegisteredClaims)

	return claims
}

func (s *Auther) emitPresenceEvent(ctx context.Context, event PresenceEvent) {
	notifier := normalizePresenceNotifier(s.presence)

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	if err := notifier.Publish(ctx, event); err != nil {
		s.logger.Warn("presence notifier publish error: %v", err)
	}
}
