package crmauth

import (
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// DefaultAuthScheme is the expected Authorization header scheme.
const DefaultAuthScheme = "Bearer"

// RouteAuthenticator guards JSON routes: it extracts the bearer token,
// validates it into a Session, and stores the session in the router
// context under the configured key.
type RouteAuthenticator struct {
	auth         SessionManager
	cfg          Config
	Logger       Logger
	ErrorHandler func(c router.Context, err error) error
}

func NewHTTPAuthenticator(auther SessionManager, cfg Config) (*RouteAuthenticator, error) {
	a := &RouteAuthenticator{
		cfg:    cfg,
		auth:   auther,
		Logger: defLogger{},
	}

	a.ErrorHandler = a.defaultErrHandler

	return a, nil
}

// ExtractBearerToken pulls the raw token from the Authorization header.
func ExtractBearerToken(c router.Context) (string, error) {
	header := c.GetString("Authorization", "")
	scheme := DefaultAuthScheme

	l := len(scheme)
	if len(header) > l+1 && strings.EqualFold(header[:l], scheme) {
		return strings.TrimSpace(header[l:]), nil
	}

	malformed := ErrTokenMalformed.Clone()
	malformed.Message = "missing or malformed authorization header"
	malformed.Source = ErrTokenMalformed

	return "", malformed
}

// ProtectedRoute rejects requests without a valid session token. On
// success the session is available via GetRouterSession and the request
// context carries it for downstream handlers.
func (a *RouteAuthenticator) ProtectedRoute() router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			token, err := ExtractBearerToken(ctx)
			if err != nil {
				return a.ErrorHandler(ctx, err)
			}

			session, err := a.auth.ValidateSession(token)
			if err != nil {
				return a.ErrorHandler(ctx, err)
			}

			ctx.Locals(a.cfg.GetContextKey(), session)
			ctx.SetContext(WithSessionContext(ctx.Context(), session))

			return hf(ctx)
		}
	}
}

// RequireRoles rejects sessions whose role snapshot is not in the allowed
// set. It must run after ProtectedRoute.
func (a *RouteAuthenticator) RequireRoles(roles ...RoleName) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			session, err := GetRouterSession(ctx, a.cfg.GetContextKey())
			if err != nil {
				return a.ErrorHandler(ctx, err)
			}

			if err := a.auth.Permit(session, roles...); err != nil {
				return a.ErrorHandler(ctx, err)
			}

			return hf(ctx)
		}
	}
}

// GetRouterSession recovers the session stored by ProtectedRoute.
func GetRouterSession(c router.Context, key string) (Session, error) {
	val := c.Locals(key)
	if val == nil {
		return nil, ErrUnableToFindSession
	}

	session, ok := val.(Session)
	if session == nil || !ok {
		return nil, ErrUnableToFindSession
	}

	return session, nil
}

func (a *RouteAuthenticator) defaultErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	a.Logger.Info(
		"Middleware error handler",
		"error", richErr.Message,
		"category", richErr.Category,
		"details", print.MaybePrettyJSON(richErr.Metadata),
	)

	return c.JSON(HTTPStatus(richErr), map[string]any{
		"error": richErr.Message,
		"code":  richErr.TextCode,
	})
}
