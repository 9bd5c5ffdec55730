package authmw

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/salesapp/sales-management/internal/auth"
	"github.com/salesapp/sales-management/internal/logging"
)

const (
	principalKey = "principal"
	bearerKey    = "bearer"

	// SessionCookie carries the server-side session token for browser
	// clients that asked to be remembered.
	SessionCookie = "session_token"
)

func BearerFromRequest(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func sessionFromRequest(c echo.Context) string {
	cookie, err := c.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// RequireAuth resolves the request principal. A present bearer token is
// authoritative; its rejection never falls back to the session cookie.
func RequireAuth(a *auth.Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			l := logging.FromContext(ctx).With("mw", "auth")

			bearer := BearerFromRequest(c)
			session := sessionFromRequest(c)

			p, err := a.Authenticate(ctx, bearer, session)
			if err != nil {
				switch {
				case errors.Is(err, auth.ErrInactive):
					l.Warn("auth_failed", "status", 401, "reason", "inactive")
					return echo.NewHTTPError(http.StatusUnauthorized, "account is inactive")
				case errors.Is(err, auth.ErrTokenExpired),
					errors.Is(err, auth.ErrTokenInvalid),
					errors.Is(err, auth.ErrNotFound),
					errors.Is(err, auth.ErrNoCredential):
					l.Warn("auth_failed", "status", 401, "reason", "invalid_or_missing_token")
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
				default:
					l.Error("auth_failed", "status", 500, "error", err)
					return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
				}
			}

			c.Set(principalKey, p)
			c.Set(bearerKey, bearer)
			return next(c)
		}
	}
}

// RequireRoles gates a route behind the role check; composed after
// RequireAuth.
func RequireRoles(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := PrincipalFrom(c)
			if err := auth.Require(p, roles...); err != nil {
				if errors.Is(err, auth.ErrForbidden) {
					return echo.NewHTTPError(http.StatusForbidden, "insufficient permissions")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			return next(c)
		}
	}
}

// PrincipalFrom returns the authenticated principal set by RequireAuth,
// or nil.
func PrincipalFrom(c echo.Context) *auth.Principal {
	if p, ok := c.Get(principalKey).(*auth.Principal); ok {
		return p
	}
	return nil
}

// BearerFrom returns the raw bearer token set by RequireAuth.
func BearerFrom(c echo.Context) string {
	if t, ok := c.Get(bearerKey).(string); ok {
		return t
	}
	return ""
}
