package http

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/njprem/web-starter-api/internal/domain"
	"github.com/njprem/web-starter-api/internal/service"
)

const (
	contextUserKey    = "auth.user"
	contextSessionKey = "auth.session"
)

// RequireAuth resolves the bearer token to an active session whose owner may
// still sign in, and stores both on the echo context.
func RequireAuth(auth *service.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				return writeError(c, err)
			}
			user, session, err := auth.ResolveSession(c.Request().Context(), token)
			if err != nil {
				return writeError(c, err)
			}
			if user == nil {
				return writeError(c, domain.Unauthorized("invalid or expired session"))
			}
			c.Set(contextUserKey, user)
			c.Set(contextSessionKey, session)
			return next(c)
		}
	}
}

// RequireSuperuser must run after RequireAuth.
func RequireSuperuser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := CurrentUser(c)
			if !ok {
				return writeError(c, domain.Unauthorized("authentication required"))
			}
			if !user.IsSuperuser {
				return writeError(c, domain.Forbidden("superuser privileges required"))
			}
			return next(c)
		}
	}
}

func CurrentUser(c echo.Context) (*domain.User, bool) {
	user, ok := c.Get(contextUserKey).(*domain.User)
	return user, ok && user != nil
}

func CurrentSession(c echo.Context) (*domain.Session, bool) {
	session, ok := c.Get(contextSessionKey).(*domain.Session)
	return session, ok && session != nil
}

func bearerToken(header string) (string, error) {
	if strings.TrimSpace(header) == "" {
		return "", domain.Unauthorized("missing authorization header")
	}
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
		return "", domain.Unauthorized("invalid authorization header")
	}
	return strings.TrimSpace(token), nil
}
