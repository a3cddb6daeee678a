package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/expensehub/refund-api/internal/core/domain"
)

// userKey is where Auth stores the *domain.AuthUser on the echo context.
const userKey = "auth_user"

// Auth validates the bearer token and injects the AuthUser into context.
func Auth(jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}
			return authenticate(c, next, authHeader, jwtSecret)
		}
	}
}

// OptionalAuth behaves like Auth when an Authorization header is present
// and lets anonymous requests through otherwise.
func OptionalAuth(jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return next(c)
			}
			return authenticate(c, next, authHeader, jwtSecret)
		}
	}
}

func authenticate(c echo.Context, next echo.HandlerFunc, authHeader, jwtSecret string) error {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
	}

	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(jwtSecret), nil
	})
	if err != nil || !tkn.Valid {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	sub, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	if sub == "" || !domain.Role(role).Valid() {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token claims")
	}

	c.Set(userKey, &domain.AuthUser{ID: sub, Role: domain.Role(role)})
	return next(c)
}

// CurrentUser returns the authenticated user, or nil for anonymous requests.
func CurrentUser(c echo.Context) *domain.AuthUser {
	u, _ := c.Get(userKey).(*domain.AuthUser)
	return u
}

// SetUser injects an AuthUser; used by tests and internal callers.
func SetUser(c echo.Context, u domain.AuthUser) {
	c.Set(userKey, &u)
}
