package webserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

const RoleAdmin = "admin"

// AdminClaims are carried by admin bearer tokens
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func skipAuth(c echo.Context) bool {
	return strings.HasSuffix(c.Path(), "/health")
}

// AdminGuard verifies the HS256 bearer token and requires the admin role
func AdminGuard(secret string) []echo.MiddlewareFunc {
	verify := echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(secret),
		Skipper:    skipAuth,
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(AdminClaims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing token")
		},
	})
	requireAdmin := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skipAuth(c) {
				return next(c)
			}
			token, ok := c.Get("user").(*jwt.Token)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing token")
			}
			claims, ok := token.Claims.(*AdminClaims)
			if !ok || claims.Role != RoleAdmin {
				return echo.NewHTTPError(http.StatusForbidden, "admin role required")
			}
			return next(c)
		}
	}
	return []echo.MiddlewareFunc{verify, requireAdmin}
}

// IssueAdminToken signs a token accepted by AdminGuard
func IssueAdminToken(secret, subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := AdminClaims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
