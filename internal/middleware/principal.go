package middleware

import (
	"net/http"
	"strings"

	"localmart/internal/common"
	"localmart/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Principal validates the bearer token and puts the authenticated
// principal (shopper or store) into the request context.
func Principal(authSvc services.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing token")
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token format")
			}

			claims, err := authSvc.ValidateToken(c.Request().Context(), tokenString)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}

			id, err := uuid.Parse(claims.Subject)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid principal id")
			}

			ctx := common.WithPrincipal(c.Request().Context(), common.Principal{Kind: claims.Kind, ID: id})
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// RequireStore rejects requests whose principal is not a store.
func RequireStore() echo.MiddlewareFunc {
	return requireKind(common.PrincipalStore, "Store account required")
}

// RequireUser rejects requests whose principal is not a shopper.
func RequireUser() echo.MiddlewareFunc {
	return requireKind(common.PrincipalUser, "Shopper account required")
}

func requireKind(kind, message string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, ok := common.GetPrincipal(c.Request().Context())
			if !ok || principal.Kind != kind {
				return echo.NewHTTPError(http.StatusUnauthorized, message)
			}
			return next(c)
		}
	}
}
