package middleware

import (
	"strings"

	"github.com/cloudteams/developer-services/domain"
	"github.com/cloudteams/developer-services/services"
	"github.com/labstack/echo/v4"
)

// BearerAuth validates the Authorization header and, when a valid token
// is present, attaches the principal to the request context. It never
// rejects the request itself: the legacy wire contract reports missing
// auth inside a 200 body, so handlers decide what an absent principal
// means for them.
func BearerAuth(tokens *services.TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return next(c)
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return next(c)
			}

			principal, err := tokens.Validate(c.Request().Context(), parts[1])
			if err != nil {
				return next(c)
			}

			ctx := domain.ContextWithPrincipal(c.Request().Context(), principal)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}
