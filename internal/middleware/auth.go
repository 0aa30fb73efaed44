package middleware

import (
	"net/http"
	"strings"

	"vendor-service/pkg/jwtutil"
	"vendor-service/pkg/logger"
	"vendor-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const claimsKey = "claims"

// CurrentUser returns the claims stored by AuthMiddleware
func CurrentUser(c echo.Context) (*jwtutil.UserClaims, bool) {
	claims, ok := c.Get(claimsKey).(*jwtutil.UserClaims)
	return claims, ok
}

func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return strings.TrimSpace(header)
}

// AuthMiddleware rejects requests without a valid bearer token. Accepted
// requests carry the caller's claims and a logger tagged with the caller.
func AuthMiddleware(tokens *jwtutil.JWTUtil) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			raw := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if raw == "" {
				log.Warn("Missing authorization token")
				prometheus.RecordAuthAttempt(false)
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}

			claims, err := tokens.ValidateToken(raw)
			if err != nil {
				log.Warn("Invalid token", zap.Error(err))
				prometheus.RecordAuthAttempt(false)
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			prometheus.RecordAuthAttempt(true)

			c.Set(claimsKey, claims)
			logger.Bind(c, log.With(
				zap.Uint("user_id", claims.UserID),
				zap.String("user", claims.ExternalID),
			))
			return next(c)
		}
	}
}
