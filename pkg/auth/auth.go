package auth

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/RasyaGtps/siaku-whatsapp-service/pkg/env"
	"github.com/RasyaGtps/siaku-whatsapp-service/pkg/router"
)

// AdminSecretKey guards the administrative HTTP surface.
// REQUIRED: Application will panic if not set
var AdminSecretKey string

func init() {
	AdminSecretKey = env.MustGetEnvString("ADMIN_SECRET_KEY")
}

// AdminAuth validates admin access, either via the X-Admin-Secret header
// or via a bearer token issued by POST /auth/token.
func AdminAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		adminSecret := c.Get("X-Admin-Secret")
		if adminSecret != "" {
			if subtle.ConstantTimeCompare([]byte(adminSecret), []byte(AdminSecretKey)) != 1 {
				return router.ResponseUnauthorized(c, "Invalid admin secret")
			}
			return c.Next()
		}

		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return router.ResponseUnauthorized(c, "Missing X-Admin-Secret or Authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return router.ResponseUnauthorized(c, "Invalid Authorization header format. Use: Bearer <token>")
		}

		claims, err := ValidateAdminToken(parts[1])
		if err != nil {
			return router.ResponseUnauthorized(c, "Invalid or expired token")
		}

		c.Locals("admin_subject", claims.Subject)

		return c.Next()
	}
}
