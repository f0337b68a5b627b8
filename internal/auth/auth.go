package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/RasyaGtps/siaku-whatsapp-service/internal/types"
	pkgAuth "github.com/RasyaGtps/siaku-whatsapp-service/pkg/auth"
	"github.com/RasyaGtps/siaku-whatsapp-service/pkg/router"
)

// CreateToken exchanges the admin secret for a short-lived bearer
// token, so the secret itself never leaves the operator's machine on
// every request.
func CreateToken(c *fiber.Ctx) error {
	token, err := pkgAuth.GenerateAdminToken()
	if err != nil {
		return router.ResponseInternalError(c, "Failed to generate token")
	}

	return router.ResponseSuccessWithData(c, "Token generated", types.TokenResponse{Token: token})
}
