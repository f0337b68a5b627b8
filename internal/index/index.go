package index

import (
	"github.com/gofiber/fiber/v2"

	"github.com/RasyaGtps/siaku-whatsapp-service/pkg/router"
	"github.com/RasyaGtps/siaku-whatsapp-service/pkg/whatsapp"
)

func Index(c *fiber.Ctx) error {
	return router.ResponseSuccessWithData(c, "SIAku WhatsApp Service is running", fiber.Map{
		"service":   "siaku-whatsapp-service",
		"connected": whatsapp.IsConnected(),
	})
}
