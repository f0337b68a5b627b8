package internal

import (
	"github.com/gofiber/fiber/v2"

	"github.com/RasyaGtps/siaku-whatsapp-service/pkg/auth"
	"github.com/RasyaGtps/siaku-whatsapp-service/pkg/router"

	ctlAdmin "github.com/RasyaGtps/siaku-whatsapp-service/internal/admin"
	ctlAuth "github.com/RasyaGtps/siaku-whatsapp-service/internal/auth"
	ctlIndex "github.com/RasyaGtps/siaku-whatsapp-service/internal/index"
)

func Routes(app *fiber.App) {
	// Route for Index
	// ---------------------------------------------
	if router.BaseURL == "" {
		app.Get("/", ctlIndex.Index)
	} else {
		app.Get(router.BaseURL, ctlIndex.Index)
		app.Get(router.BaseURL+"/", ctlIndex.Index)
	}

	adminMiddleware := auth.AdminAuth()

	// Token exchange (X-Admin-Secret in, JWT out)
	app.Post(router.BaseURL+"/auth/token", adminMiddleware, ctlAuth.CreateToken)

	// WhatsApp session operations
	app.Get(router.BaseURL+"/wa/status", adminMiddleware, ctlAdmin.GetStatus)
	app.Get(router.BaseURL+"/wa/qr", adminMiddleware, ctlAdmin.GetQR)
	app.Post(router.BaseURL+"/wa/send", adminMiddleware, ctlAdmin.SendMessage)
	app.Post(router.BaseURL+"/wa/broadcast", adminMiddleware, ctlAdmin.Broadcast)
}
