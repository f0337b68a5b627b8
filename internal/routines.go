package internal

import (
	"github.com/robfig/cron/v3"

	"github.com/RasyaGtps/siaku-whatsapp-service/pkg/log"
	pkgWhatsApp "github.com/RasyaGtps/siaku-whatsapp-service/pkg/whatsapp"
)

func Routines(c *cron.Cron) {
	log.Print(nil).Info("Running Routine Tasks")

	// Expired ownership codes are also cleared lazily on submit; the
	// sweep keeps abandoned requests from piling up.
	_, err := c.AddFunc("0 * * * * *", func() {
		if removed := codeFlow.SweepExpired(); removed > 0 {
			log.Print(nil).WithField("removed", removed).Info("Swept expired verification codes")
		}
	})
	if err != nil {
		log.Print(nil).WithField("error", err.Error()).Error("Failed to add verification sweep cron job")
	}

	_, err = c.AddFunc("0 */5 * * * *", func() {
		if pkgWhatsApp.IsConnected() {
			log.Print(nil).Info("WhatsApp session healthy")
			return
		}
		log.Print(nil).Warn("WhatsApp session unhealthy, waiting for auto reconnect")
	})
	if err != nil {
		log.Print(nil).WithField("error", err.Error()).Error("Failed to add health check cron job")
	}

	c.Start()
}
