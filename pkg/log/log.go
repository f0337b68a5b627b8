package log

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

var logger = logrus.New()

func init() {
	logger.Formatter = &logrus.TextFormatter{
		TimestampFormat: time.RFC3339,
		FullTimestamp:   true,
		DisableColors:   false,
		ForceColors:     true,
	}
}

func Print(c *fiber.Ctx) *logrus.Entry {
	if c == nil {
		return logger.WithFields(logrus.Fields{})
	}

	remoteIP := c.IP()
	if v := c.Locals("remote_ip"); v != nil {
		if ip, ok := v.(string); ok && ip != "" {
			remoteIP = ip
		}
	}
	return logger.WithFields(logrus.Fields{
		"remote_ip": remoteIP,
		"method":    c.Method(),
		"uri":       c.OriginalURL(),
	})
}

// Handler tags log entries with the controller handler name.
func Handler(c *fiber.Ctx, name string) *logrus.Entry {
	return Print(c).WithField("handler", name)
}

// Bot tags log entries originating from the chat command loop with the
// peer phone number.
func Bot(phone string) *logrus.Entry {
	return logger.WithFields(logrus.Fields{
		"component": "bot",
		"phone":     phone,
	})
}
