package routes

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

// RegisterHealthRoutes adds the liveness endpoint. It reports the merchant
// wallet so operators can confirm which identity the service runs as.
func RegisterHealthRoutes(app *fiber.App, d Deps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":    "ok",
			"merchant":  d.Cfg.WalletAddressURL,
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		})
	})
}
