package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/soko-pay/soko_pay/internal/outgoing"
)

// RegisterDemoRoutes wires the simulated payer endpoints used for testing the
// full handshake without a wallet app.
func RegisterDemoRoutes(r fiber.Router, h *outgoing.Handler, rateLimit fiber.Handler) {
	r.Post("/simulate-tourist-payment", rateLimit, h.Simulate)
	r.Post("/complete-payment", rateLimit, h.Complete)
}
