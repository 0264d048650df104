package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/soko-pay/soko_pay/internal/receivables"
)

// RegisterPaymentRoutes wires the merchant-facing payment endpoints. The
// status route uses a wildcard because the payment reference is a full URL,
// usually arriving percent-encoded as a single segment.
func RegisterPaymentRoutes(r fiber.Router, h *receivables.Handler, rateLimit fiber.Handler) {
	r.Post("/generate-payment-qr", rateLimit, h.GenerateQR)
	r.Get("/payment-status/+", h.Status)
}
