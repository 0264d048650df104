package receivables

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/soko-pay/soko_pay/internal/qr"
	"github.com/soko-pay/soko_pay/internal/validate"
)

// Handler exposes the merchant-facing receivable endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a receivable handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type generateQRRequest struct {
	Amount           decimal.Decimal `json:"amount"`
	Description      string          `json:"description"`
	ExpiresInMinutes int             `json:"expiresInMinutes" validate:"omitempty,gt=0"`
}

// GenerateQR issues a receivable and returns its reference URL rendered as a
// scannable QR code.
func (h *Handler) GenerateQR(c *fiber.Ctx) error {
	var req generateQRRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	payment, err := h.service.Create(c.UserContext(), CreateInput{
		AmountMajor: req.Amount,
		Description: req.Description,
		ExpiresIn:   time.Duration(req.ExpiresInMinutes) * time.Minute,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidAmount) {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	dataURL, err := qr.DataURL(payment.ID)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(fiber.Map{
		"success":            true,
		"incomingPaymentUrl": payment.ID,
		"qrCodeDataUrl":      dataURL,
		"amount":             req.Amount,
		"assetCode":          payment.IncomingAmount.AssetCode,
		"description":        req.Description,
		"expiresAt":          payment.ExpiresAt,
		"message":            "QR code ready to scan",
	})
}

// Status reports whether a receivable has been paid. The path parameter is
// the receivable's URL-encoded reference URL.
func (h *Handler) Status(c *fiber.Ctx) error {
	raw := c.Params("+")
	if decoded, err := url.PathUnescape(raw); err == nil && decoded != "" {
		raw = decoded
	}

	status, err := h.service.Status(c.UserContext(), raw)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(fiber.Map{
		"success":        true,
		"completed":      status.Completed,
		"receivedAmount": status.ReceivedAmount,
		"incomingAmount": status.IncomingAmount,
		"expiresAt":      status.ExpiresAt,
		"metadata":       status.Metadata,
	})
}
