package outgoing

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/soko-pay/soko_pay/internal/grants"
	"github.com/soko-pay/soko_pay/internal/validate"
)

// Handler exposes the payer-side demo endpoints.
type Handler struct {
	service *Service

	// fallbackWallet is the configured demo payer used when a request does
	// not name one.
	fallbackWallet string
}

// NewHandler constructs an outgoing payment handler.
func NewHandler(service *Service, fallbackWallet string) *Handler {
	return &Handler{service: service, fallbackWallet: fallbackWallet}
}

type simulateRequest struct {
	IncomingPaymentURL   string `json:"incomingPaymentUrl" validate:"required,url"`
	TouristWalletAddress string `json:"touristWalletAddress" validate:"omitempty,url"`
}

// Simulate runs the payer flow up to the authorization gap: quote the
// receivable, request the constrained interactive grant, and hand back the
// interaction redirect with the continuation credentials.
func (h *Handler) Simulate(c *fiber.Ctx) error {
	var req simulateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	wallet := req.TouristWalletAddress
	if wallet == "" {
		wallet = h.fallbackWallet
	}
	if wallet == "" {
		return fiber.NewError(http.StatusBadRequest, "touristWalletAddress is required and no default payer wallet is configured")
	}

	result := h.service.RunDemoFlow(c.UserContext(), req.IncomingPaymentURL, wallet)
	return c.JSON(result)
}

type completeRequest struct {
	QuoteID              string `json:"quoteId" validate:"required"`
	ContinueURI          string `json:"continueUri" validate:"required,url"`
	ContinueToken        string `json:"continueToken" validate:"required"`
	TouristWalletAddress string `json:"touristWalletAddress" validate:"omitempty,url"`
}

// Complete finishes the payment after the payer approved it out-of-band.
// Failures keep the structured demo result shape; a grant that is not yet
// finalized is marked retryable so the caller knows to try again later.
func (h *Handler) Complete(c *fiber.Ctx) error {
	var req completeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	wallet := req.TouristWalletAddress
	if wallet == "" {
		wallet = h.fallbackWallet
	}
	if wallet == "" {
		return fiber.NewError(http.StatusBadRequest, "touristWalletAddress is required and no default payer wallet is configured")
	}

	payment, err := h.service.Complete(c.UserContext(), CompleteInput{
		QuoteID:       req.QuoteID,
		ContinueURI:   req.ContinueURI,
		ContinueToken: req.ContinueToken,
		PayerWallet:   wallet,
	})
	if err != nil {
		resp := fiber.Map{
			"success":   false,
			"status":    StatusFailed,
			"error":     err.Error(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}
		if errors.Is(err, grants.ErrNotReady) {
			resp["retryable"] = true
		}
		return c.JSON(resp)
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"status":    StatusCompleted,
		"paymentId": payment.ID,
		"state":     payment.State,
		"message":   "Payment completed successfully",
	})
}
