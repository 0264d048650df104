package notification

import (
	"context"
	"log/slog"
)

const (
	// KindReceivableCreated indicates a new receivable was issued.
	KindReceivableCreated = "receivable_created"
	// KindPaymentPending indicates a payment is awaiting payer authorization.
	KindPaymentPending = "payment_pending_authorization"
	// KindPaymentCompleted indicates an outgoing payment was created.
	KindPaymentCompleted = "payment_completed"
)

// Message describes a payment lifecycle event.
type Message struct {
	Kind        string
	Destination string
	Body        string
}

// Notifier delivers lifecycle events to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier is a stub implementation that writes events to the logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier stub.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification", "kind", message.Kind, "destination", message.Destination, "body", message.Body)
	return nil
}
