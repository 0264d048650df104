package routes

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/soko-pay/soko_pay/internal/config"
	"github.com/soko-pay/soko_pay/internal/grants"
	"github.com/soko-pay/soko_pay/internal/middleware"
	"github.com/soko-pay/soko_pay/internal/notification"
	"github.com/soko-pay/soko_pay/internal/opclient"
	"github.com/soko-pay/soko_pay/internal/outgoing"
	"github.com/soko-pay/soko_pay/internal/quotes"
	"github.com/soko-pay/soko_pay/internal/receivables"
	"github.com/soko-pay/soko_pay/internal/wallets"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	Client *opclient.Provider
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))

	RegisterHealthRoutes(app, d)

	resolver := wallets.NewService(d.Client, d.Cache, d.Cfg.WalletCacheTTL, d.Logger)
	negotiator := grants.NewNegotiator(d.Client, d.Logger)
	notifier := notification.NewLoggerNotifier(d.Logger)

	receivableSvc := receivables.NewService(d.Cfg.WalletAddressURL, resolver, negotiator, d.Client, notifier, d.Logger)
	quoteSvc := quotes.NewService(resolver, negotiator, d.Client, d.Logger)
	outgoingSvc := outgoing.NewService(resolver, negotiator, d.Client, quoteSvc, notifier, d.Logger)

	receivableHandler := receivables.NewHandler(receivableSvc)
	outgoingHandler := outgoing.NewHandler(outgoingSvc, d.Cfg.DemoSenderWallet)

	rateLimiter := middleware.PaymentRateLimit(d.Cache, d.Cfg.PaymentRateLimit)

	RegisterPaymentRoutes(app, receivableHandler, rateLimiter)
	RegisterDemoRoutes(app, outgoingHandler, rateLimiter)

	return nil
}
