package http

import (
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/p2p-exchange/backend/internal/config"
	"github.com/p2p-exchange/backend/internal/http/handlers"
	"github.com/p2p-exchange/backend/internal/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	offerHandler *handlers.OfferHandler,
	tradeHandler *handlers.TradeHandler,
	disputeHandler *handlers.DisputeHandler,
	walletHandler *handlers.WalletHandler,
	wsHub *handlers.WSHub,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	// Auth (public, tighter rate limit)
	authGroup := api.Group("/auth", middleware.RateLimitMiddleware(rdb, 20, time.Minute))
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	api.Use(middleware.RateLimitMiddleware(rdb, 100, time.Minute))

	// Static form data (public)
	metaHandler := handlers.NewMetaHandler()
	api.Get("/meta/payment-methods", metaHandler.GetPaymentMethods)
	api.Get("/meta/currencies", metaHandler.GetCurrencies)

	// Everything past this point requires a valid bearer token
	protected := api.Group("", middleware.AuthMiddleware(cfg, log))

	// Profile / balances
	protected.Get("/me", userHandler.GetMe)
	protected.Post("/me/ping", userHandler.Ping)
	protected.Get("/me/balances", walletHandler.ListBalances)
	protected.Post("/me/deposit", walletHandler.Deposit)

	p2p := protected.Group("/p2p")

	// Offers
	p2p.Post("/offers", offerHandler.CreateOffer)
	p2p.Get("/offers", offerHandler.ListOffers)
	p2p.Get("/offers/my", offerHandler.MyOffers)
	p2p.Get("/offers/:id", offerHandler.GetOffer)
	p2p.Delete("/offers/:id", offerHandler.DeleteOffer)

	// Trades
	p2p.Post("/trade", tradeHandler.CreateTrade)
	p2p.Get("/trades", tradeHandler.ListTrades)
	p2p.Get("/trade/:id", tradeHandler.GetTrade)
	p2p.Get("/trade/:id/events", tradeHandler.GetTradeEvents)
	p2p.Get("/trade/:id/messages", tradeHandler.ListMessages)
	p2p.Post("/trade/:id/message", tradeHandler.PostMessage)
	p2p.Post("/mark-paid", tradeHandler.MarkPaid)
	p2p.Post("/release-crypto", tradeHandler.ReleaseCrypto)
	p2p.Post("/trade/cancel", tradeHandler.CancelTrade)

	// Disputes; /disputes/initiate is the older route for /raise-dispute
	p2p.Post("/raise-dispute", disputeHandler.RaiseDispute)
	p2p.Post("/disputes/initiate", disputeHandler.RaiseDispute)
	p2p.Post("/disputes/evidence", disputeHandler.AddEvidence)
	p2p.Get("/disputes/:id", disputeHandler.GetDispute)

	// Arbitration
	admin := p2p.Group("/admin", middleware.AdminMiddleware())
	admin.Get("/disputes", disputeHandler.ListOpenDisputes)
	admin.Post("/disputes/:id/resolve", disputeHandler.ResolveDispute)

	// WebSocket
	app.Use("/ws", handlers.WSUpgradeMiddleware())
	app.Get("/ws", websocket.New(wsHub.HandleWS))
}
