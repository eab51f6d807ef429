package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/p2p-exchange/backend/internal/config"
	"github.com/p2p-exchange/backend/internal/db"
	"github.com/p2p-exchange/backend/internal/events"
	apphttp "github.com/p2p-exchange/backend/internal/http"
	"github.com/p2p-exchange/backend/internal/http/handlers"
	"github.com/p2p-exchange/backend/internal/rates"
	"github.com/p2p-exchange/backend/internal/repositories"
	"github.com/p2p-exchange/backend/internal/services"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	// Run migrations
	if err := db.RunMigrations(ctx, pool, "migrations", log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repositories
	userRepo := repositories.NewUserRepo(pool)
	offerRepo := repositories.NewOfferRepo(pool)
	tradeRepo := repositories.NewTradeRepo(pool)
	balanceRepo := repositories.NewBalanceRepo(pool)
	disputeRepo := repositories.NewDisputeRepo(pool)
	messageRepo := repositories.NewMessageRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)

	// Events
	publisher := events.NewRedisPublisher(rdb, log)
	subscriber := events.NewRedisSubscriber(rdb, log)

	// Services
	rateFetcher := rates.NewFetcher(cfg.RatesSourceURL, cfg.RatesSelector, cfg.RatesFetchTimeoutMS, cfg.RatesFetchRetries, cfg.RatesCacheTTL, rdb, log)
	escrowService := services.NewEscrowService(balanceRepo, log)
	offerService := services.NewOfferService(offerRepo, auditRepo, rateFetcher, log)
	tradeService := services.NewTradeService(pool, tradeRepo, offerRepo, messageRepo, auditRepo, escrowService, publisher, cfg, log)
	disputeService := services.NewDisputeService(tradeService, disputeRepo, auditRepo, publisher, log)
	walletService := services.NewWalletService(balanceRepo, auditRepo, log)

	// Handlers
	authHandler := handlers.NewAuthHandler(userRepo, cfg, log)
	userHandler := handlers.NewUserHandler(userRepo, log)
	offerHandler := handlers.NewOfferHandler(offerService, log)
	tradeHandler := handlers.NewTradeHandler(tradeService, offerService, log)
	disputeHandler := handlers.NewDisputeHandler(disputeService, log)
	walletHandler := handlers.NewWalletHandler(walletService, log)
	wsHub := handlers.NewWSHub(cfg, subscriber, log)

	// Start WS hub
	wsHub.Start(ctx)

	// Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"detail": err.Error()})
		},
	})

	apphttp.SetupRouter(app, cfg, log, rdb, authHandler, userHandler, offerHandler, tradeHandler, disputeHandler, walletHandler, wsHub)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
