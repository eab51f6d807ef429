package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/p2p-exchange/backend/internal/config"
	"github.com/p2p-exchange/backend/internal/db"
	"github.com/p2p-exchange/backend/internal/events"
	"github.com/p2p-exchange/backend/internal/repositories"
	"github.com/p2p-exchange/backend/internal/services"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repos
	tradeRepo := repositories.NewTradeRepo(pool)
	offerRepo := repositories.NewOfferRepo(pool)
	balanceRepo := repositories.NewBalanceRepo(pool)
	messageRepo := repositories.NewMessageRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)

	// Services
	publisher := events.NewRedisPublisher(rdb, log)
	escrowService := services.NewEscrowService(balanceRepo, log)
	tradeService := services.NewTradeService(pool, tradeRepo, offerRepo, messageRepo, auditRepo, escrowService, publisher, cfg, log)

	log.Info("worker started", zap.Duration("sweep_every", cfg.ExpirySweepEvery))

	// Recovery sweep: trades whose payment window lapsed while nothing was
	// running are expired before the ticker takes over.
	runExpirySweep(ctx, tradeRepo, tradeService, log)

	expiryTicker := time.NewTicker(cfg.ExpirySweepEvery)
	defer expiryTicker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-expiryTicker.C:
			runExpirySweep(ctx, tradeRepo, tradeService, log)
		case <-sigCh:
			log.Info("shutting down worker")
			cancel()
			return
		case <-ctx.Done():
			return
		}
	}
}

// runExpirySweep expires every pending_payment trade past its window. The
// transition is a CAS, so a sweep racing the API (or another worker) loses
// harmlessly.
func runExpirySweep(ctx context.Context, tradeRepo *repositories.TradeRepo, tradeService *services.TradeService, log *zap.Logger) {
	trades, err := tradeRepo.GetExpiredPending(ctx, 200)
	if err != nil {
		log.Error("failed to list expired trades", zap.Error(err))
		return
	}

	for _, trade := range trades {
		expired, err := tradeService.Expire(ctx, trade.ID)
		if err != nil {
			log.Error("failed to expire trade", zap.String("trade_id", trade.ID.String()), zap.Error(err))
			continue
		}
		if expired {
			log.Info("trade expired",
				zap.String("trade_id", trade.ID.String()),
				zap.Time("expires_at", trade.ExpiresAt),
			)
		}
	}
}
