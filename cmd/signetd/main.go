package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/layer-3/signet/adapters/events"
	"github.com/layer-3/signet/adapters/store"
	"github.com/layer-3/signet/adapters/tokenizer"
	"github.com/layer-3/signet/internal/config"
	"github.com/layer-3/signet/internal/eth"
	"github.com/layer-3/signet/internal/logging"
	"github.com/layer-3/signet/ports"
	"github.com/layer-3/signet/service"
	"github.com/layer-3/signet/transport/http"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ledger := store.NewMemoryLedger()
	var eventPub ports.EventPublisher

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		redisClient := redis.NewClient(opts)
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to reach Redis: %w", err)
		}

		publisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{
				Client: redisClient,
			},
			events.NewZapLogger(logger),
		)
		if err != nil {
			return fmt.Errorf("failed to create Redis publisher: %w", err)
		}
		defer publisher.Close()

		ledger = store.NewRedisLedger(redisClient)
		eventPub = events.NewWatermillPublisher(publisher)
		logger.Info("Using Redis nonce ledger and event stream")
	} else {
		logger.Warn("REDIS_URL not set, nonce ledger is in-memory and events are disabled")
	}

	sessions := tokenizer.NewJWTTokenizer(cfg.SessionSecret)
	if cfg.SessionSecret == "" {
		logger.Warn("SESSION_SECRET not set, session tokens are decoded without signature verification")
	}

	resolver := service.NewKeyResolver(eth.NewKeystoreCodec(cfg.KeystoreScryptN, cfg.KeystoreScryptP))

	authOpts := []service.AuthOption{service.WithSessionReader(sessions)}
	intentOpts := []service.IntentOption{service.WithNonceTTL(cfg.NonceTTL)}
	if eventPub != nil {
		authOpts = append(authOpts, service.WithLoginEvents(eventPub))
		intentOpts = append(intentOpts, service.WithIntentEvents(eventPub))
	}

	// The remote auth and transaction services are reached by the caller;
	// this server only signs.
	authFlow := service.NewAuthFlow(nil, resolver, cfg.AppName, logger, authOpts...)
	intents := service.NewIntentBuilder(nil, nil, ledger, resolver, logger, intentOpts...)

	router := http.SetupRouter(http.NewHandlers(authFlow, intents, resolver, logger), sessions, logger)

	server := &nethttp.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", zap.String("addr", server.Addr), zap.String("app", cfg.AppName))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
