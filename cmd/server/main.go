package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/mlozan/sales-ops/internal/adapter/event"
	"github.com/mlozan/sales-ops/internal/adapter/handler"
	"github.com/mlozan/sales-ops/internal/adapter/storage"
	"github.com/mlozan/sales-ops/internal/config"
	"github.com/mlozan/sales-ops/internal/core/service"
	"github.com/mlozan/sales-ops/internal/port"
)

const (
	serviceName      = "sales-ops"
	eventWorkerCount = 4
	eventQueueSize   = 1024
	shutdownTimeout  = 10 * time.Second
	redisPoolSize    = 100
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", serviceName).Logger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	tokenTTL, err := time.ParseDuration(cfg.TokenTTL)
	if err != nil {
		logger.Fatal().Err(err).Str("token_ttl", cfg.TokenTTL).Msg("invalid token ttl")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := storage.Open(cfg.MySQLDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to mysql")
	}
	if err := storage.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate schema")
	}
	logger.Info().Msg("connected to mysql")

	catalogRepo := storage.NewGormCatalogRepository(db)

	var ledger port.StockLedger
	var rdb *redis.Client
	switch cfg.LedgerDriver {
	case "redis":
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, PoolSize: redisPoolSize})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		redisLedger := storage.NewRedisLedger(rdb)
		products, err := catalogRepo.List(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to load catalog for stock sync")
		}
		if err := redisLedger.SyncStock(ctx, products); err != nil {
			logger.Fatal().Err(err).Msg("failed to seed redis stock")
		}
		logger.Info().Int("products", len(products)).Msg("seeded redis stock counters")
		ledger = redisLedger
	default:
		ledger = storage.NewMySQLLedger(db)
	}

	var events port.EventPublisher
	var kafkaPublisher *event.KafkaPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher = event.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, eventWorkerCount, eventQueueSize, logger)
		events = kafkaPublisher
		logger.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("publishing order events to kafka")
	} else {
		events = event.NewLogPublisher(logger)
	}

	sellerRepo := storage.NewGormSellerRepository(db)
	clientRepo := storage.NewGormClientRepository(db)
	orderRepo := storage.NewGormOrderRepository(db)

	identity := service.NewIdentityService(sellerRepo, []byte(cfg.JWTSecret), tokenTTL)
	catalog := service.NewCatalogService(catalogRepo)
	clients := service.NewClientService(clientRepo)
	reconciler := service.NewReconciler(clientRepo, catalogRepo, orderRepo, ledger, events)
	reports := service.NewReportService(orderRepo)

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	httpHandler := handler.NewHTTPHandler(identity, catalog, clients, reconciler, reports, logger)
	httpHandler.Register(mux)

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: mux}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
	}

	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close kafka publisher")
		}
	}
	if rdb != nil {
		rdb.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	logger.Info().Msg("stopped")
}
