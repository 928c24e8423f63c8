package main

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/wallet-settlement-engine/internal/settlement-service/engine"
	"github.com/radieske/wallet-settlement-engine/internal/settlement-service/guard"
	shttp "github.com/radieske/wallet-settlement-engine/internal/settlement-service/http"
	"github.com/radieske/wallet-settlement-engine/internal/settlement-service/offers"
	"github.com/radieske/wallet-settlement-engine/internal/settlement-service/producer"
	"github.com/radieske/wallet-settlement-engine/internal/settlement-service/repo"
	"github.com/radieske/wallet-settlement-engine/internal/shared/cache"
	"github.com/radieske/wallet-settlement-engine/internal/shared/config"
	"github.com/radieske/wallet-settlement-engine/internal/shared/db"
	"github.com/radieske/wallet-settlement-engine/internal/shared/kafka"
	"github.com/radieske/wallet-settlement-engine/internal/shared/logger"
	"github.com/radieske/wallet-settlement-engine/internal/shared/metrics"
)

func main() {
	cfg := config.Load()

	// Inicializa logger estruturado
	log, err := logger.New("settlement-service", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("starting service", zap.String("env", cfg.Env))

	// Postgres: razão, contas, solicitações e apostas
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	if err := repo.Migrate(pg); err != nil {
		log.Fatal("migrate", zap.Error(err))
	}

	// Redis: guarda in-flight e resolução de ofertas
	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer rdb.Close()

	// Kafka: eventos pós-commit de liquidação e funding
	settledWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetSettled)
	defer settledWriter.Close()
	fundingWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicFundingDecided)
	defer fundingWriter.Close()

	eng := engine.New(
		log,
		repo.NewPostgres(pg),
		guard.NewRedis(rdb, 30*time.Second),
		offers.NewRedisResolver(rdb, 24*time.Hour),
		producer.NewKafkaPublisher(settledWriter, fundingWriter),
		cfg.BonusAsSeparateField,
	)
	api := shttp.NewServer(log, eng)

	// Servidor de métricas e health check em porta separada
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return err
		}
		return rdb.Ping(ctx).Err()
	})
	log.Info("metrics/health listening", zap.String("addr", metricsSrv.Addr))

	// Servidor principal da API do motor
	apiSrv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Info("api listening", zap.String("addr", apiSrv.Addr))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api srv", zap.Error(err))
	}
}
