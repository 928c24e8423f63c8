package main

import (
	"context"
	"encoding/json"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/wallet-settlement-engine/internal/ledger-audit/auditor"
	"github.com/radieske/wallet-settlement-engine/internal/settlement-service/metrics"
	"github.com/radieske/wallet-settlement-engine/internal/settlement-service/repo"
	"github.com/radieske/wallet-settlement-engine/internal/shared/config"
	"github.com/radieske/wallet-settlement-engine/internal/shared/db"
	"github.com/radieske/wallet-settlement-engine/internal/shared/kafka"
	"github.com/radieske/wallet-settlement-engine/internal/shared/logger"
	smetrics "github.com/radieske/wallet-settlement-engine/internal/shared/metrics"
	ev "github.com/radieske/wallet-settlement-engine/pkg/contracts/events"
)

func main() {
	cfg := config.Load()
	log, err := logger.New("ledger-audit-worker", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Postgres somente leitura: replay do razão e saldos cacheados
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg connect", zap.Error(err))
	}
	defer pg.Close()

	aud := auditor.New(log, repo.NewPostgres(pg))

	settledReader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicBetSettled, "ledger-audit")
	defer settledReader.Close()
	fundingReader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicFundingDecided, "ledger-audit")
	defer fundingReader.Close()

	var dlqWriter *kafkago.Writer
	if cfg.TopicBetSettledDLQ != "" {
		dlqWriter = kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetSettledDLQ)
		defer dlqWriter.Close()
	}

	// Servidor de métricas e health check
	metricsSrv := smetrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return pg.PingContext(ctx)
	})
	log.Info("metrics/health listening", zap.String("addr", metricsSrv.Addr))

	ctx := context.Background()

	// eventos de funding em goroutine separada; liquidações no loop principal
	go func() {
		for {
			_, value, err := kafka.ReadNext(ctx, fundingReader)
			if err != nil {
				log.Error("read funding_decided", zap.Error(err))
				continue
			}
			var e ev.FundingDecided
			if err := json.Unmarshal(value, &e); err != nil {
				log.Warn("bad funding_decided payload", zap.Error(err))
				continue
			}
			verify(ctx, log, aud, e.UserID)
		}
	}()

	for {
		_, value, err := kafka.ReadNext(ctx, settledReader)
		if err != nil {
			log.Error("read bet_settled", zap.Error(err))
			continue
		}
		var e ev.BetSettled
		if err := json.Unmarshal(value, &e); err != nil {
			log.Warn("bad bet_settled payload, sending to DLQ", zap.Error(err))
			if dlqWriter != nil {
				_ = kafka.WriteJSON(ctx, dlqWriter, "", value)
			}
			continue
		}
		verify(ctx, log, aud, e.UserID)
	}
}

// verify roda o replay da conta e conta divergências.
func verify(ctx context.Context, log *zap.Logger, aud *auditor.Auditor, userID string) {
	if userID == "" {
		return
	}
	if err := aud.VerifyUser(ctx, userID); err != nil {
		metrics.ReplayMismatchTotal.Inc()
		log.Error("ledger replay mismatch", zap.String("userId", userID), zap.Error(err))
	}
}
