package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Coletores do motor de liquidação. Registrados no registry default e
// expostos pelo servidor de métricas compartilhado.
var (
	SettlementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wallet_settlements_total",
		Help: "Liquidações de aposta aplicadas, por status terminal.",
	}, []string{"status"})

	FundingDecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wallet_funding_decisions_total",
		Help: "Decisões terminais de depósito/saque, por tipo e decisão.",
	}, []string{"kind", "decision"})

	InsufficientFundsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wallet_insufficient_funds_total",
		Help: "Débitos recusados por saldo insuficiente.",
	})

	ExposureLimitTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wallet_exposure_limit_total",
		Help: "Apostas recusadas por estouro do limite de exposure.",
	})

	InvalidStateTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wallet_invalid_state_total",
		Help: "Transições recusadas a partir de estado não aplicável.",
	})

	InFlightRejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wallet_inflight_rejected_total",
		Help: "Chamadas duplicadas colapsadas pela guarda in-flight.",
	})

	ReplayMismatchTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wallet_ledger_replay_mismatch_total",
		Help: "Contas cujo replay do razão divergiu do saldo cacheado.",
	})

	OperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wallet_operation_duration_seconds",
		Help:    "Duração das operações do motor, por operação.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
)
