package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/wallet-settlement-engine/internal/settlement-service/ledger"
	"github.com/radieske/wallet-settlement-engine/internal/settlement-service/metrics"
	"github.com/radieske/wallet-settlement-engine/pkg/contracts/events"
)

// OpenBetParams é o caminho de débito da aceitação de aposta: o motor debita
// stake e aplica liability; a decisão de aceitar (odds, mercado) vem de fora.
type OpenBetParams struct {
	UserID         string
	StakeCents     int64
	BonusUsedCents int64
	LiabilityCents int64 // <= 0: máximo que a casa pode dever se a aposta ganhar
}

// OpenBet cria a aposta OPEN debitando o stake (credit e, se usado, bonus),
// aplicando a liability na exposure e acumulando wagering, tudo em uma
// unidade de trabalho.
func (e *Engine) OpenBet(ctx context.Context, p OpenBetParams) (*ledger.Bet, error) {
	if p.UserID == "" || p.StakeCents <= 0 || p.BonusUsedCents < 0 || p.BonusUsedCents > p.StakeCents || p.LiabilityCents > 0 {
		return nil, fmt.Errorf("invalid bet: %w", ledger.ErrInvalidState)
	}

	bet, err := e.store.OpenBet(ctx, &ledger.Bet{
		UserID:         p.UserID,
		StakeCents:     p.StakeCents,
		BonusUsedCents: p.BonusUsedCents,
		LiabilityCents: p.LiabilityCents,
	})
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrInsufficientFunds):
			metrics.InsufficientFundsTotal.Inc()
		case errors.Is(err, ledger.ErrExposureLimitExceeded):
			metrics.ExposureLimitTotal.Inc()
		}
		return nil, err
	}
	return bet, nil
}

// Settle move a aposta OPEN para WON, LOST ou VOID exatamente uma vez.
// amountCents é o valor informado pelo operador: lucro líquido no WON,
// magnitude da perda no LOST (só para pnl; o stake já saiu na abertura),
// ignorado no VOID. Reemitir o mesmo status terminal devolve o resultado
// gravado; um status divergente falha ErrInvalidState.
func (e *Engine) Settle(ctx context.Context, betID string, target ledger.BetStatus, amountCents int64) (*ledger.Bet, error) {
	start := time.Now()
	defer func() {
		metrics.OperationDuration.WithLabelValues("settle").Observe(time.Since(start).Seconds())
	}()

	if !target.Terminal() || amountCents < 0 {
		return nil, fmt.Errorf("invalid settlement target: %w", ledger.ErrInvalidState)
	}

	ok, err := e.guard.Acquire(ctx, "settle:"+betID)
	if err != nil {
		return nil, err
	}
	if !ok {
		metrics.InFlightRejectedTotal.Inc()
		return nil, ErrInFlight
	}
	defer func() { _ = e.guard.Release(ctx, "settle:"+betID) }()

	bet, err := e.store.GetBet(ctx, betID)
	if err != nil {
		return nil, err
	}

	// ganhos sempre caem em credit, mesmo com bonus_used > 0: bônus só é
	// consumido no stake, nunca devolvido
	var creditCents, pnlCents int64
	switch target {
	case ledger.BetWon:
		creditCents = amountCents + bet.StakeCents
		pnlCents = amountCents
	case ledger.BetLost:
		creditCents = 0
		pnlCents = -amountCents
	case ledger.BetVoid:
		creditCents = bet.StakeCents
		pnlCents = 0
	}

	out, applied, err := e.store.SettleBet(ctx, betID, target, creditCents, pnlCents)
	if err != nil {
		if errors.Is(err, ledger.ErrInvalidState) {
			metrics.InvalidStateTotal.Inc()
		}
		return nil, err
	}

	if applied {
		metrics.SettlementsTotal.WithLabelValues(string(target)).Inc()
		e.publishSettled(ctx, out)
		e.log.Info("bet settled",
			zap.String("betId", out.ID),
			zap.String("status", string(out.Status)),
			zap.Int64("pnlCents", out.PnlCents))
	}
	return out, nil
}

func (e *Engine) publishSettled(ctx context.Context, bet *ledger.Bet) {
	if e.publ == nil {
		return
	}
	var after int64
	if bet.BalanceAfterCents != nil {
		after = *bet.BalanceAfterCents
	}
	err := e.publ.PublishBetSettled(ctx, events.BetSettled{
		BetID:            bet.ID,
		UserID:           bet.UserID,
		Status:           string(bet.Status),
		PnlCents:         bet.PnlCents,
		BalanceAfterCent: after,
	})
	if err != nil {
		e.log.Warn("publish bet_settled failed", zap.String("betId", bet.ID), zap.Error(err))
	}
}
