// Package engine orquestra os fluxos de funding e liquidação sobre o razão.
// O motor não guarda estado próprio: qualquer número de instâncias pode rodar
// em paralelo, a serialização por conta é garantida pelo Store.
package engine

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/radieske/wallet-settlement-engine/internal/settlement-service/ledger"
	"github.com/radieske/wallet-settlement-engine/internal/settlement-service/offers"
	"github.com/radieske/wallet-settlement-engine/pkg/contracts/events"
)

// ErrInFlight indica uma chamada idêntica ainda em andamento; o chamador
// pode reemitir com segurança (idempotência garante o resultado).
var ErrInFlight = errors.New("operation already in flight")

// Guard colapsa chamadas duplicadas concorrentes (fast path da idempotência).
type Guard interface {
	Acquire(ctx context.Context, name string) (bool, error)
	Release(ctx context.Context, name string) error
}

// OfferResolver é o colaborador externo que resolve a elegibilidade de bônus.
type OfferResolver interface {
	Resolve(ctx context.Context, offerID string, depositCents int64) (*offers.Offer, error)
}

// Publisher emite os eventos pós-commit do motor.
type Publisher interface {
	PublishBetSettled(ctx context.Context, e events.BetSettled) error
	PublishFundingDecided(ctx context.Context, e events.FundingDecided) error
}

// Engine é o motor de carteira: workflow de depósito/saque e liquidação de aposta.
type Engine struct {
	log    *zap.Logger
	store  ledger.Store
	guard  Guard
	offers OfferResolver
	publ   Publisher

	// política de destino do bônus quando a oferta marca is_bonus
	bonusAsSeparateField bool
}

func New(log *zap.Logger, store ledger.Store, g Guard, o OfferResolver, p Publisher, bonusAsSeparateField bool) *Engine {
	return &Engine{log: log, store: store, guard: g, offers: o, publ: p, bonusAsSeparateField: bonusAsSeparateField}
}

// Wallet retorna (criando se preciso) a conta do usuário.
func (e *Engine) Wallet(ctx context.Context, userID string) (*ledger.Account, error) {
	return e.store.GetOrCreateAccount(ctx, userID)
}

// Ledger retorna a trilha de auditoria da conta.
func (e *Engine) Ledger(ctx context.Context, userID string) ([]ledger.Entry, error) {
	return e.store.Entries(ctx, userID)
}

// Bet retorna a aposta pelo id.
func (e *Engine) Bet(ctx context.Context, betID string) (*ledger.Bet, error) {
	return e.store.GetBet(ctx, betID)
}

// FundingRequest retorna a solicitação pelo id.
func (e *Engine) FundingRequest(ctx context.Context, id string) (*ledger.FundingRequest, error) {
	return e.store.GetFundingRequest(ctx, id)
}

// Adjust lança um ajuste manual de backoffice como lançamento no razão,
// nunca como sobrescrita direta do campo.
func (e *Engine) Adjust(ctx context.Context, userID string, field ledger.Field, deltaCents int64, referenceID, remark string) (*ledger.Account, error) {
	acc, err := e.store.Adjust(ctx, userID, field, deltaCents, referenceID, remark)
	if err != nil {
		return nil, err
	}
	e.log.Info("manual adjustment applied",
		zap.String("userId", userID),
		zap.String("field", string(field)),
		zap.Int64("deltaCents", deltaCents),
		zap.String("referenceId", referenceID))
	return acc, nil
}
