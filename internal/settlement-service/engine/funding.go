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

// CreateDeposit registra uma solicitação de depósito em pending.
func (e *Engine) CreateDeposit(ctx context.Context, userID string, amountCents int64, bankReference, offerID string) (*ledger.FundingRequest, error) {
	if userID == "" || amountCents <= 0 {
		return nil, fmt.Errorf("invalid deposit request: %w", ledger.ErrInvalidState)
	}
	return e.store.CreateFundingRequest(ctx, &ledger.FundingRequest{
		UserID:        userID,
		Kind:          ledger.FundingDeposit,
		AmountCents:   amountCents,
		BankReference: bankReference,
		OfferID:       offerID,
	})
}

// CreateWithdrawal registra uma solicitação de saque em pending.
func (e *Engine) CreateWithdrawal(ctx context.Context, userID string, amountCents int64, bankReference string) (*ledger.FundingRequest, error) {
	if userID == "" || amountCents <= 0 {
		return nil, fmt.Errorf("invalid withdrawal request: %w", ledger.ErrInvalidState)
	}
	return e.store.CreateFundingRequest(ctx, &ledger.FundingRequest{
		UserID:        userID,
		Kind:          ledger.FundingWithdrawal,
		AmountCents:   amountCents,
		BankReference: bankReference,
	})
}

// ApproveFunding decide a solicitação como approved, creditando (depósito,
// mais bônus de oferta quando elegível) ou debitando (saque) a carteira.
// ErrInsufficientFunds deixa o saque em pending para resolução manual.
func (e *Engine) ApproveFunding(ctx context.Context, requestID string, kind ledger.FundingKind) (*ledger.FundingRequest, error) {
	start := time.Now()
	defer func() {
		metrics.OperationDuration.WithLabelValues("funding_approve").Observe(time.Since(start).Seconds())
	}()

	ok, err := e.guard.Acquire(ctx, "funding:"+requestID)
	if err != nil {
		return nil, err
	}
	if !ok {
		metrics.InFlightRejectedTotal.Inc()
		return nil, ErrInFlight
	}
	defer func() { _ = e.guard.Release(ctx, "funding:"+requestID) }()

	req, err := e.store.GetFundingRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Kind != kind {
		return nil, ledger.ErrInvalidState
	}

	var out *ledger.FundingRequest
	switch req.Kind {
	case ledger.FundingDeposit:
		bonusCents, bonusField := e.resolveBonus(ctx, req)
		out, err = e.store.ApproveDeposit(ctx, requestID, bonusCents, bonusField)
	case ledger.FundingWithdrawal:
		out, err = e.store.ApproveWithdrawal(ctx, requestID)
	default:
		return nil, ledger.ErrInvalidState
	}
	if err != nil {
		e.countFundingError(err)
		return nil, err
	}

	metrics.FundingDecisionsTotal.WithLabelValues(string(out.Kind), "approved").Inc()
	e.publishFunding(ctx, out)
	return out, nil
}

// RejectFunding decide a solicitação como rejected com o remark do operador.
// Nunca toca o razão.
func (e *Engine) RejectFunding(ctx context.Context, requestID string, kind ledger.FundingKind, remark string) (*ledger.FundingRequest, error) {
	ok, err := e.guard.Acquire(ctx, "funding:"+requestID)
	if err != nil {
		return nil, err
	}
	if !ok {
		metrics.InFlightRejectedTotal.Inc()
		return nil, ErrInFlight
	}
	defer func() { _ = e.guard.Release(ctx, "funding:"+requestID) }()

	req, err := e.store.GetFundingRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Kind != kind {
		return nil, ledger.ErrInvalidState
	}

	out, err := e.store.RejectFunding(ctx, requestID, remark)
	if err != nil {
		e.countFundingError(err)
		return nil, err
	}

	metrics.FundingDecisionsTotal.WithLabelValues(string(out.Kind), "rejected").Inc()
	e.publishFunding(ctx, out)
	return out, nil
}

// resolveBonus consulta o colaborador de ofertas e calcula o bônus do depósito.
// Oferta desconhecida, expirada ou inelegível resulta em bônus zero.
func (e *Engine) resolveBonus(ctx context.Context, req *ledger.FundingRequest) (int64, ledger.Field) {
	if req.OfferID == "" || e.offers == nil {
		return 0, ledger.FieldCredit
	}

	offer, err := e.offers.Resolve(ctx, req.OfferID, req.AmountCents)
	if err != nil {
		// falha no colaborador não bloqueia a aprovação do depósito
		e.log.Warn("offer resolve failed, approving without bonus",
			zap.String("requestId", req.ID), zap.String("offerId", req.OfferID), zap.Error(err))
		return 0, ledger.FieldCredit
	}
	if offer == nil {
		return 0, ledger.FieldCredit
	}

	field := ledger.FieldCredit
	if offer.AsBonus && e.bonusAsSeparateField {
		field = ledger.FieldBonus
	}
	return offer.BonusFor(req.AmountCents), field
}

func (e *Engine) countFundingError(err error) {
	switch {
	case errors.Is(err, ledger.ErrInsufficientFunds):
		metrics.InsufficientFundsTotal.Inc()
	case errors.Is(err, ledger.ErrInvalidState):
		metrics.InvalidStateTotal.Inc()
	}
}

// publishFunding emite o evento pós-commit; falha de publicação não desfaz
// a decisão, só é logada.
func (e *Engine) publishFunding(ctx context.Context, req *ledger.FundingRequest) {
	if e.publ == nil {
		return
	}
	err := e.publ.PublishFundingDecided(ctx, events.FundingDecided{
		RequestID:        req.ID,
		UserID:           req.UserID,
		Kind:             string(req.Kind),
		Status:           string(req.Status),
		AmountCents:      req.AmountCents,
		BonusAwardedCent: req.BonusAwardedCents,
		Remark:           req.Remark,
	})
	if err != nil {
		e.log.Warn("publish funding_decided failed", zap.String("requestId", req.ID), zap.Error(err))
	}
}
