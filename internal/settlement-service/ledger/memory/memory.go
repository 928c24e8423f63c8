// Package memory implementa ledger.Store em memória.
// Usado nos testes e no modo local; espelha as garantias do Postgres:
// exclusão mútua por conta e unidade de trabalho tudo-ou-nada.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/radieske/wallet-settlement-engine/internal/settlement-service/ledger"
)

// Store guarda contas, razão, solicitações e apostas em mapas protegidos.
// Ordem de locks: s.mu sempre antes de slot.mu, nunca o inverso.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]*accountSlot // userID -> slot
	funding  map[string]*ledger.FundingRequest
	bets     map[string]*ledger.Bet
}

// accountSlot serializa toda mutação de uma conta (equivalente ao
// SELECT ... FOR UPDATE da implementação Postgres).
type accountSlot struct {
	mu      sync.Mutex
	acc     ledger.Account
	entries []ledger.Entry
	refs    map[string]int // reference|reason|field -> índice em entries
}

func NewStore() *Store {
	return &Store{
		accounts: make(map[string]*accountSlot),
		funding:  make(map[string]*ledger.FundingRequest),
		bets:     make(map[string]*ledger.Bet),
	}
}

func refKey(referenceID string, reason ledger.Reason, field ledger.Field) string {
	return referenceID + "|" + string(reason) + "|" + string(field)
}

// slot retorna (criando se preciso) o slot da conta do usuário.
func (s *Store) slot(userID string) *accountSlot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slotLocked(userID)
}

func (s *Store) slotLocked(userID string) *accountSlot {
	sl, ok := s.accounts[userID]
	if !ok {
		now := time.Now().UTC()
		sl = &accountSlot{
			acc: ledger.Account{
				ID:                 uuid.NewString(),
				UserID:             userID,
				ExposureLimitCents: defaultExposureLimit,
				CreatedAt:          now,
				UpdatedAt:          now,
			},
			refs: make(map[string]int),
		}
		s.accounts[userID] = sl
	}
	return sl
}

// Limite default de exposure para contas novas, espelhando o schema.
const defaultExposureLimit = -1_000_000

// op é uma mutação de saldo pendente dentro de uma unidade de trabalho.
type op struct {
	typ    ledger.EntryType
	field  ledger.Field
	amount int64 // >= 0
	reason ledger.Reason
	ref    string
}

// apply executa as ops como unidade atômica: valida tudo contra uma cópia
// da conta e só então materializa lançamentos e saldos. Ops cujo
// (reference, reason, field) já existe no razão são puladas (idempotência).
func (sl *accountSlot) apply(ops []op) error {
	staged := sl.acc
	var pending []ledger.Entry
	now := time.Now().UTC()

	for _, o := range ops {
		if o.amount == 0 {
			continue
		}
		if _, dup := sl.refs[refKey(o.ref, o.reason, o.field)]; dup {
			continue
		}

		delta := o.amount
		if o.typ == ledger.EntryDebit {
			delta = -delta
		}

		var after int64
		switch o.field {
		case ledger.FieldCredit:
			after = staged.CreditCents + delta
			if after < 0 {
				return ledger.ErrInsufficientFunds
			}
			staged.CreditCents = after
		case ledger.FieldBonus:
			after = staged.BonusCents + delta
			if after < 0 {
				return ledger.ErrInsufficientFunds
			}
			staged.BonusCents = after
		case ledger.FieldExposure:
			after = staged.ExposureCents + delta
			if after < staged.ExposureLimitCents {
				return ledger.ErrExposureLimitExceeded
			}
			if after > 0 {
				return ledger.ErrInvalidState
			}
			staged.ExposureCents = after
		}

		pending = append(pending, ledger.Entry{
			ID:                uuid.NewString(),
			AccountID:         staged.ID,
			Type:              o.typ,
			Field:             o.field,
			AmountCents:       o.amount,
			Reason:            o.reason,
			ReferenceID:       o.ref,
			BalanceAfterCents: after,
			CreatedAt:         now,
		})
	}

	// commit
	staged.UpdatedAt = now
	for _, e := range pending {
		sl.refs[refKey(e.ReferenceID, e.Reason, e.Field)] = len(sl.entries)
		sl.entries = append(sl.entries, e)
	}
	sl.acc = staged
	return nil
}

func (s *Store) GetOrCreateAccount(_ context.Context, userID string) (*ledger.Account, error) {
	sl := s.slot(userID)
	sl.mu.Lock()
	defer sl.mu.Unlock()
	acc := sl.acc
	return &acc, nil
}

func (s *Store) GetAccount(_ context.Context, userID string) (*ledger.Account, error) {
	s.mu.RLock()
	sl, ok := s.accounts[userID]
	s.mu.RUnlock()
	if !ok {
		return nil, ledger.ErrNotFound
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	acc := sl.acc
	return &acc, nil
}

func (s *Store) CreateFundingRequest(_ context.Context, req *ledger.FundingRequest) (*ledger.FundingRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *req
	cp.ID = uuid.NewString()
	cp.Status = ledger.FundingPending
	cp.CreatedAt = time.Now().UTC()
	cp.DecidedAt = nil
	s.slotLocked(cp.UserID) // garante a conta
	s.funding[cp.ID] = &cp

	out := cp
	return &out, nil
}

func (s *Store) GetFundingRequest(_ context.Context, id string) (*ledger.FundingRequest, error) {
	s.mu.RLock()
	req, ok := s.funding[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ledger.ErrNotFound
	}

	sl := s.slot(req.UserID)
	sl.mu.Lock()
	defer sl.mu.Unlock()
	cp := *req
	return &cp, nil
}

func (s *Store) ApproveDeposit(_ context.Context, requestID string, bonusCents int64, bonusField ledger.Field) (*ledger.FundingRequest, error) {
	req, sl, err := s.lockFunding(requestID)
	if err != nil {
		return nil, err
	}
	defer sl.mu.Unlock()

	if req.Kind != ledger.FundingDeposit || req.Status != ledger.FundingPending {
		return nil, ledger.ErrInvalidState
	}

	ops := []op{{typ: ledger.EntryCredit, field: ledger.FieldCredit, amount: req.AmountCents, reason: ledger.ReasonDeposit, ref: req.ID}}
	if bonusCents > 0 {
		ops = append(ops, op{typ: ledger.EntryCredit, field: bonusField, amount: bonusCents, reason: ledger.ReasonBonusGrant, ref: req.ID})
	}
	if err := sl.apply(ops); err != nil {
		return nil, err
	}

	// wagering é rolling desde o último depósito
	sl.acc.WageringCents = 0

	now := time.Now().UTC()
	req.Status = ledger.FundingApproved
	req.BonusAwardedCents = bonusCents
	req.DecidedAt = &now

	cp := *req
	return &cp, nil
}

func (s *Store) ApproveWithdrawal(_ context.Context, requestID string) (*ledger.FundingRequest, error) {
	req, sl, err := s.lockFunding(requestID)
	if err != nil {
		return nil, err
	}
	defer sl.mu.Unlock()

	if req.Kind != ledger.FundingWithdrawal || req.Status != ledger.FundingPending {
		return nil, ledger.ErrInvalidState
	}

	if err := sl.apply([]op{{typ: ledger.EntryDebit, field: ledger.FieldCredit, amount: req.AmountCents, reason: ledger.ReasonWithdrawal, ref: req.ID}}); err != nil {
		// aprovação falha; a solicitação permanece pending
		return nil, err
	}

	now := time.Now().UTC()
	req.Status = ledger.FundingApproved
	req.DecidedAt = &now

	cp := *req
	return &cp, nil
}

func (s *Store) RejectFunding(_ context.Context, requestID, remark string) (*ledger.FundingRequest, error) {
	req, sl, err := s.lockFunding(requestID)
	if err != nil {
		return nil, err
	}
	defer sl.mu.Unlock()

	if req.Status != ledger.FundingPending {
		return nil, ledger.ErrInvalidState
	}

	now := time.Now().UTC()
	req.Status = ledger.FundingRejected
	req.Remark = remark
	req.DecidedAt = &now

	cp := *req
	return &cp, nil
}

// lockFunding resolve a solicitação e devolve o slot da conta já travado.
func (s *Store) lockFunding(requestID string) (*ledger.FundingRequest, *accountSlot, error) {
	s.mu.RLock()
	req, ok := s.funding[requestID]
	s.mu.RUnlock()
	if !ok {
		return nil, nil, ledger.ErrNotFound
	}

	sl := s.slot(req.UserID)
	sl.mu.Lock()
	return req, sl, nil
}

func (s *Store) OpenBet(_ context.Context, bet *ledger.Bet) (*ledger.Bet, error) {
	s.mu.Lock()
	sl := s.slotLocked(bet.UserID)
	s.mu.Unlock()

	sl.mu.Lock()

	cp := *bet
	cp.ID = uuid.NewString()
	cp.Status = ledger.BetOpen
	cp.BalanceBeforeCents = sl.acc.CreditCents
	cp.BalanceAfterCents = nil
	cp.PnlCents = 0
	cp.CreatedAt = time.Now().UTC()
	cp.SettledAt = nil

	ops := []op{
		{typ: ledger.EntryDebit, field: ledger.FieldCredit, amount: cp.StakeCents - cp.BonusUsedCents, reason: ledger.ReasonBetStake, ref: cp.ID},
		{typ: ledger.EntryDebit, field: ledger.FieldBonus, amount: cp.BonusUsedCents, reason: ledger.ReasonBetStake, ref: cp.ID},
		{typ: ledger.EntryDebit, field: ledger.FieldExposure, amount: -cp.LiabilityCents, reason: ledger.ReasonBetStake, ref: cp.ID},
	}
	if err := sl.apply(ops); err != nil {
		sl.mu.Unlock()
		return nil, err
	}
	sl.acc.WageringCents += cp.StakeCents
	sl.mu.Unlock()

	// a aposta só fica visível depois do débito commitado
	s.mu.Lock()
	s.bets[cp.ID] = &cp
	s.mu.Unlock()

	out := cp
	return &out, nil
}

func (s *Store) GetBet(_ context.Context, betID string) (*ledger.Bet, error) {
	s.mu.RLock()
	bet, ok := s.bets[betID]
	s.mu.RUnlock()
	if !ok {
		return nil, ledger.ErrNotFound
	}

	sl := s.slot(bet.UserID)
	sl.mu.Lock()
	defer sl.mu.Unlock()
	cp := *bet
	return &cp, nil
}

func (s *Store) SettleBet(_ context.Context, betID string, target ledger.BetStatus, creditCents, pnlCents int64) (*ledger.Bet, bool, error) {
	s.mu.RLock()
	bet, ok := s.bets[betID]
	s.mu.RUnlock()
	if !ok {
		return nil, false, ledger.ErrNotFound
	}

	sl := s.slot(bet.UserID)
	sl.mu.Lock()
	defer sl.mu.Unlock()

	if bet.Status.Terminal() {
		if bet.Status == target {
			cp := *bet
			return &cp, false, nil
		}
		return nil, false, ledger.ErrInvalidState
	}

	ops := []op{
		{typ: ledger.EntryCredit, field: ledger.FieldCredit, amount: creditCents, reason: ledger.ReasonBetSettlement, ref: bet.ID},
		{typ: ledger.EntryCredit, field: ledger.FieldExposure, amount: -bet.LiabilityCents, reason: ledger.ReasonExposureRelease, ref: bet.ID},
	}
	if err := sl.apply(ops); err != nil {
		return nil, false, err
	}

	now := time.Now().UTC()
	after := sl.acc.CreditCents
	bet.Status = target
	bet.PnlCents = pnlCents
	bet.BalanceAfterCents = &after
	bet.SettledAt = &now

	cp := *bet
	return &cp, true, nil
}

func (s *Store) Adjust(_ context.Context, userID string, field ledger.Field, deltaCents int64, referenceID, _ string) (*ledger.Account, error) {
	sl := s.slot(userID)
	sl.mu.Lock()
	defer sl.mu.Unlock()

	typ := ledger.EntryCredit
	amount := deltaCents
	if deltaCents < 0 {
		typ = ledger.EntryDebit
		amount = -deltaCents
	}

	if err := sl.apply([]op{{typ: typ, field: field, amount: amount, reason: ledger.ReasonAdjustment, ref: referenceID}}); err != nil {
		return nil, err
	}

	acc := sl.acc
	return &acc, nil
}

func (s *Store) Entries(_ context.Context, userID string) ([]ledger.Entry, error) {
	s.mu.RLock()
	sl, ok := s.accounts[userID]
	s.mu.RUnlock()
	if !ok {
		return nil, ledger.ErrNotFound
	}

	sl.mu.Lock()
	defer sl.mu.Unlock()
	out := make([]ledger.Entry, len(sl.entries))
	copy(out, sl.entries)
	return out, nil
}
