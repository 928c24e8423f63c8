package engine

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/wallet-settlement-engine/internal/settlement-service/guard"
	"github.com/radieske/wallet-settlement-engine/internal/settlement-service/ledger"
	"github.com/radieske/wallet-settlement-engine/internal/settlement-service/ledger/memory"
	"github.com/radieske/wallet-settlement-engine/internal/settlement-service/offers"
	"github.com/radieske/wallet-settlement-engine/pkg/contracts/events"
)

// stubResolver devolve sempre a mesma oferta (ou nenhuma).
type stubResolver struct {
	offer *offers.Offer
}

func (s *stubResolver) Resolve(_ context.Context, offerID string, depositCents int64) (*offers.Offer, error) {
	if s.offer == nil || s.offer.ID != offerID {
		return nil, nil
	}
	if !s.offer.ValidFor(depositCents, time.Now().UTC()) {
		return nil, nil
	}
	return s.offer, nil
}

// recordingPublisher captura os eventos emitidos pós-commit.
type recordingPublisher struct {
	settled []events.BetSettled
	funding []events.FundingDecided
}

func (p *recordingPublisher) PublishBetSettled(_ context.Context, e events.BetSettled) error {
	p.settled = append(p.settled, e)
	return nil
}

func (p *recordingPublisher) PublishFundingDecided(_ context.Context, e events.FundingDecided) error {
	p.funding = append(p.funding, e)
	return nil
}

type testEnv struct {
	eng   *Engine
	store *memory.Store
	publ  *recordingPublisher
}

func newTestEnv(t *testing.T, offer *offers.Offer, bonusAsSeparateField bool) *testEnv {
	t.Helper()
	store := memory.NewStore()
	publ := &recordingPublisher{}
	eng := New(zap.NewNop(), store, guard.Noop{}, &stubResolver{offer: offer}, publ, bonusAsSeparateField)
	return &testEnv{eng: eng, store: store, publ: publ}
}

// fund aprova um depósito simples e devolve a conta resultante.
func (env *testEnv) fund(t *testing.T, userID string, amountCents int64) *ledger.Account {
	t.Helper()
	ctx := context.Background()
	req, err := env.eng.CreateDeposit(ctx, userID, amountCents, "seed", "")
	if err != nil {
		t.Fatalf("create deposit: %v", err)
	}
	if _, err := env.eng.ApproveFunding(ctx, req.ID, ledger.FundingDeposit); err != nil {
		t.Fatalf("approve deposit: %v", err)
	}
	acc, err := env.store.GetAccount(ctx, userID)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	return acc
}

// replay recomputa o saldo de um campo a partir do razão.
func (env *testEnv) replay(t *testing.T, userID string, field ledger.Field) int64 {
	t.Helper()
	entries, err := env.store.Entries(context.Background(), userID)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	var sum int64
	for _, e := range entries {
		if e.Field != field {
			continue
		}
		if e.Type == ledger.EntryCredit {
			sum += e.AmountCents
		} else {
			sum -= e.AmountCents
		}
	}
	return sum
}
