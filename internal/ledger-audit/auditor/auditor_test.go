package auditor

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/radieske/wallet-settlement-engine/internal/settlement-service/ledger"
	"github.com/radieske/wallet-settlement-engine/internal/settlement-service/ledger/memory"
)

// stubStore força uma divergência entre saldo cacheado e lançamentos.
type stubStore struct {
	ledger.Store
	acc     *ledger.Account
	entries []ledger.Entry
}

func (s *stubStore) GetAccount(context.Context, string) (*ledger.Account, error) { return s.acc, nil }
func (s *stubStore) Entries(context.Context, string) ([]ledger.Entry, error)     { return s.entries, nil }

func TestVerifyUserAfterFullLifecycle(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	req, err := store.CreateFundingRequest(ctx, &ledger.FundingRequest{
		UserID: "u1", Kind: ledger.FundingDeposit, AmountCents: 1000,
	})
	if err != nil {
		t.Fatalf("create funding: %v", err)
	}
	if _, err := store.ApproveDeposit(ctx, req.ID, 200, ledger.FieldBonus); err != nil {
		t.Fatalf("approve: %v", err)
	}

	bet, err := store.OpenBet(ctx, &ledger.Bet{UserID: "u1", StakeCents: 300, BonusUsedCents: 100, LiabilityCents: -500})
	if err != nil {
		t.Fatalf("open bet: %v", err)
	}
	if _, _, err := store.SettleBet(ctx, bet.ID, ledger.BetWon, 450, 150); err != nil {
		t.Fatalf("settle: %v", err)
	}

	if _, err := store.Adjust(ctx, "u1", ledger.FieldCredit, -50, "chargeback-1", "estorno"); err != nil {
		t.Fatalf("adjust: %v", err)
	}

	a := New(zap.NewNop(), store)
	if err := a.VerifyUser(ctx, "u1"); err != nil {
		t.Fatalf("VerifyUser = %v, want nil", err)
	}
}

func TestVerifyUserDetectsDrift(t *testing.T) {
	// saldo cacheado diz 1000 mas os lançamentos só somam 900
	st := &stubStore{
		acc: &ledger.Account{UserID: "u1", CreditCents: 1000},
		entries: []ledger.Entry{
			{Type: ledger.EntryCredit, Field: ledger.FieldCredit, AmountCents: 900},
		},
	}

	a := New(zap.NewNop(), st)
	err := a.VerifyUser(context.Background(), "u1")
	if err == nil {
		t.Fatal("VerifyUser = nil, want mismatch error")
	}
	if !strings.Contains(err.Error(), "replay mismatch") || !strings.Contains(err.Error(), "credit") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestVerifyUserUnknownAccount(t *testing.T) {
	a := New(zap.NewNop(), memory.NewStore())
	if err := a.VerifyUser(context.Background(), "ghost"); err == nil {
		t.Fatal("VerifyUser = nil, want ErrNotFound")
	}
}
