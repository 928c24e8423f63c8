package engine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/radieske/wallet-settlement-engine/internal/settlement-service/ledger"
)

func TestSettleWonCreditsStakeAndProfit(t *testing.T) {
	env := newTestEnv(t, nil, true)
	ctx := context.Background()
	env.fund(t, "u1", 1000)

	bet, err := env.eng.OpenBet(ctx, OpenBetParams{UserID: "u1", StakeCents: 200, LiabilityCents: -400})
	if err != nil {
		t.Fatalf("open bet: %v", err)
	}

	acc, _ := env.store.GetAccount(ctx, "u1")
	if acc.CreditCents != 800 {
		t.Fatalf("credit after stake = %d, want 800", acc.CreditCents)
	}
	if acc.ExposureCents != -400 {
		t.Fatalf("exposure after stake = %d, want -400", acc.ExposureCents)
	}

	out, err := env.eng.Settle(ctx, bet.ID, ledger.BetWon, 150)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if out.Status != ledger.BetWon {
		t.Fatalf("status = %s, want WON", out.Status)
	}
	if out.PnlCents != 150 {
		t.Fatalf("pnl = %d, want 150", out.PnlCents)
	}

	acc, _ = env.store.GetAccount(ctx, "u1")
	// stake de volta + lucro: 800 + 350
	if acc.CreditCents != 1150 {
		t.Fatalf("credit = %d, want 1150", acc.CreditCents)
	}
	if acc.ExposureCents != 0 {
		t.Fatalf("exposure = %d, want 0 (liberada)", acc.ExposureCents)
	}
	if out.BalanceAfterCents == nil || *out.BalanceAfterCents != 1150 {
		t.Fatalf("balance_after = %v, want 1150", out.BalanceAfterCents)
	}
}

func TestSettleLostLeavesCreditAndReleasesExposure(t *testing.T) {
	env := newTestEnv(t, nil, true)
	ctx := context.Background()
	env.fund(t, "u1", 1000)

	bet, _ := env.eng.OpenBet(ctx, OpenBetParams{UserID: "u1", StakeCents: 200, LiabilityCents: -400})
	out, err := env.eng.Settle(ctx, bet.ID, ledger.BetLost, 200)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if out.PnlCents != -200 {
		t.Fatalf("pnl = %d, want -200", out.PnlCents)
	}

	acc, _ := env.store.GetAccount(ctx, "u1")
	if acc.CreditCents != 800 {
		t.Fatalf("credit = %d, want 800 (stake já saiu na abertura)", acc.CreditCents)
	}
	if acc.ExposureCents != 0 {
		t.Fatalf("exposure = %d, want 0", acc.ExposureCents)
	}
}

func TestSettleVoidRefundsStake(t *testing.T) {
	env := newTestEnv(t, nil, true)
	ctx := context.Background()
	env.fund(t, "u1", 1000)

	bet, _ := env.eng.OpenBet(ctx, OpenBetParams{UserID: "u1", StakeCents: 200, LiabilityCents: -400})
	out, err := env.eng.Settle(ctx, bet.ID, ledger.BetVoid, 0)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if out.PnlCents != 0 {
		t.Fatalf("pnl = %d, want 0", out.PnlCents)
	}

	acc, _ := env.store.GetAccount(ctx, "u1")
	if acc.CreditCents != 1000 {
		t.Fatalf("credit = %d, want 1000 (stake devolvido)", acc.CreditCents)
	}
}

func TestResettleSameTargetIsIdempotent(t *testing.T) {
	env := newTestEnv(t, nil, true)
	ctx := context.Background()
	env.fund(t, "u1", 1000)

	bet, _ := env.eng.OpenBet(ctx, OpenBetParams{UserID: "u1", StakeCents: 200, LiabilityCents: -400})
	first, err := env.eng.Settle(ctx, bet.ID, ledger.BetWon, 150)
	if err != nil {
		t.Fatalf("first settle: %v", err)
	}

	second, err := env.eng.Settle(ctx, bet.ID, ledger.BetWon, 150)
	if err != nil {
		t.Fatalf("second settle: %v", err)
	}
	if second.PnlCents != first.PnlCents || *second.BalanceAfterCents != *first.BalanceAfterCents {
		t.Fatalf("retry mudou o resultado: %+v vs %+v", second, first)
	}

	acc, _ := env.store.GetAccount(ctx, "u1")
	if acc.CreditCents != 1150 {
		t.Fatalf("credit = %d, want 1150 (delta aplicado uma vez)", acc.CreditCents)
	}
	// só o primeiro settle publica
	if len(env.publ.settled) != 1 {
		t.Fatalf("published %d events, want 1", len(env.publ.settled))
	}
}

func TestResettleDifferentTargetFailsInvalidState(t *testing.T) {
	env := newTestEnv(t, nil, true)
	ctx := context.Background()
	env.fund(t, "u1", 1000)

	bet, _ := env.eng.OpenBet(ctx, OpenBetParams{UserID: "u1", StakeCents: 200, LiabilityCents: -400})
	if _, err := env.eng.Settle(ctx, bet.ID, ledger.BetWon, 150); err != nil {
		t.Fatalf("settle: %v", err)
	}
	before, _ := env.store.GetAccount(ctx, "u1")

	_, err := env.eng.Settle(ctx, bet.ID, ledger.BetLost, 200)
	if !errors.Is(err, ledger.ErrInvalidState) {
		t.Fatalf("err = %v, want ErrInvalidState", err)
	}

	after, _ := env.store.GetAccount(ctx, "u1")
	if *after != *before {
		t.Fatalf("saldos mudaram em transição inválida: %+v vs %+v", after, before)
	}
}

func TestSettleUnknownBetFailsNotFound(t *testing.T) {
	env := newTestEnv(t, nil, true)
	_, err := env.eng.Settle(context.Background(), "missing", ledger.BetWon, 10)
	if !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestOpenBetInsufficientFunds(t *testing.T) {
	env := newTestEnv(t, nil, true)
	ctx := context.Background()
	env.fund(t, "u1", 100)

	_, err := env.eng.OpenBet(ctx, OpenBetParams{UserID: "u1", StakeCents: 200, LiabilityCents: -400})
	if !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}

	// nada pode ter vazado pro razão
	if got := env.replay(t, "u1", ledger.FieldCredit); got != 100 {
		t.Fatalf("replayed credit = %d, want 100", got)
	}
}

func TestOpenBetExposureLimit(t *testing.T) {
	env := newTestEnv(t, nil, true)
	ctx := context.Background()
	env.fund(t, "u1", 10_000_000)

	_, err := env.eng.OpenBet(ctx, OpenBetParams{UserID: "u1", StakeCents: 100, LiabilityCents: -2_000_000})
	if !errors.Is(err, ledger.ErrExposureLimitExceeded) {
		t.Fatalf("err = %v, want ErrExposureLimitExceeded", err)
	}
}

func TestOpenBetConsumesBonusAndWagering(t *testing.T) {
	env := newTestEnv(t, nil, true)
	ctx := context.Background()
	env.fund(t, "u1", 1000)
	if _, err := env.store.Adjust(ctx, "u1", ledger.FieldBonus, 300, "adj-1", "seed bonus"); err != nil {
		t.Fatalf("adjust: %v", err)
	}

	bet, err := env.eng.OpenBet(ctx, OpenBetParams{UserID: "u1", StakeCents: 200, BonusUsedCents: 150, LiabilityCents: -100})
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	acc, _ := env.store.GetAccount(ctx, "u1")
	if acc.CreditCents != 950 {
		t.Fatalf("credit = %d, want 950 (só a parte não-bônus do stake)", acc.CreditCents)
	}
	if acc.BonusCents != 150 {
		t.Fatalf("bonus = %d, want 150", acc.BonusCents)
	}
	if acc.WageringCents != 200 {
		t.Fatalf("wagering = %d, want 200 (stake inteiro)", acc.WageringCents)
	}

	// vitória paga em credit, nunca repõe bônus
	if _, err := env.eng.Settle(ctx, bet.ID, ledger.BetWon, 100); err != nil {
		t.Fatalf("settle: %v", err)
	}
	acc, _ = env.store.GetAccount(ctx, "u1")
	if acc.BonusCents != 150 {
		t.Fatalf("bonus = %d, want 150 (bônus não volta)", acc.BonusCents)
	}
	if acc.CreditCents != 950+300 {
		t.Fatalf("credit = %d, want 1250", acc.CreditCents)
	}
}

func TestConcurrentSettlementsSameUserNoLostUpdate(t *testing.T) {
	env := newTestEnv(t, nil, true)
	ctx := context.Background()
	env.fund(t, "u1", 10_000)

	betA, _ := env.eng.OpenBet(ctx, OpenBetParams{UserID: "u1", StakeCents: 200, LiabilityCents: -400})
	betB, _ := env.eng.OpenBet(ctx, OpenBetParams{UserID: "u1", StakeCents: 300, LiabilityCents: -600})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if _, err := env.eng.Settle(ctx, betA.ID, ledger.BetWon, 150); err != nil {
			t.Errorf("settle A: %v", err)
		}
	}()
	go func() {
		defer wg.Done()
		if _, err := env.eng.Settle(ctx, betB.ID, ledger.BetWon, 250); err != nil {
			t.Errorf("settle B: %v", err)
		}
	}()
	wg.Wait()

	acc, _ := env.store.GetAccount(ctx, "u1")
	// 10000 - 200 - 300 + (150+200) + (250+300)
	if acc.CreditCents != 10_400 {
		t.Fatalf("credit = %d, want 10400 (soma dos dois deltas)", acc.CreditCents)
	}
	if acc.ExposureCents != 0 {
		t.Fatalf("exposure = %d, want 0", acc.ExposureCents)
	}
	if got := env.replay(t, "u1", ledger.FieldCredit); got != acc.CreditCents {
		t.Fatalf("replay invariant quebrado: replayed=%d cached=%d", got, acc.CreditCents)
	}
}
