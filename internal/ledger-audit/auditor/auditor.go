// Package auditor reverifica o invariante de replay do razão:
// para toda conta, o saldo cacheado de cada campo tem que bater com a soma
// dos CREDIT menos a soma dos DEBIT dos lançamentos daquele campo.
package auditor

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/radieske/wallet-settlement-engine/internal/settlement-service/ledger"
)

type Auditor struct {
	log   *zap.Logger
	store ledger.Store
}

func New(log *zap.Logger, store ledger.Store) *Auditor {
	return &Auditor{log: log, store: store}
}

// VerifyUser recomputa os saldos por replay e compara com a conta.
// Retorna erro descrevendo o primeiro campo divergente.
func (a *Auditor) VerifyUser(ctx context.Context, userID string) error {
	acc, err := a.store.GetAccount(ctx, userID)
	if err != nil {
		return err
	}
	entries, err := a.store.Entries(ctx, userID)
	if err != nil {
		return err
	}

	replayed := map[ledger.Field]int64{}
	for _, e := range entries {
		if e.Type == ledger.EntryCredit {
			replayed[e.Field] += e.AmountCents
		} else {
			replayed[e.Field] -= e.AmountCents
		}
	}

	checks := []struct {
		field  ledger.Field
		cached int64
	}{
		{ledger.FieldCredit, acc.CreditCents},
		{ledger.FieldBonus, acc.BonusCents},
		{ledger.FieldExposure, acc.ExposureCents},
	}
	for _, c := range checks {
		if replayed[c.field] != c.cached {
			return fmt.Errorf("ledger replay mismatch: user=%s field=%s replayed=%d cached=%d",
				userID, c.field, replayed[c.field], c.cached)
		}
	}

	a.log.Debug("ledger replay verified", zap.String("userId", userID), zap.Int("entries", len(entries)))
	return nil
}
