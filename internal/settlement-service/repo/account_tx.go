package repo

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/radieske/wallet-settlement-engine/internal/settlement-service/ledger"
)

// Helpers de conta dentro de uma transação: os três verbos do serviço de
// conta (credit, debit, adjustExposure) sobre a linha já travada com
// FOR UPDATE. Cada verbo apenda o lançamento e atualiza o saldo staged;
// flushAccountTx persiste os saldos ao final da unidade de trabalho.

// accountRow é a projeção travada da linha de accounts.
type accountRow struct {
	id            string
	userID        string
	credit        int64
	bonus         int64
	exposure      int64
	exposureLimit int64
	wagering      int64
}

// lockAccountTx trava a linha da conta do usuário (exclusão mútua por conta).
func lockAccountTx(ctx context.Context, tx *sql.Tx, userID string) (*accountRow, error) {
	a := accountRow{userID: userID}
	err := tx.QueryRowContext(ctx, `
		SELECT id, credit_cents, bonus_cents, exposure_cents, exposure_limit_cents, wagering_cents
		FROM accounts WHERE user_id=$1 FOR UPDATE`, userID).
		Scan(&a.id, &a.credit, &a.bonus, &a.exposure, &a.exposureLimit, &a.wagering)
	if err == sql.ErrNoRows {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// getOrCreateAccountTx cria a conta zerada se não existir e trava a linha.
func getOrCreateAccountTx(ctx context.Context, tx *sql.Tx, userID string) (*accountRow, error) {
	// ON CONFLICT cobre a corrida entre duas criações simultâneas
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO accounts(id, user_id) VALUES($1,$2)
		ON CONFLICT (user_id) DO NOTHING`, uuid.NewString(), userID); err != nil {
		return nil, err
	}
	return lockAccountTx(ctx, tx, userID)
}

// creditTx aumenta o campo e apenda o lançamento. Duplicata de
// (reference, reason, field) é no-op: retorna applied=false sem mexer no saldo.
func creditTx(ctx context.Context, tx *sql.Tx, a *accountRow, field ledger.Field, amount int64, reason ledger.Reason, referenceID string) (bool, error) {
	return applyTx(ctx, tx, a, ledger.EntryCredit, field, amount, reason, referenceID)
}

// debitTx diminui o campo; falha ErrInsufficientFunds se credit/bonus
// ficariam negativos e ErrExposureLimitExceeded se exposure passaria do limite.
func debitTx(ctx context.Context, tx *sql.Tx, a *accountRow, field ledger.Field, amount int64, reason ledger.Reason, referenceID string) (bool, error) {
	return applyTx(ctx, tx, a, ledger.EntryDebit, field, amount, reason, referenceID)
}

// adjustExposureTx move a exposure pelo delta assinado, idempotente por referência.
// Usado na liquidação para devolver a liability da aposta em direção a zero.
func adjustExposureTx(ctx context.Context, tx *sql.Tx, a *accountRow, delta int64, reason ledger.Reason, referenceID string) (bool, error) {
	if delta >= 0 {
		return applyTx(ctx, tx, a, ledger.EntryCredit, ledger.FieldExposure, delta, reason, referenceID)
	}
	return applyTx(ctx, tx, a, ledger.EntryDebit, ledger.FieldExposure, -delta, reason, referenceID)
}

func applyTx(ctx context.Context, tx *sql.Tx, a *accountRow, typ ledger.EntryType, field ledger.Field, amount int64, reason ledger.Reason, referenceID string) (bool, error) {
	if amount == 0 {
		return false, nil
	}

	delta := amount
	if typ == ledger.EntryDebit {
		delta = -delta
	}

	var after int64
	switch field {
	case ledger.FieldCredit:
		after = a.credit + delta
	case ledger.FieldBonus:
		after = a.bonus + delta
	case ledger.FieldExposure:
		after = a.exposure + delta
	}

	if field == ledger.FieldExposure {
		if after < a.exposureLimit {
			return false, ledger.ErrExposureLimitExceeded
		}
		if after > 0 {
			return false, ledger.ErrInvalidState
		}
	} else if after < 0 {
		return false, ledger.ErrInsufficientFunds
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO ledger_entries(id, account_id, entry_type, field, amount_cents, reason, reference_id, balance_after_cents)
		VALUES($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (reference_id, reason, field) DO NOTHING`,
		uuid.NewString(), a.id, string(typ), string(field), amount, string(reason), referenceID, after)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		// lançamento já existia: retry observa o resultado anterior
		return false, nil
	}

	switch field {
	case ledger.FieldCredit:
		a.credit = after
	case ledger.FieldBonus:
		a.bonus = after
	case ledger.FieldExposure:
		a.exposure = after
	}
	return true, nil
}

// flushAccountTx persiste os saldos staged da linha travada.
func flushAccountTx(ctx context.Context, tx *sql.Tx, a *accountRow) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE accounts
		SET credit_cents=$1, bonus_cents=$2, exposure_cents=$3, wagering_cents=$4,
		    version=version+1, updated_at=now()
		WHERE id=$5`,
		a.credit, a.bonus, a.exposure, a.wagering, a.id)
	return err
}
