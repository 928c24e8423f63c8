package repo

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/radieske/wallet-settlement-engine/internal/settlement-service/ledger"
)

// Postgres implementa ledger.Store sobre Postgres.
// Cada operação é uma transação única: lock pessimista na linha da conta
// (FOR UPDATE), lançamentos no razão e transição de status commitam juntos.
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

func (p *Postgres) GetOrCreateAccount(ctx context.Context, userID string) (*ledger.Account, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := getOrCreateAccountTx(ctx, tx, userID); err != nil {
		return nil, err
	}
	acc, err := scanAccountTx(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return acc, nil
}

func (p *Postgres) GetAccount(ctx context.Context, userID string) (*ledger.Account, error) {
	return scanAccount(ctx, p.db, userID)
}

func (p *Postgres) CreateFundingRequest(ctx context.Context, req *ledger.FundingRequest) (*ledger.FundingRequest, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// garante a conta antes da primeira solicitação do usuário
	if _, err := getOrCreateAccountTx(ctx, tx, req.UserID); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO funding_requests(id, user_id, kind, amount_cents, bank_reference, offer_id)
		VALUES($1,$2,$3,$4,$5,$6)`,
		id, req.UserID, string(req.Kind), req.AmountCents, req.BankReference, req.OfferID); err != nil {
		return nil, err
	}

	out, err := scanFundingTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Postgres) GetFundingRequest(ctx context.Context, id string) (*ledger.FundingRequest, error) {
	return scanFunding(ctx, p.db, id)
}

func (p *Postgres) ApproveDeposit(ctx context.Context, requestID string, bonusCents int64, bonusField ledger.Field) (*ledger.FundingRequest, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	req, err := lockFundingTx(ctx, tx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Kind != ledger.FundingDeposit || req.Status != ledger.FundingPending {
		return nil, ledger.ErrInvalidState
	}

	acc, err := lockAccountTx(ctx, tx, req.UserID)
	if err != nil {
		return nil, err
	}

	if _, err := creditTx(ctx, tx, acc, ledger.FieldCredit, req.AmountCents, ledger.ReasonDeposit, req.ID); err != nil {
		return nil, err
	}
	if bonusCents > 0 {
		if _, err := creditTx(ctx, tx, acc, bonusField, bonusCents, ledger.ReasonBonusGrant, req.ID); err != nil {
			return nil, err
		}
	}

	// wagering é rolling desde o último depósito aprovado
	acc.wagering = 0
	if err := flushAccountTx(ctx, tx, acc); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE funding_requests SET status='approved', bonus_awarded_cents=$1, decided_at=now()
		WHERE id=$2`, bonusCents, req.ID); err != nil {
		return nil, err
	}

	out, err := scanFundingTx(ctx, tx, req.ID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Postgres) ApproveWithdrawal(ctx context.Context, requestID string) (*ledger.FundingRequest, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	req, err := lockFundingTx(ctx, tx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Kind != ledger.FundingWithdrawal || req.Status != ledger.FundingPending {
		return nil, ledger.ErrInvalidState
	}

	acc, err := lockAccountTx(ctx, tx, req.UserID)
	if err != nil {
		return nil, err
	}

	// débito insuficiente aborta a transação: a solicitação segue pending
	if _, err := debitTx(ctx, tx, acc, ledger.FieldCredit, req.AmountCents, ledger.ReasonWithdrawal, req.ID); err != nil {
		return nil, err
	}
	if err := flushAccountTx(ctx, tx, acc); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE funding_requests SET status='approved', decided_at=now() WHERE id=$1`, req.ID); err != nil {
		return nil, err
	}

	out, err := scanFundingTx(ctx, tx, req.ID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Postgres) RejectFunding(ctx context.Context, requestID, remark string) (*ledger.FundingRequest, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	req, err := lockFundingTx(ctx, tx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != ledger.FundingPending {
		return nil, ledger.ErrInvalidState
	}

	// rejeição nunca toca o razão
	if _, err := tx.ExecContext(ctx, `
		UPDATE funding_requests SET status='rejected', remark=$1, decided_at=now() WHERE id=$2`,
		remark, req.ID); err != nil {
		return nil, err
	}

	out, err := scanFundingTx(ctx, tx, req.ID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Postgres) OpenBet(ctx context.Context, bet *ledger.Bet) (*ledger.Bet, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	acc, err := getOrCreateAccountTx(ctx, tx, bet.UserID)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	balanceBefore := acc.credit

	if _, err := debitTx(ctx, tx, acc, ledger.FieldCredit, bet.StakeCents-bet.BonusUsedCents, ledger.ReasonBetStake, id); err != nil {
		return nil, err
	}
	if _, err := debitTx(ctx, tx, acc, ledger.FieldBonus, bet.BonusUsedCents, ledger.ReasonBetStake, id); err != nil {
		return nil, err
	}
	if _, err := adjustExposureTx(ctx, tx, acc, bet.LiabilityCents, ledger.ReasonBetStake, id); err != nil {
		return nil, err
	}
	acc.wagering += bet.StakeCents
	if err := flushAccountTx(ctx, tx, acc); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO bets(id, user_id, stake_cents, bonus_used_cents, balance_before_cents, liability_cents)
		VALUES($1,$2,$3,$4,$5,$6)`,
		id, bet.UserID, bet.StakeCents, bet.BonusUsedCents, balanceBefore, bet.LiabilityCents); err != nil {
		return nil, err
	}

	out, err := scanBetTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Postgres) GetBet(ctx context.Context, betID string) (*ledger.Bet, error) {
	return scanBet(ctx, p.db, betID)
}

func (p *Postgres) SettleBet(ctx context.Context, betID string, target ledger.BetStatus, creditCents, pnlCents int64) (*ledger.Bet, bool, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback()

	bet, err := lockBetTx(ctx, tx, betID)
	if err != nil {
		return nil, false, err
	}
	if bet.Status.Terminal() {
		// reemissão do mesmo resultado é no-op com o resultado anterior
		if bet.Status == target {
			return bet, false, tx.Commit()
		}
		return nil, false, ledger.ErrInvalidState
	}

	acc, err := lockAccountTx(ctx, tx, bet.UserID)
	if err != nil {
		return nil, false, err
	}

	if _, err := creditTx(ctx, tx, acc, ledger.FieldCredit, creditCents, ledger.ReasonBetSettlement, bet.ID); err != nil {
		return nil, false, err
	}
	// libera a liability da aposta de volta em direção a zero
	if _, err := adjustExposureTx(ctx, tx, acc, -bet.LiabilityCents, ledger.ReasonExposureRelease, bet.ID); err != nil {
		return nil, false, err
	}
	if err := flushAccountTx(ctx, tx, acc); err != nil {
		return nil, false, err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE bets SET status=$1, pnl_cents=$2, balance_after_cents=$3, settled_at=now()
		WHERE id=$4`, string(target), pnlCents, acc.credit, bet.ID); err != nil {
		return nil, false, err
	}

	out, err := scanBetTx(ctx, tx, bet.ID)
	if err != nil {
		return nil, false, err
	}
	if err := tx.Commit(); err != nil {
		return nil, false, err
	}
	return out, true, nil
}

func (p *Postgres) Adjust(ctx context.Context, userID string, field ledger.Field, deltaCents int64, referenceID, _ string) (*ledger.Account, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	acc, err := getOrCreateAccountTx(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	typ := ledger.EntryCredit
	amount := deltaCents
	if deltaCents < 0 {
		typ = ledger.EntryDebit
		amount = -deltaCents
	}
	if _, err := applyTx(ctx, tx, acc, typ, field, amount, ledger.ReasonAdjustment, referenceID); err != nil {
		return nil, err
	}
	if err := flushAccountTx(ctx, tx, acc); err != nil {
		return nil, err
	}

	out, err := scanAccountTx(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Postgres) Entries(ctx context.Context, userID string) ([]ledger.Entry, error) {
	acc, err := scanAccount(ctx, p.db, userID)
	if err != nil {
		return nil, err
	}

	rows, err := p.db.QueryContext(ctx, `
		SELECT id, account_id, entry_type, field, amount_cents, reason, reference_id, balance_after_cents, created_at
		FROM ledger_entries WHERE account_id=$1 ORDER BY created_at, id`, acc.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.Entry
	for rows.Next() {
		var e ledger.Entry
		var typ, field, reason string
		if err := rows.Scan(&e.ID, &e.AccountID, &typ, &field, &e.AmountCents, &reason, &e.ReferenceID, &e.BalanceAfterCents, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Type = ledger.EntryType(typ)
		e.Field = ledger.Field(field)
		e.Reason = ledger.Reason(reason)
		out = append(out, e)
	}
	return out, rows.Err()
}

// ==== SCANS

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func scanAccount(ctx context.Context, q rowQuerier, userID string) (*ledger.Account, error) {
	var a ledger.Account
	err := q.QueryRowContext(ctx, `
		SELECT id, user_id, credit_cents, bonus_cents, exposure_cents, exposure_limit_cents,
		       wagering_cents, created_at, updated_at
		FROM accounts WHERE user_id=$1`, userID).
		Scan(&a.ID, &a.UserID, &a.CreditCents, &a.BonusCents, &a.ExposureCents,
			&a.ExposureLimitCents, &a.WageringCents, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func scanAccountTx(ctx context.Context, tx *sql.Tx, userID string) (*ledger.Account, error) {
	return scanAccount(ctx, tx, userID)
}

func scanFunding(ctx context.Context, q rowQuerier, id string) (*ledger.FundingRequest, error) {
	return scanFundingRow(q.QueryRowContext(ctx, `
		SELECT id, user_id, kind, amount_cents, status, bank_reference, offer_id,
		       bonus_awarded_cents, remark, created_at, decided_at
		FROM funding_requests WHERE id=$1`, id))
}

func scanFundingTx(ctx context.Context, tx *sql.Tx, id string) (*ledger.FundingRequest, error) {
	return scanFunding(ctx, tx, id)
}

// lockFundingTx trava a linha da solicitação antes de decidir o estado.
func lockFundingTx(ctx context.Context, tx *sql.Tx, id string) (*ledger.FundingRequest, error) {
	return scanFundingRow(tx.QueryRowContext(ctx, `
		SELECT id, user_id, kind, amount_cents, status, bank_reference, offer_id,
		       bonus_awarded_cents, remark, created_at, decided_at
		FROM funding_requests WHERE id=$1 FOR UPDATE`, id))
}

func scanFundingRow(row *sql.Row) (*ledger.FundingRequest, error) {
	var r ledger.FundingRequest
	var kind, status string
	var decidedAt sql.NullTime
	err := row.Scan(&r.ID, &r.UserID, &kind, &r.AmountCents, &status, &r.BankReference,
		&r.OfferID, &r.BonusAwardedCents, &r.Remark, &r.CreatedAt, &decidedAt)
	if err == sql.ErrNoRows {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	r.Kind = ledger.FundingKind(kind)
	r.Status = ledger.FundingStatus(status)
	if decidedAt.Valid {
		t := decidedAt.Time
		r.DecidedAt = &t
	}
	return &r, nil
}

func scanBet(ctx context.Context, q rowQuerier, id string) (*ledger.Bet, error) {
	return scanBetRow(q.QueryRowContext(ctx, `
		SELECT id, user_id, stake_cents, bonus_used_cents, balance_before_cents,
		       balance_after_cents, liability_cents, status, pnl_cents, created_at, settled_at
		FROM bets WHERE id=$1`, id))
}

func scanBetTx(ctx context.Context, tx *sql.Tx, id string) (*ledger.Bet, error) {
	return scanBet(ctx, tx, id)
}

func lockBetTx(ctx context.Context, tx *sql.Tx, id string) (*ledger.Bet, error) {
	return scanBetRow(tx.QueryRowContext(ctx, `
		SELECT id, user_id, stake_cents, bonus_used_cents, balance_before_cents,
		       balance_after_cents, liability_cents, status, pnl_cents, created_at, settled_at
		FROM bets WHERE id=$1 FOR UPDATE`, id))
}

func scanBetRow(row *sql.Row) (*ledger.Bet, error) {
	var b ledger.Bet
	var status string
	var balanceAfter sql.NullInt64
	var settledAt sql.NullTime
	err := row.Scan(&b.ID, &b.UserID, &b.StakeCents, &b.BonusUsedCents, &b.BalanceBeforeCents,
		&balanceAfter, &b.LiabilityCents, &status, &b.PnlCents, &b.CreatedAt, &settledAt)
	if err == sql.ErrNoRows {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	b.Status = ledger.BetStatus(status)
	if balanceAfter.Valid {
		v := balanceAfter.Int64
		b.BalanceAfterCents = &v
	}
	if settledAt.Valid {
		t := settledAt.Time
		b.SettledAt = &t
	}
	return &b, nil
}
