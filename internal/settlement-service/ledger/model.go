package ledger

import "time"

// Field identifica qual saldo da conta uma operação atinge.
type Field string

const (
	FieldCredit   Field = "credit"
	FieldBonus    Field = "bonus"
	FieldExposure Field = "exposure"
)

// EntryType é o lado contábil de um lançamento.
type EntryType string

const (
	EntryCredit EntryType = "CREDIT"
	EntryDebit  EntryType = "DEBIT"
)

// Reason é o motivo de negócio de um lançamento no razão.
type Reason string

const (
	ReasonDeposit         Reason = "deposit"
	ReasonWithdrawal      Reason = "withdrawal"
	ReasonBetStake        Reason = "bet_stake"
	ReasonBetSettlement   Reason = "bet_settlement"
	ReasonBonusGrant      Reason = "bonus_grant"
	ReasonExposureRelease Reason = "exposure_release"
	ReasonAdjustment      Reason = "adjustment"
)

// Account é o snapshot de saldos de um usuário.
// credit e bonus nunca persistem negativos; exposure é sempre <= 0 e
// nunca ultrapassa exposure_limit (o valor mais negativo permitido).
// wagering acumula stakes desde o último depósito aprovado.
type Account struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	CreditCents        int64     `json:"credit_cents"`
	BonusCents         int64     `json:"bonus_cents"`
	ExposureCents      int64     `json:"exposure_cents"`
	ExposureLimitCents int64     `json:"exposure_limit_cents"`
	WageringCents      int64     `json:"wagering_cents"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Entry é um lançamento imutável do razão (append-only).
// O saldo corrente de qualquer campo é derivável por replay:
// soma dos CREDIT menos soma dos DEBIT daquele campo.
type Entry struct {
	ID                string    `json:"id"`
	AccountID         string    `json:"account_id"`
	Type              EntryType `json:"entry_type"`
	Field             Field     `json:"field"`
	AmountCents       int64     `json:"amount_cents"` // sempre >= 0
	Reason            Reason    `json:"reason"`
	ReferenceID       string    `json:"reference_id"` // id do depósito/saque/aposta que originou
	BalanceAfterCents int64     `json:"balance_after_cents"`
	CreatedAt         time.Time `json:"created_at"`
}

// FundingKind distingue depósito de saque.
type FundingKind string

const (
	FundingDeposit    FundingKind = "deposit"
	FundingWithdrawal FundingKind = "withdrawal"
)

// FundingStatus é o estado de uma solicitação de depósito/saque.
// pending -> approved | rejected, ambos terminais.
type FundingStatus string

const (
	FundingPending  FundingStatus = "pending"
	FundingApproved FundingStatus = "approved"
	FundingRejected FundingStatus = "rejected"
)

// FundingRequest é uma solicitação de depósito ou saque.
type FundingRequest struct {
	ID                string        `json:"id"`
	UserID            string        `json:"user_id"`
	Kind              FundingKind   `json:"kind"`
	AmountCents       int64         `json:"amount_cents"`
	Status            FundingStatus `json:"status"`
	BankReference     string        `json:"bank_reference,omitempty"`
	OfferID           string        `json:"offer_id,omitempty"` // só depósito
	BonusAwardedCents int64         `json:"bonus_awarded_cents,omitempty"`
	Remark            string        `json:"remark,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	DecidedAt         *time.Time    `json:"decided_at,omitempty"`
}

// BetStatus é o estado de uma aposta.
// OPEN -> WON | LOST | VOID, todos terminais.
type BetStatus string

const (
	BetOpen BetStatus = "OPEN"
	BetWon  BetStatus = "WON"
	BetLost BetStatus = "LOST"
	BetVoid BetStatus = "VOID"
)

// Terminal informa se o status é final.
func (s BetStatus) Terminal() bool {
	return s == BetWon || s == BetLost || s == BetVoid
}

// Bet é uma aposta do ponto de vista da carteira.
// liability é negativo: o máximo que a casa pode dever se a aposta ganhar.
// balance_after e pnl ficam fixos para sempre na liquidação.
type Bet struct {
	ID                 string     `json:"id"`
	UserID             string     `json:"user_id"`
	StakeCents         int64      `json:"stake_cents"`
	BonusUsedCents     int64      `json:"bonus_used_cents"`
	BalanceBeforeCents int64      `json:"user_balance_before_cents"`
	BalanceAfterCents  *int64     `json:"user_balance_after_cents,omitempty"`
	LiabilityCents     int64      `json:"liability_cents"`
	Status             BetStatus  `json:"status"`
	PnlCents           int64      `json:"pnl_cents"`
	CreatedAt          time.Time  `json:"created_at"`
	SettledAt          *time.Time `json:"settled_at,omitempty"`
}
