package dto

import "github.com/radieske/wallet-settlement-engine/internal/settlement-service/ledger"

type WalletResponse struct {
	UserID             string `json:"userId"`
	AccountID          string `json:"accountId"`
	CreditCents        int64  `json:"credit_cents"`
	BonusCents         int64  `json:"bonus_cents"`
	ExposureCents      int64  `json:"exposure_cents"`
	ExposureLimitCents int64  `json:"exposure_limit_cents"`
	WageringCents      int64  `json:"wagering_cents"`
}

func FromAccount(a *ledger.Account) WalletResponse {
	return WalletResponse{
		UserID:             a.UserID,
		AccountID:          a.ID,
		CreditCents:        a.CreditCents,
		BonusCents:         a.BonusCents,
		ExposureCents:      a.ExposureCents,
		ExposureLimitCents: a.ExposureLimitCents,
		WageringCents:      a.WageringCents,
	}
}

type BetResponse struct {
	BetID              string `json:"bet_id"`
	UserID             string `json:"userId"`
	Status             string `json:"status"`
	StakeCents         int64  `json:"stake_cents"`
	BonusUsedCents     int64  `json:"bonus_used_cents,omitempty"`
	LiabilityCents     int64  `json:"liability_cents"`
	PnlCents           int64  `json:"pnl_cents"`
	BalanceBeforeCents int64  `json:"user_balance_before_cents"`
	BalanceAfterCents  *int64 `json:"user_balance_after_cents,omitempty"`
}

func FromBet(b *ledger.Bet) BetResponse {
	return BetResponse{
		BetID:              b.ID,
		UserID:             b.UserID,
		Status:             string(b.Status),
		StakeCents:         b.StakeCents,
		BonusUsedCents:     b.BonusUsedCents,
		LiabilityCents:     b.LiabilityCents,
		PnlCents:           b.PnlCents,
		BalanceBeforeCents: b.BalanceBeforeCents,
		BalanceAfterCents:  b.BalanceAfterCents,
	}
}

type FundingResponse struct {
	RequestID         string `json:"request_id"`
	UserID            string `json:"userId"`
	Kind              string `json:"kind"`
	AmountCents       int64  `json:"amount_cents"`
	Status            string `json:"status"`
	BonusAwardedCents int64  `json:"bonus_awarded_cents,omitempty"`
	Remark            string `json:"remark,omitempty"`
}

func FromFunding(r *ledger.FundingRequest) FundingResponse {
	return FundingResponse{
		RequestID:         r.ID,
		UserID:            r.UserID,
		Kind:              string(r.Kind),
		AmountCents:       r.AmountCents,
		Status:            string(r.Status),
		BonusAwardedCents: r.BonusAwardedCents,
		Remark:            r.Remark,
	}
}
