package dto

type PlaceBetRequest struct {
	UserID         string `json:"userId"`
	StakeCents     int64  `json:"stake_cents"`
	BonusUsedCents int64  `json:"bonus_used_cents,omitempty"`
	LiabilityCents int64  `json:"liability_cents"` // <= 0
}

type SettleBetRequest struct {
	ID          string `json:"id"`
	Status      string `json:"status"` // "WON" | "LOST" | "VOID"
	AmountCents int64  `json:"amount_cents"`
}

type CreateDepositRequest struct {
	UserID        string `json:"userId"`
	AmountCents   int64  `json:"amount_cents"`
	BankReference string `json:"bank_reference,omitempty"`
	OfferID       string `json:"offer_id,omitempty"`
}

type CreateWithdrawalRequest struct {
	UserID        string `json:"userId"`
	AmountCents   int64  `json:"amount_cents"`
	BankReference string `json:"bank_reference,omitempty"`
}

// FundingDecisionRequest cobre approve (só id) e reject (id + remark).
type FundingDecisionRequest struct {
	ID     string `json:"id"`
	Remark string `json:"remark,omitempty"`
}

type AdjustRequest struct {
	UserID      string `json:"userId"`
	Field       string `json:"field"` // "credit" | "bonus" | "exposure"
	DeltaCents  int64  `json:"delta_cents"`
	ReferenceID string `json:"reference_id"`
	Remark      string `json:"remark,omitempty"`
}
