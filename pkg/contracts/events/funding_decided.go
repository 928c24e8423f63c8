package events

// Evento publicado após a decisão terminal de um depósito ou saque.
type FundingDecided struct {
	RequestID        string `json:"request_id"`
	UserID           string `json:"user_id"`
	Kind             string `json:"kind"`   // "deposit" | "withdrawal"
	Status           string `json:"status"` // "approved" | "rejected"
	AmountCents      int64  `json:"amount_cents"`
	BonusAwardedCent int64  `json:"bonus_awarded_cents,omitempty"`
	Remark           string `json:"remark,omitempty"`
	TsUnixMs         int64  `json:"ts_unix_ms"`
}
