package events

// Evento publicado após o commit de uma liquidação de aposta.
type BetSettled struct {
	BetID            string `json:"bet_id"`
	UserID           string `json:"user_id"`
	Status           string `json:"status"` // "WON" | "LOST" | "VOID"
	PnlCents         int64  `json:"pnl_cents"`
	BalanceAfterCent int64  `json:"balance_after_cents"`
	TsUnixMs         int64  `json:"ts_unix_ms"`
}
