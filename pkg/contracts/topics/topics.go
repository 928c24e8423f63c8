package topics

const (
	// Liquidações de aposta
	BetSettled = "bet_settled"

	// Decisões de depósito/saque
	FundingDecided = "funding_decided"

	// DLQs
	BetSettledDLQ     = "bet_settled_dlq"
	FundingDecidedDLQ = "funding_decided_dlq"
)
