package ledger

import "context"

// Store é o contrato do razão durável.
// Toda operação mutante roda em uma unidade de trabalho atômica: saldos,
// lançamentos e status transitam juntos ou nada persiste. Mutações sobre a
// mesma conta são serializadas pela implementação (lock de linha no Postgres,
// mutex por conta em memória); contas distintas não têm ordem garantida.
type Store interface {
	// GetOrCreateAccount retorna a conta do usuário, criando-a zerada se não existir.
	GetOrCreateAccount(ctx context.Context, userID string) (*Account, error)
	// GetAccount retorna a conta ou ErrNotFound.
	GetAccount(ctx context.Context, userID string) (*Account, error)

	// CreateFundingRequest insere uma solicitação em pending.
	CreateFundingRequest(ctx context.Context, req *FundingRequest) (*FundingRequest, error)
	// GetFundingRequest retorna a solicitação ou ErrNotFound.
	GetFundingRequest(ctx context.Context, id string) (*FundingRequest, error)
	// ApproveDeposit credita o valor do depósito (e o bônus em bonusField,
	// quando bonusCents > 0), zera o wagering e marca approved. Falha
	// ErrInvalidState se a solicitação não estiver pending.
	ApproveDeposit(ctx context.Context, requestID string, bonusCents int64, bonusField Field) (*FundingRequest, error)
	// ApproveWithdrawal debita o valor e marca approved. Em
	// ErrInsufficientFunds a solicitação permanece pending e nada é lançado.
	ApproveWithdrawal(ctx context.Context, requestID string) (*FundingRequest, error)
	// RejectFunding marca rejected com o remark; nunca toca o razão.
	RejectFunding(ctx context.Context, requestID, remark string) (*FundingRequest, error)

	// OpenBet debita stake (credit e, se houver, bonus), aplica a liability
	// na exposure respeitando o limite e acumula wagering.
	OpenBet(ctx context.Context, bet *Bet) (*Bet, error)
	// GetBet retorna a aposta ou ErrNotFound.
	GetBet(ctx context.Context, betID string) (*Bet, error)
	// SettleBet move a aposta OPEN para o status terminal, creditando
	// creditCents (já calculado pelo motor), liberando a liability e fixando
	// balance_after e pnl, tudo na mesma unidade de trabalho. Reemitir o
	// mesmo status terminal devolve (aposta, false, nil); status divergente
	// falha ErrInvalidState.
	SettleBet(ctx context.Context, betID string, target BetStatus, creditCents, pnlCents int64) (bet *Bet, applied bool, err error)

	// Adjust lança um ajuste manual (reason adjustment) em vez de sobrescrever
	// o campo, preservando o invariante append-only do razão.
	Adjust(ctx context.Context, userID string, field Field, deltaCents int64, referenceID, remark string) (*Account, error)

	// Entries retorna os lançamentos da conta em ordem de inserção.
	Entries(ctx context.Context, userID string) ([]Entry, error)
}
