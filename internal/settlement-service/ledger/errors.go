package ledger

import "errors"

var (
	// ErrNotFound indica id desconhecido (conta, solicitação ou aposta).
	ErrNotFound = errors.New("not found")

	// ErrInvalidState indica transição a partir de um estado não aplicável.
	// Nunca é mascarado: sempre chega ao chamador.
	ErrInvalidState = errors.New("invalid state transition")

	// ErrInsufficientFunds indica débito que deixaria credit negativo.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrExposureLimitExceeded indica exposure além do exposure_limit da conta.
	ErrExposureLimitExceeded = errors.New("exposure limit exceeded")
)
