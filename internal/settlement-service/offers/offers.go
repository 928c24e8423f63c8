// Package offers é o colaborador externo de elegibilidade de bônus.
// O motor recebe a oferta já resolvida; a regra de reuso por usuário fica
// no backoffice e não é reavaliada aqui.
package offers

import "time"

// Offer são os parâmetros resolvidos de uma oferta de depósito.
type Offer struct {
	ID              string    `json:"id"`
	Percent         int64     `json:"percent"`           // bônus percentual sobre o depósito
	FlatCents       int64     `json:"flat_cents"`        // parcela fixa do bônus
	MaxCreditCents  int64     `json:"max_credit_cents"`  // teto do bônus
	MinDepositCents int64     `json:"min_deposit_cents"` // depósito mínimo para elegibilidade
	AsBonus         bool      `json:"is_bonus"`          // true: cai no campo bonus; false: direto no credit
	ExpiresAt       time.Time `json:"expires_at"`
}

// ValidFor verifica expiração e depósito mínimo.
func (o *Offer) ValidFor(depositCents int64, now time.Time) bool {
	if !o.ExpiresAt.IsZero() && now.After(o.ExpiresAt) {
		return false
	}
	return depositCents >= o.MinDepositCents
}

// BonusFor calcula o bônus (percentual + fixo) limitado a max_credit.
func (o *Offer) BonusFor(depositCents int64) int64 {
	b := depositCents*o.Percent/100 + o.FlatCents
	if o.MaxCreditCents > 0 && b > o.MaxCreditCents {
		b = o.MaxCreditCents
	}
	if b < 0 {
		return 0
	}
	return b
}
