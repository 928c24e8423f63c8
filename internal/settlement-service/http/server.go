package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/radieske/wallet-settlement-engine/internal/settlement-service/dto"
	"github.com/radieske/wallet-settlement-engine/internal/settlement-service/engine"
	"github.com/radieske/wallet-settlement-engine/internal/settlement-service/ledger"
)

// Engine define as operações do motor usadas pelo handler HTTP.
type Engine interface {
	Wallet(ctx context.Context, userID string) (*ledger.Account, error)
	Ledger(ctx context.Context, userID string) ([]ledger.Entry, error)
	Adjust(ctx context.Context, userID string, field ledger.Field, deltaCents int64, referenceID, remark string) (*ledger.Account, error)

	OpenBet(ctx context.Context, p engine.OpenBetParams) (*ledger.Bet, error)
	Bet(ctx context.Context, betID string) (*ledger.Bet, error)
	Settle(ctx context.Context, betID string, target ledger.BetStatus, amountCents int64) (*ledger.Bet, error)

	CreateDeposit(ctx context.Context, userID string, amountCents int64, bankReference, offerID string) (*ledger.FundingRequest, error)
	CreateWithdrawal(ctx context.Context, userID string, amountCents int64, bankReference string) (*ledger.FundingRequest, error)
	FundingRequest(ctx context.Context, id string) (*ledger.FundingRequest, error)
	ApproveFunding(ctx context.Context, requestID string, kind ledger.FundingKind) (*ledger.FundingRequest, error)
	RejectFunding(ctx context.Context, requestID string, kind ledger.FundingKind, remark string) (*ledger.FundingRequest, error)
}

// Server expõe os contratos REST do motor de liquidação.
// Autenticação, paginação e export ficam na camada de API excluída.
type Server struct {
	log *zap.Logger
	eng Engine
}

// NewServer instancia o servidor HTTP do motor.
func NewServer(log *zap.Logger, eng Engine) *Server { return &Server{log: log, eng: eng} }

// Router retorna o mux HTTP com as rotas do motor.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/wallet", s.getWallet)         // GET ?userId=...
	mux.HandleFunc("/wallet/ledger", s.getLedger)  // GET ?userId=...
	mux.HandleFunc("/wallet/adjust", s.adjust)     // POST
	mux.HandleFunc("/bets", s.placeBet)            // POST
	mux.HandleFunc("/bets/settle", s.settleBet)    // POST
	mux.HandleFunc("/bets/", s.getBet)             // GET /bets/{id}
	mux.HandleFunc("/deposits", s.createDeposit)   // POST
	mux.HandleFunc("/deposits/approve", s.approve(ledger.FundingDeposit))
	mux.HandleFunc("/deposits/reject", s.reject(ledger.FundingDeposit))
	mux.HandleFunc("/withdrawals", s.createWithdrawal) // POST
	mux.HandleFunc("/withdrawals/approve", s.approve(ledger.FundingWithdrawal))
	mux.HandleFunc("/withdrawals/reject", s.reject(ledger.FundingWithdrawal))

	return mux
}

// getWallet retorna (ou cria) a conta e saldos do usuário
func (s *Server) getWallet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "userId required", http.StatusBadRequest)
		return
	}
	acc, err := s.eng.Wallet(r.Context(), userID)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, dto.FromAccount(acc))
}

// getLedger retorna a trilha de auditoria da conta
func (s *Server) getLedger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "userId required", http.StatusBadRequest)
		return
	}
	entries, err := s.eng.Ledger(r.Context(), userID)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, entries)
}

// adjust lança um ajuste manual de backoffice no razão
func (s *Server) adjust(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.AdjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	field := ledger.Field(req.Field)
	if req.UserID == "" || req.ReferenceID == "" || req.DeltaCents == 0 ||
		(field != ledger.FieldCredit && field != ledger.FieldBonus && field != ledger.FieldExposure) {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	acc, err := s.eng.Adjust(r.Context(), req.UserID, field, req.DeltaCents, req.ReferenceID, req.Remark)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, dto.FromAccount(acc))
}

// placeBet executa o caminho de débito da aceitação (stake + liability)
func (s *Server) placeBet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.PlaceBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.StakeCents <= 0 || req.BonusUsedCents < 0 || req.LiabilityCents > 0 {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	bet, err := s.eng.OpenBet(r.Context(), engine.OpenBetParams{
		UserID:         req.UserID,
		StakeCents:     req.StakeCents,
		BonusUsedCents: req.BonusUsedCents,
		LiabilityCents: req.LiabilityCents,
	})
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, dto.FromBet(bet))
}

// settleBet resolve a aposta para WON/LOST/VOID exatamente uma vez
func (s *Server) settleBet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.SettleBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	target := ledger.BetStatus(req.Status)
	if req.ID == "" || req.AmountCents < 0 || !target.Terminal() {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	bet, err := s.eng.Settle(r.Context(), req.ID, target, req.AmountCents)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, dto.FromBet(bet))
}

// getBet retorna a aposta pelo id (path /bets/{id})
func (s *Server) getBet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := r.URL.Path[len("/bets/"):]
	if id == "" {
		http.Error(w, "betId required", http.StatusBadRequest)
		return
	}
	bet, err := s.eng.Bet(r.Context(), id)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, dto.FromBet(bet))
}

// createDeposit registra uma solicitação de depósito em pending
func (s *Server) createDeposit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.CreateDepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.AmountCents <= 0 {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	out, err := s.eng.CreateDeposit(r.Context(), req.UserID, req.AmountCents, req.BankReference, req.OfferID)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, dto.FromFunding(out))
}

// createWithdrawal registra uma solicitação de saque em pending
func (s *Server) createWithdrawal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.CreateWithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.AmountCents <= 0 {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	out, err := s.eng.CreateWithdrawal(r.Context(), req.UserID, req.AmountCents, req.BankReference)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, dto.FromFunding(out))
}

// approve decide a solicitação como approved (PUT, protegido contra double-submit)
func (s *Server) approve(kind ledger.FundingKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req dto.FundingDecisionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.ID == "" {
			http.Error(w, "id required", http.StatusBadRequest)
			return
		}
		out, err := s.eng.ApproveFunding(r.Context(), req.ID, kind)
		if err != nil {
			s.writeErr(w, err)
			return
		}
		writeJSON(w, dto.FromFunding(out))
	}
}

// reject decide a solicitação como rejected com o remark do operador
func (s *Server) reject(kind ledger.FundingKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req dto.FundingDecisionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.ID == "" || req.Remark == "" {
			http.Error(w, "id and remark required", http.StatusBadRequest)
			return
		}
		out, err := s.eng.RejectFunding(r.Context(), req.ID, kind, req.Remark)
		if err != nil {
			s.writeErr(w, err)
			return
		}
		writeJSON(w, dto.FromFunding(out))
	}
}

// writeErr mapeia os erros do motor para status HTTP.
func (s *Server) writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, ledger.ErrInvalidState), errors.Is(err, engine.ErrInFlight):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ledger.ErrInsufficientFunds), errors.Is(err, ledger.ErrExposureLimitExceeded):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		s.log.Error("internal error", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// writeJSON serializa e envia resposta JSON
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
