package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/radieske/wallet-settlement-engine/internal/settlement-service/dto"
	"github.com/radieske/wallet-settlement-engine/internal/settlement-service/engine"
	"github.com/radieske/wallet-settlement-engine/internal/settlement-service/guard"
	"github.com/radieske/wallet-settlement-engine/internal/settlement-service/ledger/memory"
)

func newTestServer(t *testing.T) (*httptest.Server, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	eng := engine.New(zap.NewNop(), store, guard.Noop{}, nil, nil, true)
	srv := httptest.NewServer(NewServer(zap.NewNop(), eng).Router())
	t.Cleanup(srv.Close)
	return srv, store
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	return res
}

func decode[T any](t *testing.T, res *http.Response) T {
	t.Helper()
	defer res.Body.Close()
	var v T
	if err := json.NewDecoder(res.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func TestDepositApprovalFlow(t *testing.T) {
	srv, _ := newTestServer(t)

	res := doJSON(t, http.MethodPost, srv.URL+"/deposits", dto.CreateDepositRequest{UserID: "u1", AmountCents: 1000})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("create status = %d", res.StatusCode)
	}
	created := decode[dto.FundingResponse](t, res)
	if created.Status != "pending" {
		t.Fatalf("status = %s, want pending", created.Status)
	}

	res = doJSON(t, http.MethodPut, srv.URL+"/deposits/approve", dto.FundingDecisionRequest{ID: created.RequestID})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("approve status = %d", res.StatusCode)
	}
	approved := decode[dto.FundingResponse](t, res)
	if approved.Status != "approved" {
		t.Fatalf("status = %s, want approved", approved.Status)
	}

	// segunda aprovação é barrada com 409 (proteção ao double-submit do admin)
	res = doJSON(t, http.MethodPut, srv.URL+"/deposits/approve", dto.FundingDecisionRequest{ID: created.RequestID})
	res.Body.Close()
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("re-approve status = %d, want 409", res.StatusCode)
	}

	res = doJSON(t, http.MethodGet, srv.URL+"/wallet?userId=u1", nil)
	wallet := decode[dto.WalletResponse](t, res)
	if wallet.CreditCents != 1000 {
		t.Fatalf("credit = %d, want 1000", wallet.CreditCents)
	}
}

func TestSettleBetEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	res := doJSON(t, http.MethodPost, srv.URL+"/deposits", dto.CreateDepositRequest{UserID: "u1", AmountCents: 1000})
	created := decode[dto.FundingResponse](t, res)
	res = doJSON(t, http.MethodPut, srv.URL+"/deposits/approve", dto.FundingDecisionRequest{ID: created.RequestID})
	res.Body.Close()

	res = doJSON(t, http.MethodPost, srv.URL+"/bets", dto.PlaceBetRequest{UserID: "u1", StakeCents: 200, LiabilityCents: -400})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("place status = %d", res.StatusCode)
	}
	bet := decode[dto.BetResponse](t, res)
	if bet.Status != "OPEN" {
		t.Fatalf("status = %s, want OPEN", bet.Status)
	}

	res = doJSON(t, http.MethodPost, srv.URL+"/bets/settle", dto.SettleBetRequest{ID: bet.BetID, Status: "WON", AmountCents: 150})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("settle status = %d", res.StatusCode)
	}
	settled := decode[dto.BetResponse](t, res)
	if settled.Status != "WON" || settled.PnlCents != 150 {
		t.Fatalf("got %+v", settled)
	}
	if settled.BalanceAfterCents == nil || *settled.BalanceAfterCents != 1150 {
		t.Fatalf("balance_after = %v, want 1150", settled.BalanceAfterCents)
	}

	// status divergente após terminal é 409
	res = doJSON(t, http.MethodPost, srv.URL+"/bets/settle", dto.SettleBetRequest{ID: bet.BetID, Status: "LOST", AmountCents: 200})
	res.Body.Close()
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("re-settle status = %d, want 409", res.StatusCode)
	}

	res = doJSON(t, http.MethodGet, srv.URL+"/bets/"+bet.BetID, nil)
	got := decode[dto.BetResponse](t, res)
	if got.Status != "WON" {
		t.Fatalf("status = %s, want WON", got.Status)
	}
}

func TestWithdrawalInsufficientFundsIs422(t *testing.T) {
	srv, _ := newTestServer(t)

	res := doJSON(t, http.MethodPost, srv.URL+"/withdrawals", dto.CreateWithdrawalRequest{UserID: "u1", AmountCents: 2000})
	created := decode[dto.FundingResponse](t, res)

	res = doJSON(t, http.MethodPut, srv.URL+"/withdrawals/approve", dto.FundingDecisionRequest{ID: created.RequestID})
	res.Body.Close()
	if res.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", res.StatusCode)
	}

	// permanece pending: uma nova tentativa continua possível
	res = doJSON(t, http.MethodPut, srv.URL+"/withdrawals/reject", dto.FundingDecisionRequest{ID: created.RequestID, Remark: "sem saldo"})
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("reject status = %d, want 200", res.StatusCode)
	}
}

func TestErrorMapping(t *testing.T) {
	srv, _ := newTestServer(t)

	cases := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"settle unknown bet", http.MethodPost, "/bets/settle", dto.SettleBetRequest{ID: "missing", Status: "WON"}, http.StatusNotFound},
		{"settle bad status", http.MethodPost, "/bets/settle", dto.SettleBetRequest{ID: "x", Status: "OPEN"}, http.StatusBadRequest},
		{"bet without stake", http.MethodPost, "/bets", dto.PlaceBetRequest{UserID: "u1"}, http.StatusBadRequest},
		{"deposit wrong method", http.MethodGet, "/deposits", nil, http.StatusMethodNotAllowed},
		{"wallet without user", http.MethodGet, "/wallet", nil, http.StatusBadRequest},
		{"adjust bad field", http.MethodPost, "/wallet/adjust", dto.AdjustRequest{UserID: "u1", Field: "nope", DeltaCents: 1, ReferenceID: "r"}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := doJSON(t, tc.method, srv.URL+tc.path, tc.body)
			res.Body.Close()
			if res.StatusCode != tc.want {
				t.Fatalf("status = %d, want %d", res.StatusCode, tc.want)
			}
		})
	}
}

func TestAdjustAndLedgerEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	res := doJSON(t, http.MethodPost, srv.URL+"/wallet/adjust", dto.AdjustRequest{
		UserID: "u1", Field: "credit", DeltaCents: 500, ReferenceID: "ticket-1", Remark: "saldo inicial",
	})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("adjust status = %d", res.StatusCode)
	}
	wallet := decode[dto.WalletResponse](t, res)
	if wallet.CreditCents != 500 {
		t.Fatalf("credit = %d, want 500", wallet.CreditCents)
	}

	res = doJSON(t, http.MethodGet, srv.URL+"/wallet/ledger?userId=u1", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("ledger status = %d", res.StatusCode)
	}
	entries := decode[[]map[string]any](t, res)
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
}
