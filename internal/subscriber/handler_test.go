package subscriber

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type stubService struct {
	reconcileFn func(context.Context, []Spec) (map[string]int64, error)
	accountFn   func(context.Context, string) (Account, error)
	balanceFn   func(context.Context, string) (decimal.Decimal, error)
	quotaFn     func(context.Context, string, int) (int64, error)
}

func (s *stubService) Account(ctx context.Context, msisdn string) (Account, error) {
	if s.accountFn != nil {
		return s.accountFn(ctx, msisdn)
	}
	return Account{}, ErrNotFound
}

func (s *stubService) Reconcile(ctx context.Context, batch []Spec) (map[string]int64, error) {
	if s.reconcileFn != nil {
		return s.reconcileFn(ctx, batch)
	}
	return map[string]int64{}, nil
}

func (s *stubService) Balance(ctx context.Context, msisdn string) (decimal.Decimal, error) {
	if s.balanceFn != nil {
		return s.balanceFn(ctx, msisdn)
	}
	return decimal.Zero, nil
}

func (s *stubService) QuotaBalance(ctx context.Context, msisdn string, serviceType int) (int64, error) {
	if s.quotaFn != nil {
		return s.quotaFn(ctx, msisdn, serviceType)
	}
	return 0, nil
}

func newTestRouter(svc Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHandler(svc, testLogger()).RegisterRoutes(router)
	return router
}

func TestHandler_Reconcile(t *testing.T) {
	var gotBatch []Spec
	stub := &stubService{
		reconcileFn: func(_ context.Context, batch []Spec) (map[string]int64, error) {
			gotBatch = batch
			return map[string]int64{"79111111111": 7}, nil
		},
	}
	router := newTestRouter(stub)

	body := `{
		"subscribers": [
			{"msisdn":"79111111111","balance":50,"tariff_id":11,"name_prefix":"CallerE2E_S_"}
		]
	}`

	req := httptest.NewRequest(http.MethodPost, "/subscribers", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	if len(gotBatch) != 1 || gotBatch[0].Msisdn != "79111111111" || gotBatch[0].TariffID != 11 {
		t.Fatalf("unexpected batch passed to service: %+v", gotBatch)
	}
	if !gotBatch[0].Balance.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("unexpected balance: %s", gotBatch[0].Balance)
	}

	var resp struct {
		Subscribers map[string]int64 `json:"subscribers"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Subscribers["79111111111"] != 7 {
		t.Fatalf("unexpected mapping: %v", resp.Subscribers)
	}
}

func TestHandler_ReconcileBadRequest(t *testing.T) {
	router := newTestRouter(&stubService{})

	req := httptest.NewRequest(http.MethodPost, "/subscribers", bytes.NewBufferString(`{"subscribers":[]}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandler_ReconcileErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"session unavailable", ErrSessionUnavailable, http.StatusServiceUnavailable},
		{"record creation", &RecordCreationError{Table: "person_tariff", Msisdn: "79111111111"}, http.StatusConflict},
		{"stale account", &StaleAccountError{Msisdn: "79111111111", AccountID: 7}, http.StatusConflict},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubService{
				reconcileFn: func(context.Context, []Spec) (map[string]int64, error) {
					return nil, tc.err
				},
			}
			router := newTestRouter(stub)

			body := `{"subscribers":[{"msisdn":"79111111111","tariff_id":11}]}`
			req := httptest.NewRequest(http.MethodPost, "/subscribers", bytes.NewBufferString(body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
		})
	}
}

func TestHandler_Balance(t *testing.T) {
	stub := &stubService{
		balanceFn: func(_ context.Context, msisdn string) (decimal.Decimal, error) {
			if msisdn != "79111111111" {
				return decimal.Zero, ErrNotFound
			}
			return decimal.RequireFromString("-10.00"), nil
		},
	}
	router := newTestRouter(stub)

	req := httptest.NewRequest(http.MethodGet, "/subscribers/79111111111/balance", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/subscribers/79000000000/balance", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHandler_Account(t *testing.T) {
	stub := &stubService{
		accountFn: func(_ context.Context, msisdn string) (Account, error) {
			return Account{ID: 7, Msisdn: msisdn, Name: "CallerE2E_S_7", Balance: decimal.NewFromInt(50)}, nil
		},
	}
	router := newTestRouter(stub)

	req := httptest.NewRequest(http.MethodGet, "/subscribers/79111111111", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}

	var got Account
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.ID != 7 || got.Name != "CallerE2E_S_7" {
		t.Fatalf("unexpected account: %+v", got)
	}
}

func TestHandler_Quota(t *testing.T) {
	stub := &stubService{
		quotaFn: func(_ context.Context, msisdn string, serviceType int) (int64, error) {
			if serviceType != 0 {
				return 0, ErrNotFound
			}
			return 3, nil
		},
	}
	router := newTestRouter(stub)

	req := httptest.NewRequest(http.MethodGet, "/subscribers/79221234567/quota/0", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		AmountLeft int64 `json:"amount_left"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.AmountLeft != 3 {
		t.Fatalf("unexpected amount_left: %d", resp.AmountLeft)
	}

	req = httptest.NewRequest(http.MethodGet, "/subscribers/79221234567/quota/abc", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad service type, got %d", rec.Code)
	}
}
