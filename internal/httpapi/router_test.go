package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jask/bankfeed/internal/bank"
	"github.com/jask/bankfeed/internal/cache"
)

// newTestAPI wires the routes that do not need a database.
func newTestAPI(t *testing.T) *API {
	t.Helper()
	store, err := cache.New(t.TempDir(), cache.DefaultTTLs())
	require.NoError(t, err)
	opt := bank.NewOptimizer(100)
	return &API{
		Cache:     store,
		Optimizer: opt,
		Registry:  bank.NewRegistry(nil, store, opt, zerolog.Nop()),
		Log:       zerolog.Nop(),
	}
}

func doRequest(t *testing.T, api *API, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	NewRouter(api).ServeHTTP(w, req)
	return w
}

func TestHealthEndpointDegradedWithoutDatabase(t *testing.T) {
	t.Parallel()

	w := doRequest(t, newTestAPI(t), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "degraded", body["status"])
	require.Equal(t, "unavailable", body["database"])
}

func TestAPIInfoEndpoint(t *testing.T) {
	t.Parallel()

	w := doRequest(t, newTestAPI(t), http.MethodGet, "/api", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Name     string   `json:"name"`
		Status   string   `json:"status"`
		Features []string `json:"features"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "bankfeed", body.Name)
	require.Equal(t, "running", body.Status)
	require.NotEmpty(t, body.Features)
}

func TestBankRegistryEndpoint(t *testing.T) {
	t.Parallel()

	w := doRequest(t, newTestAPI(t), http.MethodGet, "/api/banks/registry", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Banks []registryEntry `json:"banks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Banks, 8)

	methods := map[string]string{}
	for _, b := range body.Banks {
		methods[b.Code] = b.Method
	}
	require.Equal(t, bank.MethodScraper, methods["rbc"])
	require.Equal(t, bank.MethodAPI, methods["monobank"])
}

func TestPlaidUsageEndpoint(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t)

	api.Optimizer.Record(bank.RequestRecord{Method: bank.MethodPlaid, Success: true})

	w := doRequest(t, api, http.MethodGet, "/api/plaid/usage", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Usage bank.Usage        `json:"usage"`
		Cost  bank.CostAnalysis `json:"cost"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, 1, body.Usage.PlaidUsed)
	require.Equal(t, 100, body.Usage.PlaidLimit)
	require.Zero(t, body.Cost.PaidRequests)
}

func TestPlaidDisabledReturns503(t *testing.T) {
	t.Parallel()

	w := doRequest(t, newTestAPI(t), http.MethodPost, "/api/plaid/link-token", `{"user_id":"u1"}`)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCacheEndpoints(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t)

	require.NoError(t, api.Cache.Put(cache.Key{DataType: cache.TypeAccounts, BankCode: "rbc"}, map[string]int{"x": 1}))

	w := doRequest(t, api, http.MethodGet, "/api/cache/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	var stats cache.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	require.Equal(t, 1, stats.TotalItems)

	w = doRequest(t, api, http.MethodDelete, "/api/cache/invalidate?bank_code=rbc", "")
	require.Equal(t, http.StatusOK, w.Code)
	var del map[string]int
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &del))
	require.Equal(t, 1, del["deleted"])

	w = doRequest(t, api, http.MethodPost, "/api/cache/cleanup", "")
	require.Equal(t, http.StatusOK, w.Code)
}

func TestCacheInvalidateRequiresCriteria(t *testing.T) {
	t.Parallel()

	w := doRequest(t, newTestAPI(t), http.MethodDelete, "/api/cache/invalidate", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListTransactionsRejectsBadDate(t *testing.T) {
	t.Parallel()

	w := doRequest(t, newTestAPI(t), http.MethodGet, "/api/transactions?start_date=25-08-2026", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "start_date")
}

func TestTrendsReportsRejectBadDates(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t)

	w := doRequest(t, api, http.MethodGet, "/api/reports/spending-trends?start_date=bad", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "start_date")

	w = doRequest(t, api, http.MethodGet, "/api/reports/income-trends?end_date=2026/01/01", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "end_date")
}

func TestLearnRuleValidation(t *testing.T) {
	t.Parallel()

	w := doRequest(t, newTestAPI(t), http.MethodPost, "/api/ai/learn", `{"pattern":"uber"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSetCategoryValidation(t *testing.T) {
	t.Parallel()

	w := doRequest(t, newTestAPI(t), http.MethodPut, "/api/transactions/abc/category", `{}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
