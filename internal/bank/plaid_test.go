package bank

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jask/bankfeed/internal/cache"
	"github.com/jask/bankfeed/internal/plaid"
)

func testCreds() Credentials {
	return Credentials{BankCode: "chase", AccessToken: "access-1", ItemID: "item-1"}
}

func newTestPlaid(t *testing.T, handler http.Handler) (*PlaidConnector, *Optimizer) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store, err := cache.New(t.TempDir(), cache.DefaultTTLs())
	require.NoError(t, err)

	opt := NewOptimizer(100)
	client := plaid.NewClient("cid", "sec", "sandbox").WithBaseURL(srv.URL)
	return NewPlaidConnector(client, store, opt, testCreds(), zerolog.Nop()), opt
}

func accountsHandler(calls *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		avail := 120.50
		cur := 130.00
		_ = json.NewEncoder(w).Encode(plaid.AccountsResponse{Accounts: []plaid.Account{{
			AccountID: "acc-1",
			Name:      "Everyday Checking",
			Type:      "depository",
			Subtype:   "checking",
			Balances:  plaid.Balances{Available: &avail, Current: &cur, IsoCurrencyCode: "USD"},
		}}})
	})
}

func TestAccountsCachedOnSecondCall(t *testing.T) {
	t.Parallel()

	calls := 0
	c, opt := newTestPlaid(t, accountsHandler(&calls))

	first, err := c.Accounts(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.Equal(t, int64(13000), first[0].Balance)
	require.Equal(t, int64(12050), *first[0].Available)

	second, err := c.Accounts(context.Background())
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, calls)
	require.Equal(t, 1, opt.MonthlyUsed())
}

func TestAccountsFallbackWhenBudgetExhausted(t *testing.T) {
	t.Parallel()

	calls := 0
	c, opt := newTestPlaid(t, accountsHandler(&calls))

	_, err := c.Accounts(context.Background())
	require.NoError(t, err)

	// exhaust the budget and expire the primary cache entry
	for i := 0; i < 100; i++ {
		opt.Record(RequestRecord{Method: MethodPlaid, Success: true})
	}
	_, err = c.store.Invalidate(cache.Criteria{DataType: cache.TypeAccounts})
	require.NoError(t, err)

	accounts, err := c.Accounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	require.Equal(t, 1, calls)
}

func TestAccountsFallbackOnAPIError(t *testing.T) {
	t.Parallel()

	fail := false
	calls := 0
	inner := accountsHandler(&calls)
	c, _ := newTestPlaid(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]string{"error_type": "API_ERROR", "error_code": "INTERNAL_SERVER_ERROR"})
			return
		}
		inner.ServeHTTP(w, r)
	}))

	_, err := c.Accounts(context.Background())
	require.NoError(t, err)

	fail = true
	_, err = c.store.Invalidate(cache.Criteria{DataType: cache.TypeAccounts})
	require.NoError(t, err)

	accounts, err := c.Accounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 1)
}

func TestCreditBalanceFlipsSign(t *testing.T) {
	t.Parallel()

	cur := 250.00
	limit := 5000.00
	got := normalizePlaidAccount(plaid.Account{
		AccountID: "acc-cc",
		Type:      "credit",
		Balances:  plaid.Balances{Current: &cur, Limit: &limit, IsoCurrencyCode: "USD"},
	})
	require.Equal(t, int64(-25000), got.Balance)
	require.Equal(t, int64(500000), *got.CreditLimit)
}

func TestTransactionsNormalizeAndCache(t *testing.T) {
	t.Parallel()

	calls := 0
	c, _ := newTestPlaid(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_ = json.NewEncoder(w).Encode(plaid.TransactionsResponse{
			TotalTransactions: 2,
			Transactions: []plaid.Transaction{
				{TransactionID: "t1", Amount: 12.34, Date: "2026-08-01", Name: "COFFEE SHOP", MerchantName: "Coffee Shop", IsoCurrency: "USD"},
				{TransactionID: "t2", Amount: -2500, Date: "2026-08-02", Name: "PAYROLL", IsoCurrency: "USD"},
			},
		})
	}))

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

	txs, err := c.Transactions(context.Background(), "acc-1", from, to)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	require.Equal(t, int64(-1234), txs[0].Amount)
	require.Equal(t, int64(250000), txs[1].Amount)

	_, err = c.Transactions(context.Background(), "acc-1", from, to)
	require.NoError(t, err)
	require.Equal(t, 1, calls)
}

func TestBalanceFromAccounts(t *testing.T) {
	t.Parallel()

	calls := 0
	c, _ := newTestPlaid(t, accountsHandler(&calls))

	bal, err := c.Balance(context.Background(), "acc-1")
	require.NoError(t, err)
	require.Equal(t, int64(13000), bal)

	_, err = c.Balance(context.Background(), "acc-missing")
	require.ErrorIs(t, err, ErrData)
}
