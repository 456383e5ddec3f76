package bank

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jask/bankfeed/internal/cache"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	store, err := cache.New(t.TempDir(), cache.DefaultTTLs())
	require.NoError(t, err)
	return NewRegistry(nil, store, NewOptimizer(100), zerolog.Nop())
}

func TestMethodRouting(t *testing.T) {
	t.Parallel()

	require.Equal(t, MethodScraper, MethodFor("rbc"))
	require.Equal(t, MethodScraper, MethodFor("bmo"))
	require.Equal(t, MethodAPI, MethodFor("monobank"))
	require.Equal(t, MethodAPI, MethodFor("ibkr"))
	require.Equal(t, MethodPlaid, MethodFor("chase"))
}

func TestConnectBuildsMocksAndCountsUsage(t *testing.T) {
	t.Parallel()
	r := newTestRegistry(t)

	c1, err := r.Connect(Credentials{BankCode: "rbc"})
	require.NoError(t, err)
	require.Equal(t, "rbc", c1.Name())

	c2, err := r.Connect(Credentials{BankCode: "monobank"})
	require.NoError(t, err)
	require.Equal(t, "monobank", c2.Name())

	usage := r.UsageByMethod()
	require.Equal(t, 1, usage[MethodScraper])
	require.Equal(t, 1, usage[MethodAPI])
}

func TestConnectPlaidUnconfigured(t *testing.T) {
	t.Parallel()
	r := newTestRegistry(t)

	_, err := r.Connect(Credentials{BankCode: "chase", AccessToken: "tok"})
	require.ErrorIs(t, err, ErrAuth)
}

func TestMockAccountsDeterministic(t *testing.T) {
	t.Parallel()

	a := NewScraperConnector(Credentials{BankCode: "rbc"})
	b := NewScraperConnector(Credentials{BankCode: "rbc"})

	accA, err := a.Accounts(context.Background())
	require.NoError(t, err)
	accB, err := b.Accounts(context.Background())
	require.NoError(t, err)
	require.Equal(t, accA, accB)

	// scrapers expose a credit card alongside the deposit accounts
	require.Len(t, accA, 3)
	require.Equal(t, "credit", accA[2].Type)
	require.Negative(t, accA[2].Balance)
}

func TestMockTransactionsWindow(t *testing.T) {
	t.Parallel()

	c := NewAPIConnector(Credentials{BankCode: "monobank"})
	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)

	txs, err := c.Transactions(context.Background(), "monobank-checking", from, to)
	require.NoError(t, err)
	require.NotEmpty(t, txs)
	for _, tx := range txs {
		require.False(t, tx.Date.Before(from))
		require.False(t, tx.Date.After(to))
		require.Equal(t, "UAH", tx.Currency)
	}

	again, err := c.Transactions(context.Background(), "monobank-checking", from, to)
	require.NoError(t, err)
	require.Equal(t, txs, again)
}

func TestMockBalance(t *testing.T) {
	t.Parallel()

	c := NewAPIConnector(Credentials{BankCode: "ibkr"})
	bal, err := c.Balance(context.Background(), "ibkr-brokerage")
	require.NoError(t, err)
	require.Positive(t, bal)

	_, err = c.Balance(context.Background(), "nope")
	require.ErrorIs(t, err, ErrData)
}
