package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jask/bankfeed/internal/database/repository"
)

func TestBuildHealthInputStabilityNeedsRecurringStream(t *testing.T) {
	t.Parallel()
	start, end := analysisWindow()

	txs := []repository.Transaction{
		{ID: "sale", Date: start.AddDate(0, 0, 3), Amount: 500_000, Description: "MARKETPLACE SALE"},
		spendTx("g", 5, 40_000, CategoryGroceries),
	}

	in := buildHealthInput(AnalyzeSpending(txs, start, end), AnalyzeIncome(txs, start, end))
	require.Equal(t, int64(500_000), in.IncomeCents)
	require.Equal(t, int64(40_000), in.ExpenseCents)
	// one payout is income, but not stable income
	require.False(t, in.StableIncome)

	txs = append(txs, repository.Transaction{
		ID: "sale2", Date: start.AddDate(0, 0, 17), Amount: 500_000, Description: "MARKETPLACE SALE",
	})
	in = buildHealthInput(AnalyzeSpending(txs, start, end), AnalyzeIncome(txs, start, end))
	require.True(t, in.StableIncome)
}

func TestBuildHealthInputCountsInvestments(t *testing.T) {
	t.Parallel()
	start, end := analysisWindow()

	txs := []repository.Transaction{
		spendTx("i", 2, 25_000, CategoryInvestments),
		spendTx("g", 4, 10_000, CategoryGroceries),
		spendTx("t", 6, 5_000, CategoryTransport),
	}

	in := buildHealthInput(AnalyzeSpending(txs, start, end), AnalyzeIncome(txs, start, end))
	require.Equal(t, int64(25_000), in.InvestmentsCents)
	require.Equal(t, 3, in.CategoryCount)
	require.Equal(t, int64(40_000), in.ExpenseCents)
}
