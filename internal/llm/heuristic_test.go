package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func baseSnapshot() Snapshot {
	return Snapshot{
		NetWorthCents:      1_250_000,
		MonthlyIncomeCents: 500_000,
		MonthlySpendCents:  350_000,
		SavingsRate:        0.30,
		HealthScore:        82,
		HealthGrade:        "A",
		TopCategories: []CategorySpend{
			{Category: "Groceries", Cents: 90_000},
			{Category: "Transport", Cents: 40_000},
		},
	}
}

func TestHeuristicStrongSaver(t *testing.T) {
	t.Parallel()

	adv, err := NewHeuristic().Advise(context.Background(), baseSnapshot(), "")
	require.NoError(t, err)
	require.Equal(t, "heuristic", adv.Provider)
	require.Contains(t, adv.Text, "score is 82 (A)")
	require.Contains(t, adv.Text, "strong rate")
	require.Contains(t, adv.Text, "Groceries")
}

func TestHeuristicOverspending(t *testing.T) {
	t.Parallel()

	snap := baseSnapshot()
	snap.MonthlySpendCents = 600_000
	snap.SavingsRate = 0
	snap.NetWorthCents = -50_000

	adv, err := NewHeuristic().Advise(context.Background(), snap, "")
	require.NoError(t, err)
	require.Contains(t, adv.Text, "more than you earn")
	require.Contains(t, adv.Text, "Net worth is negative")
}

func TestHeuristicDominantCategory(t *testing.T) {
	t.Parallel()

	snap := baseSnapshot()
	snap.TopCategories = []CategorySpend{{Category: "Shopping", Cents: 200_000}}

	adv, err := NewHeuristic().Advise(context.Background(), snap, "how do I save more?")
	require.NoError(t, err)
	require.Contains(t, adv.Text, "Shopping accounts for 57%")
	require.Contains(t, adv.Text, "rule-based")
}

func TestFormatCents(t *testing.T) {
	t.Parallel()

	require.Equal(t, "12.34", formatCents(1234))
	require.Equal(t, "-0.05", formatCents(-5))
	require.Equal(t, "0.00", formatCents(0))
}
