package llm

import (
	"context"
	"fmt"
	"strings"
)

// Heuristic is the deterministic fallback provider. It composes advice from
// threshold rules over the snapshot, so the advisor endpoint still answers
// when no API key is configured.
type Heuristic struct{}

// NewHeuristic builds the fallback provider.
func NewHeuristic() *Heuristic { return &Heuristic{} }

func (h *Heuristic) Name() string { return "heuristic" }

// Advise composes rule-based advice. It never fails.
func (h *Heuristic) Advise(_ context.Context, snap Snapshot, question string) (Advice, error) {
	var lines []string

	lines = append(lines, fmt.Sprintf(
		"Your financial health score is %d (%s). Net worth is %s with monthly income %s against spending of %s.",
		snap.HealthScore, snap.HealthGrade,
		formatCents(snap.NetWorthCents), formatCents(snap.MonthlyIncomeCents), formatCents(snap.MonthlySpendCents)))

	switch {
	case snap.SavingsRate >= 0.20:
		lines = append(lines, fmt.Sprintf(
			"You are saving %.0f%% of income, which is a strong rate. Consider moving surplus into investments.",
			snap.SavingsRate*100))
	case snap.SavingsRate > 0:
		lines = append(lines, fmt.Sprintf(
			"Your savings rate is %.0f%%. Aim for at least 20%% by trimming the largest discretionary categories.",
			snap.SavingsRate*100))
	default:
		lines = append(lines, "You are spending as much as or more than you earn. Review recurring charges and set a monthly budget per category.")
	}

	if len(snap.TopCategories) > 0 {
		top := snap.TopCategories[0]
		if snap.MonthlySpendCents > 0 {
			share := float64(top.Cents) / float64(snap.MonthlySpendCents)
			if share > 0.35 {
				lines = append(lines, fmt.Sprintf(
					"%s accounts for %.0f%% of your spending (%s). Cutting it by a tenth would free up %s per month.",
					top.Category, share*100, formatCents(top.Cents), formatCents(top.Cents/10)))
			} else {
				lines = append(lines, fmt.Sprintf(
					"Your largest category is %s at %s per month. Spending looks reasonably spread out.",
					top.Category, formatCents(top.Cents)))
			}
		}
	}

	if snap.NetWorthCents < 0 {
		lines = append(lines, "Net worth is negative. Prioritize paying down high-interest debt before increasing investments.")
	}

	if question != "" {
		lines = append(lines, "For a specific answer to your question, configure an LLM API key; this reply is rule-based.")
	}

	return Advice{Text: strings.Join(lines, " "), Provider: h.Name()}, nil
}
