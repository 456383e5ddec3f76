package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/jask/bankfeed/internal/database/repository"
	"github.com/jask/bankfeed/internal/llm"
)

// advisorWindowDays is the lookback for the advisor's monthly aggregates.
const advisorWindowDays = 30

// HealthReport is the financial health score plus the spending anomalies
// detected in the same window.
type HealthReport struct {
	HealthScore
	Anomalies []Anomaly `json:"anomalies"`
}

// Advisor assembles a financial snapshot from the database and asks the
// configured LLM provider for advice, falling back to the heuristic
// provider when the primary is unavailable.
type Advisor struct {
	accounts *repository.AccountRepo
	txs      *repository.TransactionRepo
	primary  llm.Provider
	fallback llm.Provider
	log      zerolog.Logger
}

// NewAdvisor wires an advisor. primary may be nil when no API key is
// configured; fallback must not be.
func NewAdvisor(accounts *repository.AccountRepo, txs *repository.TransactionRepo, primary, fallback llm.Provider, log zerolog.Logger) *Advisor {
	return &Advisor{
		accounts: accounts,
		txs:      txs,
		primary:  primary,
		fallback: fallback,
		log:      log.With().Str("pkg", "service").Logger(),
	}
}

// analyze loads the window's transactions once and runs both the spending
// and income analyses over them.
func (a *Advisor) analyze(ctx context.Context) (SpendingTrends, IncomeTrends, error) {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -advisorWindowDays)

	rows, err := a.txs.List(ctx, repository.TransactionFilters{Start: start, End: end})
	if err != nil {
		return SpendingTrends{}, IncomeTrends{}, err
	}
	return AnalyzeSpending(rows, start, end), AnalyzeIncome(rows, start, end), nil
}

// buildHealthInput maps the window analyses onto the health-score inputs.
// Income stability comes from recurring-stream detection, not from income
// merely being present.
func buildHealthInput(spending SpendingTrends, income IncomeTrends) HealthInput {
	var investments int64
	for _, cb := range spending.Categories {
		if cb.Category == CategoryInvestments {
			investments += cb.TotalCents
		}
	}
	return HealthInput{
		IncomeCents:      income.TotalCents,
		ExpenseCents:     spending.TotalSpentCents,
		CategoryCount:    len(spending.Categories),
		StableIncome:     income.StableRecurring,
		InvestmentsCents: investments,
	}
}

// Snapshot builds the aggregate picture the providers reason over.
func (a *Advisor) Snapshot(ctx context.Context) (llm.Snapshot, error) {
	var snap llm.Snapshot

	balances, err := a.accounts.BalanceReport(ctx)
	if err != nil {
		return snap, err
	}
	for _, b := range balances {
		snap.NetWorthCents += b.Total
	}

	spending, income, err := a.analyze(ctx)
	if err != nil {
		return snap, err
	}
	snap.MonthlyIncomeCents = income.TotalCents
	snap.MonthlySpendCents = spending.TotalSpentCents
	if income.TotalCents > 0 {
		snap.SavingsRate = float64(income.TotalCents-spending.TotalSpentCents) / float64(income.TotalCents)
		if snap.SavingsRate < 0 {
			snap.SavingsRate = 0
		}
	}

	for _, cb := range spending.Categories {
		if cb.Category == CategoryOther {
			continue
		}
		if len(snap.TopCategories) == 5 {
			break
		}
		snap.TopCategories = append(snap.TopCategories, llm.CategorySpend{
			Category: cb.Category,
			Cents:    cb.TotalCents,
		})
	}

	health := ComputeHealthScore(buildHealthInput(spending, income))
	snap.HealthScore = health.Score
	snap.HealthGrade = health.Grade
	return snap, nil
}

// Advise answers a question (or gives general advice) over the current
// snapshot.
func (a *Advisor) Advise(ctx context.Context, question string) (llm.Advice, error) {
	snap, err := a.Snapshot(ctx)
	if err != nil {
		return llm.Advice{}, err
	}

	if a.primary != nil {
		advice, err := a.primary.Advise(ctx, snap, question)
		if err == nil {
			return advice, nil
		}
		if !errors.Is(err, llm.ErrUnavailable) {
			return llm.Advice{}, err
		}
		a.log.Warn().Err(err).Str("provider", a.primary.Name()).Msg("primary advisor unavailable, using fallback")
	}
	return a.fallback.Advise(ctx, snap, question)
}

// Health computes the full financial health report for the reports
// endpoint, anomalies included.
func (a *Advisor) Health(ctx context.Context) (HealthReport, error) {
	spending, income, err := a.analyze(ctx)
	if err != nil {
		return HealthReport{}, err
	}

	report := HealthReport{
		HealthScore: ComputeHealthScore(buildHealthInput(spending, income)),
		Anomalies:   spending.Anomalies,
	}
	if report.Anomalies == nil {
		report.Anomalies = []Anomaly{}
	}
	return report, nil
}
