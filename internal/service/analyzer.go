package service

import (
	"math"
	"sort"
	"time"

	"github.com/jask/bankfeed/internal/database/repository"
)

// Anomaly severity levels. A spend past mean + 2 standard deviations is
// medium, past 3 is high.
const (
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// CategoryBreakdown is one category's share of period spending.
type CategoryBreakdown struct {
	Category   string  `json:"category"`
	TotalCents int64   `json:"total_cents"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Anomaly flags a transaction far above the typical spend.
type Anomaly struct {
	TransactionID  string  `json:"transaction_id"`
	Description    string  `json:"description"`
	Date           string  `json:"date"`
	AmountCents    int64   `json:"amount_cents"`
	ThresholdCents int64   `json:"threshold_cents"`
	Severity       string  `json:"severity"`
	Deviations     float64 `json:"deviations"`
}

// SpendingStats are summary statistics over absolute spend amounts, in
// cents.
type SpendingStats struct {
	Mean   int64 `json:"mean_cents"`
	Median int64 `json:"median_cents"`
	StdDev int64 `json:"std_dev_cents"`
	Min    int64 `json:"min_cents"`
	Max    int64 `json:"max_cents"`
	Total  int64 `json:"total_cents"`
}

// SpendingTrends is the full spending analysis for a period.
type SpendingTrends struct {
	StartDate         string              `json:"start_date"`
	EndDate           string              `json:"end_date"`
	TotalTransactions int                 `json:"total_transactions"`
	TotalSpentCents   int64               `json:"total_spent_cents"`
	Categories        []CategoryBreakdown `json:"categories"`
	AverageDailyCents int64               `json:"average_daily_cents"`
	Anomalies         []Anomaly           `json:"anomalies"`
	Stats             SpendingStats       `json:"statistics"`
	Insights          []string            `json:"insights"`
}

// IncomeSource is one income stream aggregated by description.
type IncomeSource struct {
	Source     string `json:"source"`
	TotalCents int64  `json:"total_cents"`
	Count      int    `json:"count"`
}

// IncomeTrends is the income analysis for a period.
type IncomeTrends struct {
	StartDate       string         `json:"start_date"`
	EndDate         string         `json:"end_date"`
	TotalCents      int64          `json:"total_cents"`
	MeanCents       int64          `json:"mean_cents"`
	Count           int            `json:"count"`
	Sources         []IncomeSource `json:"sources"`
	Insights        []string       `json:"insights"`
	StableRecurring bool           `json:"stable_recurring"`
}

// HealthScore is the composite financial health assessment.
type HealthScore struct {
	Score           int      `json:"score"`
	MaxScore        int      `json:"max_score"`
	Grade           string   `json:"grade"`
	Factors         []string `json:"factors"`
	Recommendations []string `json:"recommendations"`
}

// AnalyzeSpending computes category breakdowns, statistics, anomalies and
// insights over the expense transactions in [start, end].
func AnalyzeSpending(txs []repository.Transaction, start, end time.Time) SpendingTrends {
	out := SpendingTrends{
		StartDate: start.Format("2006-01-02"),
		EndDate:   end.Format("2006-01-02"),
	}

	var spends []repository.Transaction
	for _, t := range txs {
		if t.Amount < 0 && !t.Date.Before(start) && t.Date.Before(end) {
			spends = append(spends, t)
		}
	}
	if len(spends) == 0 {
		return out
	}
	out.TotalTransactions = len(spends)

	totals := map[string]int64{}
	counts := map[string]int{}
	amounts := make([]int64, 0, len(spends))
	for _, t := range spends {
		cat := CategoryOther
		if t.Category != nil {
			cat = *t.Category
		}
		abs := -t.Amount
		totals[cat] += abs
		counts[cat]++
		amounts = append(amounts, abs)
		out.TotalSpentCents += abs
	}

	for cat, total := range totals {
		out.Categories = append(out.Categories, CategoryBreakdown{
			Category:   cat,
			TotalCents: total,
			Count:      counts[cat],
			Percentage: float64(total) / float64(out.TotalSpentCents) * 100,
		})
	}
	sort.Slice(out.Categories, func(i, j int) bool {
		return out.Categories[i].TotalCents > out.Categories[j].TotalCents
	})

	days := int(end.Sub(start).Hours() / 24)
	if days > 0 {
		out.AverageDailyCents = out.TotalSpentCents / int64(days)
	}

	out.Stats = spendingStats(amounts)
	out.Anomalies = detectAnomalies(spends, out.Stats)
	out.Insights = spendingInsights(out.Categories, out.Stats)
	return out
}

func spendingStats(amounts []int64) SpendingStats {
	sorted := make([]int64, len(amounts))
	copy(sorted, amounts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var sum int64
	for _, a := range sorted {
		sum += a
	}
	mean := float64(sum) / float64(len(sorted))

	var variance float64
	if len(sorted) > 1 {
		for _, a := range sorted {
			d := float64(a) - mean
			variance += d * d
		}
		variance /= float64(len(sorted) - 1)
	}

	median := sorted[len(sorted)/2]
	if len(sorted)%2 == 0 {
		median = (sorted[len(sorted)/2-1] + sorted[len(sorted)/2]) / 2
	}

	return SpendingStats{
		Mean:   int64(math.Round(mean)),
		Median: median,
		StdDev: int64(math.Round(math.Sqrt(variance))),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Total:  sum,
	}
}

func detectAnomalies(spends []repository.Transaction, stats SpendingStats) []Anomaly {
	if stats.StdDev == 0 {
		return nil
	}
	threshold := stats.Mean + 2*stats.StdDev
	severe := stats.Mean + 3*stats.StdDev

	var out []Anomaly
	for _, t := range spends {
		abs := -t.Amount
		if abs <= threshold {
			continue
		}
		severity := SeverityMedium
		if abs > severe {
			severity = SeverityHigh
		}
		out = append(out, Anomaly{
			TransactionID:  t.ID,
			Description:    t.Description,
			Date:           t.Date.Format("2006-01-02"),
			AmountCents:    abs,
			ThresholdCents: threshold,
			Severity:       severity,
			Deviations:     float64(abs-stats.Mean) / float64(stats.StdDev),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AmountCents > out[j].AmountCents })
	return out
}

func spendingInsights(categories []CategoryBreakdown, stats SpendingStats) []string {
	var insights []string
	if len(categories) > 0 && categories[0].Percentage > 40 {
		insights = append(insights, "dominant spending category: "+categories[0].Category)
	}
	if len(categories) < 3 {
		insights = append(insights, "spending is concentrated in few categories")
	}
	if stats.Mean > 10_000 {
		insights = append(insights, "high average transaction size")
	} else if stats.Mean < 2_000 {
		insights = append(insights, "many small transactions")
	}
	return insights
}

// AnalyzeIncome aggregates income streams by description over [start, end).
func AnalyzeIncome(txs []repository.Transaction, start, end time.Time) IncomeTrends {
	out := IncomeTrends{
		StartDate: start.Format("2006-01-02"),
		EndDate:   end.Format("2006-01-02"),
	}

	totals := map[string]int64{}
	counts := map[string]int{}
	for _, t := range txs {
		if t.Amount <= 0 || t.Date.Before(start) || !t.Date.Before(end) {
			continue
		}
		totals[t.Description] += t.Amount
		counts[t.Description]++
		out.TotalCents += t.Amount
		out.Count++
	}
	if out.Count == 0 {
		return out
	}
	out.MeanCents = out.TotalCents / int64(out.Count)

	for src, total := range totals {
		out.Sources = append(out.Sources, IncomeSource{Source: src, TotalCents: total, Count: counts[src]})
	}
	sort.Slice(out.Sources, func(i, j int) bool { return out.Sources[i].TotalCents > out.Sources[j].TotalCents })

	// a recurring stream is one that pays out more than once in the window
	for _, s := range out.Sources {
		if s.Count > 1 {
			out.StableRecurring = true
			break
		}
	}

	switch {
	case len(out.Sources) == 1:
		out.Insights = append(out.Insights, "single income source; consider diversifying")
	case len(out.Sources) > 3:
		out.Insights = append(out.Insights, "well diversified income sources")
	}
	return out
}

// HealthInput carries the aggregates scored by ComputeHealthScore.
type HealthInput struct {
	IncomeCents      int64
	ExpenseCents     int64 // absolute value
	CategoryCount    int
	StableIncome     bool
	InvestmentsCents int64
}

// ComputeHealthScore scores financial health 0..100 from income/expense
// ratio, savings rate, spending diversification, income stability and
// investments.
func ComputeHealthScore(in HealthInput) HealthScore {
	score := 0
	var factors []string

	if in.IncomeCents > 0 {
		ratio := float64(in.ExpenseCents) / float64(in.IncomeCents)
		switch {
		case ratio < 0.5:
			score += 30
			factors = append(factors, "excellent expense-to-income ratio")
		case ratio < 0.7:
			score += 20
			factors = append(factors, "good expense-to-income ratio")
		case ratio < 0.9:
			score += 10
			factors = append(factors, "acceptable expense-to-income ratio")
		default:
			factors = append(factors, "expenses consume nearly all income")
		}

		if savings := in.IncomeCents - in.ExpenseCents; savings > 0 {
			rate := float64(savings) / float64(in.IncomeCents)
			switch {
			case rate > 0.2:
				score += 25
				factors = append(factors, "strong savings rate")
			case rate > 0.1:
				score += 15
				factors = append(factors, "moderate savings rate")
			default:
				factors = append(factors, "low savings rate")
			}
		}
	}

	switch {
	case in.CategoryCount > 5:
		score += 15
		factors = append(factors, "well diversified spending")
	case in.CategoryCount > 3:
		score += 10
		factors = append(factors, "moderately diversified spending")
	}

	if in.StableIncome {
		score += 20
		factors = append(factors, "stable recurring income")
	}
	if in.InvestmentsCents > 0 {
		score += 10
		factors = append(factors, "holds investments")
	}

	if score > 100 {
		score = 100
	}
	return HealthScore{
		Score:           score,
		MaxScore:        100,
		Grade:           healthGrade(score),
		Factors:         factors,
		Recommendations: healthRecommendations(score),
	}
}

func healthGrade(score int) string {
	switch {
	case score >= 90:
		return "A+"
	case score >= 80:
		return "A"
	case score >= 70:
		return "B+"
	case score >= 60:
		return "B"
	case score >= 50:
		return "C"
	default:
		return "D"
	}
}

func healthRecommendations(score int) []string {
	switch {
	case score < 50:
		return []string{"critical: rework the budget and cut recurring costs"}
	case score < 70:
		return []string{"needs improvement: raise the savings rate above 10%"}
	case score < 85:
		return []string{"good shape with room to improve"}
	default:
		return []string{"excellent financial health"}
	}
}
