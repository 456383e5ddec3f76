package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jask/bankfeed/internal/database/repository"
	"github.com/jask/bankfeed/internal/service"
)

// reportWindow resolves the optional start_date/end_date query params,
// defaulting to the last 30 days.
func reportWindow(c *gin.Context) (time.Time, time.Time, error) {
	start, err := parseDateParam(c, "start_date")
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("bad start_date, want YYYY-MM-DD")
	}
	end, err := parseDateParam(c, "end_date")
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("bad end_date, want YYYY-MM-DD")
	}
	if end.IsZero() {
		end = time.Now().UTC()
	}
	if start.IsZero() {
		start = end.AddDate(0, 0, -30)
	}
	return start, end, nil
}

func (a *API) balanceReport(c *gin.Context) {
	totals, err := a.Accounts.BalanceReport(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	type row struct {
		Bank     string `json:"bank"`
		Currency string `json:"currency"`
		Total    int64  `json:"total_cents"`
		Accounts int    `json:"accounts"`
	}
	out := make([]row, 0, len(totals))
	byCurrency := map[string]int64{}
	for _, t := range totals {
		out = append(out, row{Bank: t.BankName, Currency: t.Currency, Total: t.Total, Accounts: t.Accounts})
		byCurrency[t.Currency] += t.Total
	}
	c.JSON(http.StatusOK, gin.H{"balances": out, "totals_by_currency": byCurrency})
}

func (a *API) transactionsReport(c *gin.Context) {
	start, err := parseDateParam(c, "start_date")
	if err != nil {
		respondError(c, http.StatusBadRequest, errors.New("bad start_date, want YYYY-MM-DD"))
		return
	}
	end, err := parseDateParam(c, "end_date")
	if err != nil {
		respondError(c, http.StatusBadRequest, errors.New("bad end_date, want YYYY-MM-DD"))
		return
	}
	if end.IsZero() {
		end = time.Now().UTC()
	}
	if start.IsZero() {
		start = end.AddDate(0, -1, 0)
	}

	summary, err := a.Txs.Summarize(c.Request.Context(), start, end)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"start_date":    start.Format("2006-01-02"),
		"end_date":      end.Format("2006-01-02"),
		"count":         summary.Count,
		"net_cents":     summary.Total,
		"income_cents":  summary.Income,
		"expense_cents": summary.Expense,
	})
}

func (a *API) spendingTrendsReport(c *gin.Context) {
	start, end, err := reportWindow(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	rows, err := a.Txs.List(c.Request.Context(), repository.TransactionFilters{Start: start, End: end})
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, service.AnalyzeSpending(rows, start, end))
}

func (a *API) incomeTrendsReport(c *gin.Context) {
	start, end, err := reportWindow(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	rows, err := a.Txs.List(c.Request.Context(), repository.TransactionFilters{Start: start, End: end})
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, service.AnalyzeIncome(rows, start, end))
}

func (a *API) financialHealthReport(c *gin.Context) {
	health, err := a.Advisor.Health(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, health)
}

func (a *API) statsSummary(c *gin.Context) {
	ctx := c.Request.Context()

	banks, err := a.Banks.List(ctx)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	accounts, err := a.Accounts.List(ctx, "")
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	summary, err := a.Txs.Summarize(ctx, time.Time{}, time.Time{})
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	linked := 0
	for _, b := range banks {
		if b.AccessToken != nil && *b.AccessToken != "" {
			linked++
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"banks":         len(banks),
		"linked_banks":  linked,
		"accounts":      len(accounts),
		"transactions":  summary.Count,
		"net_cents":     summary.Total,
		"income_cents":  summary.Income,
		"expense_cents": summary.Expense,
	})
}
