package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jask/bankfeed/internal/database/repository"
	"github.com/jask/bankfeed/internal/service"
)

type transactionResponse struct {
	ID          string   `json:"id"`
	AccountID   string   `json:"account_id"`
	Date        string   `json:"date"`
	Amount      int64    `json:"amount_cents"`
	Description string   `json:"description"`
	Merchant    *string  `json:"merchant,omitempty"`
	Category    *string  `json:"category,omitempty"`
	Confidence  *float64 `json:"category_confidence,omitempty"`
	AILabeled   bool     `json:"ai_categorized"`
	Pending     bool     `json:"pending"`
}

func toTransactionResponse(t repository.Transaction) transactionResponse {
	return transactionResponse{
		ID:          t.ID,
		AccountID:   t.AccountID,
		Date:        t.Date.Format("2006-01-02"),
		Amount:      t.Amount,
		Description: t.Description,
		Merchant:    t.Merchant,
		Category:    t.Category,
		Confidence:  t.CategoryConfidence,
		AILabeled:   t.AICategorized,
		Pending:     t.Pending,
	}
}

func parseDateParam(c *gin.Context, name string) (time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", raw)
}

func (a *API) listTransactions(c *gin.Context) {
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
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			respondError(c, http.StatusBadRequest, errors.New("bad limit"))
			return
		}
	}

	txs, err := a.Transactions.List(c.Request.Context(), repository.TransactionFilters{
		AccountID:     c.Query("account_id"),
		Category:      c.Query("category"),
		Uncategorized: c.Query("uncategorized") == "true",
		Start:         start,
		End:           end,
		Search:        c.Query("search"),
		Limit:         limit,
	})
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	out := make([]transactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionResponse(t))
	}
	c.JSON(http.StatusOK, gin.H{"transactions": out, "count": len(out)})
}

type createTransactionRequest struct {
	AccountID   string `json:"account_id" binding:"required"`
	Date        string `json:"date" binding:"required"`
	Amount      int64  `json:"amount_cents" binding:"required"`
	Description string `json:"description" binding:"required"`
	Merchant    string `json:"merchant"`
	Category    string `json:"category"`
}

// createTransaction records a manual transaction. It goes through the
// categorizer unless a category is supplied.
func (a *API) createTransaction(c *gin.Context) {
	var req createTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		respondError(c, http.StatusBadRequest, errors.New("bad date, want YYYY-MM-DD"))
		return
	}

	row := repository.Transaction{
		ID:          uuid.NewString(),
		AccountID:   req.AccountID,
		Date:        date,
		Amount:      req.Amount,
		Description: req.Description,
		SourceHash:  service.SourceHash(date, req.Amount, req.Description),
	}
	if req.Merchant != "" {
		row.Merchant = &req.Merchant
	}
	if req.Category != "" {
		confidence := 1.0
		row.Category = &req.Category
		row.CategoryConfidence = &confidence
	} else {
		result := a.Categorizer.Categorize(req.Description, req.Merchant, req.Amount)
		row.Category = &result.Category
		row.CategoryConfidence = &result.Confidence
		row.AICategorized = true
	}

	if err := a.Txs.Insert(c.Request.Context(), row); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			respondError(c, http.StatusConflict, err)
			return
		}
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusCreated, toTransactionResponse(row))
}

func (a *API) categorizeTransactions(c *gin.Context) {
	all := c.Query("all") == "true"
	updated, err := a.Transactions.Recategorize(c.Request.Context(), !all)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

type setCategoryRequest struct {
	Category string `json:"category" binding:"required"`
}

func (a *API) setTransactionCategory(c *gin.Context) {
	var req setCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	err := a.Transactions.SetCategory(c.Request.Context(), c.Param("id"), req.Category)
	if err != nil {
		if errors.Is(err, service.ErrTransactionNotFound) {
			respondError(c, http.StatusNotFound, err)
			return
		}
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) listCategories(c *gin.Context) {
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

	totals, err := a.Txs.SumByCategory(c.Request.Context(), start, end)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	type categoryTotal struct {
		Category string `json:"category"`
		Total    int64  `json:"total_cents"`
		Count    int    `json:"count"`
	}
	out := make([]categoryTotal, 0, len(totals))
	for _, ct := range totals {
		out = append(out, categoryTotal{Category: ct.Category, Total: ct.Total, Count: ct.Count})
	}
	c.JSON(http.StatusOK, gin.H{"categories": out})
}
