package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jask/bankfeed/internal/database/repository"
)

type accountResponse struct {
	ID          string `json:"id"`
	BankID      string `json:"bank_id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Subtype     string `json:"subtype,omitempty"`
	Mask        string `json:"mask,omitempty"`
	Currency    string `json:"currency"`
	Balance     int64  `json:"balance_cents"`
	Available   *int64 `json:"available_cents,omitempty"`
	CreditLimit *int64 `json:"credit_limit_cents,omitempty"`
	Active      bool   `json:"active"`
}

func toAccountResponse(a repository.Account) accountResponse {
	return accountResponse{
		ID:          a.ID,
		BankID:      a.BankID,
		Name:        a.Name,
		Type:        a.AccountType,
		Subtype:     a.Subtype,
		Mask:        a.Mask,
		Currency:    a.Currency,
		Balance:     a.Balance,
		Available:   a.Available,
		CreditLimit: a.CreditLimit,
		Active:      a.Active,
	}
}

func (a *API) listAccounts(c *gin.Context) {
	accounts, err := a.Accounts.List(c.Request.Context(), c.Query("bank_id"))
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	out := make([]accountResponse, 0, len(accounts))
	for _, acc := range accounts {
		out = append(out, toAccountResponse(acc))
	}
	c.JSON(http.StatusOK, gin.H{"accounts": out})
}

type createAccountRequest struct {
	BankID     string `json:"bank_id" binding:"required"`
	ExternalID string `json:"external_id"`
	Name       string `json:"name" binding:"required"`
	Type       string `json:"type" binding:"required"`
	Subtype    string `json:"subtype"`
	Currency   string `json:"currency" binding:"required"`
	Balance    int64  `json:"balance_cents"`
}

// createAccount registers a manual account, for assets no connector
// covers.
func (a *API) createAccount(c *gin.Context) {
	var req createAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	b, err := a.Banks.Get(c.Request.Context(), req.BankID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	if b == nil {
		respondError(c, http.StatusUnprocessableEntity, errors.New("unknown bank_id"))
		return
	}

	id := uuid.NewString()
	external := req.ExternalID
	if external == "" {
		external = "manual-" + id
	}
	acc := repository.Account{
		ID:          id,
		BankID:      req.BankID,
		ExternalID:  external,
		Name:        req.Name,
		AccountType: req.Type,
		Subtype:     req.Subtype,
		Currency:    req.Currency,
		Balance:     req.Balance,
		Active:      true,
	}
	if err := a.Accounts.Upsert(c.Request.Context(), acc); err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusCreated, toAccountResponse(acc))
}

func (a *API) getAccount(c *gin.Context) {
	acc, err := a.Accounts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	if acc == nil {
		respondError(c, http.StatusNotFound, errors.New("account not found"))
		return
	}
	c.JSON(http.StatusOK, toAccountResponse(*acc))
}
