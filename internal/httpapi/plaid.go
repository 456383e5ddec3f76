package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jask/bankfeed/internal/bank"
	"github.com/jask/bankfeed/internal/database/repository"
)

var errPlaidDisabled = errors.New("plaid is not configured")

type linkTokenRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

func (a *API) plaidLinkToken(c *gin.Context) {
	if a.Plaid == nil {
		respondError(c, http.StatusServiceUnavailable, errPlaidDisabled)
		return
	}
	var req linkTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	resp, err := a.Plaid.LinkTokenCreate(c.Request.Context(), "bankfeed", req.UserID, []string{"US", "CA"})
	if err != nil {
		respondError(c, http.StatusBadGateway, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"link_token": resp.LinkToken, "expiration": resp.Expiration})
}

type exchangeRequest struct {
	PublicToken string `json:"public_token" binding:"required"`
	BankCode    string `json:"bank_code" binding:"required"`
	BankName    string `json:"bank_name"`
	Country     string `json:"country"`
	Currency    string `json:"currency"`
}

// plaidExchange swaps the Link public token for an access token and
// registers (or relinks) the bank with it.
func (a *API) plaidExchange(c *gin.Context) {
	if a.Plaid == nil {
		respondError(c, http.StatusServiceUnavailable, errPlaidDisabled)
		return
	}
	var req exchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	resp, err := a.Plaid.ExchangePublicToken(c.Request.Context(), req.PublicToken)
	if err != nil {
		respondError(c, http.StatusBadGateway, err)
		return
	}

	name := req.BankName
	if name == "" {
		name = req.BankCode
	}
	b := repository.Bank{
		ID:          uuid.NewString(),
		Code:        req.BankCode,
		Name:        name,
		Country:     req.Country,
		Currency:    req.Currency,
		Method:      bank.MethodPlaid,
		ItemID:      &resp.ItemID,
		AccessToken: &resp.AccessToken,
	}
	if err := a.Banks.Upsert(c.Request.Context(), b); err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	stored, err := a.Banks.GetByCode(c.Request.Context(), req.BankCode)
	if err != nil || stored == nil {
		respondError(c, http.StatusInternalServerError, errors.New("bank lookup after exchange failed"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"bank": toBankResponse(*stored), "item_id": resp.ItemID})
}

func (a *API) plaidUsage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"usage": a.Optimizer.UsageReport(),
		"cost":  a.Optimizer.Cost(),
	})
}
