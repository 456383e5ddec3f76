package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jask/bankfeed/internal/bank"
	"github.com/jask/bankfeed/internal/database/repository"
	"github.com/jask/bankfeed/internal/service"
)

type bankResponse struct {
	ID       string `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Country  string `json:"country"`
	Currency string `json:"currency"`
	Method   string `json:"method"`
	Linked   bool   `json:"linked"`
}

func toBankResponse(b repository.Bank) bankResponse {
	return bankResponse{
		ID:       b.ID,
		Code:     b.Code,
		Name:     b.Name,
		Country:  b.Country,
		Currency: b.Currency,
		Method:   b.Method,
		Linked:   b.AccessToken != nil && *b.AccessToken != "",
	}
}

func (a *API) listBanks(c *gin.Context) {
	banks, err := a.Banks.List(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	out := make([]bankResponse, 0, len(banks))
	for _, b := range banks {
		out = append(out, toBankResponse(b))
	}
	c.JSON(http.StatusOK, gin.H{"banks": out})
}

type createBankRequest struct {
	Code     string `json:"code" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Country  string `json:"country"`
	Currency string `json:"currency"`
}

func (a *API) createBank(c *gin.Context) {
	var req createBankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	b := repository.Bank{
		ID:       uuid.NewString(),
		Code:     req.Code,
		Name:     req.Name,
		Country:  req.Country,
		Currency: req.Currency,
		Method:   bank.MethodFor(req.Code),
	}
	if err := a.Banks.Upsert(c.Request.Context(), b); err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	stored, err := a.Banks.GetByCode(c.Request.Context(), req.Code)
	if err != nil || stored == nil {
		respondError(c, http.StatusInternalServerError, errors.New("bank lookup after create failed"))
		return
	}
	c.JSON(http.StatusCreated, toBankResponse(*stored))
}

func (a *API) getBank(c *gin.Context) {
	b, err := a.Banks.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	if b == nil {
		respondError(c, http.StatusNotFound, service.ErrBankNotFound)
		return
	}
	c.JSON(http.StatusOK, toBankResponse(*b))
}

func (a *API) deleteBank(c *gin.Context) {
	if err := a.Banks.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) syncBank(c *gin.Context) {
	res, err := a.Syncer.SyncBank(c.Request.Context(), c.Param("id"))
	if err != nil {
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, service.ErrBankNotFound):
			status = http.StatusNotFound
		case errors.Is(err, bank.ErrAuth):
			status = http.StatusUnprocessableEntity
		}
		respondError(c, status, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type registryEntry struct {
	Code   string `json:"code"`
	Method string `json:"method"`
}

func (a *API) bankRegistry(c *gin.Context) {
	codes := bank.SupportedBanks()
	out := make([]registryEntry, 0, len(codes))
	for _, code := range codes {
		out = append(out, registryEntry{Code: code, Method: bank.MethodFor(code)})
	}
	c.JSON(http.StatusOK, gin.H{
		"banks":           out,
		"usage_by_method": a.Registry.UsageByMethod(),
	})
}
