package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jask/bankfeed/internal/cache"
)

func (a *API) cacheStats(c *gin.Context) {
	stats, err := a.Cache.Stat()
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (a *API) cacheCleanup(c *gin.Context) {
	deleted, err := a.Cache.CleanupExpired()
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

func (a *API) cacheInvalidate(c *gin.Context) {
	criteria := cache.Criteria{
		DataType:  c.Query("data_type"),
		BankCode:  c.Query("bank_code"),
		AccountID: c.Query("account_id"),
	}
	if criteria == (cache.Criteria{}) {
		respondError(c, http.StatusBadRequest,
			errors.New("at least one of data_type, bank_code, account_id is required"))
		return
	}
	deleted, err := a.Cache.Invalidate(criteria)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}
