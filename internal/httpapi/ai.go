package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (a *API) advise(c *gin.Context) {
	advice, err := a.Advisor.Advise(c.Request.Context(), c.Query("question"))
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, advice)
}

type learnRequest struct {
	Pattern  string `json:"pattern" binding:"required"`
	Category string `json:"category" binding:"required"`
}

// learnRule persists a user-taught categorization rule.
func (a *API) learnRule(c *gin.Context) {
	var req learnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	if err := a.Categorizer.Learn(c.Request.Context(), req.Pattern, req.Category); err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"pattern": req.Pattern, "category": req.Category})
}
