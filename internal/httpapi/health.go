package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const dbProbeTimeout = 2 * time.Second

// apiInfo describes the API surface at the /api root.
func (a *API) apiInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":   "bankfeed",
		"status": "running",
		"features": []string{
			"bank integrations",
			"transaction categorization",
			"financial advisor",
			"analytics and reports",
		},
	})
}

// health reports service and database health. A failed database probe
// degrades the status and the response code.
func (a *API) health(c *gin.Context) {
	dbStatus := "ok"
	if a.DB == nil {
		dbStatus = "unavailable"
	} else {
		ctx, cancel := context.WithTimeout(c.Request.Context(), dbProbeTimeout)
		defer cancel()
		if err := a.DB.PingContext(ctx); err != nil {
			dbStatus = "unavailable"
		}
	}

	status, code := "ok", http.StatusOK
	if dbStatus != "ok" {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":   status,
		"database": dbStatus,
		"time":     time.Now().UTC(),
	})
}
