// Package httpapi exposes the aggregator over HTTP: bank management,
// account and transaction queries, reports, advice and cache management.
package httpapi

import (
	"database/sql"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/jask/bankfeed/internal/bank"
	"github.com/jask/bankfeed/internal/cache"
	"github.com/jask/bankfeed/internal/database/repository"
	"github.com/jask/bankfeed/internal/plaid"
	"github.com/jask/bankfeed/internal/service"
)

// API bundles the dependencies the handlers need.
type API struct {
	DB           *sql.DB
	Banks        *repository.BankRepo
	Accounts     *repository.AccountRepo
	Txs          *repository.TransactionRepo
	Transactions *service.Transactions
	Syncer       *service.Syncer
	Advisor      *service.Advisor
	Categorizer  *service.Categorizer
	Plaid        *plaid.Client
	Cache        *cache.Store
	Optimizer    *bank.Optimizer
	Registry     *bank.Registry
	Log          zerolog.Logger
}

// NewRouter builds the gin engine with all routes mounted.
func NewRouter(api *API) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(api.Log))

	r.GET("/health", api.health)
	r.GET("/api", api.apiInfo)

	g := r.Group("/api")
	{
		g.GET("/banks", api.listBanks)
		g.POST("/banks", api.createBank)
		g.GET("/banks/registry", api.bankRegistry)
		g.GET("/banks/:id", api.getBank)
		g.DELETE("/banks/:id", api.deleteBank)
		g.POST("/banks/:id/sync", api.syncBank)

		g.GET("/accounts", api.listAccounts)
		g.POST("/accounts", api.createAccount)
		g.GET("/accounts/:id", api.getAccount)

		g.GET("/transactions", api.listTransactions)
		g.POST("/transactions", api.createTransaction)
		g.POST("/transactions/categorize", api.categorizeTransactions)
		g.PUT("/transactions/:id/category", api.setTransactionCategory)

		g.GET("/categories", api.listCategories)

		g.GET("/reports/balance", api.balanceReport)
		g.GET("/reports/transactions", api.transactionsReport)
		g.GET("/reports/financial-health", api.financialHealthReport)
		g.GET("/reports/spending-trends", api.spendingTrendsReport)
		g.GET("/reports/income-trends", api.incomeTrendsReport)

		g.GET("/ai/advisor", api.advise)
		g.POST("/ai/learn", api.learnRule)

		g.GET("/stats/summary", api.statsSummary)

		g.POST("/plaid/link-token", api.plaidLinkToken)
		g.POST("/plaid/exchange", api.plaidExchange)
		g.GET("/plaid/usage", api.plaidUsage)

		g.GET("/cache/stats", api.cacheStats)
		g.POST("/cache/cleanup", api.cacheCleanup)
		g.DELETE("/cache/invalidate", api.cacheInvalidate)
	}
	return r
}
