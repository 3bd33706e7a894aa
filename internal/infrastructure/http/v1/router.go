// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"kontor/internal/domain/account"
	"kontor/internal/domain/auth"
	"kontor/internal/domain/calendar"
	"kontor/internal/domain/closing"
	"kontor/internal/domain/journal"
	"kontor/internal/domain/ledger"
	"kontor/internal/domain/reports"
	"kontor/internal/infrastructure/http/v1/handlers"
	"kontor/internal/infrastructure/http/v1/middleware"
	"kontor/pkg/logger"
)

// RouterConfig holds the wired services the router serves.
type RouterConfig struct {
	Pool     *pgxpool.Pool
	Logger   *logger.Logger
	Auth     *auth.Service
	Calendar *calendar.Service
	Accounts *account.Service
	Journals *journal.Service
	Engine   *ledger.Service
	Closing  *closing.Service
	Reports  *reports.Service
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	router.GET("/healthz", healthHandler.Live)
	router.GET("/readyz", healthHandler.Ready)

	authHandler := handlers.NewAuthHandler(cfg.Auth)
	accountHandler := handlers.NewAccountHandler(cfg.Accounts)
	journalHandler := handlers.NewJournalHandler(cfg.Journals)
	fiscalYearHandler := handlers.NewFiscalYearHandler(cfg.Calendar, cfg.Closing)
	transactionHandler := handlers.NewTransactionHandler(cfg.Engine)
	reportsHandler := handlers.NewReportsHandler(cfg.Reports)

	api := router.Group("/api/v1")
	{
		api.POST("/auth/login", authHandler.Login)

		protected := api.Group("")
		protected.Use(middleware.Auth(cfg.Auth))
		{
			accounts := protected.Group("/accounts")
			{
				accounts.GET("", accountHandler.List)
				accounts.POST("", accountHandler.Create)
				accounts.GET("/:id", accountHandler.Get)
				accounts.PUT("/:id", accountHandler.Update)
				accounts.GET("/:id/balance", accountHandler.Balance)
				accounts.GET("/:id/lots", accountHandler.Lots)
				accounts.GET("/:id/transactions", accountHandler.Transactions)
				accounts.GET("/:id/period-totals", accountHandler.PeriodTotals)
			}

			journals := protected.Group("/journals")
			{
				journals.GET("", journalHandler.List)
				journals.POST("", journalHandler.Create)
				journals.GET("/:id", journalHandler.Get)
			}

			fiscalYears := protected.Group("/fiscal-years")
			{
				fiscalYears.GET("", fiscalYearHandler.List)
				fiscalYears.GET("/by-date", fiscalYearHandler.ByDate)
				fiscalYears.GET("/:id/periods", fiscalYearHandler.Periods)
				fiscalYears.POST("/:id/close", fiscalYearHandler.Close)
			}

			transactions := protected.Group("/transactions")
			{
				transactions.GET("", transactionHandler.List)
				transactions.POST("", transactionHandler.Create)
				transactions.POST("/commit-batch", transactionHandler.CommitBatch)
				transactions.GET("/:id", transactionHandler.Get)
				transactions.PUT("/:id", transactionHandler.Update)
				transactions.POST("/:id/commit", transactionHandler.Commit)
			}

			reportsGroup := protected.Group("/reports")
			{
				reportsGroup.GET("/general-journal/:year", reportsHandler.GeneralJournal)
				reportsGroup.GET("/general-ledger/:year", reportsHandler.GeneralLedger)
			}
		}
	}

	return router
}
