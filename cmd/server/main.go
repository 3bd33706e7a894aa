// Package main is the entry point for the kontor ledger API server.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	migrate "github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"kontor/internal/domain/account"
	"kontor/internal/domain/auth"
	"kontor/internal/domain/calendar"
	"kontor/internal/domain/closing"
	"kontor/internal/domain/journal"
	"kontor/internal/domain/ledger"
	"kontor/internal/domain/reports"
	v1 "kontor/internal/infrastructure/http/v1"
	"kontor/internal/infrastructure/storage/postgres"
	"kontor/internal/infrastructure/storage/postgres/account_repo"
	"kontor/internal/infrastructure/storage/postgres/calendar_repo"
	"kontor/internal/infrastructure/storage/postgres/journal_repo"
	"kontor/internal/infrastructure/storage/postgres/ledger_repo"
	"kontor/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting kontor server")

	dsn := mustEnv("DATABASE_URL")

	if err := runMigrations(dsn); err != nil {
		log.Fatalw("migrations failed", "error", err)
	}
	log.Info("database migrations applied")

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dsn))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	// Ledger commits run serializable by default; two concurrent commits
	// must not both pass the duplicate-number check.
	txManager := postgres.NewTxManager(pool)

	calendarRepo := calendar_repo.NewCalendarRepo(txManager)
	accountRepo := account_repo.NewAccountRepo(txManager)
	journalRepo := journal_repo.NewJournalRepo(txManager)
	ledgerRepo := ledger_repo.NewLedgerRepo(txManager)

	calendarService := calendar.NewService(calendarRepo)
	journalService := journal.NewService(journalRepo, ledgerRepo)
	engine := ledger.NewService(ledgerRepo, calendarService, journalService,
		account.NewLedgerSource(accountRepo), txManager)
	accountService := account.NewService(accountRepo, ledgerRepo, engine,
		journalService, calendarService, txManager)
	closingService := closing.NewService(calendarService, calendarRepo,
		accountService, journalService, engine, txManager)
	reportsService := reports.NewService(calendarService, accountService,
		journalService, engine)

	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(mustEnv("JWT_SECRET")))
	authService := auth.NewService([]auth.Credential{
		{
			UserID:       "admin",
			Email:        mustEnv("ADMIN_EMAIL"),
			PasswordHash: mustEnv("ADMIN_PASSWORD_HASH"),
			IsAdmin:      true,
		},
	}, jwtService)

	router := v1.NewRouter(v1.RouterConfig{
		Pool:     pool.Pool,
		Logger:   log,
		Auth:     authService,
		Calendar: calendarService,
		Accounts: accountService,
		Journals: journalService,
		Engine:   engine,
		Closing:  closingService,
		Reports:  reportsService,
	})

	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

// runMigrations applies pending schema migrations through a temporary
// database/sql connection, compatible with the pgx pool.
func runMigrations(dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		getEnv("MIGRATIONS_PATH", "file://migrations"),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}
