// Package main seeds a fresh database with the base chart of accounts
// and the two standard journals. Safe to re-run: existing codes are
// skipped.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"kontor/internal/core/apperror"
	"kontor/internal/domain/account"
	"kontor/internal/domain/calendar"
	"kontor/internal/domain/journal"
	"kontor/internal/domain/ledger"
	"kontor/internal/infrastructure/storage/postgres"
	"kontor/internal/infrastructure/storage/postgres/account_repo"
	"kontor/internal/infrastructure/storage/postgres/calendar_repo"
	"kontor/internal/infrastructure/storage/postgres/journal_repo"
	"kontor/internal/infrastructure/storage/postgres/ledger_repo"
	"kontor/pkg/logger"
)

type seedAccount struct {
	code        string
	name        string
	accountType account.Type
	public      bool
}

var chartOfAccounts = []seedAccount{
	{"1000", "Assets", account.TypeAsset, true},
	{"1100", "Cash", account.TypeAsset, true},
	{"1200", "Accounts Receivable", account.TypeAsset, true},
	{"2000", "Liabilities", account.TypeLiability, true},
	{"2100", "Accounts Payable", account.TypeLiability, true},
	{"3000", "Equity", account.TypeEquity, true},
	{"3900", "Net Earnings", account.TypeNetEarnings, true},
	{"4000", "Sales", account.TypeIncome, true},
	{"5000", "Expenses", account.TypeExpense, true},
}

func main() {
	_ = godotenv.Load()

	log, err := logger.New(logger.Config{Level: "info", Development: true})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	// Convenience: print a bcrypt hash for ADMIN_PASSWORD and exit.
	if password := os.Getenv("HASH_PASSWORD"); password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalw("failed to hash password", "error", err)
		}
		fmt.Println(string(hash))
		return
	}

	ctx := context.Background()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatalw("DATABASE_URL not set")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dsn))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

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

	seedJournals(ctx, log, journalService)
	seedAccounts(ctx, log, accountService)

	log.Info("seed complete")
}

func seedJournals(ctx context.Context, log *logger.Logger, journals *journal.Service) {
	for _, j := range []journal.Journal{
		{Code: "GJ", Description: "General Journal"},
		{Code: "CL", Description: "Closing Journal", Closing: true},
	} {
		if _, err := journals.GetByCode(ctx, j.Code); err == nil {
			log.Infow("journal exists, skipping", "code", j.Code)
			continue
		} else if !apperror.IsNotFound(err) {
			log.Fatalw("failed to check journal", "code", j.Code, "error", err)
		}
		jrn := j
		if err := journals.Create(ctx, &jrn); err != nil {
			log.Fatalw("failed to create journal", "code", j.Code, "error", err)
		}
		log.Infow("journal created", "code", j.Code)
	}
}

func seedAccounts(ctx context.Context, log *logger.Logger, accounts *account.Service) {
	for _, seed := range chartOfAccounts {
		if _, err := accounts.GetByCode(ctx, seed.code); err == nil {
			log.Infow("account exists, skipping", "code", seed.code)
			continue
		} else if !apperror.IsNotFound(err) {
			log.Fatalw("failed to check account", "code", seed.code, "error", err)
		}
		acc := account.Account{
			Name:   seed.name,
			Code:   seed.code,
			Type:   seed.accountType,
			Public: seed.public,
		}
		if err := accounts.Save(ctx, &acc); err != nil {
			log.Fatalw("failed to create account", "code", seed.code, "error", err)
		}
		log.Infow("account created", "code", seed.code, "name", seed.name)
	}
}
