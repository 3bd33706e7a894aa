package journal_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kontor/internal/core/apperror"
	"kontor/internal/core/id"
	"kontor/internal/core/types"
	"kontor/internal/domain/journal"
	"kontor/internal/domain/ledger"
	"kontor/internal/infrastructure/storage/memory"
)

func newJournals() (*journal.Service, *memory.Store) {
	store := memory.NewStore()
	return journal.NewService(store.Journals(), store), store
}

func TestCreate_RequiresCode(t *testing.T) {
	svc, _ := newJournals()

	err := svc.Create(context.Background(), &journal.Journal{Description: "no code"})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestCreate_RejectsDuplicateCode(t *testing.T) {
	svc, _ := newJournals()
	ctx := context.Background()

	require.NoError(t, svc.Create(ctx, &journal.Journal{Code: "GJ"}))

	err := svc.Create(ctx, &journal.Journal{Code: "GJ"})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeConflict))
}

func TestClosingJournal(t *testing.T) {
	svc, _ := newJournals()
	ctx := context.Background()

	require.NoError(t, svc.Create(ctx, &journal.Journal{Code: "GJ"}))

	// No closing journal configured yet.
	_, err := svc.ClosingJournal(ctx)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeClosingJournal))

	require.NoError(t, svc.Create(ctx, &journal.Journal{Code: "CL", Closing: true}))
	closing, err := svc.ClosingJournal(ctx)
	require.NoError(t, err)
	assert.Equal(t, "CL", closing.Code)

	// A second closing journal is a misconfiguration.
	require.NoError(t, svc.Create(ctx, &journal.Journal{Code: "CL2", Closing: true}))
	_, err = svc.ClosingJournal(ctx)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeClosingJournal))
}

func TestIssueNumber_PerJournalAndYear(t *testing.T) {
	svc, store := newJournals()
	ctx := context.Background()

	jrn := journal.Journal{Code: "GJ"}
	require.NoError(t, svc.Create(ctx, &jrn))
	year2024 := id.New()
	year2025 := id.New()

	number, err := svc.IssueNumber(ctx, jrn.ID, year2024)
	require.NoError(t, err)
	assert.Equal(t, 1, number, "an empty sequence starts at 1")

	// Numbers continue after the highest committed slot.
	five := 5
	date := types.Date(2024, time.June, 1)
	require.NoError(t, store.CreateTransaction(ctx, &ledger.Transaction{
		ID:           id.New(),
		JournalID:    jrn.ID,
		Number:       &five,
		Date:         &date,
		State:        ledger.StateCommitted,
		FiscalYearID: &year2024,
	}))

	number, err = svc.IssueNumber(ctx, jrn.ID, year2024)
	require.NoError(t, err)
	assert.Equal(t, 6, number)

	// A different fiscal year has its own sequence.
	number, err = svc.IssueNumber(ctx, jrn.ID, year2025)
	require.NoError(t, err)
	assert.Equal(t, 1, number)
}
