// Package journal_repo implements journal.Repository on PostgreSQL.
package journal_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"kontor/internal/core/apperror"
	"kontor/internal/core/id"
	"kontor/internal/domain/journal"
	"kontor/internal/infrastructure/storage/postgres"
)

const journalTable = "journals"

var _ journal.Repository = (*JournalRepo)(nil)

// JournalRepo implements journal.Repository.
type JournalRepo struct {
	txm *postgres.TxManager
}

// NewJournalRepo creates a new journal repository.
func NewJournalRepo(txm *postgres.TxManager) *JournalRepo {
	return &JournalRepo{txm: txm}
}

func (r *JournalRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *JournalRepo) selectJournals() squirrel.SelectBuilder {
	return r.builder().
		Select("id", "code", "description", "closing").
		From(journalTable)
}

// Create inserts a new journal.
func (r *JournalRepo) Create(ctx context.Context, j *journal.Journal) error {
	sql, args, err := r.builder().
		Insert(journalTable).
		Columns("id", "code", "description", "closing").
		Values(j.ID, j.Code, j.Description, j.Closing).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err)
	}
	return nil
}

// Update persists changes to a journal.
func (r *JournalRepo) Update(ctx context.Context, j *journal.Journal) error {
	sql, args, err := r.builder().
		Update(journalTable).
		Set("code", j.Code).
		Set("description", j.Description).
		Set("closing", j.Closing).
		Where(squirrel.Eq{"id": j.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("journal", j.ID)
	}
	return nil
}

// GetByID retrieves a journal by ID.
func (r *JournalRepo) GetByID(ctx context.Context, journalID id.ID) (journal.Journal, error) {
	return r.get(ctx, r.selectJournals().Where(squirrel.Eq{"id": journalID}), journalID)
}

// GetByCode retrieves a journal by its unique code.
func (r *JournalRepo) GetByCode(ctx context.Context, code string) (journal.Journal, error) {
	return r.get(ctx, r.selectJournals().Where(squirrel.Eq{"code": code}), code)
}

func (r *JournalRepo) get(ctx context.Context, q squirrel.SelectBuilder, key any) (journal.Journal, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return journal.Journal{}, fmt.Errorf("build query: %w", err)
	}

	var j journal.Journal
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &j, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return journal.Journal{}, apperror.NewNotFound("journal", key)
		}
		return journal.Journal{}, fmt.Errorf("get journal: %w", err)
	}
	return j, nil
}

// List returns all journals ordered by code.
func (r *JournalRepo) List(ctx context.Context) ([]journal.Journal, error) {
	return r.list(ctx, r.selectJournals().OrderBy("code ASC"))
}

// ListClosing returns journals flagged as closing.
func (r *JournalRepo) ListClosing(ctx context.Context) ([]journal.Journal, error) {
	return r.list(ctx, r.selectJournals().Where(squirrel.Eq{"closing": true}).OrderBy("code ASC"))
}

func (r *JournalRepo) list(ctx context.Context, q squirrel.SelectBuilder) ([]journal.Journal, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var journals []journal.Journal
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &journals, sql, args...); err != nil {
		return nil, fmt.Errorf("list journals: %w", err)
	}
	return journals, nil
}
