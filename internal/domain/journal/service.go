package journal

import (
	"context"

	"kontor/internal/core/apperror"
	"kontor/internal/core/id"
)

// Service provides journal operations, including the per-(journal,
// fiscal year) number sequence used by the transaction engine.
type Service struct {
	repo    Repository
	numbers NumberSource
}

// NewService creates a new journal service.
func NewService(repo Repository, numbers NumberSource) *Service {
	return &Service{repo: repo, numbers: numbers}
}

// Create validates and inserts a new journal.
func (s *Service) Create(ctx context.Context, j *Journal) error {
	if err := j.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(j.ID) {
		j.ID = id.New()
	}
	return s.repo.Create(ctx, j)
}

// Get retrieves a journal by ID.
func (s *Service) Get(ctx context.Context, journalID id.ID) (Journal, error) {
	return s.repo.GetByID(ctx, journalID)
}

// GetByCode retrieves a journal by its unique code.
func (s *Service) GetByCode(ctx context.Context, code string) (Journal, error) {
	return s.repo.GetByCode(ctx, code)
}

// List returns all journals ordered by code.
func (s *Service) List(ctx context.Context) ([]Journal, error) {
	return s.repo.List(ctx)
}

// ClosingJournal returns the single journal flagged as closing.
// Zero or multiple closing journals is a configuration failure surfaced
// loudly rather than assumed away.
func (s *Service) ClosingJournal(ctx context.Context) (Journal, error) {
	closing, err := s.repo.ListClosing(ctx)
	if err != nil {
		return Journal{}, err
	}
	if len(closing) != 1 {
		return Journal{}, apperror.NewClosingJournalConflict(len(closing))
	}
	return closing[0], nil
}

// IssueNumber returns the next sequential transaction number for the
// (journal, fiscal year) sequence: max existing + 1, starting at 1.
func (s *Service) IssueNumber(ctx context.Context, journalID, fiscalYearID id.ID) (int, error) {
	max, err := s.numbers.MaxTransactionNumber(ctx, journalID, fiscalYearID)
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}
