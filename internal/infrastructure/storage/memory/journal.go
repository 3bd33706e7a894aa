package memory

import (
	"context"
	"sort"

	"kontor/internal/core/apperror"
	"kontor/internal/core/id"
	"kontor/internal/domain/journal"
)

var _ journal.Repository = journalStore{}

// journalStore wraps the store so journal.Repository's method names do
// not clash with the account repository's on Store itself.
type journalStore struct{ s *Store }

// Journals exposes the store as a journal.Repository.
func (s *Store) Journals() journal.Repository { return journalStore{s: s} }

func (j journalStore) Create(ctx context.Context, jrn *journal.Journal) error {
	j.s.mu.Lock()
	defer j.s.mu.Unlock()
	for _, existing := range j.s.journals {
		if existing.Code == jrn.Code {
			return apperror.NewConflict("duplicate journal code").WithDetail("code", jrn.Code)
		}
	}
	j.s.journals[jrn.ID] = *jrn
	return nil
}

func (j journalStore) Update(ctx context.Context, jrn *journal.Journal) error {
	j.s.mu.Lock()
	defer j.s.mu.Unlock()
	if _, ok := j.s.journals[jrn.ID]; !ok {
		return apperror.NewNotFound("journal", jrn.ID)
	}
	j.s.journals[jrn.ID] = *jrn
	return nil
}

func (j journalStore) GetByID(ctx context.Context, journalID id.ID) (journal.Journal, error) {
	j.s.mu.RLock()
	defer j.s.mu.RUnlock()
	jrn, ok := j.s.journals[journalID]
	if !ok {
		return journal.Journal{}, apperror.NewNotFound("journal", journalID)
	}
	return jrn, nil
}

func (j journalStore) GetByCode(ctx context.Context, code string) (journal.Journal, error) {
	j.s.mu.RLock()
	defer j.s.mu.RUnlock()
	for _, jrn := range j.s.journals {
		if jrn.Code == code {
			return jrn, nil
		}
	}
	return journal.Journal{}, apperror.NewNotFound("journal", code)
}

func (j journalStore) List(ctx context.Context) ([]journal.Journal, error) {
	j.s.mu.RLock()
	defer j.s.mu.RUnlock()
	journals := make([]journal.Journal, 0, len(j.s.journals))
	for _, jrn := range j.s.journals {
		journals = append(journals, jrn)
	}
	sort.Slice(journals, func(a, b int) bool { return journals[a].Code < journals[b].Code })
	return journals, nil
}

func (j journalStore) ListClosing(ctx context.Context) ([]journal.Journal, error) {
	all, err := j.List(ctx)
	if err != nil {
		return nil, err
	}
	var closing []journal.Journal
	for _, jrn := range all {
		if jrn.Closing {
			closing = append(closing, jrn)
		}
	}
	return closing, nil
}
