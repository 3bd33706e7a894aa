// Package account_repo implements account.Repository on PostgreSQL.
package account_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"kontor/internal/core/apperror"
	"kontor/internal/core/id"
	"kontor/internal/domain/account"
	"kontor/internal/infrastructure/storage/postgres"
)

const accountTable = "accounts"

var _ account.Repository = (*AccountRepo)(nil)

// AccountRepo implements account.Repository.
type AccountRepo struct {
	txm *postgres.TxManager
}

// NewAccountRepo creates a new account repository.
func NewAccountRepo(txm *postgres.TxManager) *AccountRepo {
	return &AccountRepo{txm: txm}
}

func (r *AccountRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *AccountRepo) selectAccounts() squirrel.SelectBuilder {
	return r.builder().
		Select("id", "name", "code", "parent_id", "sort_order",
			"account_type", "public", "frozen", "lot_tracking").
		From(accountTable)
}

// Create inserts a new account.
func (r *AccountRepo) Create(ctx context.Context, acc *account.Account) error {
	sql, args, err := r.builder().
		Insert(accountTable).
		Columns("id", "name", "code", "parent_id", "sort_order",
			"account_type", "public", "frozen", "lot_tracking").
		Values(acc.ID, acc.Name, acc.Code, acc.ParentID, acc.Order,
			acc.Type, acc.Public, acc.Frozen, acc.LotTracking).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err)
	}
	return nil
}

// Update persists changes to an account.
func (r *AccountRepo) Update(ctx context.Context, acc *account.Account) error {
	sql, args, err := r.builder().
		Update(accountTable).
		Set("name", acc.Name).
		Set("code", acc.Code).
		Set("parent_id", acc.ParentID).
		Set("sort_order", acc.Order).
		Set("account_type", acc.Type).
		Set("public", acc.Public).
		Set("frozen", acc.Frozen).
		Set("lot_tracking", acc.LotTracking).
		Where(squirrel.Eq{"id": acc.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("account", acc.ID)
	}
	return nil
}

// GetByID retrieves an account by ID.
func (r *AccountRepo) GetByID(ctx context.Context, accountID id.ID) (account.Account, error) {
	return r.get(ctx, r.selectAccounts().Where(squirrel.Eq{"id": accountID}), accountID)
}

// GetByCode retrieves an account by its code.
func (r *AccountRepo) GetByCode(ctx context.Context, code string) (account.Account, error) {
	return r.get(ctx, r.selectAccounts().Where(squirrel.Eq{"code": code}), code)
}

func (r *AccountRepo) get(ctx context.Context, q squirrel.SelectBuilder, key any) (account.Account, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return account.Account{}, fmt.Errorf("build query: %w", err)
	}

	var acc account.Account
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &acc, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return account.Account{}, apperror.NewNotFound("account", key)
		}
		return account.Account{}, fmt.Errorf("get account: %w", err)
	}
	return acc, nil
}

// List returns all accounts ordered by the derived sort key.
func (r *AccountRepo) List(ctx context.Context) ([]account.Account, error) {
	return r.list(ctx, r.selectAccounts().OrderBy("sort_order ASC", "name ASC"))
}

// ListRoots returns parentless accounts ordered by the sort key.
func (r *AccountRepo) ListRoots(ctx context.Context) ([]account.Account, error) {
	return r.list(ctx, r.selectAccounts().
		Where(squirrel.Eq{"parent_id": nil}).
		OrderBy("sort_order ASC", "name ASC"))
}

// ListChildren returns direct children ordered by the sort key.
func (r *AccountRepo) ListChildren(ctx context.Context, parentID id.ID) ([]account.Account, error) {
	return r.list(ctx, r.selectAccounts().
		Where(squirrel.Eq{"parent_id": parentID}).
		OrderBy("sort_order ASC", "name ASC"))
}

// ListByTypes returns accounts of the given types.
func (r *AccountRepo) ListByTypes(ctx context.Context, accountTypes ...account.Type) ([]account.Account, error) {
	return r.list(ctx, r.selectAccounts().
		Where(squirrel.Eq{"account_type": accountTypes}).
		OrderBy("sort_order ASC", "name ASC"))
}

func (r *AccountRepo) list(ctx context.Context, q squirrel.SelectBuilder) ([]account.Account, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var accounts []account.Account
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &accounts, sql, args...); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

// CodeInUse reports whether another account already carries the code.
func (r *AccountRepo) CodeInUse(ctx context.Context, code string, selfID id.ID) (bool, error) {
	sql, args, err := r.builder().
		Select("1").
		From(accountTable).
		Where(squirrel.Eq{"code": code}).
		Where(squirrel.NotEq{"id": selfID}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var one int
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &one, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("check account code: %w", err)
	}
	return true, nil
}
