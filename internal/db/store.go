package db

import (
	"context" // Context for cancellation
	"errors"  // Error inspection
	"fmt"     // Error wrapping

	"ledger_service/internal/domain" // Importing domain models
	"ledger_service/internal/ledger" // Store contract and sentinels

	"github.com/google/uuid"        // UUID identifiers
	"github.com/shopspring/decimal" // Fixed-point money
	"gorm.io/gorm"                  // GORM ORM library
	"gorm.io/gorm/clause"           // Row locking and association clauses
)

// Store is the GORM-backed ledger.Store.
type Store struct {
	db *gorm.DB
}

var _ ledger.Store = (*Store)(nil)

// NewStore wraps an open *gorm.DB.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Atomically runs fn inside one database transaction. Lock conflicts
// reported by the server come back wrapped with ledger.ErrConflict.
func (s *Store) Atomically(ctx context.Context, fn func(uow ledger.UnitOfWork) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&unit{tx: tx})
	})
	if err != nil && isConflict(err) {
		return fmt.Errorf("%w: %w", ledger.ErrConflict, err)
	}
	return err
}

// GetAccount fetches an account by id.
func (s *Store) GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	var acct domain.Account
	if err := s.db.WithContext(ctx).First(&acct, "id = ?", id.String()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &acct, nil
}

// GetUser fetches a user by id.
func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id.String()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetUserByEmail fetches a user by normalized email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// ListTransactions returns the account's transactions inside r, newest first.
func (s *Store) ListTransactions(ctx context.Context, accountID uuid.UUID, r ledger.TimeRange) ([]domain.Transaction, error) {
	id := accountID.String()
	db := s.db.WithContext(ctx)
	query := db.Model(&domain.Transaction{}).
		Where(db.Where("from_account_id = ?", id).Or("to_account_id = ?", id)) // Either side of the transfer
	if r.Start != nil {
		query = query.Where("created_at >= ?", r.Start.UTC()) // Inclusive start
	}
	if r.End != nil {
		query = query.Where("created_at <= ?", r.End.UTC()) // Inclusive end
	}

	txs := make([]domain.Transaction, 0)
	if err := query.Order("created_at desc").Order("id desc").Find(&txs).Error; err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txs, nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// unit is a ledger.UnitOfWork bound to one open transaction.
type unit struct {
	tx *gorm.DB
}

// LockAccounts selects the accounts FOR UPDATE. Ordering by primary key
// makes every transaction acquire row locks in the same order.
func (u *unit) LockAccounts(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]*domain.Account, error) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}

	var accts []domain.Account
	err := u.tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", keys).
		Order("id").
		Find(&accts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to lock accounts: %w", err)
	}

	out := make(map[uuid.UUID]*domain.Account, len(accts))
	for i := range accts {
		out[accts[i].ID] = &accts[i]
	}
	return out, nil
}

func (u *unit) SetBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error {
	res := u.tx.WithContext(ctx).
		Model(&domain.Account{}).
		Where("id = ?", id.String()).
		Update("balance", balance)
	if res.Error != nil {
		return fmt.Errorf("failed to update balance: %w", res.Error)
	}
	if res.RowsAffected != 1 {
		return fmt.Errorf("failed to update balance: account %s: %d rows affected", id, res.RowsAffected)
	}
	return nil
}

func (u *unit) AppendTransaction(ctx context.Context, t *domain.Transaction) error {
	if err := u.tx.WithContext(ctx).Omit(clause.Associations).Create(t).Error; err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (u *unit) CreateUser(ctx context.Context, user *domain.User) error {
	if err := u.tx.WithContext(ctx).Omit(clause.Associations).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ledger.ErrEmailTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (u *unit) CreateAccount(ctx context.Context, acct *domain.Account) error {
	if err := u.tx.WithContext(ctx).Create(acct).Error; err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return ledger.ErrUserNotFound
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}
