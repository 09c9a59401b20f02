package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ledger_service/internal/domain"
)

// UnitOfWork is the set of mutations available inside Store.Atomically.
// Nothing done through it is visible to other callers until the
// enclosing Atomically call commits.
type UnitOfWork interface {
	// LockAccounts takes exclusive locks on the given accounts in
	// ascending id order and returns the ones that exist. Locks are held
	// until the unit of work ends.
	LockAccounts(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]*domain.Account, error)
	SetBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error
	AppendTransaction(ctx context.Context, tx *domain.Transaction) error
	CreateUser(ctx context.Context, u *domain.User) error
	CreateAccount(ctx context.Context, a *domain.Account) error
}

// Store is the persistence contract consumed by the ledger services.
type Store interface {
	// Atomically runs fn in one unit of work. Every mutation made through
	// the UnitOfWork commits together if fn returns nil, and none do
	// otherwise.
	Atomically(ctx context.Context, fn func(uow UnitOfWork) error) error

	GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	ListTransactions(ctx context.Context, accountID uuid.UUID, r TimeRange) ([]domain.Transaction, error)
	Ping(ctx context.Context) error
}

// TimeRange is a closed interval on transaction creation time. A nil
// bound is open.
type TimeRange struct {
	Start *time.Time
	End   *time.Time
}

// Validate rejects a range whose start is after its end.
func (r TimeRange) Validate() error {
	if r.Start != nil && r.End != nil && r.Start.After(*r.End) {
		return invalid("startDate", "must not be after endDate")
	}
	return nil
}

// Contains reports whether t falls inside the range, bounds included.
func (r TimeRange) Contains(t time.Time) bool {
	if r.Start != nil && t.Before(*r.Start) {
		return false
	}
	if r.End != nil && t.After(*r.End) {
		return false
	}
	return true
}
