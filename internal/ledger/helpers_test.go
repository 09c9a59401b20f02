package ledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"ledger_service/internal/domain"
	"ledger_service/internal/ledger"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// seedAccounts creates one user owning an account per balance.
func seedAccounts(t *testing.T, s ledger.Store, balances ...string) []uuid.UUID {
	t.Helper()
	user := &domain.User{
		ID:           uuid.New(),
		Name:         "Test User",
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "x",
		CreatedAt:    time.Now().UTC(),
	}
	ids := make([]uuid.UUID, len(balances))
	err := s.Atomically(context.Background(), func(uow ledger.UnitOfWork) error {
		if err := uow.CreateUser(context.Background(), user); err != nil {
			return err
		}
		for i, b := range balances {
			ids[i] = uuid.New()
			acct := &domain.Account{ID: ids[i], UserID: user.ID, Balance: dec(b), CreatedAt: time.Now().UTC()}
			if err := uow.CreateAccount(context.Background(), acct); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
	return ids
}

func balanceOf(t *testing.T, s ledger.Store, id uuid.UUID) decimal.Decimal {
	t.Helper()
	acct, err := s.GetAccount(context.Background(), id)
	require.NoError(t, err)
	return acct.Balance
}

func requireBalance(t *testing.T, s ledger.Store, id uuid.UUID, want string) {
	t.Helper()
	got := balanceOf(t, s, id)
	require.Truef(t, got.Equal(dec(want)), "balance of %s = %s, want %s", id, got, want)
}

// stepClock advances by step on every call so transactions get distinct times.
type stepClock struct {
	mu   sync.Mutex
	t    time.Time
	step time.Duration
}

func newStepClock(start time.Time, step time.Duration) *stepClock {
	return &stepClock{t: start, step: step}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(c.step)
	return c.t
}

// flakyStore fails Atomically with the configured error for the first n calls.
type flakyStore struct {
	ledger.Store
	mu    sync.Mutex
	n     int
	err   error
	calls int
}

func (f *flakyStore) Atomically(ctx context.Context, fn func(ledger.UnitOfWork) error) error {
	f.mu.Lock()
	f.calls++
	fail := f.calls <= f.n
	f.mu.Unlock()
	if fail {
		return f.err
	}
	return f.Store.Atomically(ctx, fn)
}

var errDiskGone = errors.New("disk gone")
