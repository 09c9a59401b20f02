package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger_service/internal/domain"
	"ledger_service/internal/ledger"
)

func seed(t *testing.T, s *Store, balances ...int64) (domain.User, []uuid.UUID) {
	t.Helper()
	user := domain.User{ID: uuid.New(), Name: "u", Email: uuid.NewString() + "@example.com"}
	ids := make([]uuid.UUID, len(balances))
	require.NoError(t, s.Atomically(context.Background(), func(uow ledger.UnitOfWork) error {
		if err := uow.CreateUser(context.Background(), &user); err != nil {
			return err
		}
		for i, b := range balances {
			ids[i] = uuid.New()
			if err := uow.CreateAccount(context.Background(), &domain.Account{ID: ids[i], UserID: user.ID, Balance: decimal.NewFromInt(b)}); err != nil {
				return err
			}
		}
		return nil
	}))
	return user, ids
}

func TestAtomicallyRollsBackOnError(t *testing.T) {
	s := New()
	_, ids := seed(t, s, 100, 0)
	boom := errors.New("boom")

	err := s.Atomically(context.Background(), func(uow ledger.UnitOfWork) error {
		if _, err := uow.LockAccounts(context.Background(), ids...); err != nil {
			return err
		}
		require.NoError(t, uow.SetBalance(context.Background(), ids[0], decimal.NewFromInt(0)))
		require.NoError(t, uow.SetBalance(context.Background(), ids[1], decimal.NewFromInt(100)))
		require.NoError(t, uow.AppendTransaction(context.Background(), &domain.Transaction{
			ID: uuid.New(), FromAccountID: ids[0], ToAccountID: ids[1], Amount: decimal.NewFromInt(100),
		}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	a, err := s.GetAccount(context.Background(), ids[0])
	require.NoError(t, err)
	assert.True(t, a.Balance.Equal(decimal.NewFromInt(100)))
	txs, err := s.ListTransactions(context.Background(), ids[0], ledger.TimeRange{})
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestLockAccountsSeesStagedBalance(t *testing.T) {
	s := New()
	_, ids := seed(t, s, 100)

	require.NoError(t, s.Atomically(context.Background(), func(uow ledger.UnitOfWork) error {
		if _, err := uow.LockAccounts(context.Background(), ids[0]); err != nil {
			return err
		}
		if err := uow.SetBalance(context.Background(), ids[0], decimal.NewFromInt(55)); err != nil {
			return err
		}
		got, err := uow.LockAccounts(context.Background(), ids[0])
		if err != nil {
			return err
		}
		assert.True(t, got[ids[0]].Balance.Equal(decimal.NewFromInt(55)))

		// Readers outside the unit of work still see the committed value.
		committed, err := s.GetAccount(context.Background(), ids[0])
		require.NoError(t, err)
		assert.True(t, committed.Balance.Equal(decimal.NewFromInt(100)))
		return nil
	}))
}

func TestLockAccountsSkipsMissing(t *testing.T) {
	s := New()
	_, ids := seed(t, s, 1)
	missing := uuid.New()

	require.NoError(t, s.Atomically(context.Background(), func(uow ledger.UnitOfWork) error {
		got, err := uow.LockAccounts(context.Background(), ids[0], missing)
		require.NoError(t, err)
		assert.Contains(t, got, ids[0])
		assert.NotContains(t, got, missing)
		return nil
	}))
}

func TestUnitOfWorkGuards(t *testing.T) {
	s := New()
	user, ids := seed(t, s, 1, 1)

	err := s.Atomically(context.Background(), func(uow ledger.UnitOfWork) error {
		return uow.SetBalance(context.Background(), ids[0], decimal.NewFromInt(9))
	})
	assert.ErrorContains(t, err, "not locked")

	err = s.Atomically(context.Background(), func(uow ledger.UnitOfWork) error {
		return uow.AppendTransaction(context.Background(), &domain.Transaction{ID: uuid.New(), FromAccountID: ids[0], ToAccountID: uuid.New()})
	})
	assert.ErrorContains(t, err, "does not exist")

	err = s.Atomically(context.Background(), func(uow ledger.UnitOfWork) error {
		return uow.CreateAccount(context.Background(), &domain.Account{ID: uuid.New(), UserID: uuid.New()})
	})
	assert.ErrorIs(t, err, ledger.ErrUserNotFound)

	err = s.Atomically(context.Background(), func(uow ledger.UnitOfWork) error {
		return uow.CreateUser(context.Background(), &domain.User{ID: uuid.New(), Email: user.Email})
	})
	assert.ErrorIs(t, err, ledger.ErrEmailTaken)

	err = s.Atomically(context.Background(), func(uow ledger.UnitOfWork) error {
		if err := uow.CreateUser(context.Background(), &domain.User{ID: uuid.New(), Email: "dup@example.com"}); err != nil {
			return err
		}
		return uow.CreateUser(context.Background(), &domain.User{ID: uuid.New(), Email: "dup@example.com"})
	})
	assert.ErrorIs(t, err, ledger.ErrEmailTaken)
	_, err = s.GetUserByEmail(context.Background(), "dup@example.com")
	assert.ErrorIs(t, err, ledger.ErrUserNotFound)
}

func TestAccountCreatedInSameUnitIsUsable(t *testing.T) {
	s := New()
	user, ids := seed(t, s, 10)
	fresh := uuid.New()

	require.NoError(t, s.Atomically(context.Background(), func(uow ledger.UnitOfWork) error {
		if err := uow.CreateAccount(context.Background(), &domain.Account{ID: fresh, UserID: user.ID}); err != nil {
			return err
		}
		return uow.AppendTransaction(context.Background(), &domain.Transaction{ID: uuid.New(), FromAccountID: ids[0], ToAccountID: fresh})
	}))
	_, err := s.GetAccount(context.Background(), fresh)
	require.NoError(t, err)
}

func TestListTransactionsOrder(t *testing.T) {
	s := New()
	_, ids := seed(t, s, 0, 0)
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	older := domain.Transaction{ID: uuid.MustParse("ffffffff-0000-0000-0000-000000000000"), FromAccountID: ids[0], ToAccountID: ids[1], CreatedAt: base}
	newerLow := domain.Transaction{ID: uuid.MustParse("00000000-0000-0000-0000-000000000001"), FromAccountID: ids[1], ToAccountID: ids[0], CreatedAt: base.Add(time.Second)}
	newerHigh := domain.Transaction{ID: uuid.MustParse("00000000-0000-0000-0000-000000000002"), FromAccountID: ids[0], ToAccountID: ids[1], CreatedAt: base.Add(time.Second)}

	require.NoError(t, s.Atomically(context.Background(), func(uow ledger.UnitOfWork) error {
		for _, tx := range []domain.Transaction{older, newerLow, newerHigh} {
			if err := uow.AppendTransaction(context.Background(), &tx); err != nil {
				return err
			}
		}
		return nil
	}))

	got, err := s.ListTransactions(context.Background(), ids[0], ledger.TimeRange{})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, newerHigh.ID, got[0].ID)
	assert.Equal(t, newerLow.ID, got[1].ID)
	assert.Equal(t, older.ID, got[2].ID)
}
