// Package memstore is an in-memory implementation of ledger.Store.
//
// Each account carries its own lock. A unit of work takes the locks of
// the accounts it touches in ascending id order and holds them until it
// ends, so two transfers on the same account never interleave their
// read-modify-write. Staged writes are applied under the store-wide write
// lock at commit, so readers see either all of a unit of work or none of it.
package memstore

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ledger_service/internal/domain"
	"ledger_service/internal/ledger"
)

type accountEntry struct {
	lock chan struct{} // capacity 1; held by at most one unit of work
	acct domain.Account
}

func newEntry(a domain.Account) *accountEntry {
	return &accountEntry{lock: make(chan struct{}, 1), acct: a}
}

// Store holds users, accounts and transactions in memory.
type Store struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]domain.User
	emails   map[string]uuid.UUID
	accounts map[uuid.UUID]*accountEntry
	txs      []domain.Transaction
}

var _ ledger.Store = (*Store)(nil)

// New returns an empty Store.
func New() *Store {
	return &Store{
		users:    make(map[uuid.UUID]domain.User),
		emails:   make(map[string]uuid.UUID),
		accounts: make(map[uuid.UUID]*accountEntry),
	}
}

// Atomically runs fn and applies its staged writes only if fn succeeds and
// ctx is still live.
func (s *Store) Atomically(ctx context.Context, fn func(uow ledger.UnitOfWork) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	u := &unit{
		s:        s,
		locked:   make(map[uuid.UUID]*accountEntry),
		balances: make(map[uuid.UUID]decimal.Decimal),
	}
	defer u.release()

	if err := fn(u); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.commit(u)
}

func (s *Store) commit(u *unit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, usr := range u.users {
		if _, taken := s.emails[usr.Email]; taken {
			return ledger.ErrEmailTaken
		}
	}
	for _, usr := range u.users {
		s.users[usr.ID] = usr
		s.emails[usr.Email] = usr.ID
	}
	for _, a := range u.accounts {
		s.accounts[a.ID] = newEntry(a)
	}
	for id, bal := range u.balances {
		s.accounts[id].acct.Balance = bal
	}
	s.txs = append(s.txs, u.txs...)
	return nil
}

// GetAccount returns a copy of the account, or ledger.ErrAccountNotFound.
func (s *Store) GetAccount(_ context.Context, id uuid.UUID) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.accounts[id]
	if !ok {
		return nil, ledger.ErrAccountNotFound
	}
	cp := e.acct
	return &cp, nil
}

// GetUser returns a copy of the user, or ledger.ErrUserNotFound.
func (s *Store) GetUser(_ context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ledger.ErrUserNotFound
	}
	return &u, nil
}

// GetUserByEmail looks a user up by its normalized email.
func (s *Store) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emails[email]
	if !ok {
		return nil, ledger.ErrUserNotFound
	}
	u := s.users[id]
	return &u, nil
}

// ListTransactions returns the account's transactions inside r, newest first.
func (s *Store) ListTransactions(_ context.Context, accountID uuid.UUID, r ledger.TimeRange) ([]domain.Transaction, error) {
	s.mu.RLock()
	out := make([]domain.Transaction, 0)
	for _, t := range s.txs {
		if t.FromAccountID != accountID && t.ToAccountID != accountID {
			continue
		}
		if !r.Contains(t.CreatedAt) {
			continue
		}
		out = append(out, t)
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return bytes.Compare(out[i].ID[:], out[j].ID[:]) > 0
	})
	return out, nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// unit is one in-flight unit of work.
type unit struct {
	s        *Store
	locked   map[uuid.UUID]*accountEntry
	order    []*accountEntry
	balances map[uuid.UUID]decimal.Decimal
	txs      []domain.Transaction
	users    []domain.User
	accounts []domain.Account
}

func (u *unit) release() {
	for i := len(u.order) - 1; i >= 0; i-- {
		<-u.order[i].lock
	}
	u.order = nil
}

// LockAccounts must be called once per unit of work with every account it
// will mutate, so the ascending lock order holds.
func (u *unit) LockAccounts(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]*domain.Account, error) {
	sorted := append([]uuid.UUID(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return bytes.Compare(sorted[i][:], sorted[j][:]) < 0 })

	for _, id := range sorted {
		if _, held := u.locked[id]; held {
			continue
		}
		u.s.mu.RLock()
		e, ok := u.s.accounts[id]
		u.s.mu.RUnlock()
		if !ok {
			continue
		}
		select {
		case e.lock <- struct{}{}:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		u.locked[id] = e
		u.order = append(u.order, e)
	}

	out := make(map[uuid.UUID]*domain.Account, len(ids))
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	for _, id := range ids {
		e, ok := u.locked[id]
		if !ok {
			continue
		}
		cp := e.acct
		if bal, staged := u.balances[id]; staged {
			cp.Balance = bal
		}
		out[id] = &cp
	}
	return out, nil
}

func (u *unit) SetBalance(_ context.Context, id uuid.UUID, balance decimal.Decimal) error {
	if _, ok := u.locked[id]; !ok {
		return fmt.Errorf("set balance: account %s is not locked", id)
	}
	u.balances[id] = balance
	return nil
}

func (u *unit) AppendTransaction(_ context.Context, tx *domain.Transaction) error {
	for _, id := range []uuid.UUID{tx.FromAccountID, tx.ToAccountID} {
		if !u.accountExists(id) {
			return fmt.Errorf("append transaction: account %s does not exist", id)
		}
	}
	u.txs = append(u.txs, *tx)
	return nil
}

func (u *unit) CreateUser(_ context.Context, usr *domain.User) error {
	u.s.mu.RLock()
	_, taken := u.s.emails[usr.Email]
	u.s.mu.RUnlock()
	if taken {
		return ledger.ErrEmailTaken
	}
	for _, staged := range u.users {
		if staged.Email == usr.Email {
			return ledger.ErrEmailTaken
		}
	}
	u.users = append(u.users, *usr)
	return nil
}

func (u *unit) CreateAccount(_ context.Context, a *domain.Account) error {
	if !u.userExists(a.UserID) {
		return ledger.ErrUserNotFound
	}
	u.accounts = append(u.accounts, *a)
	return nil
}

func (u *unit) accountExists(id uuid.UUID) bool {
	if _, ok := u.locked[id]; ok {
		return true
	}
	for _, a := range u.accounts {
		if a.ID == id {
			return true
		}
	}
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	_, ok := u.s.accounts[id]
	return ok
}

func (u *unit) userExists(id uuid.UUID) bool {
	for _, usr := range u.users {
		if usr.ID == id {
			return true
		}
	}
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	_, ok := u.s.users[id]
	return ok
}
