package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"ledger_service/internal/domain"
)

// BalanceCache is an optional read-through cache for account balances.
//
// Fills are versioned. Balance reads Version before going to the store
// and SetBalance stores only if no write began or ended on the account
// since then. Between BeginWrite and EndWrite an account has no cached
// balance and Version reports ok=false, so a reader never mixes a cached
// pre-transfer balance with a committed one.
type BalanceCache interface {
	GetBalance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, bool)
	Version(ctx context.Context, accountID uuid.UUID) (version int64, ok bool)
	SetBalance(ctx context.Context, accountID uuid.UUID, balance decimal.Decimal, version int64)
	BeginWrite(ctx context.Context, accountIDs ...uuid.UUID)
	EndWrite(ctx context.Context, accountIDs ...uuid.UUID)
}

// QueryService serves read-only account lookups.
type QueryService struct {
	store Store
	cache BalanceCache // may be nil
	log   *logrus.Entry
}

// NewQueryService returns a QueryService. cache may be nil.
func NewQueryService(store Store, cache BalanceCache, log *logrus.Entry) *QueryService {
	if log == nil {
		log = nopLogger()
	}
	return &QueryService{store: store, cache: cache, log: log}
}

// Balance returns the current balance of an account.
func (s *QueryService) Balance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	var (
		version int64
		fill    bool
	)
	if s.cache != nil {
		if bal, ok := s.cache.GetBalance(ctx, accountID); ok {
			return bal, nil
		}
		version, fill = s.cache.Version(ctx, accountID)
	}
	acct, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			s.log.WithField("account_id", accountID).Warn("Account not found")
			return decimal.Decimal{}, err
		}
		return decimal.Decimal{}, storageErr("get balance", err)
	}
	if fill {
		s.cache.SetBalance(ctx, accountID, acct.Balance, version)
	}
	return acct.Balance, nil
}

// Transactions lists transactions where the account is source or
// destination, newest first, filtered to r.
func (s *QueryService) Transactions(ctx context.Context, accountID uuid.UUID, r TimeRange) ([]domain.Transaction, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.store.GetAccount(ctx, accountID); err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			s.log.WithField("account_id", accountID).Warn("Account not found")
			return nil, err
		}
		return nil, storageErr("list transactions", err)
	}
	txs, err := s.store.ListTransactions(ctx, accountID, r)
	if err != nil {
		return nil, storageErr("list transactions", err)
	}
	s.log.WithFields(logrus.Fields{"account_id": accountID, "count": len(txs)}).Info("Transactions listed")
	return txs, nil
}
