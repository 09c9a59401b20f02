package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"ledger_service/internal/domain"
)

const (
	defaultMaxAttempts  = 3
	defaultRetryBackoff = 10 * time.Millisecond
)

// MaxBalance is the largest balance a decimal(18,2) column holds.
var MaxBalance = decimal.New(1, 16).Sub(decimal.New(1, -2))

// Hook is notified after a transfer has committed. Hooks cannot fail the
// transfer; they log their own errors.
type Hook interface {
	TransferCommitted(ctx context.Context, tx *domain.Transaction)
}

// HookFunc adapts a function to Hook.
type HookFunc func(ctx context.Context, tx *domain.Transaction)

func (f HookFunc) TransferCommitted(ctx context.Context, tx *domain.Transaction) { f(ctx, tx) }

// TransferRequest moves Amount from one account to another. Amount is
// expected to be positive with at most two decimal places; the HTTP
// layer enforces that before calling the engine.
type TransferRequest struct {
	FromAccountID uuid.UUID
	ToAccountID   uuid.UUID
	Amount        decimal.Decimal
}

// Engine validates and applies transfers.
type Engine struct {
	store       Store
	log         *logrus.Entry
	now         func() time.Time
	newID       func() uuid.UUID
	hooks       []Hook
	cache       BalanceCache
	maxAttempts int
	backoff     time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for transfer outcomes.
func WithLogger(l *logrus.Entry) Option {
	return func(e *Engine) { e.log = l }
}

// WithClock overrides the time source for transaction timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator overrides how transaction ids are generated.
func WithIDGenerator(newID func() uuid.UUID) Option {
	return func(e *Engine) { e.newID = newID }
}

// WithHooks registers post-commit hooks, run in order.
func WithHooks(hooks ...Hook) Option {
	return func(e *Engine) { e.hooks = append(e.hooks, hooks...) }
}

// WithBalanceCache marks both accounts of every transfer as being written
// in cache from before the unit of work starts until after it ends.
func WithBalanceCache(cache BalanceCache) Option {
	return func(e *Engine) { e.cache = cache }
}

// WithMaxAttempts bounds how many units of work a transfer may use when
// the store reports conflicts. Values below 1 are ignored.
func WithMaxAttempts(n int) Option {
	return func(e *Engine) {
		if n >= 1 {
			e.maxAttempts = n
		}
	}
}

// WithRetryBackoff sets the base delay between conflict retries. The
// delay grows linearly with the attempt number.
func WithRetryBackoff(d time.Duration) Option {
	return func(e *Engine) { e.backoff = d }
}

// NewEngine returns an Engine over store.
func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:       store,
		now:         time.Now,
		newID:       uuid.New,
		maxAttempts: defaultMaxAttempts,
		backoff:     defaultRetryBackoff,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = nopLogger()
	}
	return e
}

// Transfer debits the source account, credits the destination account and
// appends a TRANSFER transaction, all in one unit of work.
//
// A missing account yields *NotFoundError, a short balance yields
// *InsufficientFundsError and a self-transfer yields *ValidationError;
// none of them mutate anything. Any other failure wraps ErrStorage and
// is safe to retry.
func (e *Engine) Transfer(ctx context.Context, req TransferRequest) (*domain.Transaction, error) {
	log := e.log.WithFields(logrus.Fields{
		"from_account_id": req.FromAccountID,
		"to_account_id":   req.ToAccountID,
		"amount":          req.Amount.StringFixed(2),
	})

	if req.FromAccountID == req.ToAccountID {
		log.Warn("Transfer rejected: same account")
		return nil, invalid("toAccountId", "must differ from fromAccountId")
	}

	// Marks must not be skipped or left behind because the caller gave up.
	bg := context.WithoutCancel(ctx)
	if e.cache != nil {
		e.cache.BeginWrite(bg, req.FromAccountID, req.ToAccountID)
	}
	record, err := e.transferWithRetry(ctx, req, log)
	if e.cache != nil {
		e.cache.EndWrite(bg, req.FromAccountID, req.ToAccountID)
	}
	if err != nil {
		switch {
		case isBusiness(err):
			log.WithField("reason", err.Error()).Warn("Transfer rejected")
			return nil, err
		default:
			log.WithError(err).Error("Transfer failed")
			return nil, storageErr("transfer", err)
		}
	}

	log.WithFields(logrus.Fields{
		"transaction_id": record.ID,
		"type":           record.Type,
	}).Info("Transfer completed")

	// Hooks outlive a caller that gives up right after commit.
	for _, h := range e.hooks {
		h.TransferCommitted(bg, record)
	}
	return record, nil
}

func (e *Engine) transferWithRetry(ctx context.Context, req TransferRequest, log *logrus.Entry) (*domain.Transaction, error) {
	for attempt := 1; ; attempt++ {
		record, err := e.apply(ctx, req)
		if err == nil || !errors.Is(err, ErrConflict) || attempt >= e.maxAttempts {
			return record, err
		}
		log.WithFields(logrus.Fields{"attempt": attempt, "error": err.Error()}).Warn("Transfer conflict, retrying")

		timer := time.NewTimer(e.backoff * time.Duration(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (e *Engine) apply(ctx context.Context, req TransferRequest) (*domain.Transaction, error) {
	var record *domain.Transaction
	err := e.store.Atomically(ctx, func(uow UnitOfWork) error {
		accounts, err := uow.LockAccounts(ctx, req.FromAccountID, req.ToAccountID)
		if err != nil {
			return err
		}
		from, ok := accounts[req.FromAccountID]
		if !ok {
			return &NotFoundError{Side: SideFrom, AccountID: req.FromAccountID}
		}
		to, ok := accounts[req.ToAccountID]
		if !ok {
			return &NotFoundError{Side: SideTo, AccountID: req.ToAccountID}
		}
		if from.Balance.LessThan(req.Amount) {
			return &InsufficientFundsError{AccountID: from.ID, Balance: from.Balance, Amount: req.Amount}
		}
		if to.Balance.Add(req.Amount).GreaterThan(MaxBalance) {
			return invalid("amount", "would take the destination balance over "+MaxBalance.StringFixed(2))
		}

		if err := uow.SetBalance(ctx, from.ID, from.Balance.Sub(req.Amount)); err != nil {
			return err
		}
		if err := uow.SetBalance(ctx, to.ID, to.Balance.Add(req.Amount)); err != nil {
			return err
		}

		tx := &domain.Transaction{
			ID:            e.newID(),
			FromAccountID: from.ID,
			ToAccountID:   to.ID,
			Amount:        req.Amount,
			CreatedAt:     e.now().UTC().Truncate(time.Microsecond),
			Type:          domain.TypeTransfer,
		}
		if err := uow.AppendTransaction(ctx, tx); err != nil {
			return err
		}
		record = tx
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}
