package api

import (
	"context" // Service contracts

	"ledger_service/internal/domain" // Importing domain models
	"ledger_service/internal/ledger" // Ledger requests and results

	"github.com/google/uuid"        // Account and user ids
	"github.com/shopspring/decimal" // Fixed-point money
)

// Transferer applies transfers
type Transferer interface {
	Transfer(ctx context.Context, req ledger.TransferRequest) (*domain.Transaction, error)
}

// Querier serves balance and history lookups
type Querier interface {
	Balance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error)
	Transactions(ctx context.Context, accountID uuid.UUID, r ledger.TimeRange) ([]domain.Transaction, error)
}

// Users manages users, accounts and logins
type Users interface {
	Register(ctx context.Context, req ledger.RegisterRequest) (*ledger.Registration, error)
	OpenAccount(ctx context.Context, userID uuid.UUID, initialBalance decimal.Decimal) (*domain.Account, error)
	Login(ctx context.Context, email, password string) (string, error)
}
