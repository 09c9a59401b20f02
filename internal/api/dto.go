package api

import (
	"encoding/json" // json.Number for money
	"time"          // Timestamps

	"ledger_service/internal/domain" // Importing domain models

	"github.com/shopspring/decimal" // Fixed-point money
)

// money renders a decimal as a JSON number with two decimals
func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

// TransferRequest is the body of POST /transactions
type TransferRequest struct {
	FromAccountID string           `json:"fromAccountId" binding:"required,uuid"` // Debited account
	ToAccountID   string           `json:"toAccountId" binding:"required,uuid"`   // Credited account
	Amount        *decimal.Decimal `json:"amount" binding:"required,amount"`      // Nil when absent, so required can fire
}

// TransactionResponse is one transaction as returned by the API
type TransactionResponse struct {
	ID            string      `json:"id"`
	FromAccountID string      `json:"fromAccountId"`
	ToAccountID   string      `json:"toAccountId"`
	Amount        json.Number `json:"amount"`
	CreatedAt     time.Time   `json:"createdAt"`
	Type          string      `json:"type"`
}

func newTransactionResponse(tx *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:            tx.ID.String(),
		FromAccountID: tx.FromAccountID.String(),
		ToAccountID:   tx.ToAccountID.String(),
		Amount:        money(tx.Amount),
		CreatedAt:     tx.CreatedAt.UTC(),
		Type:          tx.Type,
	}
}

// BalanceResponse is the body of GET /accounts/:id/balance
type BalanceResponse struct {
	AccountID string      `json:"accountId"`
	Balance   json.Number `json:"balance"`
}

// CreateUserRequest is the body of POST /users
type CreateUserRequest struct {
	Name           string          `json:"name" binding:"required,max=200"`          // Display name
	Email          string          `json:"email" binding:"required,email,max=200"`   // Login email
	Password       string          `json:"password" binding:"required,min=8,max=72"` // Upper bound for bcrypt
	InitialBalance decimal.Decimal `json:"initialBalance" binding:"balance"`         // Defaults to zero
}

// CreateUserResponse is returned after a successful registration
type CreateUserResponse struct {
	UserID    string `json:"userId"`
	AccountID string `json:"accountId"`
	Token     string `json:"token"`
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"` // Login email
	Password string `json:"password" binding:"required"`    // Plain password
}

// AuthResponse carries a bearer token
type AuthResponse struct {
	Token string `json:"token"` // JWT token
}

// CreateAccountRequest is the body of POST /accounts
type CreateAccountRequest struct {
	UserID         string          `json:"userId" binding:"required,uuid"`   // Owner
	InitialBalance decimal.Decimal `json:"initialBalance" binding:"balance"` // Defaults to zero
}

// AccountResponse is one account as returned by the API
type AccountResponse struct {
	ID        string      `json:"id"`
	UserID    string      `json:"userId"`
	Balance   json.Number `json:"balance"`
	CreatedAt time.Time   `json:"createdAt"`
}

func newAccountResponse(a *domain.Account) AccountResponse {
	return AccountResponse{
		ID:        a.ID.String(),
		UserID:    a.UserID.String(),
		Balance:   money(a.Balance),
		CreatedAt: a.CreatedAt.UTC(),
	}
}
