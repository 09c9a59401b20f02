package domain

import (
	"time" // Creation timestamps

	"github.com/google/uuid"        // UUID identifiers
	"github.com/shopspring/decimal" // Fixed-point money
)

// TypeTransfer tags transactions written by the transfer engine.
const TypeTransfer = "TRANSFER"

// Transaction Model
type Transaction struct {
	ID            uuid.UUID       `gorm:"type:char(36);primaryKey"`     // Primary key
	FromAccountID uuid.UUID       `gorm:"type:char(36);index;not null"` // Foreign key to the debited Account
	ToAccountID   uuid.UUID       `gorm:"type:char(36);index;not null"` // Foreign key to the credited Account
	Amount        decimal.Decimal `gorm:"type:decimal(18,2);not null"`  // Always positive
	CreatedAt     time.Time       `gorm:"index;not null"`               // UTC, microsecond precision
	Type          string          `gorm:"size:20;not null"`             // Transaction type: TRANSFER

	FromAccount Account `gorm:"foreignKey:FromAccountID" json:"-"` // Debited account
	ToAccount   Account `gorm:"foreignKey:ToAccountID" json:"-"`   // Credited account
}
