package domain

import (
	"time" // Creation timestamps

	"github.com/google/uuid"        // UUID identifiers
	"github.com/shopspring/decimal" // Fixed-point money
)

// Account Model
type Account struct {
	ID        uuid.UUID       `gorm:"type:char(36);primaryKey"`     // Primary key
	UserID    uuid.UUID       `gorm:"type:char(36);index;not null"` // Foreign key to User
	Balance   decimal.Decimal `gorm:"type:decimal(18,2);not null"`  // Never negative after a debit
	CreatedAt time.Time       `gorm:"not null"`                     // UTC
}
