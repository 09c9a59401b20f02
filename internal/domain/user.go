package domain

import (
	"time" // Creation timestamps

	"github.com/google/uuid" // UUID identifiers
)

// User Model
type User struct {
	ID           uuid.UUID `gorm:"type:char(36);primaryKey"`                       // Primary key
	Name         string    `gorm:"size:200;not null"`                              // Display name
	Email        string    `gorm:"size:200;uniqueIndex;not null"`                  // Unique, stored lower-case
	PasswordHash string    `gorm:"size:500;not null"`                              // bcrypt hash
	CreatedAt    time.Time `gorm:"not null"`                                       // UTC
	Accounts     []Account `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;"` // One-to-many relationship with Account
}
