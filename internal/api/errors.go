package api

import (
	"errors"   // Error inspection
	"net/http" // HTTP status codes

	"ledger_service/internal/ledger"     // Ledger sentinels and typed errors
	"ledger_service/internal/middleware" // Request-scoped logger

	"github.com/gin-gonic/gin" // Gin web framework
)

// respondError maps a service error onto a status code and JSON body.
// Unexpected errors are logged and answered with a generic message.
func respondError(c *gin.Context, err error) {
	var (
		notFound *ledger.NotFoundError
		invalid  *ledger.ValidationError
	)
	switch {
	case errors.As(err, &invalid):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request data",
			"details": []FieldError{{
				Field:   invalid.Field,
				Message: invalid.Message,
				Type:    "invalid",
			}},
		})
	case errors.As(err, &notFound):
		msg := "Destination account not found"
		if notFound.Side == ledger.SideFrom {
			msg = "Source account not found"
		}
		c.JSON(http.StatusNotFound, gin.H{"error": msg, "accountId": notFound.AccountID})
	case errors.Is(err, ledger.ErrAccountNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
	case errors.Is(err, ledger.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	case errors.Is(err, ledger.ErrInsufficientFunds):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient funds"})
	case errors.Is(err, ledger.ErrEmailTaken):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email already registered"})
	case errors.Is(err, ledger.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
	default:
		middleware.Logger(c).WithError(err).Error("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An internal server error has occurred"})
	}
}

// respondBindError answers a request whose body could not be bound
func respondBindError(c *gin.Context, err error) {
	if details, ok := fieldErrors(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": details})
		return
	}
	middleware.Logger(c).WithField("reason", err.Error()).Warn("Invalid request body")
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
}
