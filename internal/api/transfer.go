package api

import (
	"net/http" // HTTP status codes

	"ledger_service/internal/ledger" // Transfer engine requests

	"github.com/gin-gonic/gin" // Gin web framework
	"github.com/google/uuid"   // Account ids
)

// TransferHandler moves funds between two accounts
func TransferHandler(t Transferer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req TransferRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err) // Malformed body or failed field rules
			return
		}
		// Binding already checked the uuid format
		tx, err := t.Transfer(c.Request.Context(), ledger.TransferRequest{
			FromAccountID: uuid.MustParse(req.FromAccountID), // Debited account
			ToAccountID:   uuid.MustParse(req.ToAccountID),   // Credited account
			Amount:        *req.Amount,                       // Required, so never nil here
		})
		if err != nil {
			respondError(c, err) // Typed errors map to 400/404, the rest to 500
			return
		}
		c.JSON(http.StatusOK, newTransactionResponse(tx)) // Return the persisted transaction
	}
}
