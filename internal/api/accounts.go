package api

import (
	"net/http" // HTTP status codes
	"time"     // Date filters

	"ledger_service/internal/ledger" // Query time ranges

	"github.com/gin-gonic/gin" // Gin web framework
	"github.com/google/uuid"   // Account and user ids
)

// Accepted date filter layouts, tried in order. Layouts without a zone
// are read as UTC.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseDate parses an optional date query value
func parseDate(field, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil // Open bound
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, &ledger.ValidationError{
		Field:   field,
		Message: "must be RFC 3339, 2006-01-02T15:04:05 or 2006-01-02",
	}
}

// accountIDParam reads the :id path parameter, answering 400 when malformed
func accountIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid account id"})
		return uuid.Nil, false
	}
	return id, true
}

// BalanceHandler returns the current balance of an account
func BalanceHandler(q Querier) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := accountIDParam(c)
		if !ok {
			return
		}
		bal, err := q.Balance(c.Request.Context(), id) // Cached or stored balance
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, BalanceResponse{AccountID: id.String(), Balance: money(bal)})
	}
}

// TransactionsHandler lists an account's transactions, newest first,
// optionally limited by the startDate and endDate query values
func TransactionsHandler(q Querier) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := accountIDParam(c)
		if !ok {
			return
		}
		start, err := parseDate("startDate", c.Query("startDate")) // Inclusive lower bound
		if err != nil {
			respondError(c, err)
			return
		}
		end, err := parseDate("endDate", c.Query("endDate")) // Inclusive upper bound
		if err != nil {
			respondError(c, err)
			return
		}

		txs, err := q.Transactions(c.Request.Context(), id, ledger.TimeRange{Start: start, End: end})
		if err != nil {
			respondError(c, err)
			return
		}
		resp := make([]TransactionResponse, 0, len(txs)) // Always an array, never null
		for i := range txs {
			resp = append(resp, newTransactionResponse(&txs[i]))
		}
		c.JSON(http.StatusOK, resp)
	}
}

// CreateAccountHandler opens an additional account for an existing user
func CreateAccountHandler(u Users) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateAccountRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
		acct, err := u.OpenAccount(c.Request.Context(), uuid.MustParse(req.UserID), req.InitialBalance)
		if err != nil {
			respondError(c, err) // Unknown user maps to 404
			return
		}
		c.JSON(http.StatusCreated, newAccountResponse(acct))
	}
}
