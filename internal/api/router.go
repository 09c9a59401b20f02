package api

import (
	"ledger_service/internal/middleware" // Custom package for middleware

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// Deps are the services and settings the router is built from
type Deps struct {
	Transfers    Transferer        // Transfer engine
	Queries      Querier           // Balance and history lookups
	Users        Users             // Registration, accounts, login
	Checks       map[string]Pinger // Dependencies reported by /health
	Log          *logrus.Entry     // Base request logger
	JWTSecret    string            // Token signing secret
	AuthRequired bool              // Guard account and transaction routes with JWT
}

// NewRouter builds the gin engine with every route registered
func NewRouter(d Deps) *gin.Engine {
	registerValidators() // Decimal amounts and JSON field names

	log := d.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	r := gin.New()
	r.Use(middleware.RequestContext(log), middleware.Recovery()) // Correlation ids first so panics are tagged

	// Health routes
	r.GET("/ping", PingHandler())
	r.GET("/health", HealthHandler(d.Checks))

	// User and auth routes
	r.POST("/users", RegisterHandler(d.Users))   // Registration endpoint
	r.POST("/auth/login", LoginHandler(d.Users)) // Login endpoint

	// Ledger routes, protected by JWT when configured
	ledgerGroup := r.Group("")
	if d.AuthRequired {
		ledgerGroup.Use(middleware.JWTAuthMiddleware(d.JWTSecret))
	}
	ledgerGroup.POST("/accounts", CreateAccountHandler(d.Users))                  // Create account endpoint
	ledgerGroup.GET("/accounts/:id/balance", BalanceHandler(d.Queries))           // Balance endpoint
	ledgerGroup.GET("/accounts/:id/transactions", TransactionsHandler(d.Queries)) // Transaction history endpoint
	ledgerGroup.POST("/transactions", TransferHandler(d.Transfers))               // Transfer endpoint

	return r
}
