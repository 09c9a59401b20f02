package api

import (
	"net/http" // HTTP status codes

	"ledger_service/internal/ledger" // User service requests

	"github.com/gin-gonic/gin" // Gin web framework
)

// RegisterHandler creates a user with an initial account and returns a token
func RegisterHandler(u Users) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateUserRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err) // Missing fields, bad email, short password
			return
		}
		reg, err := u.Register(c.Request.Context(), ledger.RegisterRequest{
			Name:           req.Name,           // Display name
			Email:          req.Email,          // Lower-cased by the service
			Password:       req.Password,       // Hashed by the service
			InitialBalance: req.InitialBalance, // Opening balance
		})
		if err != nil {
			respondError(c, err) // Duplicate email maps to 400
			return
		}
		// Return the new ids and a token
		c.JSON(http.StatusCreated, CreateUserResponse{
			UserID:    reg.User.ID.String(),
			AccountID: reg.Account.ID.String(),
			Token:     reg.Token,
		})
	}
}

// LoginHandler authenticates a user and returns a JWT token
func LoginHandler(u Users) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
		token, err := u.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			respondError(c, err) // Unknown email and wrong password both map to 401
			return
		}
		c.JSON(http.StatusOK, AuthResponse{Token: token}) // Return the token in the response
	}
}
