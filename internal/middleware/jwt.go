package middleware

import (
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"ledger_service/internal/utils" // JWT utility functions

	"github.com/gin-gonic/gin" // Gin web framework
	"github.com/google/uuid"   // User ids
)

// UserIDKey is the gin context key holding the authenticated uuid.UUID
const UserIDKey = "userID"

// JWTAuthMiddleware validates bearer tokens and stores the caller's user id
func JWTAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, ok := bearerToken(c.GetHeader("Authorization")) // Extract the token string
		if !ok {
			// Missing or malformed header
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		claims, err := utils.ParseJWT(tokenStr, secret) // Parse the JWT token
		if err != nil {
			Logger(c).WithField("reason", err.Error()).Warn("Rejected bearer token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		c.Set(UserIDKey, uuid.MustParse(claims.UserID)) // ParseJWT already checked the format
		c.Next()                                        // Proceed to the next handler
	}
}

// bearerToken returns the token of a "Bearer <token>" header value
func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	return token, token != ""
}
