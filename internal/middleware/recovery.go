package middleware

import (
	"net/http" // HTTP status codes

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// Recovery turns a panic into a generic 500 and logs what was recovered
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		Logger(c).WithFields(logrus.Fields{
			"panic":  recovered,          // Recovered value
			"method": c.Request.Method,   // Request method
			"path":   c.Request.URL.Path, // Request path
		}).Error("Unhandled panic")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "An internal server error has occurred"})
	})
}
