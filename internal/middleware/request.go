package middleware

import (
	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/google/uuid"     // Generated correlation ids
	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// Request headers carried into the log context
const (
	CorrelationIDHeader = "X-Correlation-Id"
	ClientIDHeader      = "X-Client-Id"
)

const loggerKey = "logger"

// RequestContext tags every request with a correlation id and, when sent,
// the client id. Both are attached to a request-scoped logger that
// handlers fetch with Logger.
func RequestContext(base *logrus.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := c.GetHeader(CorrelationIDHeader)
		if correlationID == "" {
			correlationID = uuid.NewString() // Generate one when the caller did not
		}
		c.Header(CorrelationIDHeader, correlationID) // Echo on the response

		fields := logrus.Fields{"correlation_id": correlationID}
		if clientID := c.GetHeader(ClientIDHeader); clientID != "" {
			fields["client_id"] = clientID
		}
		c.Set(loggerKey, base.WithFields(fields))
		c.Next()
	}
}

// Logger returns the request-scoped logger, or the standard logger when
// RequestContext is not installed.
func Logger(c *gin.Context) *logrus.Entry {
	if v, ok := c.Get(loggerKey); ok {
		if entry, ok := v.(*logrus.Entry); ok {
			return entry
		}
	}
	return logrus.NewEntry(logrus.StandardLogger())
}
