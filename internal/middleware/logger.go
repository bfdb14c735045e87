package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wishlist-service/pkg/response"
)

// RequestLoggerMiddleware logs every request once it completes.
// 5xx is logged at error level, 4xx at warn, everything else at info.
func RequestLoggerMiddleware(log *zap.Logger) gin.HandlerFunc {
	log = log.Named("http")
	return func(c *gin.Context) {
		startTime := time.Now()

		// Build full URL
		fullURL := c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			fullURL = fullURL + "?" + c.Request.URL.RawQuery
		}

		// Process request
		c.Next()

		statusCode := c.Writer.Status()
		level := zapcore.InfoLevel
		switch {
		case statusCode >= 500:
			level = zapcore.ErrorLevel
		case statusCode >= 400:
			level = zapcore.WarnLevel
		}

		ce := log.Check(level, "request")
		if ce == nil {
			return
		}

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("url", fullURL),
			zap.Int("status", statusCode),
			zap.Duration("latency", time.Since(startTime)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("correlation_id", c.GetString(response.CorrelationIDKey)),
		}
		if clientID := c.GetString(ContextKeyClientCorrelationID); clientID != "" {
			fields = append(fields, zap.String("client_correlation_id", clientID))
		}
		if caller := CallerFrom(c); caller.Authenticated {
			fields = append(fields, zap.Uint64("user_id", caller.UserID))
		}
		if err := c.Errors.Last(); err != nil {
			fields = append(fields, zap.Error(err.Err))
		}
		ce.Write(fields...)
	}
}
