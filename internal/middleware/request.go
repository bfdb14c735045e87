package middleware

import (
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/wishlist-service/internal/metrics"
	"github.com/wishlist-service/internal/problem"
	"github.com/wishlist-service/pkg/keygen"
	"github.com/wishlist-service/pkg/response"
)

// ContextKeyClientCorrelationID holds the caller's own X-Correlation-ID for logging
const ContextKeyClientCorrelationID = "client_correlation_id"

// a client id is logged only when it looks like an opaque token
var correlationIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,128}$`)

// CorrelationMiddleware assigns every request a fresh correlation id. A
// well-formed X-Correlation-ID sent by the client is kept for the request log
// only.
func CorrelationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if incoming := c.GetHeader(response.CorrelationIDHeader); correlationIDPattern.MatchString(incoming) {
			c.Set(ContextKeyClientCorrelationID, incoming)
		}
		id := keygen.CorrelationID()
		c.Set(response.CorrelationIDKey, id)
		c.Header(response.CorrelationIDHeader, id)
		c.Next()
	}
}

// RecoveryMiddleware turns a panic into an INTERNAL problem response
func RecoveryMiddleware(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if recovered := recover(); recovered != nil {
				if recovered == http.ErrAbortHandler {
					panic(recovered)
				}
				log.Error("panic recovered",
					zap.Any("panic", recovered),
					zap.String("path", c.Request.URL.Path),
					zap.String("correlation_id", c.GetString(response.CorrelationIDKey)),
					zap.Stack("stack"))
				response.Problem(c, problem.New(problem.KindInternal, "panic: %v", recovered))
			}
		}()
		c.Next()
	}
}

// MetricsMiddleware records request counts and latencies by route template
func MetricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// CORSMiddleware allows browser clients from any origin
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, X-Correlation-ID")
		c.Header("Access-Control-Expose-Headers", "X-Correlation-ID")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
