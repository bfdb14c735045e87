package response

import (
	"encoding/json"
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"

	"github.com/wishlist-service/internal/problem"
	"github.com/wishlist-service/pkg/keygen"
)

const (
	// CorrelationIDKey is the key for the request correlation id in gin context
	CorrelationIDKey = "correlation_id"
	// CorrelationIDHeader carries the correlation id on requests and responses
	CorrelationIDHeader = "X-Correlation-ID"
	// ProblemContentType is the media type of error bodies
	ProblemContentType = "application/problem+json"
)

// Response is the standard API response structure
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

var reporter atomic.Pointer[problem.Reporter]

func init() {
	reporter.Store(problem.NewReporter(""))
}

// UseReporter replaces the reporter used to build problem envelopes
func UseReporter(r *problem.Reporter) {
	reporter.Store(r)
}

// Success sends a successful response
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created sends a 201 created response
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    0,
		Message: "created",
		Data:    data,
	})
}

// Deleted sends a successful response for a removal
func Deleted(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "deleted",
	})
}

// CorrelationID returns the id assigned to the request, creating one if the
// correlation middleware did not run.
func CorrelationID(c *gin.Context) string {
	if id := c.GetString(CorrelationIDKey); id != "" {
		return id
	}
	id := keygen.CorrelationID()
	c.Set(CorrelationIDKey, id)
	return id
}

// Problem sends err as an RFC 7807 problem document and aborts the chain.
// The error is attached to the context so the request logger sees the cause.
func Problem(c *gin.Context, err error) {
	_ = c.Error(err)

	id := CorrelationID(c)
	envelope := reporter.Load().Report(err, c.Request.URL.Path, id)

	body, marshalErr := json.Marshal(envelope)
	if marshalErr != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	c.Header(CorrelationIDHeader, id)
	c.Header("Cache-Control", "no-store")
	c.Data(envelope.Status, ProblemContentType, body)
	c.Abort()
}
