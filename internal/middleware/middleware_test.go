package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wishlist-service/internal/metrics"
	"github.com/wishlist-service/internal/problem"
	"github.com/wishlist-service/internal/service"
	"github.com/wishlist-service/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubVerifier map[string]uint64

func (s stubVerifier) VerifyToken(_ context.Context, token string) (uint64, error) {
	if id, ok := s[token]; ok {
		return id, nil
	}
	return 0, problem.New(problem.KindInvalidToken, "invalid or expired token")
}

func callerEcho(c *gin.Context) {
	caller := CallerFrom(c)
	c.JSON(http.StatusOK, gin.H{"user_id": caller.UserID, "authenticated": caller.Authenticated})
}

func newAuthRouter() *gin.Engine {
	verifier := stubVerifier{"good": 7}
	r := gin.New()
	r.Use(CorrelationMiddleware())
	r.GET("/required", AuthMiddleware(verifier), callerEcho)
	r.GET("/optional", OptionalAuthMiddleware(verifier), callerEcho)
	return r
}

func do(r http.Handler, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r := newAuthRouter()

	tests := []struct {
		name   string
		path   string
		auth   string
		status int
		caller service.Caller
	}{
		{"required without header", "/required", "", http.StatusUnauthorized, service.Caller{}},
		{"required with bad scheme", "/required", "Basic abc", http.StatusUnauthorized, service.Caller{}},
		{"required with bad token", "/required", "Bearer nope", http.StatusUnauthorized, service.Caller{}},
		{"required with good token", "/required", "Bearer good", http.StatusOK, service.AsUser(7)},
		{"optional without header", "/optional", "", http.StatusOK, service.Anonymous},
		{"optional with bad token", "/optional", "Bearer nope", http.StatusUnauthorized, service.Caller{}},
		{"optional with good token", "/optional", "bearer good", http.StatusOK, service.AsUser(7)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodGet, tt.path, tt.auth)
			require.Equal(t, tt.status, w.Code)
			if tt.status != http.StatusOK {
				assert.Equal(t, response.ProblemContentType, w.Header().Get("Content-Type"))
				var env problem.Envelope
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
				assert.Contains(t, env.Type, "invalid-token")
				assert.Equal(t, w.Header().Get(response.CorrelationIDHeader), env.CorrelationID)
				return
			}
			var body struct {
				UserID        uint64 `json:"user_id"`
				Authenticated bool   `json:"authenticated"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.caller.UserID, body.UserID)
			assert.Equal(t, tt.caller.Authenticated, body.Authenticated)
		})
	}
}

func TestCorrelationMiddleware_AlwaysIssuesFreshUUID(t *testing.T) {
	r := newAuthRouter()

	seen := map[string]bool{}
	for _, incoming := range []string{"client-supplied-42", "client-supplied-42", "bad id\nwith newline", ""} {
		req := httptest.NewRequest(http.MethodGet, "/required", nil)
		if incoming != "" {
			req.Header.Set(response.CorrelationIDHeader, incoming)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusUnauthorized, w.Code)

		id := w.Header().Get(response.CorrelationIDHeader)
		_, err := uuid.Parse(id)
		require.NoError(t, err, "correlation id %q is not a UUID", id)
		assert.NotEqual(t, incoming, id)
		assert.False(t, seen[id], "correlation id %q reused", id)
		seen[id] = true

		var env problem.Envelope
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
		assert.Equal(t, id, env.CorrelationID)
	}
}

func TestRequestLoggerMiddleware_KeepsClientCorrelationID(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := gin.New()
	r.Use(CorrelationMiddleware(), RequestLoggerMiddleware(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(response.CorrelationIDHeader, "upstream-7")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "upstream-7", fields["client_correlation_id"])
	assert.Equal(t, w.Header().Get(response.CorrelationIDHeader), fields["correlation_id"])
	assert.NotEqual(t, "upstream-7", fields["correlation_id"])
}

func TestRecoveryMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	r := gin.New()
	r.Use(CorrelationMiddleware(), RecoveryMiddleware(zap.New(core)))
	r.GET("/boom", func(*gin.Context) { panic("kaboom") })

	w := do(r, http.MethodGet, "/boom", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "kaboom")
	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
}

func TestRequestLoggerMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := gin.New()
	r.Use(CorrelationMiddleware(), RequestLoggerMiddleware(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/missing", func(c *gin.Context) {
		response.Problem(c, problem.New(problem.KindNotFound, "wishlist not found"))
	})

	do(r, http.MethodGet, "/ok?x=1", "")
	do(r, http.MethodGet, "/missing", "")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "/ok?x=1", entries[0].ContextMap()["url"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.NotEmpty(t, entries[1].ContextMap()["correlation_id"])
	assert.Contains(t, entries[1].ContextMap(), "error")
}

func TestMetricsMiddleware(t *testing.T) {
	m := metrics.New()
	r := gin.New()
	r.Use(MetricsMiddleware(m))
	r.GET("/wishlists/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	do(r, http.MethodGet, "/wishlists/1", "")
	do(r, http.MethodGet, "/wishlists/2", "")
	do(r, http.MethodGet, "/nowhere", "")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/wishlists/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "unmatched", "404")))
}

func TestCORSMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := do(r, http.MethodOptions, "/x", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
