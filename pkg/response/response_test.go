package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wishlist-service/internal/problem"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestProblem_WritesEnvelope(t *testing.T) {
	UseReporter(problem.NewReporter("https://errors.test/"))
	t.Cleanup(func() { UseReporter(problem.NewReporter("")) })

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/wishlists/9", nil)
	c.Set(CorrelationIDKey, "corr-1")

	Problem(c, problem.New(problem.KindNotFound, "wishlist not found"))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, ProblemContentType, w.Header().Get("Content-Type"))
	assert.Equal(t, "corr-1", w.Header().Get(CorrelationIDHeader))
	assert.True(t, c.IsAborted())

	var env problem.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, "https://errors.test/not-found", env.Type)
	assert.Equal(t, "Not Found", env.Title)
	assert.Equal(t, 404, env.Status)
	assert.Equal(t, "wishlist not found", env.Detail)
	assert.Equal(t, "/api/v1/wishlists/9", env.Instance)
	assert.Equal(t, "corr-1", env.CorrelationID)
	require.Len(t, c.Errors, 1)
}

func TestProblem_HidesInternalDetail(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)

	Problem(c, errors.New("pq: password authentication failed for user wishlist"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "pq:")
	assert.NotEmpty(t, w.Header().Get(CorrelationIDHeader))
}

func TestSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Created(c, gin.H{"id": 1})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"code":0,"message":"created","data":{"id":1}}`, w.Body.String())
}
