package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"session_broker_backend/internal/common"
)

func newLimitedRouter(rl *RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/login", common.WithRouteContext("signin"), rl.Middleware(), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return r
}

func postFrom(r *gin.Engine, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = ip + ":12345"
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter_RejectsOverLimit(t *testing.T) {
	rl := NewRateLimiter(1, 1, 0, zap.NewNop())
	defer rl.Stop()
	r := newLimitedRouter(rl)

	assert.Equal(t, http.StatusOK, postFrom(r, "10.0.0.1").Code)

	rec := postFrom(r, "10.0.0.1")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	var env common.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.False(t, env.Success)
	assert.Equal(t, common.ErrTooManyRequests.Message, env.Message)
	assert.Equal(t, common.ErrTooManyRequests.Code, env.Code)
	assert.Equal(t, "signin", env.Context)
	assert.Nil(t, env.Data)
}

func TestRateLimiter_UnlabelledRouteHasNoContext(t *testing.T) {
	rl := NewRateLimiter(1, 1, 0, zap.NewNop())
	defer rl.Stop()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/login", rl.Middleware(), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	postFrom(r, "10.0.0.1")
	rec := postFrom(r, "10.0.0.1")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	var env common.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Empty(t, env.Context, "route path must not leak into the envelope")
}

func TestRateLimiter_SeparateBucketsPerIP(t *testing.T) {
	rl := NewRateLimiter(1, 1, 0, zap.NewNop())
	defer rl.Stop()
	r := newLimitedRouter(rl)

	assert.Equal(t, http.StatusOK, postFrom(r, "10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, postFrom(r, "10.0.0.2").Code)
	assert.Equal(t, 2, rl.ClientCount())
}

func TestRateLimiter_CleanupDropsIdleClients(t *testing.T) {
	rl := NewRateLimiter(1, 1, 0, zap.NewNop())
	rl.ttl = time.Minute
	r := newLimitedRouter(rl)

	postFrom(r, "10.0.0.1")
	require.Equal(t, 1, rl.ClientCount())

	rl.cleanup(time.Now())
	assert.Equal(t, 1, rl.ClientCount())

	rl.cleanup(time.Now().Add(2 * time.Minute))
	assert.Equal(t, 0, rl.ClientCount())
}
