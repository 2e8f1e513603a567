package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fetscr/fetscr-backend/internal/conf"
	"github.com/fetscr/fetscr-backend/internal/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func limiterTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "console"})
	require.NoError(t, err)
	return log
}

func newLimitedRouter(t *testing.T, cfg conf.RateLimitConfig, before ...gin.HandlerFunc) (*gin.Engine, *miniredis.Miniredis) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	router := gin.New()
	handlers := append(before, RateLimiter(client, cfg, limiterTestLogger(t)))
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	router.GET("/limited", handlers...)

	return router, mr
}

func doLimited(router *gin.Engine) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/limited", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimiter_AllowsUntilLimitThenDenies(t *testing.T) {
	router, _ := newLimitedRouter(t, conf.RateLimitConfig{
		MaxRequests:   3,
		WindowSeconds: 60,
		Strategy:      "ip",
	})

	for i := 0; i < 3; i++ {
		w := doLimited(router)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "3", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, strconv.Itoa(2-i), w.Header().Get("X-RateLimit-Remaining"))
	}

	w := doLimited(router)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), `"success":false`)
}

func TestRateLimiter_WindowSlides(t *testing.T) {
	router, _ := newLimitedRouter(t, conf.RateLimitConfig{
		MaxRequests:   1,
		WindowSeconds: 1,
		Strategy:      "ip",
	})

	require.Equal(t, http.StatusOK, doLimited(router).Code)
	require.Equal(t, http.StatusTooManyRequests, doLimited(router).Code)

	// Once the recorded request leaves the window the budget returns.
	time.Sleep(1100 * time.Millisecond)
	assert.Equal(t, http.StatusOK, doLimited(router).Code)
}

func TestRateLimiter_UserStrategyIsolatesUsers(t *testing.T) {
	currentUser := "user-a"
	setUser := func(c *gin.Context) {
		c.Set("user_id", currentUser)
		c.Next()
	}

	router, _ := newLimitedRouter(t, conf.RateLimitConfig{
		MaxRequests:   1,
		WindowSeconds: 60,
		Strategy:      "user",
	}, setUser)

	require.Equal(t, http.StatusOK, doLimited(router).Code)
	require.Equal(t, http.StatusTooManyRequests, doLimited(router).Code)

	// A different user has an untouched window.
	currentUser = "user-b"
	assert.Equal(t, http.StatusOK, doLimited(router).Code)
}

func TestRateLimiter_FailsOpenWhenBackendDown(t *testing.T) {
	router, mr := newLimitedRouter(t, conf.RateLimitConfig{
		MaxRequests:   1,
		WindowSeconds: 60,
		Strategy:      "ip",
	})

	mr.Close()

	// Requests pass through rather than failing the whole API.
	assert.Equal(t, http.StatusOK, doLimited(router).Code)
	assert.Equal(t, http.StatusOK, doLimited(router).Code)
}
