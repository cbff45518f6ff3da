package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"recipio/internal/pkg/common"

	"github.com/gin-gonic/gin"
	goredis "github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.Any("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	return r
}

func do(r http.Handler, method, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/ping", strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestTokenBucket(t *testing.T) {
	tb := NewTokenBucket(2, time.Hour)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := tb.Allow(ctx, "a")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := tb.Allow(ctx, "a")
	assert.False(t, ok)

	ok, _ = tb.Allow(ctx, "b")
	assert.True(t, ok, "keys have separate buckets")
}

func TestRateLimit(t *testing.T) {
	r := newEngine(RateLimit(NewTokenBucket(1, time.Minute), time.Minute))

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "", nil).Code)

	w := do(r, http.MethodGet, "", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "TOO_MANY_REQUESTS")
}

func TestRateLimitFailsOpenWhenRedisIsDown(t *testing.T) {
	client := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	r := newEngine(RateLimit(NewRedisWindow(client, 1, time.Minute), time.Minute))
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "", nil).Code)
}

func TestBodySizeLimit(t *testing.T) {
	r := newEngine(BodySizeLimit(8))

	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "small", nil).Code)

	w := do(r, http.MethodPost, "this body is too large", nil)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "REQUEST_TOO_LARGE")
}

func TestDeduplication(t *testing.T) {
	d := NewDeduplicator(time.Minute)
	r := newEngine(d.Middleware())

	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, `{"ingredient":"egg"}`, nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(r, http.MethodPost, `{"ingredient":"egg"}`, nil).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, `{"ingredient":"milk"}`, nil).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "", nil).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "", nil).Code)
}

func TestDeduplicatorWindow(t *testing.T) {
	d := NewDeduplicator(time.Second)
	now := time.Now()

	assert.False(t, d.Seen("k", now))
	assert.True(t, d.Seen("k", now.Add(500*time.Millisecond)))
	assert.False(t, d.Seen("k", now.Add(2*time.Second)))
}

func TestRequireUser(t *testing.T) {
	var got uuid.UUID
	r := gin.New()
	r.POST("/ping", RequireUser(), func(c *gin.Context) {
		got, _ = UserID(c)
		c.Status(http.StatusNoContent)
	})

	w := do(r, http.MethodPost, "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodPost, "", map[string]string{UserIDHeader: "not-a-uuid"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	id := uuid.New()
	w = do(r, http.MethodPost, "", map[string]string{UserIDHeader: id.String()})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, id, got)
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery())
	r.GET("/ping", func(c *gin.Context) {
		panic("boom")
	})

	w := do(r, http.MethodGet, "", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
}

func TestLoggerLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	prev := common.Logger
	common.Logger = zap.New(core)
	t.Cleanup(func() { common.Logger = prev })

	user := uuid.New()
	r := gin.New()
	r.Use(Logger())
	r.GET("/ping", RequireUser(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.GET("/fail", func(c *gin.Context) {
		c.Status(http.StatusBadGateway)
	})

	do(r, http.MethodGet, "", map[string]string{UserIDHeader: user.String()})
	do(r, http.MethodGet, "", nil)
	req := httptest.NewRequest(http.MethodGet, "/fail", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.All()
	require.Len(t, entries, 3)

	assert.Equal(t, "Request completed", entries[0].Message)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, user.String(), entries[0].ContextMap()["user_id"])

	assert.Equal(t, "用戶端錯誤", entries[1].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.NotContains(t, entries[1].ContextMap(), "user_id")

	assert.Equal(t, "伺服器錯誤", entries[2].Message)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
}
