package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/suPer8Hu/mentor-chat/internal/logging"
)

func init() { gin.SetMode(gin.TestMode) }

func TestIPRateLimiter(t *testing.T) {
	l := NewIPRateLimiter(60, 2)
	assert.True(t, l.Allow("1.1.1.1"))
	assert.True(t, l.Allow("1.1.1.1"))
	assert.False(t, l.Allow("1.1.1.1"))
	assert.True(t, l.Allow("2.2.2.2"), "buckets are per ip")

	off := NewIPRateLimiter(0, 0)
	for i := 0; i < 100; i++ {
		assert.True(t, off.Allow("1.1.1.1"))
	}
}

func TestRequestIDAndRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(zerolog.Nop()), RequestID(), RateLimit(NewIPRateLimiter(60, 1)))
	var seen string
	r.GET("/ok", func(c *gin.Context) {
		seen = logging.RequestID(c.Request.Context())
		c.Status(http.StatusNoContent)
	})
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(RequestIDHeader, "abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "abc", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "abc", seen)

	// the single token for this client is spent
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	r2 := gin.New()
	r2.Use(Recovery(zerolog.Nop()), RequestID())
	r2.GET("/boom", func(c *gin.Context) { panic("boom") })
	w = httptest.NewRecorder()
	r2.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	assert.Contains(t, w.Body.String(), `"code":50000`)
}
