package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestRateLimiterFixedWindow(t *testing.T) {
	rl := NewRateLimiter(3, time.Hour)

	for i := 0; i < 3; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Fatalf("request %d should be admitted", i+1)
		}
	}
	if rl.Allow("1.2.3.4") {
		t.Fatalf("request over budget should be rejected")
	}
	// Other clients keep their own budget.
	if !rl.Allow("5.6.7.8") {
		t.Fatalf("different identity should be admitted")
	}
}

func TestRateLimiterWindowReset(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour)
	current := time.Now()
	rl.now = func() time.Time { return current }

	if !rl.Allow("1.2.3.4") {
		t.Fatalf("first request should be admitted")
	}
	if rl.Allow("1.2.3.4") {
		t.Fatalf("second request in window should be rejected")
	}

	current = current.Add(time.Hour + time.Second)
	if !rl.Allow("1.2.3.4") {
		t.Fatalf("request after window rollover should be admitted")
	}
}

func TestRateLimiterHandlerRejectsWith429(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(1, time.Hour)

	r := gin.New()
	r.Use(rl.Handler())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	first := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(first, req)
	if first.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", first.Code)
	}

	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", second.Code)
	}
	if body := second.Body.String(); !strings.Contains(body, "Too many requests") {
		t.Fatalf("unexpected body: %s", body)
	}
}
