package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serveWithLimiter(rl *RateLimiter, ip string) int {
	router := gin.New()
	router.Use(rl.Middleware())
	router.GET("/login", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/login", nil)
	req.RemoteAddr = ip + ":12345"
	router.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimiter_AllowsWithinBurst(t *testing.T) {
	rl := NewRateLimiter(5, 10)

	if code := serveWithLimiter(rl, "192.0.2.1"); code != http.StatusOK {
		t.Errorf("first request: status = %d, expected %d", code, http.StatusOK)
	}
}

func TestRateLimiter_RejectsBeyondBurst(t *testing.T) {
	rl := NewRateLimiter(1, 2)

	var last int
	for i := 0; i < 5; i++ {
		last = serveWithLimiter(rl, "192.0.2.2")
	}

	if last != http.StatusTooManyRequests {
		t.Errorf("status after burst = %d, expected %d", last, http.StatusTooManyRequests)
	}
}

func TestRateLimiter_TracksClientsSeparately(t *testing.T) {
	rl := NewRateLimiter(1, 1)

	if code := serveWithLimiter(rl, "192.0.2.3"); code != http.StatusOK {
		t.Errorf("first client: status = %d, expected %d", code, http.StatusOK)
	}

	// Exhausting one client's budget must not affect another.
	if code := serveWithLimiter(rl, "192.0.2.4"); code != http.StatusOK {
		t.Errorf("second client: status = %d, expected %d", code, http.StatusOK)
	}
}
