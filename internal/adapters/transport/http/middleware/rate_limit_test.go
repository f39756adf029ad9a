package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func limitedRouter(limit, burst, cacheSize int, ttl time.Duration) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(NewRateLimitPerIP(limit, burst, cacheSize, ttl))
	r.GET("/", func(c *gin.Context) { c.String(200, "ok") })
	return r
}

func doReq(r *gin.Engine, addr string) int {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/", nil)
	c.Request.RemoteAddr = addr
	r.HandleContext(c)
	return w.Code
}

func TestRateLimitPerIP_Basic(t *testing.T) {
	r := limitedRouter(1, 1, 100, time.Hour)

	if code := doReq(r, "1.2.3.4:12345"); code != 200 {
		t.Fatalf("want 200, got %d", code)
	}
	if code := doReq(r, "1.2.3.4:12345"); code != 429 {
		t.Fatalf("want 429, got %d", code)
	}
}

func TestRateLimitPerIP_DifferentHosts(t *testing.T) {
	r := limitedRouter(1, 1, 100, time.Hour)

	if code := doReq(r, "10.0.0.1:1111"); code != 200 {
		t.Fatalf("host A first request must pass, got %d", code)
	}
	if code := doReq(r, "10.0.0.2:2222"); code != 200 {
		t.Fatalf("host B first request must pass independently, got %d", code)
	}
}

func TestRateLimitPerIP_TTL_Evicts(t *testing.T) {
	ttl := 10 * time.Millisecond
	r := limitedRouter(1, 1, 10, ttl)

	if code := doReq(r, "127.0.0.1:5555"); code != 200 {
		t.Fatalf("first req want 200 got %d", code)
	}
	if code := doReq(r, "127.0.0.1:5555"); code != 429 {
		t.Fatalf("second immediate req want 429 got %d", code)
	}
	time.Sleep(3*ttl + 5*time.Millisecond)
	if code := doReq(r, "127.0.0.1:5555"); code != 200 {
		t.Fatalf("after TTL want 200 got %d", code)
	}
}
