package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"travis/utils"

	"github.com/gin-gonic/gin"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func init() {
	gin.SetMode(gin.TestMode)
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded chain", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "10.0.0.2:5000", "203.0.113.7"},
		{"garbage forwarded falls through", map[string]string{"X-Forwarded-For": "nope", "X-Real-IP": "198.51.100.4"}, "10.0.0.2:5000", "198.51.100.4"},
		{"remote addr", nil, "192.0.2.10:4242", "192.0.2.10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			c.Request.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				c.Request.Header.Set(k, v)
			}
			if got := getClientIP(c); got != tt.want {
				t.Fatalf("getClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitMiddleware(2))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("codes = %v", codes)
	}

	// Another address has its own budget.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.2:1234"
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("second ip code = %d", w.Code)
	}
}

func consoleRouter(api bool) *gin.Engine {
	r := gin.New()
	r.GET("/private", ConsoleAuthMiddleware(testSecret, api), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ConsoleEmailKey))
	})
	return r
}

func TestConsoleAuthMiddleware(t *testing.T) {
	token, err := utils.GenerateToken(testSecret, "a-1", "op@example.com", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.AddCookie(&http.Cookie{Name: utils.ConsoleSessionCookie, Value: token})
	consoleRouter(false).ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Body.String() != "op@example.com" {
		t.Fatalf("with session: %d %q", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	consoleRouter(false).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/private", nil))
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/login" {
		t.Fatalf("page without session: %d %q", w.Code, w.Header().Get("Location"))
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/private", nil)
	req.AddCookie(&http.Cookie{Name: utils.ConsoleSessionCookie, Value: "forged"})
	consoleRouter(true).ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("api with bad session: %d", w.Code)
	}
}
