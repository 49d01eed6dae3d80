package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/inkblog/inkblog/config"
	"github.com/inkblog/inkblog/utils"
)

func setupMiddlewareTest(t *testing.T) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config.Set(config.AppConfig{SecretKey: "middleware-test-secret"})
}

func protectedRouter() *gin.Engine {
	r := gin.New()
	r.GET("/private", RequireAuth(), func(ctx *gin.Context) {
		id, _ := CurrentUserID(ctx)
		ctx.JSON(http.StatusOK, gin.H{"user_id": id})
	})
	r.GET("/guest", RequireAnonymous(), func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func get(r *gin.Engine, target, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuth_MissingAndMalformedHeader(t *testing.T) {
	setupMiddlewareTest(t)
	r := protectedRouter()

	for _, header := range []string{"", "Bearer", "Token abc", "Bearer "} {
		if w := get(r, "/private", header); w.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, w.Code)
		}
	}
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	setupMiddlewareTest(t)
	r := protectedRouter()

	if w := get(r, "/private", "Bearer not.a.jwt"); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRequireAuth_ValidTokenSetsIdentity(t *testing.T) {
	setupMiddlewareTest(t)
	r := protectedRouter()

	tok, err := utils.GenerateSessionToken(42, "someone", false)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	w := get(r, "/private", "Bearer "+tok)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if body := w.Body.String(); body != `{"user_id":42}` {
		t.Fatalf("unexpected body %s", body)
	}
}

func TestRequireAnonymous_RedirectsAuthenticated(t *testing.T) {
	setupMiddlewareTest(t)
	r := protectedRouter()

	tok, err := utils.GenerateSessionToken(7, "signedin", false)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	w := get(r, "/guest", "Bearer "+tok)
	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/" {
		t.Fatalf("expected redirect to /, got %q", loc)
	}
}

func TestRequireAnonymous_PassesGuestsAndGarbageTokens(t *testing.T) {
	setupMiddlewareTest(t)
	r := protectedRouter()

	// No credentials and unparseable credentials both count as signed out.
	for _, header := range []string{"", "Bearer garbage"} {
		if w := get(r, "/guest", header); w.Code != http.StatusOK {
			t.Fatalf("header %q: expected 200, got %d", header, w.Code)
		}
	}
}

func TestRateLimit_RejectsBurstOverflow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	config.Set(config.AppConfig{SecretKey: "middleware-test-secret", RateLimitPerMinute: 2})

	r := gin.New()
	r.GET("/limited", RateLimitMiddleware(), func(ctx *gin.Context) {
		ctx.Status(http.StatusOK)
	})

	req := func() *httptest.ResponseRecorder {
		rq := httptest.NewRequest(http.MethodGet, "/limited", nil)
		rq.RemoteAddr = "203.0.113.9:4000"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, rq)
		return w
	}

	if w := req(); w.Code != http.StatusOK {
		t.Fatalf("first request should pass, got %d", w.Code)
	}
	// Burst of one at 2/minute: the immediate follow-up is over the limit.
	if w := req(); w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request should be limited, got %d", w.Code)
	}
}

func TestRateLimit_IsolatesClients(t *testing.T) {
	gin.SetMode(gin.TestMode)
	config.Set(config.AppConfig{SecretKey: "middleware-test-secret", RateLimitPerMinute: 2})

	r := gin.New()
	r.GET("/limited", RateLimitMiddleware(), func(ctx *gin.Context) {
		ctx.Status(http.StatusOK)
	})

	req := func(addr string) *httptest.ResponseRecorder {
		rq := httptest.NewRequest(http.MethodGet, "/limited", nil)
		rq.RemoteAddr = addr
		w := httptest.NewRecorder()
		r.ServeHTTP(w, rq)
		return w
	}

	if w := req("203.0.113.10:4000"); w.Code != http.StatusOK {
		t.Fatalf("client A first request should pass, got %d", w.Code)
	}
	if w := req("203.0.113.11:4000"); w.Code != http.StatusOK {
		t.Fatalf("client B must have its own bucket, got %d", w.Code)
	}
}
