package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/house-rental-booking/internal/config"
	"github.com/iliyamo/house-rental-booking/internal/utils"
)

const testSecret = "test-secret"

func bearer(t *testing.T, secret string, userID uint64, role string, ttl time.Duration) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, userID, role, ttl)
	if err != nil {
		t.Fatalf("NewAccessToken() error: %v", err)
	}
	return "Bearer " + tok.Token
}

func protected(roles ...string) *echo.Echo {
	e := echo.New()
	e.GET("/whoami", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"user": subject(c), "role": c.Get("role")})
	}, JWTAuth(testSecret), RequireRole(roles...))
	return e
}

func TestJWTAuthAndRequireRole(t *testing.T) {
	tests := []struct {
		name   string
		auth   string
		roles  []string
		status int
	}{
		{"no header", "", []string{"TENANT"}, http.StatusUnauthorized},
		{"not bearer", "Basic abc", []string{"TENANT"}, http.StatusUnauthorized},
		{"garbage token", "Bearer not.a.jwt", []string{"TENANT"}, http.StatusUnauthorized},
		{"wrong secret", bearer(t, "other", 7, "TENANT", time.Minute), []string{"TENANT"}, http.StatusUnauthorized},
		{"expired", bearer(t, testSecret, 7, "TENANT", -time.Minute), []string{"TENANT"}, http.StatusUnauthorized},
		{"role not allowed", bearer(t, testSecret, 7, "TENANT", time.Minute), []string{"LANDLORD"}, http.StatusForbidden},
		{"tenant allowed", bearer(t, testSecret, 7, "TENANT", time.Minute), []string{"TENANT", "LANDLORD"}, http.StatusOK},
		{"landlord allowed", bearer(t, testSecret, 9, "LANDLORD", time.Minute), []string{"LANDLORD"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			rec := httptest.NewRecorder()
			protected(tt.roles...).ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body.String())
			}
		})
	}
}

func TestSubject(t *testing.T) {
	e := echo.New()
	tests := []struct {
		name string
		v    interface{}
		want string
	}{
		{"unset", nil, "anon"},
		{"string", "42", "42"},
		{"empty string", "", "anon"},
		{"json number", float64(42), "42"},
		{"fractional json number", 1.5, "anon"},
		{"negative json number", float64(-3), "anon"},
		{"uint64", uint64(42), "42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
			if tt.v != nil {
				c.Set("user_id", tt.v)
			}
			if got := subject(c); got != tt.want {
				t.Errorf("subject() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/houses/3/bookings", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/houses/:id/bookings")
	c.Set("user_id", "7")

	cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user_route"}
	if got, want := buildRateKey(cfg, c), "rl:user:7:route:POST /v1/houses/:id/bookings"; got != want {
		t.Errorf("buildRateKey() = %q, want %q", got, want)
	}
}

func TestCacheKeySeparatesHouses(t *testing.T) {
	e := echo.New()
	cfg := config.CacheConfig{Prefix: "calendar", KeyStrategy: "route_query"}
	key := func(path string) string {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, path, nil), httptest.NewRecorder())
		c.SetPath("/v1/houses/:id/calendar")
		return cacheKeyFrom(cfg, c)
	}
	if key("/v1/houses/1/calendar") == key("/v1/houses/2/calendar") {
		t.Error("different houses share a cache key")
	}
	if key("/v1/houses/1/calendar") != key("/v1/houses/1/calendar") {
		t.Error("cache key is not stable")
	}
}

func TestDecodePayloadRejectsShortInput(t *testing.T) {
	if _, _, _, ok := decodePayload([]byte{0, 0, 0}); ok {
		t.Error("decodePayload() accepted a truncated payload")
	}
	bs, err := encodePayload(http.StatusOK, http.Header{"Content-Type": {"application/json"}}, nil)
	if err != nil {
		t.Fatalf("encodePayload() error: %v", err)
	}
	if _, _, _, ok := decodePayload(bs[:len(bs)-1]); ok {
		t.Error("decodePayload() accepted a payload with a cut header frame")
	}
}

func TestDisabledMiddlewarePassesThrough(t *testing.T) {
	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.String(http.StatusOK, "ok") },
		NewTokenBucket(config.RateLimitConfig{Enabled: false}, nil, nil),
		NewRedisCache(config.CacheConfig{Enabled: false}, nil, nil))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("got %d %q, want 200 ok", rec.Code, rec.Body.String())
	}
}
