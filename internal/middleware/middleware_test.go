package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/club-event-engine/internal/config"
	"github.com/iliyamo/club-event-engine/internal/model"
	"github.com/iliyamo/club-event-engine/internal/utils"
)

const testSecret = "test-secret"

type envelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return env
}

// protected returns an echo instance serving GET /me behind JWTAuth that
// echoes the caller identity.
func protected(mw ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	chain := append([]echo.MiddlewareFunc{JWTAuth(testSecret)}, mw...)
	e.GET("/me", func(c echo.Context) error {
		who, err := CallerFrom(c)
		if err != nil {
			return c.NoContent(http.StatusInternalServerError)
		}
		return c.JSON(http.StatusOK, who)
	}, chain...)
	return e
}

func get(e *echo.Echo, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuthSetsCaller(t *testing.T) {
	t.Parallel()
	tok, err := utils.NewAccessToken(testSecret, 42, model.RoleClubAdmin, "Coding Club", 5)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}

	rec := get(protected(), "/me", tok.Token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	var who model.Caller
	if err := json.Unmarshal(rec.Body.Bytes(), &who); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if who.UserID != 42 || who.Role != model.RoleClubAdmin || who.Name != "Coding Club" {
		t.Fatalf("caller = %+v", who)
	}
}

func TestJWTAuthRejects(t *testing.T) {
	t.Parallel()
	wrong, err := utils.NewAccessToken("other-secret", 42, model.RoleStudent, "", 5)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"role": model.RoleStudent,
		"exp":  time.Now().Add(time.Minute).Unix(),
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  7,
		"role": model.RoleStudent,
		"exp":  time.Now().Add(-time.Minute).Unix(),
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	cases := []struct {
		name    string
		token   string
		message string
	}{
		{name: "missing header", token: "", message: "missing bearer token"},
		{name: "wrong secret", token: wrong.Token, message: "invalid token"},
		{name: "expired", token: expired, message: "invalid token"},
		{name: "no subject", token: noSub, message: "token has no subject"},
	}
	e := protected()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := get(e, "/me", tc.token)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
			env := decodeEnvelope(t, rec)
			if env.Error.Code != "UNAUTHORIZED" || env.Error.Message != tc.message {
				t.Fatalf("error = %+v, want UNAUTHORIZED %q", env.Error, tc.message)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	t.Parallel()
	e := protected(RequireRole(model.RoleSuperAdmin))

	student, _ := utils.NewAccessToken(testSecret, 5, model.RoleStudent, "", 5)
	rec := get(e, "/me", student.Token)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("student status = %d, want 403", rec.Code)
	}
	if env := decodeEnvelope(t, rec); env.Error.Code != "FORBIDDEN" {
		t.Fatalf("code = %q, want FORBIDDEN", env.Error.Code)
	}

	admin, _ := utils.NewAccessToken(testSecret, 1, model.RoleSuperAdmin, "", 5)
	if rec := get(e, "/me", admin.Token); rec.Code != http.StatusOK {
		t.Fatalf("super admin status = %d, want 200", rec.Code)
	}
}

func TestCallerFromSubjectTypes(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		sub  any
		want uint64
		ok   bool
	}{
		{name: "json number", sub: float64(12), want: 12, ok: true},
		{name: "string", sub: "34", want: 34, ok: true},
		{name: "uint64", sub: uint64(56), want: 56, ok: true},
		{name: "zero", sub: float64(0), ok: false},
		{name: "garbage", sub: "abc", ok: false},
		{name: "missing", sub: nil, ok: false},
	}
	e := echo.New()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
			if tc.sub != nil {
				c.Set(ctxUserID, tc.sub)
			}
			c.Set(ctxRole, model.RoleStudent)
			who, err := CallerFrom(c)
			if !tc.ok {
				if !errors.Is(err, ErrNoCaller) {
					t.Fatalf("err = %v, want ErrNoCaller", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CallerFrom: %v", err)
			}
			if who.UserID != tc.want || who.Role != model.RoleStudent {
				t.Fatalf("caller = %+v, want id %d", who, tc.want)
			}
		})
	}
}

func TestRedisMiddlewaresPassThroughWithoutClient(t *testing.T) {
	t.Parallel()
	log := zerolog.Nop()
	e := echo.New()
	e.Use(NewTokenBucket(config.RateLimitConfig{Enabled: true, Capacity: 1}, nil, &log))
	calls := 0
	e.GET("/halls", func(c echo.Context) error {
		calls++
		return c.String(http.StatusOK, "ok")
	}, NewRedisCache(config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}}, nil, &log))

	for i := 0; i < 3; i++ {
		rec := get(e, "/halls", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
		if rec.Header().Get("X-Cache") != "" {
			t.Fatalf("X-Cache set without a cache")
		}
	}
	if calls != 3 {
		t.Fatalf("handler calls = %d, want 3", calls)
	}
}

func TestRateKeyStrategies(t *testing.T) {
	t.Parallel()
	e := echo.New()
	newCtx := func() echo.Context {
		req := httptest.NewRequest(http.MethodGet, "/v1/events/9", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		c := e.NewContext(req, httptest.NewRecorder())
		c.SetPath("/v1/events/:id")
		return c
	}

	cases := []struct {
		strategy string
		userID   any
		want     string
	}{
		{strategy: "ip", want: "rl:ip:10.0.0.1"},
		{strategy: "user", want: "rl:user:anon"},
		{strategy: "user", userID: float64(42), want: "rl:user:42"},
		{strategy: "ip_route", want: "rl:ip:10.0.0.1:route:GET /v1/events/:id"},
		{strategy: "", userID: float64(7), want: "rl:ip:10.0.0.1:user:7:route:GET /v1/events/:id"},
	}
	for _, tc := range cases {
		c := newCtx()
		if tc.userID != nil {
			c.Set(ctxUserID, tc.userID)
		}
		got := rateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: tc.strategy}, c)
		if got != tc.want {
			t.Fatalf("rateKey(%q) = %q, want %q", tc.strategy, got, tc.want)
		}
	}
}

func TestRetryAfterSecondsRoundsUp(t *testing.T) {
	t.Parallel()
	cases := map[int64]int{0: 0, 1: 1, 999: 1, 1000: 1, 1001: 2, -5: 0}
	for ms, want := range cases {
		if got := retryAfterSeconds(ms); got != want {
			t.Fatalf("retryAfterSeconds(%d) = %d, want %d", ms, got, want)
		}
	}
}

func TestParseBucket(t *testing.T) {
	t.Parallel()
	allowed, remaining, retry, ok := parseBucket([]interface{}{int64(0), int64(0), int64(1500)})
	if !ok || allowed || remaining != 0 || retry != 1500 {
		t.Fatalf("parseBucket = %v %d %d %v", allowed, remaining, retry, ok)
	}
	if _, _, _, ok := parseBucket("nope"); ok {
		t.Fatal("parseBucket accepted a non-slice")
	}
}

func TestCacheKeyStrategies(t *testing.T) {
	t.Parallel()
	e := echo.New()
	ctx := func(target string) echo.Context {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
		c.SetPath("/v1/halls")
		return c
	}
	withQuery := config.CacheConfig{Prefix: "cache", KeyStrategy: "route_query"}
	if cacheKey(withQuery, ctx("/v1/halls?a=1")) == cacheKey(withQuery, ctx("/v1/halls?a=2")) {
		t.Fatal("route_query ignored the query string")
	}
	routeOnly := config.CacheConfig{Prefix: "cache", KeyStrategy: "route"}
	if cacheKey(routeOnly, ctx("/v1/halls?a=1")) != cacheKey(routeOnly, ctx("/v1/halls?a=2")) {
		t.Fatal("route strategy depends on the query string")
	}
	if k := cacheKey(routeOnly, ctx("/v1/halls")); !strings.HasPrefix(k, "cache:") {
		t.Fatalf("key %q lacks prefix", k)
	}
}

func TestCachePayloadRejectsTruncatedInput(t *testing.T) {
	t.Parallel()
	hdr := http.Header{"Content-Type": []string{"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"items":[]}`))
	if err != nil {
		t.Fatalf("encodePayload: %v", err)
	}
	status, got, body, ok := decodePayload(bs)
	if !ok || status != http.StatusOK || got.Get("Content-Type") != "application/json" || string(body) != `{"items":[]}` {
		t.Fatalf("decodePayload = %d %v %q %v", status, got, body, ok)
	}
	if _, _, _, ok := decodePayload(bs[:6]); ok {
		t.Fatal("decoded a payload shorter than its prefix")
	}
	if _, _, _, ok := decodePayload(bs[:10]); ok {
		t.Fatal("decoded a payload with a cut header")
	}
}

func TestCaptureWriterStopsBufferingPastLimit(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 4}
	_, _ = cw.Write([]byte("abc"))
	_, _ = cw.Write([]byte("def"))
	if !cw.truncated {
		t.Fatal("expected truncated")
	}
	if cw.buf.String() != "abc" {
		t.Fatalf("buffered %q, want abc", cw.buf.String())
	}
	if rec.Body.String() != "abcdef" {
		t.Fatalf("client got %q, want abcdef", rec.Body.String())
	}
}

func TestRequestLoggerAssignsIDAndLogsStatus(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := zerolog.New(&buf)
	e := echo.New()
	e.Use(RequestLogger(&log))
	e.GET("/missing", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "nope")
	})

	rec := get(e, "/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	rid := rec.Header().Get(HeaderRequestID)
	if rid == "" {
		t.Fatal("no request id header")
	}
	line := buf.String()
	for _, want := range []string{`"level":"warn"`, `"status":404`, `"request_id":"` + rid + `"`} {
		if !strings.Contains(line, want) {
			t.Fatalf("log %q missing %s", line, want)
		}
	}
}

func TestRequestLoggerKeepsClientID(t *testing.T) {
	t.Parallel()
	log := zerolog.Nop()
	e := echo.New()
	e.Use(RequestLogger(&log))
	e.GET("/ok", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if got := rec.Header().Get(HeaderRequestID); got != "abc-123" {
		t.Fatalf("request id = %q, want abc-123", got)
	}
}
