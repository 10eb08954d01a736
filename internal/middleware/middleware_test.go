package middleware

import (
    "bytes"
    "io"
    "mime/multipart"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/golang-jwt/jwt/v5"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/conference-portal/internal/config"
)

func signed(t *testing.T, secret string, claims jwt.MapClaims) string {
    t.Helper()
    s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
    if err != nil {
        t.Fatal(err)
    }
    return s
}

func protected(secret string) *echo.Echo {
    e := echo.New()
    e.GET("/admin", func(c echo.Context) error {
        return c.String(http.StatusOK, Subject(c))
    }, JWTAuth(secret), RequireRole("ADMIN"))
    return e
}

func TestJWTAuthAndRole(t *testing.T) {
    const secret = "s3cret"
    exp := time.Now().Add(time.Hour).Unix()
    cases := []struct {
        name   string
        header string
        want   int
    }{
        {"no header", "", http.StatusUnauthorized},
        {"garbage", "Bearer nope", http.StatusUnauthorized},
        {"wrong secret", "Bearer " + signed(t, "other", jwt.MapClaims{"sub": "admin", "role": "ADMIN", "exp": exp}), http.StatusUnauthorized},
        {"expired", "Bearer " + signed(t, secret, jwt.MapClaims{"sub": "admin", "role": "ADMIN", "exp": time.Now().Add(-time.Minute).Unix()}), http.StatusUnauthorized},
        {"wrong role", "Bearer " + signed(t, secret, jwt.MapClaims{"sub": "admin", "role": "SPEAKER", "exp": exp}), http.StatusForbidden},
        {"admin", "Bearer " + signed(t, secret, jwt.MapClaims{"sub": "admin", "role": "ADMIN", "exp": exp}), http.StatusOK},
    }
    e := protected(secret)
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            req := httptest.NewRequest(http.MethodGet, "/admin", nil)
            if tc.header != "" {
                req.Header.Set("Authorization", tc.header)
            }
            rec := httptest.NewRecorder()
            e.ServeHTTP(rec, req)
            if rec.Code != tc.want {
                t.Fatalf("status = %d, want %d (%s)", rec.Code, tc.want, rec.Body.String())
            }
            if tc.want == http.StatusOK && rec.Body.String() != "admin" {
                t.Fatalf("subject = %q", rec.Body.String())
            }
        })
    }
}

func TestRateKeyByStrategy(t *testing.T) {
    e := echo.New()
    newCtx := func(body string) echo.Context {
        req := httptest.NewRequest(http.MethodPost, "/speaker/login", strings.NewReader(body))
        req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
        req.RemoteAddr = "10.0.0.1:5555"
        c := e.NewContext(req, httptest.NewRecorder())
        c.SetPath("/speaker/login")
        return c
    }

    tests := []struct {
        strategy string
        body     string
        want     string
    }{
        {KeyByIP, `{"speakerCode":"SP001"}`, "portal:rl:route:POST /speaker/login:ip:10.0.0.1"},
        {KeyBySpeaker, `{"speakerCode":" sp001 "}`, "portal:rl:route:POST /speaker/login:speaker:SP001"},
        {KeyBySpeaker, `{}`, "portal:rl:route:POST /speaker/login:ip:10.0.0.1"},
        {KeyByIPSpeaker, `{"speakerCode":"sp002"}`, "portal:rl:route:POST /speaker/login:ip:10.0.0.1:speaker:SP002"},
        {KeyByIPSpeaker, `not json`, "portal:rl:route:POST /speaker/login:ip:10.0.0.1:speaker:-"},
    }
    for _, tc := range tests {
        cfg := config.RateLimitConfig{Prefix: "portal:rl", KeyStrategy: tc.strategy}
        if got := rateKey(cfg, newCtx(tc.body)); got != tc.want {
            t.Errorf("%s %s: key = %q, want %q", tc.strategy, tc.body, got, tc.want)
        }
    }
}

func TestSpeakerCodeLeavesBodyForHandler(t *testing.T) {
    e := echo.New()

    body := `{"speakerCode":"sp007"}`
    req := httptest.NewRequest(http.MethodPost, "/speaker/login", strings.NewReader(body))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    c := e.NewContext(req, httptest.NewRecorder())
    if got := speakerCode(c); got != "SP007" {
        t.Fatalf("json code = %q", got)
    }
    rest, err := io.ReadAll(c.Request().Body)
    if err != nil || string(rest) != body {
        t.Fatalf("body after peek = %q, %v", rest, err)
    }

    var buf bytes.Buffer
    mw := multipart.NewWriter(&buf)
    _ = mw.WriteField("speakerCode", " sp003")
    fw, _ := mw.CreateFormFile("file", "deck.pptx")
    _, _ = fw.Write([]byte("slides"))
    _ = mw.Close()
    req = httptest.NewRequest(http.MethodPost, "/uploads/presentation", &buf)
    req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
    c = e.NewContext(req, httptest.NewRecorder())
    if got := speakerCode(c); got != "SP003" {
        t.Fatalf("multipart code = %q", got)
    }
    fh, err := c.FormFile("file")
    if err != nil || fh.Filename != "deck.pptx" || fh.Size != 6 {
        t.Fatalf("file after peek = %+v, %v", fh, err)
    }
}

func TestDecodeBucket(t *testing.T) {
    res, ok := decodeBucket([]any{int64(0), int64(0), int64(1500)})
    if !ok || res.allowed || res.wait != 1500*time.Millisecond {
        t.Fatalf("decode = %+v, %v", res, ok)
    }
    if _, ok := decodeBucket([]any{"1", int64(2)}); ok {
        t.Fatal("short reply accepted")
    }
}

func TestDisabledMiddlewarePassThrough(t *testing.T) {
    e := echo.New()
    e.Use(NewTokenBucket(config.RateLimitConfig{Enabled: false}, nil, nil))
    e.Use(NewRedisCache(config.CacheConfig{Enabled: true}, nil))
    e.GET("/x", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
    if rec.Code != http.StatusOK || rec.Header().Get("X-Cache") != "" {
        t.Fatalf("status=%d x-cache=%q", rec.Code, rec.Header().Get("X-Cache"))
    }
    if g := NewCacheGeneration(config.CacheConfig{Enabled: true}, nil); g != nil {
        t.Fatal("expected nil generation without redis")
    }
}

func TestCacheKeyChangesWithGeneration(t *testing.T) {
    e := echo.New()
    c := e.NewContext(httptest.NewRequest(http.MethodGet, "/schedules?conference_id=1", nil), httptest.NewRecorder())
    c.SetPath("/schedules")
    cfg := config.CacheConfig{Prefix: "portal:cache", KeyStrategy: "route_query"}
    if cacheKeyFrom(cfg, 1, c) == cacheKeyFrom(cfg, 2, c) {
        t.Fatal("generation not part of the key")
    }
}

func TestDecodePayloadRoundTrip(t *testing.T) {
    hdr := http.Header{"Content-Type": []string{"application/json"}}
    bs, err := encodePayload(http.StatusOK, hdr, []byte(`[]`))
    if err != nil {
        t.Fatal(err)
    }
    status, got, body, ok := decodePayload(bs)
    if !ok || status != http.StatusOK || got.Get("Content-Type") != "application/json" || string(body) != "[]" {
        t.Fatalf("decoded %d %v %q %v", status, got, body, ok)
    }
    if _, _, _, ok := decodePayload([]byte{1, 2}); ok {
        t.Fatal("short payload decoded")
    }
}
