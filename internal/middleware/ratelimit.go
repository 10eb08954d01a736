package middleware

import (
    "bytes"
    "context"
    "encoding/json"
    "fmt"
    "io"
    "math"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/conference-portal/internal/config"
)

// Rate-limit key strategies.  Every key is scoped to the route.
const (
    KeyByIP        = "ip"         // client address
    KeyBySpeaker   = "speaker"    // speakerCode in the request, client address when absent
    KeyByIPSpeaker = "ip_speaker" // both
)

// speakerPeekBytes caps how much of a JSON body is read to find the code.
const speakerPeekBytes = 4 << 10

// tokenBucketScript refills continuously at refill/interval tokens per ms
// and takes one token.  Returns {allowed, tokens left, ms until a token}.
var tokenBucketScript = redis.NewScript(`
    local cap      = tonumber(ARGV[1])
    local per_ms   = tonumber(ARGV[2]) / tonumber(ARGV[3])
    local now      = tonumber(ARGV[4])
    local ttl_ms   = tonumber(ARGV[5])

    local have = redis.call('HMGET', KEYS[1], 't', 'at')
    local tokens = tonumber(have[1]) or cap
    local at = tonumber(have[2]) or now
    if now > at then
        tokens = math.min(cap, tokens + (now - at) * per_ms)
    end

    local ok, wait = 0, 0
    if tokens >= 1 then
        ok = 1
        tokens = tokens - 1
    else
        wait = math.ceil((1 - tokens) / per_ms)
    end
    redis.call('HSET', KEYS[1], 't', tostring(tokens), 'at', now)
    redis.call('PEXPIRE', KEYS[1], ttl_ms)
    return {ok, math.floor(tokens), wait}
`)

type bucketResult struct {
    allowed   bool
    remaining int64
    wait      time.Duration
}

// NewTokenBucket limits requests with a Redis token bucket keyed by
// cfg.KeyStrategy.  When Redis fails the request goes through.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, log *logrus.Logger) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := rateKey(cfg, c)
            res, err := takeToken(c.Request().Context(), rdb, cfg, key)
            if err != nil {
                if log != nil {
                    log.WithError(err).WithField("key", key).Warn("rate limit check failed, allowing request")
                }
                return next(c)
            }

            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(res.remaining, 10))
            if cfg.Debug {
                h.Set("X-RateLimit-Key", key)
            }
            if res.allowed {
                return next(c)
            }

            secs := int(math.Ceil(res.wait.Seconds()))
            h.Set("Retry-After", strconv.Itoa(secs))
            rateLimitedTotal.WithLabelValues(c.Path()).Inc()
            return c.JSON(http.StatusTooManyRequests, map[string]any{
                "error":       "rate limit exceeded",
                "retry_after": secs,
            })
        }
    }
}

func takeToken(ctx context.Context, rdb *redis.Client, cfg config.RateLimitConfig, key string) (bucketResult, error) {
    args := []any{
        cfg.Capacity,
        cfg.RefillTokens,
        cfg.RefillInterval.Milliseconds(),
        time.Now().UnixMilli(),
        cfg.TTL.Milliseconds(),
    }
    v, err := tokenBucketScript.Run(ctx, rdb, []string{key}, args...).Result()
    if err != nil {
        return bucketResult{}, err
    }
    res, ok := decodeBucket(v)
    if !ok {
        return bucketResult{}, fmt.Errorf("unexpected token bucket reply %#v", v)
    }
    return res, nil
}

func decodeBucket(v any) (bucketResult, bool) {
    arr, ok := v.([]any)
    if !ok || len(arr) != 3 {
        return bucketResult{}, false
    }
    nums := make([]int64, 3)
    for i, x := range arr {
        n, ok := x.(int64)
        if !ok {
            return bucketResult{}, false
        }
        nums[i] = n
    }
    return bucketResult{
        allowed:   nums[0] == 1,
        remaining: nums[1],
        wait:      time.Duration(nums[2]) * time.Millisecond,
    }, true
}

// rateKey builds prefix:route:<method path>:<strategy parts>.
func rateKey(cfg config.RateLimitConfig, c echo.Context) string {
    parts := []string{cfg.Prefix, "route", c.Request().Method + " " + c.Path()}
    ip := c.RealIP()
    if ip == "" {
        ip = "unknown"
    }
    switch strings.ToLower(cfg.KeyStrategy) {
    case KeyBySpeaker:
        if code := speakerCode(c); code != "" {
            return strings.Join(append(parts, "speaker", code), ":")
        }
        parts = append(parts, "ip", ip)
    case KeyByIPSpeaker:
        code := speakerCode(c)
        if code == "" {
            code = "-"
        }
        parts = append(parts, "ip", ip, "speaker", code)
    default:
        parts = append(parts, "ip", ip)
    }
    return strings.Join(parts, ":")
}

// speakerCode finds the speakerCode a login or upload request carries,
// normalized the way codes are stored.  A JSON body is peeked and put back
// for the handler; form and multipart bodies are parsed once and reused.
func speakerCode(c echo.Context) string {
    req := c.Request()
    var code string
    if strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
        code = peekJSONCode(req)
    } else {
        code = c.FormValue("speakerCode")
    }
    return strings.ToUpper(strings.TrimSpace(code))
}

func peekJSONCode(req *http.Request) string {
    if req.Body == nil {
        return ""
    }
    head, err := io.ReadAll(io.LimitReader(req.Body, speakerPeekBytes))
    req.Body = struct {
        io.Reader
        io.Closer
    }{io.MultiReader(bytes.NewReader(head), req.Body), req.Body}
    if err != nil {
        return ""
    }
    var body struct {
        SpeakerCode string `json:"speakerCode"`
    }
    if json.Unmarshal(head, &body) != nil {
        return ""
    }
    return body.SpeakerCode
}
