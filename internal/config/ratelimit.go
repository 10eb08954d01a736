package config

import "time"

// RateLimitConfig parameterises the Redis token bucket guarding speaker
// login and presentation uploads.
type RateLimitConfig struct {
    Enabled        bool
    Capacity       int
    RefillTokens   int
    RefillInterval time.Duration
    TTL            time.Duration
    KeyStrategy    string // ip, speaker or ip_speaker
    Prefix         string
    Debug          bool
}

// LoadRateLimitConfig reads the bucket guarding logins.
func LoadRateLimitConfig() RateLimitConfig {
    v := newEnv()
    v.SetDefault("RATE_LIMIT_ENABLED", true)
    v.SetDefault("RATE_LIMIT_CAPACITY", 20)
    v.SetDefault("RATE_LIMIT_REFILL_TOKENS", 1)
    v.SetDefault("RATE_LIMIT_REFILL_INTERVAL", 3*time.Second)
    v.SetDefault("RATE_LIMIT_TTL", 10*time.Minute)
    v.SetDefault("RATE_LIMIT_KEY_STRATEGY", "ip")
    v.SetDefault("RATE_LIMIT_PREFIX", "portal:rl")
    v.SetDefault("RATE_LIMIT_DEBUG", false)
    v.SetDefault("RATE_LIMIT_BURST", -1)
    v.SetDefault("RATE_LIMIT_REFILL_EVERY", time.Duration(0))

    def := RateLimitConfig{
        Enabled:        v.GetBool("RATE_LIMIT_ENABLED"),
        Capacity:       v.GetInt("RATE_LIMIT_CAPACITY"),
        RefillTokens:   v.GetInt("RATE_LIMIT_REFILL_TOKENS"),
        RefillInterval: v.GetDuration("RATE_LIMIT_REFILL_INTERVAL"),
        TTL:            v.GetDuration("RATE_LIMIT_TTL"),
        KeyStrategy:    v.GetString("RATE_LIMIT_KEY_STRATEGY"),
        Prefix:         v.GetString("RATE_LIMIT_PREFIX"),
        Debug:          v.GetBool("RATE_LIMIT_DEBUG"),
    }
    if b := v.GetInt("RATE_LIMIT_BURST"); b > 0 { def.Capacity = b }
    if every := v.GetDuration("RATE_LIMIT_REFILL_EVERY"); every > 0 {
        def.RefillTokens = 1
        def.RefillInterval = every
    }
    if def.Capacity < 1 { def.Capacity = 1 }
    if def.RefillTokens < 1 { def.RefillTokens = 1 }
    if def.RefillInterval <= 0 { def.RefillInterval = time.Second }
    minTTL := 5 * def.RefillInterval
    if def.TTL < minTTL { def.TTL = minTTL }
    return def
}

// LoadUploadRateLimitConfig reads the bucket guarding presentation uploads.
// It shares the login settings but keys by speaker code unless
// RATE_LIMIT_UPLOAD_KEY_STRATEGY says otherwise.
func LoadUploadRateLimitConfig() RateLimitConfig {
    cfg := LoadRateLimitConfig()
    v := newEnv()
    v.SetDefault("RATE_LIMIT_UPLOAD_KEY_STRATEGY", "speaker")
    cfg.KeyStrategy = v.GetString("RATE_LIMIT_UPLOAD_KEY_STRATEGY")
    return cfg
}
