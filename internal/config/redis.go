package config

// Redis backs the upload/login rate limiter, the schedule response cache and
// the cross-instance file processing lock.  When the server cannot be
// reached at startup the constructor returns nil and callers degrade by
// disabling those features.

import (
    "context"
    "crypto/tls"
    "time"

    "github.com/redis/go-redis/v9"
)

// RedisConfig holds connection settings read from REDIS_* variables.
type RedisConfig struct {
    Addr     string
    Password string
    DB       int
    TLS      bool
}

// LoadRedisConfig reads REDIS_HOST/REDIS_PORT (which take precedence over
// REDIS_ADDR), REDIS_PASSWORD, REDIS_DB and REDIS_TLS.
func LoadRedisConfig() RedisConfig {
    v := newEnv()
    v.SetDefault("REDIS_HOST", "")
    v.SetDefault("REDIS_PORT", "")
    v.SetDefault("REDIS_ADDR", "localhost:6379")
    v.SetDefault("REDIS_PASSWORD", "")
    v.SetDefault("REDIS_DB", 0)
    v.SetDefault("REDIS_TLS", false)

    addr := v.GetString("REDIS_ADDR")
    if host, port := v.GetString("REDIS_HOST"), v.GetString("REDIS_PORT"); host != "" && port != "" {
        addr = host + ":" + port
    }
    return RedisConfig{
        Addr:     addr,
        Password: v.GetString("REDIS_PASSWORD"),
        DB:       v.GetInt("REDIS_DB"),
        TLS:      v.GetBool("REDIS_TLS"),
    }
}

// NewRedisClient connects with the given settings.  The returned client is
// nil if the server does not answer a ping within two seconds.
func NewRedisClient(rc RedisConfig) *redis.Client {
    var tlsConf *tls.Config
    if rc.TLS {
        tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
    }
    client := redis.NewClient(&redis.Options{
        Addr:      rc.Addr,
        Password:  rc.Password,
        DB:        rc.DB,
        TLSConfig: tlsConf,
    })
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        _ = client.Close()
        return nil
    }
    return client
}
