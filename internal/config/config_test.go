package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_SQLiteDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("UPLOAD_MAX_BYTES", "")
	t.Setenv("DB_MAX_OPEN_CONNS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DB.Driver != "sqlite" {
		t.Errorf("Driver = %q, want sqlite", cfg.DB.Driver)
	}
	if cfg.DB.SQLitePath != "data/portal.db" {
		t.Errorf("SQLitePath = %q", cfg.DB.SQLitePath)
	}
	if cfg.DB.MaxOpenConns != 10 {
		t.Errorf("MaxOpenConns = %d, want 10", cfg.DB.MaxOpenConns)
	}
	if cfg.Upload.MaxBytes != 50*1024*1024 {
		t.Errorf("MaxBytes = %d, want 50MB", cfg.Upload.MaxBytes)
	}
	if cfg.Upload.Dir != "uploads" {
		t.Errorf("Upload.Dir = %q, want uploads", cfg.Upload.Dir)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_DRIVER", "SQLITE")
	t.Setenv("SQLITE_PATH", "/tmp/x.db")
	t.Setenv("PROCESS_STARTUP_DELAY", "250ms")
	t.Setenv("UPLOAD_REMOVE_STAGING", "false")
	t.Setenv("DEFAULT_CONFERENCE_ID", "7")
	t.Setenv("AMQP_URL", "amqp://broker/")
	t.Setenv("RABBITMQ_URL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DB.Driver != "sqlite" || cfg.DB.SQLitePath != "/tmp/x.db" {
		t.Errorf("DB = %+v", cfg.DB)
	}
	if cfg.Upload.StartupDelay != 250*time.Millisecond {
		t.Errorf("StartupDelay = %v", cfg.Upload.StartupDelay)
	}
	if cfg.Upload.RemoveStaging {
		t.Error("RemoveStaging should be false")
	}
	if cfg.DefaultConferenceID != 7 {
		t.Errorf("DefaultConferenceID = %d", cfg.DefaultConferenceID)
	}
	if cfg.AMQPURL != "amqp://broker/" {
		t.Errorf("AMQPURL = %q", cfg.AMQPURL)
	}
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_DRIVER", "sqlite")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Fatalf("expected JWT_SECRET error, got %v", err)
	}
}

func TestLoad_MySQLRequiresConnectionSettings(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("DB_USER", "portal")
	t.Setenv("DB_HOST", "")
	t.Setenv("DB_NAME", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, key := range []string{"DB_HOST", "DB_NAME"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error %q does not mention %s", err, key)
		}
	}
}

func TestLoad_UnknownDriver(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_DRIVER", "oracle")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestLoadRateLimitConfig_RefillEvery(t *testing.T) {
	t.Setenv("RATE_LIMIT_REFILL_EVERY", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	t.Setenv("RATE_LIMIT_BURST", "5")

	rl := LoadRateLimitConfig()
	if rl.RefillTokens != 1 || rl.RefillInterval != 2*time.Second {
		t.Errorf("refill = %d per %v", rl.RefillTokens, rl.RefillInterval)
	}
	if rl.Capacity != 5 {
		t.Errorf("Capacity = %d, want 5", rl.Capacity)
	}
	if rl.TTL != 10*time.Second {
		t.Errorf("TTL = %v, want 10s", rl.TTL)
	}
}

func TestLoadCacheConfig(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	t.Setenv("CACHE_PREFIX", "pc")

	cc := LoadCacheConfig()
	if !cc.Methods["GET"] || !cc.Methods["HEAD"] || cc.Methods["POST"] {
		t.Errorf("Methods = %v", cc.Methods)
	}
	if cc.GenerationKey() != "pc:gen" {
		t.Errorf("GenerationKey = %q", cc.GenerationKey())
	}
}

func TestLoadRedisConfig_HostPortWins(t *testing.T) {
	t.Setenv("REDIS_ADDR", "ignored:1")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")

	if got := LoadRedisConfig().Addr; got != "cache:6380" {
		t.Errorf("Addr = %q", got)
	}
}

func TestRateLimitKeyStrategies(t *testing.T) {
	t.Setenv("RATE_LIMIT_KEY_STRATEGY", "")
	t.Setenv("RATE_LIMIT_UPLOAD_KEY_STRATEGY", "")
	if got := LoadRateLimitConfig().KeyStrategy; got != "ip" {
		t.Errorf("login strategy = %q, want ip", got)
	}
	if got := LoadUploadRateLimitConfig().KeyStrategy; got != "speaker" {
		t.Errorf("upload strategy = %q, want speaker", got)
	}

	t.Setenv("RATE_LIMIT_UPLOAD_KEY_STRATEGY", "ip_speaker")
	t.Setenv("RATE_LIMIT_CAPACITY", "5")
	up := LoadUploadRateLimitConfig()
	if up.KeyStrategy != "ip_speaker" || up.Capacity != 5 {
		t.Errorf("upload cfg = %+v", up)
	}
}
