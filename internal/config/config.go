package config // package config loads application configuration from the environment and an optional .env file

import (
    "errors"
    "fmt"
    "strings"
    "time"

    "github.com/joho/godotenv"
    "github.com/spf13/viper"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable; defaults are registered in newEnv.
type Config struct {
    Env       string // application environment (dev, test, prod)
    Port      string // HTTP port to listen on
    LogLevel  string // logrus level name
    LogFormat string // "text" or "json"

    DB DBConfig

    JWTSecret         string // secret used to sign admin JWTs
    AccessTTLMin      int    // admin token time-to-live in minutes
    BcryptCost        int    // bcrypt cost used when hashing ADMIN_PASSWORD at startup
    AdminUsername     string
    AdminPassword     string // plain password, hashed once at startup when no hash is given
    AdminPasswordHash string

    DefaultConferenceID uint64 // used by catalog listings when conference_id is omitted

    Upload UploadConfig

    AMQPURL       string // empty disables event publishing
    ActivityLog   string // file the activity consumer appends to
    ConsumeEvents bool   // start the activity-log consumer inside the server process
}

// DBConfig selects and parameterises the SQL backend.
type DBConfig struct {
    Driver       string // "mysql" or "sqlite"
    User         string
    Pass         string
    Host         string
    Port         string
    Name         string
    SQLitePath   string
    MaxOpenConns int
}

// UploadConfig controls presentation uploads and the file lifecycle.
type UploadConfig struct {
    Dir             string        // canonical root, stored_path starts with it
    StagingDir      string        // where accepted uploads wait for processing
    MaxBytes        int64         // per-file limit
    RemoveStaging   bool          // delete the staged copy after a verified copy
    ProcessOnUpload bool          // kick the lifecycle manager after each upload
    StartupDelay    time.Duration // delay before the startup processing run
    LockTTL         time.Duration // TTL of the distributed processing lock, renewed after each row
}

// Load reads .env (when present) and the process environment and returns
// a validated Config.
func Load() (Config, error) {
    _ = godotenv.Load() // .env is optional

    v := newEnv()
    cfg := Config{
        Env:       v.GetString("APP_ENV"),
        Port:      v.GetString("APP_PORT"),
        LogLevel:  v.GetString("LOG_LEVEL"),
        LogFormat: v.GetString("LOG_FORMAT"),
        DB: DBConfig{
            Driver:       strings.ToLower(v.GetString("DB_DRIVER")),
            User:         v.GetString("DB_USER"),
            Pass:         v.GetString("DB_PASS"),
            Host:         v.GetString("DB_HOST"),
            Port:         v.GetString("DB_PORT"),
            Name:         v.GetString("DB_NAME"),
            SQLitePath:   v.GetString("SQLITE_PATH"),
            MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
        },
        JWTSecret:           v.GetString("JWT_SECRET"),
        AccessTTLMin:        v.GetInt("ACCESS_TOKEN_TTL_MIN"),
        BcryptCost:          v.GetInt("BCRYPT_COST"),
        AdminUsername:       v.GetString("ADMIN_USERNAME"),
        AdminPassword:       v.GetString("ADMIN_PASSWORD"),
        AdminPasswordHash:   v.GetString("ADMIN_PASSWORD_HASH"),
        DefaultConferenceID: v.GetUint64("DEFAULT_CONFERENCE_ID"),
        Upload: UploadConfig{
            Dir:             v.GetString("UPLOAD_DIR"),
            StagingDir:      v.GetString("UPLOAD_STAGING_DIR"),
            MaxBytes:        v.GetInt64("UPLOAD_MAX_BYTES"),
            RemoveStaging:   v.GetBool("UPLOAD_REMOVE_STAGING"),
            ProcessOnUpload: v.GetBool("PROCESS_ON_UPLOAD"),
            StartupDelay:    v.GetDuration("PROCESS_STARTUP_DELAY"),
            LockTTL:         v.GetDuration("PROCESS_LOCK_TTL"),
        },
        AMQPURL:       firstNonEmpty(v.GetString("RABBITMQ_URL"), v.GetString("AMQP_URL")),
        ActivityLog:   v.GetString("ACTIVITY_LOG"),
        ConsumeEvents: v.GetBool("CONSUME_EVENTS"),
    }
    if err := cfg.validate(); err != nil {
        return Config{}, err
    }
    return cfg, nil
}

func (c Config) validate() error {
    var errs []error
    if c.JWTSecret == "" {
        errs = append(errs, errors.New("missing required env var: JWT_SECRET"))
    }
    switch c.DB.Driver {
    case "mysql":
        for key, val := range map[string]string{"DB_USER": c.DB.User, "DB_HOST": c.DB.Host, "DB_PORT": c.DB.Port, "DB_NAME": c.DB.Name} {
            if val == "" {
                errs = append(errs, fmt.Errorf("missing required env var: %s", key))
            }
        }
    case "sqlite":
        if c.DB.SQLitePath == "" {
            errs = append(errs, errors.New("missing required env var: SQLITE_PATH"))
        }
    default:
        errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver))
    }
    if c.DB.MaxOpenConns < 1 {
        errs = append(errs, fmt.Errorf("DB_MAX_OPEN_CONNS must be positive, got %d", c.DB.MaxOpenConns))
    }
    if c.Upload.MaxBytes <= 0 {
        errs = append(errs, fmt.Errorf("UPLOAD_MAX_BYTES must be positive, got %d", c.Upload.MaxBytes))
    }
    if c.Upload.Dir == "" || c.Upload.StagingDir == "" {
        errs = append(errs, errors.New("UPLOAD_DIR and UPLOAD_STAGING_DIR must not be empty"))
    }
    return errors.Join(errs...)
}

// newEnv returns a viper instance bound to the process environment with
// every default the service knows about.
func newEnv() *viper.Viper {
    v := viper.New()
    v.AutomaticEnv()
    v.SetTypeByDefaultValue(true)

    v.SetDefault("APP_ENV", "dev")
    v.SetDefault("APP_PORT", "8080")
    v.SetDefault("LOG_LEVEL", "info")
    v.SetDefault("LOG_FORMAT", "text")

    v.SetDefault("DB_DRIVER", "mysql")
    v.SetDefault("DB_USER", "")
    v.SetDefault("DB_PASS", "")
    v.SetDefault("DB_HOST", "")
    v.SetDefault("DB_PORT", "3306")
    v.SetDefault("DB_NAME", "")
    v.SetDefault("SQLITE_PATH", "data/portal.db")
    v.SetDefault("DB_MAX_OPEN_CONNS", 10)

    v.SetDefault("JWT_SECRET", "")
    v.SetDefault("ACCESS_TOKEN_TTL_MIN", 60)
    v.SetDefault("BCRYPT_COST", 10)
    v.SetDefault("ADMIN_USERNAME", "admin")
    v.SetDefault("ADMIN_PASSWORD", "")
    v.SetDefault("ADMIN_PASSWORD_HASH", "")
    v.SetDefault("DEFAULT_CONFERENCE_ID", uint64(0))

    v.SetDefault("UPLOAD_DIR", "uploads")
    v.SetDefault("UPLOAD_STAGING_DIR", "uploads/.staging")
    v.SetDefault("UPLOAD_MAX_BYTES", int64(50*1024*1024))
    v.SetDefault("UPLOAD_REMOVE_STAGING", true)
    v.SetDefault("PROCESS_ON_UPLOAD", true)
    v.SetDefault("PROCESS_STARTUP_DELAY", 5*time.Second)
    v.SetDefault("PROCESS_LOCK_TTL", 2*time.Minute)

    v.SetDefault("RABBITMQ_URL", "")
    v.SetDefault("AMQP_URL", "")
    v.SetDefault("ACTIVITY_LOG", "logs/activity.log")
    v.SetDefault("CONSUME_EVENTS", false)
    return v
}

func firstNonEmpty(vals ...string) string {
    for _, s := range vals {
        if s != "" {
            return s
        }
    }
    return ""
}
