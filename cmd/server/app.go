package main

import (
    "database/sql"
    "fmt"
    "time"

    "github.com/redis/go-redis/v9"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/conference-portal/internal/config"
    "github.com/iliyamo/conference-portal/internal/database"
    "github.com/iliyamo/conference-portal/internal/logging"
    "github.com/iliyamo/conference-portal/internal/middleware"
    "github.com/iliyamo/conference-portal/internal/queue"
    "github.com/iliyamo/conference-portal/internal/repository"
    "github.com/iliyamo/conference-portal/internal/service"
    "github.com/iliyamo/conference-portal/internal/storage"
)

const (
    speakerCacheSize = 1024
    speakerCacheTTL  = 5 * time.Minute
    processLockKey   = "portal:lock:process"
)

// app holds the wired dependencies shared by the commands.
type app struct {
    cfg   config.Config
    log   *logrus.Logger
    db    *sql.DB
    rdb   *redis.Client
    cache config.CacheConfig

    store     *repository.Store
    scheduler *service.Scheduler
    catalog   *service.Catalog
    uploads   *service.UploadResolver
    lifecycle *service.FileLifecycle
}

func newApp() (*app, error) {
    cfg, err := config.Load()
    if err != nil {
        return nil, fmt.Errorf("load config: %w", err)
    }
    log := logging.New(cfg.LogLevel, cfg.LogFormat)

    db, err := database.Setup(cfg.DB, log)
    if err != nil {
        return nil, err
    }

    a := &app{cfg: cfg, log: log, db: db, cache: config.LoadCacheConfig()}
    a.rdb = config.NewRedisClient(config.LoadRedisConfig())
    if a.rdb == nil {
        log.Warn("redis unavailable: rate limiting, response cache and the cross-instance processing lock are disabled")
    }

    var events service.EventPublisher = service.NopPublisher{}
    if cfg.AMQPURL != "" {
        events = queue.NewPublisher(cfg.AMQPURL, log)
    }
    var invalidator service.CacheInvalidator
    if gen := middleware.NewCacheGeneration(a.cache, a.rdb); gen != nil {
        invalidator = gen
    }

    files, err := storage.New(cfg.Upload.StagingDir)
    if err != nil {
        db.Close()
        return nil, err
    }

    lopts := service.LifecycleOptions{RemoveStaging: cfg.Upload.RemoveStaging, StartupDelay: cfg.Upload.StartupDelay}
    if a.rdb != nil {
        lopts.Locker = service.NewRedisLocker(a.rdb, processLockKey, cfg.Upload.LockTTL)
    }

    a.store = repository.NewStore(db)
    speakers := service.NewSpeakerDirectory(a.store.Speakers, speakerCacheSize, speakerCacheTTL)
    a.lifecycle = service.NewFileLifecycle(a.store.Files, lopts, events, log)
    a.scheduler = service.NewScheduler(a.store, events, invalidator, log)
    a.catalog = service.NewCatalog(a.store, speakers, invalidator, log)

    uopts := service.UploadOptions{UploadDir: cfg.Upload.Dir, MaxBytes: cfg.Upload.MaxBytes}
    if cfg.Upload.ProcessOnUpload {
        uopts.Kicker = a.lifecycle
    }
    a.uploads = service.NewUploadResolver(a.store, speakers, files, uopts, events, log)
    return a, nil
}

func (a *app) close() {
    if a.rdb != nil {
        _ = a.rdb.Close()
    }
    _ = a.db.Close()
}
