package main

import (
    "context"
    "errors"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"
    "github.com/sirupsen/logrus"
    "github.com/spf13/cobra"

    "github.com/iliyamo/conference-portal/internal/config"
    "github.com/iliyamo/conference-portal/internal/handler"
    "github.com/iliyamo/conference-portal/internal/middleware"
    "github.com/iliyamo/conference-portal/internal/queue"
    "github.com/iliyamo/conference-portal/internal/router"
    "github.com/iliyamo/conference-portal/internal/utils"
)

func serveCmd() *cobra.Command {
    return &cobra.Command{
        Use:   "serve",
        Short: "Run the HTTP API and the background file processor",
        RunE: func(cmd *cobra.Command, _ []string) error {
            a, err := newApp()
            if err != nil {
                return err
            }
            defer a.close()
            return a.serve(cmd.Context())
        },
    }
}

func (a *app) serve(parent context.Context) error {
    ctx, cancel := context.WithCancel(parent)
    defer cancel()

    hash, err := a.adminPasswordHash()
    if err != nil {
        return err
    }

    e := echo.New()
    e.HideBanner = true
    e.Validator = handler.NewValidator()
    e.Use(echomw.Recover())
    e.Use(echomw.RequestID())
    e.Use(middleware.RequestLogger(a.log))
    e.Use(middleware.Metrics())

    router.Register(e, router.Handlers{
        Schedules: &handler.ScheduleHandler{Scheduler: a.scheduler, Log: a.log, DefaultConferenceID: a.cfg.DefaultConferenceID},
        Catalog:   &handler.CatalogHandler{Catalog: a.catalog, Log: a.log, DefaultConferenceID: a.cfg.DefaultConferenceID},
        Uploads:   &handler.UploadHandler{Uploads: a.uploads, Log: a.log},
        Files:     &handler.FileHandler{Lifecycle: a.lifecycle, Log: a.log},
        Auth: &handler.AuthHandler{
            Username:     a.cfg.AdminUsername,
            PasswordHash: hash,
            Secret:       a.cfg.JWTSecret,
            TTLMin:       a.cfg.AccessTTLMin,
            Log:          a.log,
        },
        Ready:          handler.Ready(a.db),
        JWTSecret:      a.cfg.JWTSecret,
        UploadMaxBytes: a.cfg.Upload.MaxBytes,
        Cache:          middleware.NewRedisCache(a.cache, a.rdb),
        RateLimit:      middleware.NewTokenBucket(config.LoadRateLimitConfig(), a.rdb, a.log),
        UploadLimit:    middleware.NewTokenBucket(config.LoadUploadRateLimitConfig(), a.rdb, a.log),
    })

    go a.lifecycle.Start(ctx)
    if a.cfg.ConsumeEvents && a.cfg.AMQPURL != "" {
        go func() {
            if err := queue.StartActivityConsumer(ctx, a.cfg.AMQPURL, a.cfg.ActivityLog, a.log); err != nil && !errors.Is(err, context.Canceled) {
                a.log.WithError(err).Error("activity consumer stopped")
            }
        }()
    }

    errc := make(chan error, 1)
    go func() {
        a.log.WithFields(logrus.Fields{"port": a.cfg.Port, "env": a.cfg.Env, "db": a.cfg.DB.Driver}).Info("listening")
        if err := e.Start(":" + a.cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
            errc <- err
        }
        close(errc)
    }()

    select {
    case err := <-errc:
        return err
    case <-ctx.Done():
    }
    a.log.Info("shutting down")
    shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    return e.Shutdown(shutdownCtx)
}

// adminPasswordHash prefers ADMIN_PASSWORD_HASH and otherwise hashes
// ADMIN_PASSWORD once.  Neither set disables admin login.
func (a *app) adminPasswordHash() (string, error) {
    if a.cfg.AdminPasswordHash != "" {
        return a.cfg.AdminPasswordHash, nil
    }
    if a.cfg.AdminPassword == "" {
        a.log.Warn("ADMIN_PASSWORD not set: admin login disabled")
        return "", nil
    }
    return utils.HashPassword(a.cfg.AdminPassword, a.cfg.BcryptCost)
}
