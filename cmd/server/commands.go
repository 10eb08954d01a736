package main

import (
    "context"
    "errors"
    "fmt"

    "github.com/spf13/cobra"

    "github.com/iliyamo/conference-portal/internal/config"
    "github.com/iliyamo/conference-portal/internal/database"
    "github.com/iliyamo/conference-portal/internal/logging"
    "github.com/iliyamo/conference-portal/internal/queue"
)

func migrateCmd() *cobra.Command {
    return &cobra.Command{
        Use:   "migrate",
        Short: "Apply database migrations and exit",
        RunE: func(*cobra.Command, []string) error {
            cfg, err := config.Load()
            if err != nil {
                return err
            }
            db, err := database.Setup(cfg.DB, logging.New(cfg.LogLevel, cfg.LogFormat))
            if err != nil {
                return err
            }
            return db.Close()
        },
    }
}

func processCmd() *cobra.Command {
    return &cobra.Command{
        Use:   "process",
        Short: "Process pending uploads once and exit",
        RunE: func(cmd *cobra.Command, _ []string) error {
            a, err := newApp()
            if err != nil {
                return err
            }
            defer a.close()
            sum, err := a.lifecycle.ProcessPending(cmd.Context())
            if err != nil {
                return err
            }
            fmt.Fprintf(cmd.OutOrStdout(), "scanned=%d processed=%d failed=%d skipped=%d duration=%s\n",
                sum.Scanned, sum.Processed, sum.Failed, sum.Skipped, sum.Duration)
            return nil
        },
    }
}

func consumeCmd() *cobra.Command {
    return &cobra.Command{
        Use:   "consume",
        Short: "Run the activity-log consumer in the foreground",
        RunE: func(cmd *cobra.Command, _ []string) error {
            cfg, err := config.Load()
            if err != nil {
                return err
            }
            if cfg.AMQPURL == "" {
                return errors.New("RABBITMQ_URL is not set")
            }
            log := logging.New(cfg.LogLevel, cfg.LogFormat)
            err = queue.StartActivityConsumer(cmd.Context(), cfg.AMQPURL, cfg.ActivityLog, log)
            if errors.Is(err, context.Canceled) {
                return nil
            }
            return err
        },
    }
}
