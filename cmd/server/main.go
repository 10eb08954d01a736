// Command server runs the conference portal: the HTTP API, the staged file
// processor and, optionally, the activity-log consumer.
package main

import (
    "context"
    "fmt"
    "os"
    "os/signal"
    "syscall"

    "github.com/spf13/cobra"
)

func main() {
    root := &cobra.Command{
        Use:           "portal",
        Short:         "Conference schedule and presentation upload service",
        SilenceUsage:  true,
        SilenceErrors: true,
    }
    serve := serveCmd()
    root.RunE = serve.RunE
    root.AddCommand(serve, migrateCmd(), processCmd(), consumeCmd())

    ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
    defer stop()
    if err := root.ExecuteContext(ctx); err != nil {
        stop()
        fmt.Fprintln(os.Stderr, "error:", err)
        os.Exit(1)
    }
}
