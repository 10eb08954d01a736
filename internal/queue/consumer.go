package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strings"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/sirupsen/logrus"
)

const maxBackoff = 30 * time.Second

// StartActivityConsumer consumes ActivityQueue and appends one line per
// event to logPath.  It reconnects with exponential backoff and returns
// only when ctx is done.  Messages that cannot be handled are rejected
// without requeue.
func StartActivityConsumer(ctx context.Context, url, logPath string, log *logrus.Logger) error {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(url)
        if err != nil {
            log.WithError(err).WithField("retry_in", backoff).Warn("activity consumer: dial failed")
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < maxBackoff {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = consumeLoop(ctx, conn, logPath, log)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        log.WithError(err).Warn("activity consumer: consume loop ended, reconnecting")
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, logPath string, log *logrus.Logger) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        log.WithError(err).Warn("activity consumer: set QoS failed")
    }
    if err := declareActivityQueue(ch); err != nil {
        return err
    }
    msgs, err := ch.ConsumeWithContext(ctx, ActivityQueue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    log.WithField("queue", ActivityQueue).Info("activity consumer started")
    for d := range msgs {
        if err := handleMessage(d.Body, logPath); err != nil {
            log.WithError(err).Warn("activity consumer: handle message failed")
            _ = d.Nack(false, false)
            continue
        }
        _ = d.Ack(false)
    }
    return errors.New("deliveries channel closed")
}

func handleMessage(body []byte, logPath string) error {
    var ev Event
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.Type == "" {
        return errors.New("event without type")
    }
    if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
        return fmt.Errorf("mkdir %s: %w", filepath.Dir(logPath), err)
    }
    f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    if _, err := f.WriteString(formatLine(ev)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// formatLine renders one human-readable activity line.
func formatLine(ev Event) string {
    var b strings.Builder
    fmt.Fprintf(&b, "[%s] %s", ev.OccurredAt, ev.Type)
    if s := ev.Schedule; s != nil {
        fmt.Fprintf(&b, " | schedule_id=%d | conference_id=%d | speaker_id=%d | hall_id=%d | slot_id=%d | title=%q",
            s.ScheduleID, s.ConferenceID, s.SpeakerID, s.HallID, s.SlotID, s.SessionTitle)
    }
    if f := ev.File; f != nil {
        schedule := "none"
        if f.ScheduleID != nil {
            schedule = fmt.Sprint(*f.ScheduleID)
        }
        fmt.Fprintf(&b, " | file_id=%d | schedule_id=%s | speaker=%s | file=%q | stored=%s/%s | size=%d | status=%s",
            f.FileID, schedule, f.SpeakerCode, f.OriginalName, f.StoredPath, f.StoredFilename, f.FileSize, f.Status)
    }
    b.WriteString("\n")
    return b.String()
}
