package queue

import (
    "context"
    "encoding/json"
    "fmt"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/sirupsen/logrus"
)

const defaultDialTimeout = 30 * time.Second

// Publisher sends events to the activity queue.  It dials per publish, so
// a broker that is down only costs the event, never the request.
type Publisher struct {
    url string
    log *logrus.Logger
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string, log *logrus.Logger) *Publisher {
    return &Publisher{url: url, log: log}
}

// Publish marshals ev and publishes it as a persistent message to
// ActivityQueue through the default exchange.
func (p *Publisher) Publish(ctx context.Context, ev Event) error {
    body, err := json.Marshal(ev)
    if err != nil {
        return fmt.Errorf("marshal event: %w", err)
    }

    conn, err := amqp.DialConfig(p.url, amqp.Config{
        Heartbeat: 10 * time.Second,
        Locale:    "en_US",
        Dial:      amqp.DefaultDial(dialTimeout(ctx)),
    })
    if err != nil {
        return fmt.Errorf("rabbitmq dial: %w", err)
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("rabbitmq channel: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := declareActivityQueue(ch); err != nil {
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Type:         ev.Type,
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", ActivityQueue, false, false, pub); err != nil {
        return fmt.Errorf("rabbitmq publish: %w", err)
    }
    p.log.WithField("event", ev.Type).Debug("event published")
    return nil
}

// dialTimeout is the time left until ctx's deadline, or defaultDialTimeout
// when it has none.
func dialTimeout(ctx context.Context) time.Duration {
    deadline, ok := ctx.Deadline()
    if !ok {
        return defaultDialTimeout
    }
    if left := time.Until(deadline); left > 0 {
        return left
    }
    return time.Millisecond
}

func declareActivityQueue(ch *amqp.Channel) error {
    if _, err := ch.QueueDeclare(
        ActivityQueue,
        true,  // durable
        false, // autoDelete
        false, // exclusive
        false, // noWait
        nil,
    ); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    return nil
}
