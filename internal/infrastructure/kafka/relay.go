package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	domoutbox "github.com/Zhima-Mochi/storefront/internal/domain/outbox"
	"github.com/Zhima-Mochi/storefront/internal/observability"
	"github.com/Zhima-Mochi/storefront/internal/observability/logctx"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/trace"
)

const (
	relayPeer    = "kafka"
	headerEvent  = "event"
	headerTrace  = "trace_id"
	writeTimeout = 5 * time.Second
)

// ParseBrokers splits a comma separated broker list, dropping blanks.
func ParseBrokers(csv string) []string {
	brokers := []string{}
	for _, b := range strings.Split(csv, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// NewWriter builds a writer that hashes message keys so an order's events stay on one partition.
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}
}

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Message is the JSON value written for every relayed event.
type Message struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Key        string          `json:"key,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// Relay forwards domain events from the in-process bus to a Kafka topic.
type Relay struct {
	writer MessageWriter
	log    observability.Logger

	extCounter   observability.Counter
	extHistogram observability.Histogram
}

func NewRelay(writer MessageWriter, tel observability.Observability) *Relay {
	log, _, metrics := observability.Resolve(tel)
	return &Relay{
		writer:       writer,
		log:          log.With(observability.F("component", "kafka_relay")),
		extCounter:   metrics.Counter(observability.MExternalRequests),
		extHistogram: metrics.Histogram(observability.MExternalRequestDuration),
	}
}

// Register subscribes the relay to each event name; wrap adapts the handler (for example to
// bind an event-scoped logger).
func (r *Relay) Register(sub domoutbox.Subscriber, wrap func(domoutbox.Handler) domoutbox.Handler, names ...string) {
	h := domoutbox.Handler(r.Forward)
	if wrap != nil {
		h = wrap(h)
	}
	for _, name := range names {
		sub.Subscribe(name, h)
	}
}

func (r *Relay) Forward(ctx context.Context, e domoutbox.Event) error {
	logger := logctx.FromOr(ctx, r.log)

	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("kafka relay: encode %s: %w", e.EventName(), err)
	}
	msg := Message{
		ID:         uuid.NewString(),
		Name:       e.EventName(),
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
	if k, ok := e.(domoutbox.Keyed); ok {
		msg.Key = k.EventKey()
	}
	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("kafka relay: encode envelope: %w", err)
	}

	headers := []kafka.Header{{Key: headerEvent, Value: []byte(msg.Name)}}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		headers = append(headers, kafka.Header{Key: headerTrace, Value: []byte(sc.TraceID().String())})
	}

	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	started := time.Now()
	err = r.writer.WriteMessages(wctx, kafka.Message{
		Key:     []byte(msg.Key),
		Value:   value,
		Headers: headers,
		Time:    msg.OccurredAt,
	})
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	r.extCounter.Add(1,
		observability.L("peer", relayPeer),
		observability.L("endpoint", msg.Name),
		observability.L("outcome", outcome),
	)
	r.extHistogram.Observe(time.Since(started).Seconds(),
		observability.L("peer", relayPeer),
		observability.L("endpoint", msg.Name),
	)
	if err != nil {
		return fmt.Errorf("kafka relay: write %s: %w", msg.Name, err)
	}

	logger.Debug("event_relayed", observability.F("message_id", msg.ID))
	return nil
}

func (r *Relay) Close() error {
	return r.writer.Close()
}
