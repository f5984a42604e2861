package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// Booking lifecycle event types. These are audit/notification fan-out only:
// publishing is best-effort and never gates or rolls back the operation that
// produced the event.
const (
	BookingCreated     = "BookingCreated"
	BookingConfirmed   = "BookingConfirmed"
	BookingCheckedIn   = "BookingCheckedIn"
	BookingCheckedOut  = "BookingCheckedOut"
	BookingRescheduled = "BookingRescheduled"
	BookingExtended    = "BookingExtended"
	BookingCancelled   = "BookingCancelled"
	PaymentRecorded    = "PaymentRecorded"
)

type Envelope struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"` // RFC3339
	Producer   string          `json:"producer"`
	Payload    json.RawMessage `json:"payload"`
}

type Publisher struct {
	w     *kafka.Writer
	inbox chan kafka.Message
	done  chan struct{}
}

var defaultPublisher *Publisher

// Setup wires the package-level publisher. With no brokers configured the
// publisher stays nil and Publish becomes a no-op.
func Setup(brokers []string, topic string) {
	if len(brokers) == 0 || topic == "" {
		logrus.Info("event publishing disabled (no kafka brokers configured)")
		return
	}
	defaultPublisher = NewPublisher(brokers, topic, 256)
	defaultPublisher.Start()
}

func NewPublisher(brokers []string, topic string, buf int) *Publisher {
	return &Publisher{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
		inbox: make(chan kafka.Message, buf),
		done:  make(chan struct{}),
	}
}

func (p *Publisher) Start() {
	go func() {
		defer close(p.done)
		for m := range p.inbox {
			if err := p.w.WriteMessages(context.Background(), m); err != nil {
				logrus.WithError(err).Warn("event publish failed")
			}
		}
		_ = p.w.Close()
	}()
}

func (p *Publisher) publish(key string, eventType string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		logrus.WithError(err).WithField("event", eventType).Warn("event payload marshal failed")
		return
	}
	env := Envelope{
		EventID:    uuid.NewString(),
		EventType:  eventType,
		OccurredAt: time.Now().UTC(),
		Producer:   "vermietung-backend",
		Payload:    raw,
	}
	value, err := json.Marshal(env)
	if err != nil {
		logrus.WithError(err).WithField("event", eventType).Warn("event envelope marshal failed")
		return
	}
	select {
	case p.inbox <- kafka.Message{Key: []byte(key), Value: value, Time: time.Now()}:
	default:
		// Full inbox: drop rather than block the request path.
		logrus.WithField("event", eventType).Warn("event dropped, publish buffer full")
	}
}

func (p *Publisher) Close() {
	close(p.inbox)
	<-p.done
}

// Publish sends a booking lifecycle event keyed by id, fire-and-forget.
func Publish(key string, eventType string, payload any) {
	if defaultPublisher == nil {
		return
	}
	defaultPublisher.publish(key, eventType, payload)
}

// Close flushes and stops the package-level publisher.
func Close() {
	if defaultPublisher != nil {
		defaultPublisher.Close()
	}
}
