package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type EventType string

const (
	EventQuestionsImported EventType = "questions.imported"
	EventAnswerSubmitted   EventType = "answer.submitted"
	EventExamAutoGraded    EventType = "exam.auto_graded"
	EventStudentGraded     EventType = "student.graded"
)

const (
	eventSource  = "exam-service"
	eventVersion = "1.0"

	DefaultTopic = "exam-service.events"
)

type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

func NewEvent(eventType EventType, data map[string]interface{}) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    eventSource,
		Version:   eventVersion,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// EventPublisher is fire-and-forget from the caller's point of view: services log
// publish errors and carry on.
type EventPublisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}

type Config struct {
	Brokers []string
	Topic   string
}

// NewPublisher publishes to Kafka when brokers are configured and to an in-process
// channel otherwise.
func NewPublisher(cfg Config, logger *slog.Logger) (*WatermillPublisher, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	var (
		pub message.Publisher
		err error
	)
	if len(cfg.Brokers) > 0 {
		pub, err = kafka.NewPublisher(kafka.PublisherConfig{
			Brokers:   cfg.Brokers,
			Marshaler: kafka.DefaultMarshaler{},
		}, wmLogger)
		if err != nil {
			return nil, fmt.Errorf("create kafka publisher: %w", err)
		}
	} else {
		pub = gochannel.NewGoChannel(gochannel.Config{}, wmLogger)
	}

	return NewWatermillPublisher(pub, cfg.Topic, logger), nil
}

type WatermillPublisher struct {
	publisher message.Publisher
	topic     string
	logger    *slog.Logger
}

func NewWatermillPublisher(pub message.Publisher, topic string, logger *slog.Logger) *WatermillPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &WatermillPublisher{publisher: pub, topic: topic, logger: logger}
}

func (p *WatermillPublisher) Publish(ctx context.Context, event *Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.Metadata.Set("event_type", string(event.Type))
	msg.SetContext(ctx)

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}

	p.logger.Debug("Event published", "event_id", event.ID, "event_type", event.Type, "topic", p.topic)
	return nil
}

func (p *WatermillPublisher) Close() error {
	return p.publisher.Close()
}

// MockEventPublisher records events in memory.
type MockEventPublisher struct {
	mu     sync.Mutex
	events []*Event
	logger *slog.Logger
}

func NewMockEventPublisher(logger *slog.Logger) *MockEventPublisher {
	return &MockEventPublisher{logger: logger}
}

func (m *MockEventPublisher) Publish(ctx context.Context, event *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *MockEventPublisher) Close() error { return nil }

func (m *MockEventPublisher) GetPublishedEvents() []*Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Event, len(m.events))
	copy(out, m.events)
	return out
}

func (m *MockEventPublisher) ClearEvents() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
}
