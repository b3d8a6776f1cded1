package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/opensource-finance/harrier/internal/domain"
	"github.com/segmentio/kafka-go"
)

// KafkaBus implements EventBus using Kafka. Suited to deployments where
// screening events feed other consumers and need replay.
type KafkaBus struct {
	mu      sync.Mutex
	brokers []string
	groupID string
	writers map[string]*kafka.Writer
	subs    map[string]*kafkaSubscription
	closed  bool
}

type kafkaSubscription struct {
	id     string
	topic  string
	reader *kafka.Reader
	cancel context.CancelFunc
	done   chan struct{}
}

// NewKafkaBus creates a Kafka-backed event bus. Writers are created lazily
// per topic on first publish.
func NewKafkaBus(cfg domain.EventBusConfig) (*KafkaBus, error) {
	if len(cfg.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}
	groupID := cfg.KafkaGroupID
	if groupID == "" {
		groupID = "harrier"
	}
	return &KafkaBus{
		brokers: cfg.KafkaBrokers,
		groupID: groupID,
		writers: make(map[string]*kafka.Writer),
		subs:    make(map[string]*kafkaSubscription),
	}, nil
}

// Publish sends a message envelope to a Kafka topic.
func (b *KafkaBus) Publish(ctx context.Context, topic string, payload []byte) error {
	msg := &domain.Message{
		ID:        uuid.New().String(),
		Topic:     topic,
		Payload:   payload,
		Metadata:  make(map[string]string),
		Timestamp: time.Now().UnixNano(),
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	writer, err := b.writerFor(topic)
	if err != nil {
		return err
	}
	return writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.ID),
		Value: data,
	})
}

func (b *KafkaBus) writerFor(topic string) (*kafka.Writer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, fmt.Errorf("bus is closed")
	}
	if w, ok := b.writers[topic]; ok {
		return w, nil
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(b.brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
	b.writers[topic] = w
	return w, nil
}

// Subscribe starts a consumer group reader for the topic.
func (b *KafkaBus) Subscribe(ctx context.Context, topic string, handler domain.MessageHandler) (domain.Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, fmt.Errorf("bus is closed")
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        b.brokers,
		GroupID:        b.groupID,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 500 * time.Millisecond,
	})

	subCtx, cancel := context.WithCancel(ctx)
	sub := &kafkaSubscription{
		id:     uuid.New().String(),
		topic:  topic,
		reader: reader,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(sub.done)
		for {
			m, err := reader.ReadMessage(subCtx)
			if err != nil {
				if subCtx.Err() != nil {
					return
				}
				slog.Error("kafka read failed",
					"topic", topic,
					"error", err,
				)
				continue
			}

			var msg domain.Message
			if err := json.Unmarshal(m.Value, &msg); err != nil {
				slog.Error("failed to unmarshal kafka message",
					"topic", topic,
					"error", err,
				)
				continue
			}
			if err := handler(subCtx, &msg); err != nil {
				slog.Error("handler error",
					"topic", topic,
					"message_id", msg.ID,
					"error", err,
				)
			}
		}
	}()

	b.subs[sub.id] = sub
	return sub, nil
}

// Ping verifies a broker connection can be established.
func (b *KafkaBus) Ping(ctx context.Context) error {
	conn, err := kafka.DialContext(ctx, "tcp", b.brokers[0])
	if err != nil {
		return fmt.Errorf("kafka dial failed: %w", err)
	}
	return conn.Close()
}

// Close shuts down all writers and readers.
func (b *KafkaBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	var firstErr error
	for _, sub := range b.subs {
		sub.cancel()
		if err := sub.reader.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	b.subs = make(map[string]*kafkaSubscription)

	for _, w := range b.writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	b.writers = make(map[string]*kafka.Writer)

	return firstErr
}

// Unsubscribe stops the consumer and closes its reader.
func (s *kafkaSubscription) Unsubscribe() error {
	s.cancel()
	err := s.reader.Close()
	<-s.done
	return err
}

// Topic returns the subscribed topic.
func (s *kafkaSubscription) Topic() string {
	return s.topic
}
