package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// Config параметры подключения к Kafka
type Config struct {
	Brokers      []string
	Topic        string
	BatchTimeout time.Duration
}

// Notifier публикует события бронирований в Kafka
// Доставка выполняется в режиме fire-and-forget: ошибки асинхронной записи
// только логируются и не влияют на бизнес-операцию
type Notifier struct {
	writer MessageWriter
	log    Logger
	now    func() time.Time
}

// NewKafkaWriter создает асинхронный kafka.Writer для топика уведомлений
func NewKafkaWriter(cfg Config, log Logger) *kafka.Writer {
	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = 50 * time.Millisecond
	}

	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           batchTimeout,
		Async:                  true,
		AllowAutoTopicCreation: true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				log.Error("Notifier: failed to deliver %d messages: %v", len(messages), err)
			}
		},
		Logger:      kafka.LoggerFunc(func(string, ...interface{}) {}),
		ErrorLogger: kafka.LoggerFunc(log.Error),
	}
}

// New создает новый экземпляр нотификатора
func New(writer MessageWriter, log Logger) *Notifier {
	return &Notifier{
		writer: writer,
		log:    log,
		now:    time.Now,
	}
}

// Publish отправляет события
// Ошибка возвращается только при невозможности сериализации или синхронной записи
func (n *Notifier) Publish(ctx context.Context, events ...Event) error {
	if len(events) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		if e.OccurredAt.IsZero() {
			e.OccurredAt = n.now().UTC()
		}

		value, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("notifier: marshal %s event: %w", e.Type, err)
		}

		msgs = append(msgs, kafka.Message{
			Key:   []byte(e.ReservationID.String()),
			Value: value,
			Headers: []kafka.Header{
				{Key: "event_type", Value: []byte(e.Type)},
			},
		})
	}

	if err := n.writer.WriteMessages(ctx, msgs...); err != nil {
		n.log.Warn("Notifier: failed to publish %d events: %v", len(msgs), err)
		return fmt.Errorf("notifier: write messages: %w", err)
	}

	return nil
}

// Close сбрасывает буфер асинхронного writer и закрывает соединения
func (n *Notifier) Close() error {
	return n.writer.Close()
}
