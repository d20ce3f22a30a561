package events

import (
	"fmt"
	"strings"

	"github.com/IBM/sarama"
)

// KafkaSink forwards events to Kafka, one topic per event type
// ("<prefix>.booking.created" and so on), keyed by event type.
type KafkaSink struct {
	producer sarama.SyncProducer
	prefix   string
}

func NewKafkaConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.ClientID = "easybuy"
	return cfg
}

// DialKafka connects a synchronous producer to brokers.
func DialKafka(brokers []string, prefix string) (*KafkaSink, error) {
	p, err := sarama.NewSyncProducer(brokers, NewKafkaConfig())
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return NewKafkaSink(p, prefix), nil
}

func NewKafkaSink(p sarama.SyncProducer, prefix string) *KafkaSink {
	return &KafkaSink{producer: p, prefix: strings.TrimSuffix(prefix, ".")}
}

func (k *KafkaSink) Topic(eventType string) string {
	if k.prefix == "" {
		return eventType
	}
	return k.prefix + "." + eventType
}

// Handle is an events.Handler.
func (k *KafkaSink) Handle(event *Event) error {
	msg := &sarama.ProducerMessage{
		Topic:     k.Topic(event.Type),
		Key:       sarama.StringEncoder(event.Type),
		Value:     sarama.ByteEncoder(event.Payload),
		Timestamp: event.CreatedAt,
	}
	if _, _, err := k.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("publish %s: %w", msg.Topic, err)
	}
	return nil
}

func (k *KafkaSink) Close() error { return k.producer.Close() }
