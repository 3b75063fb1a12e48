package config

import (
	"github.com/segmentio/kafka-go"
)

func getKafkaBrokerURLs() []string {
	return getList("KAFKA_BROKERS", "localhost:9092,localhost:9093,localhost:9094")
}

// NewKafkaWriter publishes order events. Messages with the same key land on
// the same partition, so one order's events stay in order.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
}

func NewKafkaReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		GroupID:  groupID,
		Topic:    topic,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})
}
