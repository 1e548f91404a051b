package output

import (
	"encoding/json"
	"fmt"
	"time"

	"sentinel/internal/finding"

	"github.com/IBM/sarama"
	"github.com/sirupsen/logrus"
)

// KafkaPublisher delivers findings through a synchronous Kafka producer.
// Findings are the engine's only product, so delivery must be confirmed:
// a dropped message surfaces as an error instead of vanishing in an async
// success channel.
type KafkaPublisher struct {
	logger   *logrus.Logger
	topic    string
	producer sarama.SyncProducer
}

// NewKafkaPublisher connects a sync producer to the given brokers.
func NewKafkaPublisher(brokers []string, topic string, logger *logrus.Logger) (*KafkaPublisher, error) {
	logger.Infof("initializing kafka publisher, brokers: %v, topic: %s", brokers, topic)

	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Timeout = 5 * time.Second
	config.Version = sarama.V2_8_0_0

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	return &KafkaPublisher{
		logger:   logger,
		topic:    topic,
		producer: producer,
	}, nil
}

// Publish sends one finding, keyed by alert id so consumers can partition
// by detector.
func (k *KafkaPublisher) Publish(f *finding.Finding) error {
	if f == nil {
		return nil
	}

	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("serialize finding: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(f.AlertID),
		Value: sarama.StringEncoder(data),
	}

	partition, offset, err := k.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("send finding to kafka: %w", err)
	}

	k.logger.WithFields(logrus.Fields{
		"topic":     k.topic,
		"partition": partition,
		"offset":    offset,
		"alert_id":  f.AlertID,
	}).Info("finding published to kafka")

	return nil
}

// Close shuts down the producer.
func (k *KafkaPublisher) Close() error {
	if k.producer != nil {
		return k.producer.Close()
	}
	return nil
}
