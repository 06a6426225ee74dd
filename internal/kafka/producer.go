package kafka

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bus-pricing/internal/config"
	"bus-pricing/internal/logger"
	"bus-pricing/internal/models"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
)

// Producer публикует доменные события в Kafka
type Producer struct {
	producer sarama.SyncProducer
	log      *logger.Logger
	topics   config.Topics
}

// NewProducer создает синхронного продюсера
func NewProducer(cfg *config.KafkaConfig, log *logger.Logger) (*Producer, error) {
	saramaCfg := sarama.NewConfig()
	saramaCfg.Producer.RequiredAcks = sarama.WaitForAll
	saramaCfg.Producer.Retry.Max = 3
	saramaCfg.Producer.Return.Successes = true
	saramaCfg.Net.DialTimeout = 5 * time.Second

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	log.WithField("brokers", cfg.Brokers).Info("Kafka producer created")

	return &Producer{
		producer: producer,
		log:      log,
		topics:   cfg.Topics,
	}, nil
}

// PublishTerminalCreated публикует событие регистрации терминала
func (p *Producer) PublishTerminalCreated(terminal *models.Terminal) error {
	event := newEvent(models.EventTypeTerminalCreated, map[string]interface{}{
		"terminal_name": terminal.TerminalName,
		"base_price":    terminal.BasePrice.StringFixed(2),
	})
	return p.publishEvent(p.topics.Terminals, terminal.TerminalName, event)
}

// PublishPriceDrafted публикует итог расчёта предварительной цены
func (p *Producer) PublishPriceDrafted(route string, response *models.DraftPriceResponse) error {
	event := newEvent(models.EventTypePriceDrafted, map[string]interface{}{
		"route":       route,
		"items":       len(response.Items),
		"total_price": response.TotalPrice.StringFixed(2),
	})
	return p.publishEvent(p.topics.Pricing, route, event)
}

func newEvent(eventType models.EventType, data map[string]interface{}) models.Event {
	return models.Event{
		ID:        uuid.New(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

func (p *Producer) publishEvent(topic, key string, event models.Event) error {
	if p == nil || p.producer == nil {
		return errors.New("kafka producer is not initialized")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Value: sarama.ByteEncoder(payload),
	}
	if key != "" {
		msg.Key = sarama.StringEncoder(key)
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to send event %s: %w", event.Type, err)
	}

	p.log.WithFields(map[string]interface{}{
		"event_id":   event.ID,
		"event_type": event.Type,
		"topic":      topic,
		"partition":  partition,
		"offset":     offset,
	}).Debug("Event published")

	return nil
}

// Close закрывает продюсера
func (p *Producer) Close() error {
	if p == nil || p.producer == nil {
		return nil
	}
	return p.producer.Close()
}
