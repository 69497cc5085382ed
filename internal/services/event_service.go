package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/DIMO-Network/shared"
	"github.com/Shopify/sarama"
	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"

	"github.com/marq24/ebike-flow-api/internal/config"
	"github.com/marq24/ebike-flow-api/internal/constants"
)

//go:generate mockgen -source event_service.go -destination mocks/event_service_mock.go -package mock_services

type CloudEventAlias = shared.CloudEvent[any]

type EventService interface {
	Emit(event *CloudEventAlias) error
}

type eventService struct {
	Settings *config.Settings
	Logger   *zerolog.Logger
	Producer sarama.SyncProducer
}

// NewEventService returns a Kafka-backed emitter, or a logging no-op when no
// producer is configured.
func NewEventService(logger *zerolog.Logger, settings *config.Settings, producer sarama.SyncProducer) EventService {
	if producer == nil {
		return &noopEventService{Logger: logger}
	}
	return &eventService{
		Settings: settings,
		Logger:   logger,
		Producer: producer,
	}
}

func (e *eventService) Emit(event *CloudEventAlias) error {
	msgBytes, err := json.Marshal(shared.CloudEvent[any]{
		ID:          ksuid.New().String(),
		Source:      event.Source,
		SpecVersion: "1.0",
		Subject:     event.Subject,
		Time:        time.Now(),
		Type:        event.Type,
		Data:        event.Data,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal CloudEvent: %w", err)
	}
	msg := &sarama.ProducerMessage{
		Topic: e.topicFor(event.Type),
		Key:   sarama.StringEncoder(event.Subject),
		Value: sarama.ByteEncoder(msgBytes),
	}
	_, _, err = e.Producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to produce CloudEvent to Kafka: %w", err)
	}
	return nil
}

// topicFor routes per-tick snapshots to the high-volume telemetry topic and
// everything else to the events topic.
func (e *eventService) topicFor(eventType string) string {
	if eventType == constants.TelemetrySnapshotEventType {
		return e.Settings.TelemetryTopic
	}
	return e.Settings.EventsTopic
}

type noopEventService struct {
	Logger *zerolog.Logger
}

func (e *noopEventService) Emit(event *CloudEventAlias) error {
	e.Logger.Debug().Str("type", event.Type).Str("subject", event.Subject).Msg("Kafka disabled, dropping event.")
	return nil
}

// TelemetrySnapshotEvent is the payload published on every successful poll.
type TelemetrySnapshotEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	Bike      *BikeSnapshot `json:"bike"`
}

// ActivityProcessedEvent is published once per reconciled activity.
type ActivityProcessedEvent struct {
	Timestamp  time.Time  `json:"timestamp"`
	BikeID     string     `json:"bikeId"`
	ActivityID string     `json:"activityId"`
	StartTime  time.Time  `json:"startTime"`
	Distance   float64    `json:"distance"`
	RidingTime float64    `json:"ridingTime"`
	Calories   float64    `json:"calories"`
	Stats      UsageStats `json:"stats"`
}
